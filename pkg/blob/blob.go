// Package blob stores raw media bytes under project-scoped, collision-free keys.
// It is the only place that turns keys into filesystem paths or object names.
package blob

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotExist       = errors.New("blob does not exist")
	ErrInvalidKey     = errors.New("invalid storage key")
	ErrInvalidProject = errors.New("invalid project name")
)

const DefaultPublicPrefix = "/uploads"

type Store interface {
	// Put writes data under a new unique key derived from project and
	// suggestedName and returns that key.
	Put(ctx context.Context, project, suggestedName string, data []byte, contentType string) (string, error)
	Get(ctx context.Context, key string) ([]byte, error)
	// Delete removes the blob at key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error
	// List returns every object under project, or under all projects when
	// project is empty, sorted by key.
	List(ctx context.Context, project string) ([]Object, error)
}

type Object struct {
	Key     string
	Size    int64
	ModTime time.Time
}
