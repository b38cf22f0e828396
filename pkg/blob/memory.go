package blob

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore keeps blobs in process memory. It backs the "memory" storage
// backend for local runs and the test suites.
type MemoryStore struct {
	mu    sync.RWMutex
	keys  keyspace
	blobs map[string]memBlob
}

type memBlob struct {
	data    []byte
	modTime time.Time
}

func NewMemoryStore(publicPrefix string) *MemoryStore {
	return &MemoryStore{keys: newKeyspace(publicPrefix), blobs: make(map[string]memBlob)}
}

func (s *MemoryStore) Put(ctx context.Context, project, suggestedName string, data []byte, contentType string) (string, error) {
	key, _, err := s.keys.next(project, suggestedName)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[key]; ok {
		return "", fmt.Errorf("blob %s already exists", key)
	}
	s.blobs[key] = memBlob{data: append([]byte(nil), data...), modTime: time.Now()}
	return key, nil
}

func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	if _, err := s.keys.rel(key); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blobs[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotExist, key)
	}
	return append([]byte(nil), b.data...), nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	if _, err := s.keys.rel(key); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.blobs, key)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) List(ctx context.Context, project string) ([]Object, error) {
	prefix, err := s.keys.projectPrefix(project)
	if err != nil {
		return nil, err
	}
	full := s.keys.key(prefix)
	s.mu.RLock()
	defer s.mu.RUnlock()
	objects := make([]Object, 0, len(s.blobs))
	for k, b := range s.blobs {
		if strings.HasPrefix(k, full) {
			objects = append(objects, Object{Key: k, Size: int64(len(b.data)), ModTime: b.modTime})
		}
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	return objects, nil
}

// Len returns the number of stored blobs.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}
