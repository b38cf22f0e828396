package dto

import (
	"github.com/google/uuid"
	"media-ingest/constant"
	"media-ingest/entities"
	"time"
)

// MediaEvent is published on the events exchange after a record is created or deleted.
type MediaEvent struct {
	MediaID    uuid.UUID          `json:"mediaId"`
	Type       constant.MediaType `json:"type"`
	Project    string             `json:"project"`
	Checksum   string             `json:"checksum"`
	URL        string             `json:"url"`
	OccurredAt time.Time          `json:"occurredAt"`
}

func NewMediaEvent(m *entities.Media) MediaEvent {
	return MediaEvent{
		MediaID:    m.ID,
		Type:       m.Type,
		Project:    m.Project,
		Checksum:   m.Checksum,
		URL:        m.URL,
		OccurredAt: time.Now().UTC(),
	}
}

type UploadedImage struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	Thumbhash   string `json:"thumbhash"`
	BlurDataURL string `json:"blurDataUrl"`
}

type UploadedVideo struct {
	Name           string `json:"name"`
	URL            string `json:"url"`
	VideoThumbnail string `json:"videoThumbnail"`
	Thumbhash      string `json:"thumbhash"`
	BlurDataURL    string `json:"blurDataUrl"`
}

// BatchEntry is either an uploaded image or a {name, error} pair.
type BatchEntry struct {
	Name        string `json:"name"`
	URL         string `json:"url,omitempty"`
	Thumbhash   string `json:"thumbhash,omitempty"`
	BlurDataURL string `json:"blurDataUrl,omitempty"`
	Error       string `json:"error,omitempty"`
}

type UploadResponse[T any] struct {
	Message string `json:"message"`
	Success bool   `json:"success"`
	Data    T      `json:"data"`
}

type BatchUploadResponse struct {
	Message string       `json:"message"`
	Success bool         `json:"success"`
	Count   int          `json:"count"`
	Data    []BatchEntry `json:"data"`
}

type MediaResponse struct {
	Media *entities.Media `json:"media"`
}

type MediaListResponse struct {
	Media []*entities.Media `json:"media"`
}

type MessageResponse struct {
	Message string `json:"message"`
	Success bool   `json:"success"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
