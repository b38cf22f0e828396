package entities

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"media-ingest/constant"
	"time"
)

type Media struct {
	ID             uuid.UUID          `json:"id" gorm:"type:uuid;primaryKey"`
	Type           constant.MediaType `json:"type" gorm:"type:varchar(10);not null"`
	Project        string             `json:"project" gorm:"type:varchar(100);not null;index:idx_media_project"`
	Name           string             `json:"name" gorm:"not null"`
	URL            string             `json:"url" gorm:"not null"`
	MimeType       string             `json:"mimeType" gorm:"type:varchar(100);not null"`
	Checksum       string             `json:"checksum" gorm:"type:char(64);not null;uniqueIndex:uq_media_checksum"`
	Thumbhash      string             `json:"thumbhash" gorm:"type:varchar(64)"`
	BlurDataURL    string             `json:"blurDataUrl" gorm:"type:text"`
	VideoThumbnail *string            `json:"videoThumbnail,omitempty"`
	CreatedAt      time.Time          `json:"createdAt" gorm:"index:idx_media_created_at"`
}

func (Media) TableName() string {
	return "media"
}

func (m *Media) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// StorageKeys returns every blob key the record references.
func (m *Media) StorageKeys() []string {
	keys := []string{m.URL}
	if m.VideoThumbnail != nil && *m.VideoThumbnail != "" {
		keys = append(keys, *m.VideoThumbnail)
	}
	return keys
}
