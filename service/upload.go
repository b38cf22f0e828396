package service

import (
	"bytes"
	"io"
)

// Upload is one submitted file as declared by the client. Open may be called
// more than once.
type Upload struct {
	Name     string
	MimeType string
	Size     int64
	Open     func() (io.ReadCloser, error)
}

func NewUpload(name, mimeType string, data []byte) *Upload {
	return &Upload{
		Name:     name,
		MimeType: mimeType,
		Size:     int64(len(data)),
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}
