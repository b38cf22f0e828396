package service

import (
	"media-ingest/constant"
	"media-ingest/entities"
)

// Job carries one upload through the ingest stages.
type Job struct {
	Type    constant.MediaType
	Project string
	Upload  *Upload
	Quality int
	Limit   int64
	State   constant.IngestState

	Data     []byte
	Checksum string

	URL         string
	MimeType    string
	PosterKey   string
	Placeholder string
	Thumbhash   string

	// Written lists every blob key stored for this job so far.
	Written []string
	Media   *entities.Media
}

func (j *Job) name() string {
	if j.Upload == nil {
		return ""
	}
	return j.Upload.Name
}
