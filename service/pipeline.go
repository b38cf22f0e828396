package service

import (
	"context"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"media-ingest/constant"
	"media-ingest/pkg/apperr"
	"media-ingest/pkg/blob"
	"media-ingest/pkg/codec"
)

// Pipeline produces the canonical asset and the derived previews of a job.
type Pipeline struct {
	store        blob.Store
	images       codec.ImageCodec
	videos       codec.VideoCodec
	timeout      time.Duration
	posterOffset time.Duration
}

func NewPipeline(store blob.Store, images codec.ImageCodec, videos codec.VideoCodec, opts Options) *Pipeline {
	return &Pipeline{
		store:        store,
		images:       images,
		videos:       videos,
		timeout:      opts.CodecTimeout,
		posterOffset: opts.PosterOffset,
	}
}

// StoreCanonical writes the asset the record URL points at: a webp rendition
// for images, the original bytes for videos.
func (p *Pipeline) StoreCanonical(ctx context.Context, job *Job) error {
	switch job.Type {
	case constant.MediaTypeImage:
		webp, err := codec.Bounded(ctx, p.timeout, func(ctx context.Context) ([]byte, error) {
			return p.images.TranscodeImage(ctx, job.Data, job.Quality)
		})
		if err != nil {
			return apperr.Codec("failed to transcode image", err)
		}
		key, err := p.put(ctx, job, job.Upload.Name+".webp", webp, "image/webp")
		if err != nil {
			return err
		}
		job.URL = key
		job.MimeType = "image/webp"
	case constant.MediaTypeVideo:
		key, err := p.put(ctx, job, videoName(job.Upload.Name, job.MimeType), job.Data, job.MimeType)
		if err != nil {
			return err
		}
		job.URL = key
	default:
		return apperr.Validation("Unsupported media type")
	}
	return nil
}

// Derive fills in the placeholder and perceptual hash. For videos it first
// extracts and stores the poster frame, and derives previews from that frame.
func (p *Pipeline) Derive(ctx context.Context, job *Job) error {
	source := job.Data
	if job.Type == constant.MediaTypeVideo {
		frame, err := p.posterFrame(ctx, job)
		if err != nil {
			return err
		}
		key, err := p.put(ctx, job, job.Upload.Name+"-poster.webp", frame, "image/webp")
		if err != nil {
			return err
		}
		job.PosterKey = key
		source = frame
	}

	placeholder, err := codec.Bounded(ctx, p.timeout, func(ctx context.Context) (string, error) {
		return p.images.DerivePlaceholder(ctx, source)
	})
	if err != nil {
		return apperr.Codec("failed to generate placeholder", err)
	}
	hash, err := codec.Bounded(ctx, p.timeout, func(ctx context.Context) (string, error) {
		return p.images.DerivePerceptualHash(ctx, source)
	})
	if err != nil {
		return apperr.Codec("failed to generate thumbhash", err)
	}

	job.Placeholder = placeholder
	job.Thumbhash = hash
	return nil
}

func (p *Pipeline) posterFrame(ctx context.Context, job *Job) ([]byte, error) {
	tmp, cleanup, err := codec.SpoolTemp(job.Data, path.Ext(videoName(job.Upload.Name, job.MimeType)))
	if err != nil {
		return nil, apperr.Storage("failed to spool video", err)
	}
	defer cleanup()

	frame, err := codec.Bounded(ctx, p.timeout, func(ctx context.Context) ([]byte, error) {
		return p.videos.ExtractPosterFrame(ctx, tmp, p.posterOffset)
	})
	if err != nil {
		return nil, apperr.Codec("failed to extract poster frame", err)
	}
	return frame, nil
}

func (p *Pipeline) put(ctx context.Context, job *Job, name string, data []byte, contentType string) (string, error) {
	key, err := p.store.Put(ctx, job.Project, name, data, contentType)
	if err != nil {
		return "", apperr.Storage("failed to store file", err)
	}
	job.Written = append(job.Written, key)
	zerolog.Ctx(ctx).Debug().Str("key", key).Str("checksum", job.Checksum).Msg("stored blob")
	return key, nil
}

// videoName keeps the client's file name and appends an extension derived
// from the declared type when the name has none.
func videoName(name, mimeType string) string {
	if path.Ext(name) != "" {
		return name
	}
	if m := mimetype.Lookup(mimeType); m != nil && m.Extension() != "" {
		return name + m.Extension()
	}
	return name + ".bin"
}

func baseMime(mimeType string) string {
	t, _, _ := strings.Cut(mimeType, ";")
	return strings.ToLower(strings.TrimSpace(t))
}
