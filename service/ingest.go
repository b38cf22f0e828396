package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"media-ingest/constant"
	"media-ingest/dto"
	"media-ingest/entities"
	"media-ingest/pkg/apperr"
	"media-ingest/pkg/blob"
	"media-ingest/pkg/checksum"
	"media-ingest/repository"
)

type stage struct {
	name string
	done constant.IngestState
	run  func(ctx context.Context, job *Job) error
}

// Ingestor runs uploads through validation, hashing, duplicate detection,
// storage, derivation and persistence, in that order.
type Ingestor struct {
	repo     repository.MediaRepository
	store    blob.Store
	guard    *Guard
	pipeline *Pipeline
	events   EventPublisher
	opts     Options
	stages   []stage
}

func NewIngestor(repo repository.MediaRepository, store blob.Store, guard *Guard, pipeline *Pipeline, events EventPublisher, opts Options) *Ingestor {
	s := &Ingestor{
		repo:     repo,
		store:    store,
		guard:    guard,
		pipeline: pipeline,
		events:   events,
		opts:     opts,
	}
	s.stages = []stage{
		{"validate", constant.IngestStateValidated, s.validate},
		{"hash", constant.IngestStateHashed, s.hash},
		{"dedup", constant.IngestStateDedupChecked, s.checkDuplicate},
		{"store", constant.IngestStateStored, s.pipeline.StoreCanonical},
		{"derive", constant.IngestStateDerived, s.pipeline.Derive},
		{"persist", constant.IngestStatePersisted, s.persist},
	}
	return s
}

func (s *Ingestor) IngestImage(ctx context.Context, project string, up *Upload) (*entities.Media, error) {
	return s.ingestImage(ctx, project, up, s.opts.SingleQuality)
}

func (s *Ingestor) IngestVideo(ctx context.Context, project string, up *Upload) (*entities.Media, error) {
	job := &Job{
		Type:    constant.MediaTypeVideo,
		Project: project,
		Upload:  up,
		Limit:   s.opts.Limits.VideoMaxBytes,
	}
	return s.ingest(ctx, job)
}

func (s *Ingestor) ingestImage(ctx context.Context, project string, up *Upload, quality int) (*entities.Media, error) {
	job := &Job{
		Type:    constant.MediaTypeImage,
		Project: project,
		Upload:  up,
		Quality: quality,
		Limit:   s.opts.Limits.ImageMaxBytes,
	}
	return s.ingest(ctx, job)
}

func (s *Ingestor) ingest(ctx context.Context, job *Job) (*entities.Media, error) {
	job.State = constant.IngestStateReceived
	log := zerolog.Ctx(ctx).With().
		Str("type", job.Type.String()).
		Str("project", job.Project).
		Str("file", job.name()).
		Logger()
	ctx = log.WithContext(ctx)

	for _, st := range s.stages {
		if err := st.run(ctx, job); err != nil {
			from := job.State
			job.State = constant.IngestStateFailed
			level := zerolog.ErrorLevel
			if apperr.IsClientError(err) {
				level = zerolog.WarnLevel
			}
			log.WithLevel(level).Err(err).Str("stage", st.name).Str("from", string(from)).Msg("ingest failed")
			s.compensate(ctx, job)
			return nil, err
		}
		job.State = st.done
	}

	s.guard.Remember(ctx, job.Checksum)
	if err := s.events.Publish(ctx, constant.RoutingKeyMediaIngested, dto.NewMediaEvent(job.Media)); err != nil {
		log.Warn().Err(err).Msg("failed to publish ingest event")
	}
	log.Info().Str("media_id", job.Media.ID.String()).Str("checksum", job.Checksum).Msg("media ingested")
	return job.Media, nil
}

func (s *Ingestor) validate(ctx context.Context, job *Job) error {
	up := job.Upload
	if up == nil || up.Open == nil {
		return apperr.Validation("No file uploaded")
	}

	job.MimeType = baseMime(up.MimeType)
	switch job.Type {
	case constant.MediaTypeImage:
		if !strings.HasPrefix(job.MimeType, "image/") {
			return apperr.Validation("Only images allowed")
		}
	case constant.MediaTypeVideo:
		if !strings.HasPrefix(job.MimeType, "video/") {
			return apperr.Validation("Only videos allowed")
		}
	}

	if job.Project == "" {
		return apperr.Validation("Project name is required")
	}
	if !blob.ValidProject(job.Project) {
		return apperr.Validation("Invalid project name")
	}

	if up.Size > job.Limit {
		return s.tooLarge(job)
	}
	return nil
}

// hash reads the upload, enforcing the size limit against the actual bytes
// rather than the declared size.
func (s *Ingestor) hash(ctx context.Context, job *Job) error {
	rc, err := job.Upload.Open()
	if err != nil {
		return apperr.Storage("failed to open upload", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, job.Limit+1))
	if err != nil {
		return apperr.Storage("failed to read upload", err)
	}
	if int64(len(data)) > job.Limit {
		return s.tooLarge(job)
	}
	if len(data) == 0 {
		return apperr.Validation("No file uploaded")
	}

	job.Data = data
	job.Checksum = checksum.Sum(data)
	return nil
}

func (s *Ingestor) checkDuplicate(ctx context.Context, job *Job) error {
	exists, err := s.guard.Exists(ctx, job.Checksum)
	if err != nil {
		return err
	}
	if exists {
		return apperr.DuplicateContent("File already exists")
	}
	return nil
}

func (s *Ingestor) persist(ctx context.Context, job *Job) error {
	media := &entities.Media{
		Type:        job.Type,
		Project:     job.Project,
		Name:        job.Upload.Name,
		URL:         job.URL,
		MimeType:    job.MimeType,
		Checksum:    job.Checksum,
		Thumbhash:   job.Thumbhash,
		BlurDataURL: job.Placeholder,
	}
	if job.PosterKey != "" {
		poster := job.PosterKey
		media.VideoThumbnail = &poster
	}
	if err := s.repo.Create(ctx, media); err != nil {
		return err
	}
	job.Media = media
	return nil
}

// compensate removes the blobs a failed job already wrote. Anything left
// behind is reported by the sweeper.
func (s *Ingestor) compensate(ctx context.Context, job *Job) {
	ctx = context.WithoutCancel(ctx)
	for _, key := range job.Written {
		if err := s.store.Delete(ctx, key); err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Str("key", key).Msg("failed to remove blob of failed ingest")
		}
	}
	job.Written = nil
}

func (s *Ingestor) tooLarge(job *Job) error {
	return apperr.Validation(fmt.Sprintf("File too large (max %s)", humanize.IBytes(uint64(job.Limit))))
}
