package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"media-ingest/constant"
	"media-ingest/dto"
	"media-ingest/entities"
	"media-ingest/pkg/apperr"
	"media-ingest/repository"
)

type MediaService struct {
	repo   repository.MediaRepository
	guard  *Guard
	events EventPublisher
}

func NewMediaService(repo repository.MediaRepository, guard *Guard, events EventPublisher) *MediaService {
	return &MediaService{repo: repo, guard: guard, events: events}
}

func (s *MediaService) Get(ctx context.Context, id string) (*entities.Media, error) {
	mediaID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.NotFound("Media not found")
	}
	return s.repo.GetByID(ctx, mediaID)
}

func (s *MediaService) ListAll(ctx context.Context) ([]*entities.Media, error) {
	return s.repo.ListAll(ctx)
}

func (s *MediaService) ListByProject(ctx context.Context, project string) ([]*entities.Media, error) {
	return s.repo.ListByProject(ctx, project)
}

// Delete removes the record and its blobs, then frees the checksum so the same
// content can be uploaded again.
func (s *MediaService) Delete(ctx context.Context, id string) error {
	mediaID, err := uuid.Parse(id)
	if err != nil {
		return apperr.NotFound("Media not found")
	}
	media, err := s.repo.Delete(ctx, mediaID)
	if err != nil {
		return err
	}

	s.guard.Forget(ctx, media.Checksum)
	if err := s.events.Publish(ctx, constant.RoutingKeyMediaDeleted, dto.NewMediaEvent(media)); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to publish delete event")
	}
	zerolog.Ctx(ctx).Info().Str("media_id", id).Str("project", media.Project).Msg("media deleted")
	return nil
}
