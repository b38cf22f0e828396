package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"media-ingest/entities"
	"media-ingest/pkg/apperr"
)

const genericFailure = "Upload failed"

type BatchItem struct {
	Name  string
	Media *entities.Media
	Error string
}

type BatchResult struct {
	Count int
	Items []BatchItem
}

// IngestAll ingests every upload as an image at batch quality. Items are
// processed by a fixed pool of workers; one item failing never affects the
// others, and Items keeps the input order.
func (s *Ingestor) IngestAll(ctx context.Context, project string, uploads []*Upload) BatchResult {
	items := make([]BatchItem, len(uploads))
	numWorkers := min(max(s.opts.Workers, 1), len(uploads))

	jobs := make(chan int, numWorkers)
	var wg sync.WaitGroup
	for i := 1; i <= numWorkers; i++ {
		wg.Add(1)
		go func(workerId int) {
			defer wg.Done()
			ctx := zerolog.Ctx(ctx).With().Int("worker_id", workerId).Logger().WithContext(ctx)
			for idx := range jobs {
				items[idx] = s.batchItem(ctx, project, uploads[idx])
			}
		}(i)
	}

	for idx := range uploads {
		jobs <- idx
	}
	close(jobs)
	wg.Wait()

	return BatchResult{Count: len(uploads), Items: items}
}

func (s *Ingestor) batchItem(ctx context.Context, project string, up *Upload) (item BatchItem) {
	if up != nil {
		item.Name = up.Name
	}
	defer func() {
		if r := recover(); r != nil {
			zerolog.Ctx(ctx).Error().Str("file", item.Name).Interface("panic", r).Msg("batch item panicked")
			item.Media = nil
			item.Error = genericFailure
		}
	}()

	media, err := s.ingestImage(ctx, project, up, s.opts.BatchQuality)
	if err != nil {
		item.Error = failureReason(err)
		return item
	}
	item.Media = media
	return item
}

func failureReason(err error) string {
	if apperr.IsClientError(err) {
		if reason := apperr.Reason(err); reason != "" {
			return reason
		}
		return fmt.Sprint(err)
	}
	return genericFailure
}
