package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"media-ingest/pkg/blob"
	"media-ingest/repository"
)

// DefaultSweepGrace keeps the sweeper away from blobs of uploads that are
// still being processed.
const DefaultSweepGrace = time.Hour

type SweepReport struct {
	Scanned int
	Orphans []blob.Object
	Removed int
	Failed  int
}

// Sweeper finds blobs that no media record references.
type Sweeper struct {
	repo  repository.MediaRepository
	store blob.Store
	grace time.Duration
	now   func() time.Time
}

func NewSweeper(repo repository.MediaRepository, store blob.Store, grace time.Duration) *Sweeper {
	return &Sweeper{repo: repo, store: store, grace: grace, now: time.Now}
}

// Sweep lists orphans under project (all projects when empty). With remove set
// they are deleted as well.
func (s *Sweeper) Sweep(ctx context.Context, project string, remove bool) (SweepReport, error) {
	var report SweepReport

	objects, err := s.store.List(ctx, project)
	if err != nil {
		return report, err
	}
	keys, err := s.repo.ListStorageKeys(ctx, project)
	if err != nil {
		return report, err
	}
	referenced := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		referenced[k] = struct{}{}
	}

	cutoff := s.now().Add(-s.grace)
	report.Scanned = len(objects)
	for _, obj := range objects {
		if _, ok := referenced[obj.Key]; ok || obj.ModTime.After(cutoff) {
			continue
		}
		report.Orphans = append(report.Orphans, obj)
	}

	if !remove {
		return report, nil
	}
	for _, obj := range report.Orphans {
		if err := s.store.Delete(ctx, obj.Key); err != nil {
			report.Failed++
			zerolog.Ctx(ctx).Error().Err(err).Str("key", obj.Key).Msg("failed to remove orphan")
			continue
		}
		report.Removed++
	}
	return report, nil
}
