package server

import (
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"media-ingest/config"
	"media-ingest/service"
)

// RunMigrate creates or updates the media table.
func RunMigrate(cfg *config.Config) error {
	ctx := setupLogger(cfg)
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	if err := a.repo.Migrate(ctx); err != nil {
		return err
	}
	zerolog.Ctx(ctx).Info().Msg("migration complete")
	return nil
}

// RunSweep reports blobs no record references and removes them when remove is set.
func RunSweep(cfg *config.Config, project string, remove bool, grace time.Duration) error {
	ctx := setupLogger(cfg)
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	report, err := service.NewSweeper(a.repo, a.store, grace).Sweep(ctx, project, remove)
	if err != nil {
		return err
	}

	var orphanBytes uint64
	for _, obj := range report.Orphans {
		orphanBytes += uint64(obj.Size)
		zerolog.Ctx(ctx).Info().
			Str("key", obj.Key).
			Str("size", humanize.IBytes(uint64(obj.Size))).
			Str("age", humanize.Time(obj.ModTime)).
			Msg("orphan")
	}
	zerolog.Ctx(ctx).Info().
		Str("project", project).
		Int("scanned", report.Scanned).
		Int("orphans", len(report.Orphans)).
		Str("orphan_size", humanize.IBytes(orphanBytes)).
		Int("removed", report.Removed).
		Int("failed", report.Failed).
		Msg("sweep complete")
	return nil
}

