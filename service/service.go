package service

import (
	"context"
	"time"

	"media-ingest/config"
)

// EventPublisher delivers domain events. Publishing is best-effort: failures
// are logged and never fail the operation that produced the event.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, body any) error
}

type Limits struct {
	ImageMaxBytes int64
	VideoMaxBytes int64
}

type Options struct {
	Limits        Limits
	SingleQuality int
	BatchQuality  int
	PosterOffset  time.Duration
	CodecTimeout  time.Duration
	Workers       int
}

func DefaultOptions() Options {
	return Options{
		Limits:        Limits{ImageMaxBytes: 1 << 20, VideoMaxBytes: 10 << 20},
		SingleQuality: 90,
		BatchQuality:  85,
		PosterOffset:  time.Second,
		CodecTimeout:  30 * time.Second,
		Workers:       4,
	}
}

func OptionsFromConfig(cfg *config.Config) Options {
	opts := DefaultOptions()
	m := cfg.Media
	if m.ImageMaxBytes > 0 {
		opts.Limits.ImageMaxBytes = m.ImageMaxBytes
	}
	if m.VideoMaxBytes > 0 {
		opts.Limits.VideoMaxBytes = m.VideoMaxBytes
	}
	if m.SingleQuality > 0 {
		opts.SingleQuality = m.SingleQuality
	}
	if m.BatchQuality > 0 {
		opts.BatchQuality = m.BatchQuality
	}
	if m.PosterOffset > 0 {
		opts.PosterOffset = m.PosterOffset
	}
	if m.CodecTimeout > 0 {
		opts.CodecTimeout = m.CodecTimeout
	}
	if cfg.Server.Workers > 0 {
		opts.Workers = cfg.Server.Workers
	}
	return opts
}
