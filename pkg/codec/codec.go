// Package codec adapts the image and video tooling the ingest pipeline depends on.
// Everything in here is a thin wrapper: the algorithms live in the imported
// libraries and in the ffmpeg binary.
package codec

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"
)

var (
	ErrTimeout = errors.New("codec call timed out")
	ErrNoFrame = errors.New("no frame extracted")
)

type ImageCodec interface {
	// TranscodeImage re-encodes data as webp at quality (0-100).
	TranscodeImage(ctx context.Context, data []byte, quality int) ([]byte, error)
	// DerivePlaceholder returns a tiny webp rendition as a data URI.
	DerivePlaceholder(ctx context.Context, data []byte) (string, error)
	// DerivePerceptualHash returns the base64 thumbhash of data.
	DerivePerceptualHash(ctx context.Context, data []byte) (string, error)
}

type VideoCodec interface {
	// ExtractPosterFrame returns a single webp frame of the video at path.
	ExtractPosterFrame(ctx context.Context, path string, offset time.Duration) ([]byte, error)
}

// Bounded runs fn with a deadline of timeout. A zero timeout only inherits the
// parent deadline. Deadline expiry is reported as ErrTimeout.
func Bounded[T any](ctx context.Context, timeout time.Duration, fn func(ctx context.Context) (T, error)) (T, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	type result struct {
		val T
		err error
	}
	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("codec panic: %v", r)}
			}
		}()
		v, err := fn(ctx)
		done <- result{v, err}
	}()

	select {
	case r := <-done:
		if r.err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			var zero T
			return zero, fmt.Errorf("%w after %s: %w", ErrTimeout, timeout, r.err)
		}
		return r.val, r.err
	case <-ctx.Done():
		var zero T
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return zero, fmt.Errorf("%w after %s", ErrTimeout, timeout)
		}
		return zero, ctx.Err()
	}
}

// SpoolTemp writes data to a temp file with extension ext and returns its path
// together with a cleanup func that removes it.
func SpoolTemp(data []byte, ext string) (string, func(), error) {
	f, err := os.CreateTemp("", "media-*"+ext)
	if err != nil {
		return "", nil, fmt.Errorf("create temp file: %w", err)
	}
	cleanup := func() { _ = os.Remove(f.Name()) }

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		cleanup()
		return "", nil, fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("close temp file: %w", err)
	}
	return f.Name(), cleanup, nil
}
