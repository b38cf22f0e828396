// Package mediatest provides databases, fixtures and codec doubles for tests.
package mediatest

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"media-ingest/entities"
)

// NewDB opens a private in-memory sqlite database with the media schema applied.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_pragma=busy_timeout(5000)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&entities.Media{}))
	return db
}

// PNG renders a w×h gradient. Different seeds give different bytes.
func PNG(t testing.TB, w, h int, seed uint8) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, gradient(w, h, seed)))
	return buf.Bytes()
}

func JPEG(t testing.TB, w, h int, seed uint8) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, gradient(w, h, seed), &jpeg.Options{Quality: 90}))
	return buf.Bytes()
}

func gradient(w, h int, seed uint8) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x) + seed, G: uint8(y) ^ seed, B: uint8(x*y) + seed, A: 255})
		}
	}
	return img
}

// ImageCodec is a deterministic stand-in for codec.ImageCodec.
type ImageCodec struct {
	TranscodeErr   error
	PlaceholderErr error
	HashErr        error
	Delay          time.Duration
}

func (c *ImageCodec) TranscodeImage(ctx context.Context, data []byte, quality int) ([]byte, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	if c.TranscodeErr != nil {
		return nil, c.TranscodeErr
	}
	return append([]byte("RIFFwebp"), data...), nil
}

func (c *ImageCodec) DerivePlaceholder(ctx context.Context, data []byte) (string, error) {
	if c.PlaceholderErr != nil {
		return "", c.PlaceholderErr
	}
	n := min(len(data), 8)
	return "data:image/webp;base64," + base64.StdEncoding.EncodeToString(data[:n]), nil
}

func (c *ImageCodec) DerivePerceptualHash(ctx context.Context, data []byte) (string, error) {
	if c.HashErr != nil {
		return "", c.HashErr
	}
	n := min(len(data), 12)
	return base64.StdEncoding.EncodeToString(data[len(data)-n:]), nil
}

func (c *ImageCodec) wait(ctx context.Context) error {
	if c.Delay == 0 {
		return nil
	}
	select {
	case <-time.After(c.Delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// VideoCodec returns Frame for every call and records the requested offsets.
type VideoCodec struct {
	Frame []byte
	Err   error

	mu      sync.Mutex
	offsets []time.Duration
}

func (c *VideoCodec) ExtractPosterFrame(ctx context.Context, path string, offset time.Duration) ([]byte, error) {
	c.mu.Lock()
	c.offsets = append(c.offsets, offset)
	c.mu.Unlock()
	if c.Err != nil {
		return nil, c.Err
	}
	return c.Frame, nil
}

func (c *VideoCodec) Offsets() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.offsets...)
}
