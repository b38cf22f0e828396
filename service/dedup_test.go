package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"media-ingest/pkg/apperr"
	"media-ingest/pkg/mediatest"
)

type lookupFunc func(ctx context.Context, checksum string) (bool, error)

func (f lookupFunc) ExistsByChecksum(ctx context.Context, checksum string) (bool, error) {
	return f(ctx, checksum)
}

// countingLookup answers from a fixed set and records how often it was asked.
type countingLookup struct {
	known map[string]bool
	calls atomic.Int32
}

func (l *countingLookup) ExistsByChecksum(ctx context.Context, checksum string) (bool, error) {
	l.calls.Add(1)
	return l.known[checksum], nil
}

func newCache(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestGuardWithoutCache(t *testing.T) {
	seen := map[string]bool{"abc": true}
	g := NewGuard(lookupFunc(func(ctx context.Context, checksum string) (bool, error) {
		if checksum == "broken" {
			return false, errors.New("db down")
		}
		return seen[checksum], nil
	}), nil, 0)
	ctx := context.Background()

	ok, err := g.Exists(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = g.Exists(ctx, "def")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = g.Exists(ctx, "broken")
	assert.Error(t, err)

	g.Remember(ctx, "def")
	g.Forget(ctx, "abc")
}

func TestGuardWithCache(t *testing.T) {
	const ttl = 10 * time.Minute

	tests := []struct {
		name      string
		known     map[string]bool
		setup     func(t *testing.T, mr *miniredis.Miniredis, g *Guard)
		checksum  string
		want      bool
		wantCalls int32
	}{
		{
			name:  "cache hit skips the database",
			known: map[string]bool{},
			setup: func(t *testing.T, mr *miniredis.Miniredis, g *Guard) {
				require.NoError(t, mr.Set(checksumKeyPrefix+"abc", "1"))
			},
			checksum:  "abc",
			want:      true,
			wantCalls: 0,
		},
		{
			name:      "cache miss asks the database",
			known:     map[string]bool{"abc": true},
			setup:     func(t *testing.T, mr *miniredis.Miniredis, g *Guard) {},
			checksum:  "abc",
			want:      true,
			wantCalls: 1,
		},
		{
			name:  "remembered checksum is a hit",
			known: map[string]bool{},
			setup: func(t *testing.T, mr *miniredis.Miniredis, g *Guard) {
				g.Remember(context.Background(), "abc")
				assert.True(t, mr.Exists(checksumKeyPrefix+"abc"))
				assert.Equal(t, ttl, mr.TTL(checksumKeyPrefix+"abc"))
			},
			checksum:  "abc",
			want:      true,
			wantCalls: 0,
		},
		{
			name:  "forgotten checksum falls through to the database",
			known: map[string]bool{},
			setup: func(t *testing.T, mr *miniredis.Miniredis, g *Guard) {
				g.Remember(context.Background(), "abc")
				g.Forget(context.Background(), "abc")
				assert.False(t, mr.Exists(checksumKeyPrefix+"abc"))
			},
			checksum:  "abc",
			want:      false,
			wantCalls: 1,
		},
		{
			name:  "expired entry falls through to the database",
			known: map[string]bool{},
			setup: func(t *testing.T, mr *miniredis.Miniredis, g *Guard) {
				g.Remember(context.Background(), "abc")
				mr.FastForward(ttl + time.Second)
			},
			checksum:  "abc",
			want:      false,
			wantCalls: 1,
		},
		{
			name:  "cache failure falls back to the database",
			known: map[string]bool{"abc": true},
			setup: func(t *testing.T, mr *miniredis.Miniredis, g *Guard) {
				mr.SetError("ERR cache unavailable")
			},
			checksum:  "abc",
			want:      true,
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mr, client := newCache(t)
			lookup := &countingLookup{known: tt.known}
			g := NewGuard(lookup, client, ttl)
			tt.setup(t, mr, g)

			got, err := g.Exists(context.Background(), tt.checksum)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantCalls, lookup.calls.Load())
		})
	}
}

func TestIngestWithChecksumCache(t *testing.T) {
	mr, client := newCache(t)
	f := newFixtureWithCache(t, nil, client)
	ctx := context.Background()
	data := mediatest.PNG(t, 30, 30, 9)

	media, err := f.ingest.IngestImage(ctx, "blog", NewUpload("a.png", "image/png", data))
	require.NoError(t, err)
	key := checksumKeyPrefix + media.Checksum
	assert.True(t, mr.Exists(key), "successful ingest caches the checksum")

	require.NoError(t, f.media.Delete(ctx, media.ID.String()))
	assert.False(t, mr.Exists(key), "delete evicts the checksum")

	again, err := f.ingest.IngestImage(ctx, "blog", NewUpload("a.png", "image/png", data))
	require.NoError(t, err)
	assert.True(t, mr.Exists(key))

	// A cached checksum alone is enough to reject content before any storage work.
	require.NoError(t, f.media.Delete(ctx, again.ID.String()))
	require.NoError(t, mr.Set(key, "1"))
	_, err = f.ingest.IngestImage(ctx, "blog", NewUpload("a.png", "image/png", data))
	assert.ErrorIs(t, err, apperr.ErrDuplicateContent)
	assert.Equal(t, 0, f.store.Len())
	assert.Empty(t, f.records(t))
}
