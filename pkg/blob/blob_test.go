package blob

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var uuidPart = `[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`

func TestKeyspaceNext(t *testing.T) {
	ks := newKeyspace("/uploads")

	key, rel, err := ks.next("blog", "cat.jpg.webp")
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^/uploads/blog/cat\.jpg-`+uuidPart+`\.webp$`), key)
	assert.Equal(t, "/uploads/"+rel, key)

	key, _, err = ks.next("blog", "../../etc/pass wd")
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^/uploads/blog/pass_wd-`+uuidPart+`$`), key)

	key, _, err = ks.next("blog", "")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "/uploads/blog/file-"))

	_, _, err = ks.next("../etc", "cat.jpg")
	assert.ErrorIs(t, err, ErrInvalidProject)
}

func TestKeyspaceRel(t *testing.T) {
	ks := newKeyspace("uploads/")

	rel, err := ks.rel("/uploads/blog/cat-1.webp")
	require.NoError(t, err)
	assert.Equal(t, "blog/cat-1.webp", rel)

	for _, bad := range []string{
		"/uploads/blog/../secret",
		"/uploads/../secret/x",
		"/other/blog/cat.webp",
		"/uploads/blog",
		"/uploads/blog/a/b.webp",
	} {
		_, err := ks.rel(bad)
		assert.ErrorIs(t, err, ErrInvalidKey, bad)
	}
}

func TestValidProject(t *testing.T) {
	assert.True(t, ValidProject("blog"))
	assert.True(t, ValidProject("my-site.v2_prod"))
	assert.False(t, ValidProject(""))
	assert.False(t, ValidProject(".hidden"))
	assert.False(t, ValidProject("a/b"))
	assert.False(t, ValidProject("a..b"))
	assert.False(t, ValidProject(strings.Repeat("x", 101)))
}

func testStore(t *testing.T, s Store) {
	ctx := context.Background()

	k1, err := s.Put(ctx, "blog", "cat.webp", []byte("one"), "image/webp")
	require.NoError(t, err)
	k2, err := s.Put(ctx, "blog", "cat.webp", []byte("two"), "image/webp")
	require.NoError(t, err)
	assert.NotEqual(t, k1, k2, "identical names must not collide")

	k3, err := s.Put(ctx, "shop", "dog.webp", []byte("three"), "image/webp")
	require.NoError(t, err)

	data, err := s.Get(ctx, k1)
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), data)

	objs, err := s.List(ctx, "blog")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{k1, k2}, keysOf(objs))
	for _, o := range objs {
		assert.Equal(t, int64(3), o.Size)
		assert.False(t, o.ModTime.IsZero())
	}

	all, err := s.List(ctx, "")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{k1, k2, k3}, keysOf(all))

	require.NoError(t, s.Delete(ctx, k1))
	require.NoError(t, s.Delete(ctx, k1), "delete is idempotent")

	_, err = s.Get(ctx, k1)
	assert.True(t, errors.Is(err, ErrNotExist))

	empty, err := s.List(ctx, "nothing-here")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func keysOf(objs []Object) []string {
	keys := make([]string, 0, len(objs))
	for _, o := range objs {
		keys = append(keys, o.Key)
	}
	return keys
}

func TestFSStore(t *testing.T) {
	root := t.TempDir()
	s, err := NewFSStore(root, "/uploads")
	require.NoError(t, err)

	testStore(t, s)

	key, err := s.Put(context.Background(), "blog", "cat.webp", []byte("x"), "image/webp")
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(root, "blog", filepath.Base(key)))
	assert.NoError(t, err)
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore("/uploads")
	testStore(t, s)
	assert.Equal(t, 2, s.Len())
}
