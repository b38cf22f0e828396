package blob

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listResult = `<?xml version="1.0" encoding="UTF-8"?>
<ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">
<Name>media</Name><Prefix>blog/</Prefix><KeyCount>2</KeyCount><MaxKeys>1000</MaxKeys><IsTruncated>false</IsTruncated>
<Contents><Key>blog/b.webp</Key><LastModified>2024-01-02T03:04:05.000Z</LastModified><ETag>"b"</ETag><Size>5</Size><StorageClass>STANDARD</StorageClass></Contents>
<Contents><Key>blog/a.webp</Key><LastModified>2024-01-02T03:04:05.000Z</LastModified><ETag>"a"</ETag><Size>3</Size><StorageClass>STANDARD</StorageClass></Contents>
</ListBucketResult>`

const accessDenied = `<?xml version="1.0" encoding="UTF-8"?>
<Error><Code>AccessDenied</Code><Message>Access Denied</Message><BucketName>media</BucketName><RequestId>1</RequestId></Error>`

func newTestMinioStore(t *testing.T, handler http.HandlerFunc) *MinioStore {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := minio.New(strings.TrimPrefix(srv.URL, "http://"), &minio.Options{
		Creds:  credentials.NewStaticV4("access", "secret", ""),
		Region: "us-east-1",
	})
	require.NoError(t, err)
	return NewMinioStore(client, "media", "/uploads")
}

func TestMinioStoreList(t *testing.T) {
	s := newTestMinioStore(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "blog/", r.URL.Query().Get("prefix"))
		w.Header().Set("Content-Type", "application/xml")
		_, _ = w.Write([]byte(listResult))
	})

	objects, err := s.List(context.Background(), "blog")
	require.NoError(t, err)
	require.Len(t, objects, 2)
	assert.Equal(t, "/uploads/blog/a.webp", objects[0].Key)
	assert.Equal(t, int64(3), objects[0].Size)
	assert.Equal(t, "/uploads/blog/b.webp", objects[1].Key)
}

func TestMinioStoreListError(t *testing.T) {
	s := newTestMinioStore(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(accessDenied))
	})

	_, err := s.List(context.Background(), "blog")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list objects")
}
