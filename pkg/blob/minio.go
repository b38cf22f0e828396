package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/minio/minio-go/v7"
	"github.com/rs/zerolog"
)

// MinioStore keeps blobs as objects in a single bucket. Object names are the
// key without its public prefix.
type MinioStore struct {
	client *minio.Client
	bucket string
	keys   keyspace
}

func NewMinioStore(client *minio.Client, bucket, publicPrefix string) *MinioStore {
	return &MinioStore{client: client, bucket: bucket, keys: newKeyspace(publicPrefix)}
}

// EnsureBucket creates the bucket when it does not exist yet.
func (s *MinioStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket %s: %w", s.bucket, err)
	}
	zerolog.Ctx(ctx).Info().Str("bucket", s.bucket).Msg("created storage bucket")
	return nil
}

func (s *MinioStore) Put(ctx context.Context, project, suggestedName string, data []byte, contentType string) (string, error) {
	key, rel, err := s.keys.next(project, suggestedName)
	if err != nil {
		return "", err
	}
	_, err = s.client.PutObject(ctx, s.bucket, rel, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload object %s: %w", rel, err)
	}
	zerolog.Ctx(ctx).Debug().Str("key", key).Int("size", len(data)).Msg("object uploaded")
	return key, nil
}

func (s *MinioStore) Get(ctx context.Context, key string) ([]byte, error) {
	rel, err := s.keys.rel(key)
	if err != nil {
		return nil, err
	}
	obj, err := s.client.GetObject(ctx, s.bucket, rel, minio.GetObjectOptions{})
	if err != nil {
		return nil, s.mapErr(key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, s.mapErr(key, err)
	}
	return data, nil
}

func (s *MinioStore) Delete(ctx context.Context, key string) error {
	rel, err := s.keys.rel(key)
	if err != nil {
		return err
	}
	// RemoveObject succeeds for missing objects.
	return s.client.RemoveObject(ctx, s.bucket, rel, minio.RemoveObjectOptions{})
}

func (s *MinioStore) List(ctx context.Context, project string) ([]Object, error) {
	prefix, err := s.keys.projectPrefix(project)
	if err != nil {
		return nil, err
	}
	// Cancelling stops the lister goroutine when the loop returns early.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var objects []Object
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("list objects: %w", obj.Err)
		}
		objects = append(objects, Object{Key: s.keys.key(obj.Key), Size: obj.Size, ModTime: obj.LastModified})
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	return objects, nil
}

func (s *MinioStore) mapErr(key string, err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return fmt.Errorf("%w: %s", ErrNotExist, key)
	}
	return err
}
