package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"media-ingest/constant"
	"media-ingest/entities"
	"media-ingest/pkg/apperr"
	"media-ingest/pkg/blob"
)

const uniqueViolation = "23505"

type MediaRepository interface {
	// Create inserts the complete record. A checksum that already exists is
	// reported as apperr.ErrDuplicateContent.
	Create(ctx context.Context, media *entities.Media) error
	ExistsByChecksum(ctx context.Context, checksum string) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Media, error)
	ListByProject(ctx context.Context, project string) ([]*entities.Media, error)
	ListAll(ctx context.Context) ([]*entities.Media, error)
	// Delete removes the row and then its blobs. Blobs that cannot be removed
	// are logged and left for the sweeper.
	Delete(ctx context.Context, id uuid.UUID) (*entities.Media, error)
	ListStorageKeys(ctx context.Context, project string) ([]string, error)
	Migrate(ctx context.Context) error
}

type repo struct {
	db    *gorm.DB
	store blob.Store
}

// OpenGorm wraps an existing postgres pool. The pool stays owned by the caller.
func OpenGorm(db *sql.DB, env constant.Environment) (*gorm.DB, error) {
	level := logger.Warn
	if env == constant.EnvironmentDevelop {
		level = logger.Info
	}
	return gorm.Open(postgres.New(postgres.Config{
		Conn: db}),
		&gorm.Config{
			Logger:         logger.Default.LogMode(level),
			TranslateError: true,
		},
	)
}

func NewRepo(db *gorm.DB, store blob.Store) MediaRepository {
	return &repo{
		db:    db,
		store: store,
	}
}

func (r *repo) Migrate(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&entities.Media{})
}

func (r *repo) Create(ctx context.Context, media *entities.Media) error {
	err := r.db.WithContext(ctx).Create(media).Error
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) {
		return apperr.DuplicateContent("File already exists")
	}
	return apperr.Persistence("failed to save media", err)
}

func (r *repo) ExistsByChecksum(ctx context.Context, checksum string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entities.Media{}).Where("checksum = ?", checksum).Limit(1).Count(&count).Error
	if err != nil {
		return false, apperr.Persistence("failed to look up checksum", err)
	}
	return count > 0, nil
}

func (r *repo) GetByID(ctx context.Context, id uuid.UUID) (*entities.Media, error) {
	media := &entities.Media{}
	err := r.db.WithContext(ctx).First(media, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("Media not found")
	}
	if err != nil {
		return nil, apperr.Persistence("failed to load media", err)
	}
	return media, nil
}

func (r *repo) ListByProject(ctx context.Context, project string) ([]*entities.Media, error) {
	var media []*entities.Media
	err := r.db.WithContext(ctx).Where("project = ?", project).Order("created_at DESC").Find(&media).Error
	if err != nil {
		return nil, apperr.Persistence("failed to list media", err)
	}
	return media, nil
}

func (r *repo) ListAll(ctx context.Context) ([]*entities.Media, error) {
	var media []*entities.Media
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&media).Error
	if err != nil {
		return nil, apperr.Persistence("failed to list media", err)
	}
	return media, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) (*entities.Media, error) {
	media := &entities.Media{}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(media, "id = ?", id).Error; err != nil {
			return err
		}
		res := tx.Delete(&entities.Media{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("Media not found")
	}
	if err != nil {
		return nil, apperr.Persistence("failed to delete media", err)
	}

	for _, key := range media.StorageKeys() {
		if err := r.store.Delete(ctx, key); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("key", key).Str("media_id", id.String()).Msg("failed to delete blob, left as orphan")
		}
	}
	return media, nil
}

func (r *repo) ListStorageKeys(ctx context.Context, project string) ([]string, error) {
	type row struct {
		URL            string
		VideoThumbnail *string
	}
	var rows []row
	q := r.db.WithContext(ctx).Model(&entities.Media{}).Select("url", "video_thumbnail")
	if project != "" {
		q = q.Where("project = ?", project)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, apperr.Persistence("failed to list storage keys", err)
	}

	keys := make([]string, 0, len(rows))
	for _, rw := range rows {
		keys = append(keys, rw.URL)
		if rw.VideoThumbnail != nil && *rw.VideoThumbnail != "" {
			keys = append(keys, *rw.VideoThumbnail)
		}
	}
	return keys, nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return true
	}
	// sqlite drivers only expose the constraint failure through the message.
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

