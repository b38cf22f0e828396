package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"media-ingest/constant"
)

type Config struct {
	App      App
	Server   Server
	Postgres Postgres
	Storage  Storage
	MinIO    MinIO
	Queue    *RabbitMQ
	Redis    Redis
	Media    Media
	Auth     Auth
}

type App struct {
	Environment constant.Environment `yaml:"environment"`
}

type Server struct {
	HttpPort string `yaml:"port"`
	Workers  int    `yaml:"workers"`
}

type Postgres struct {
	DSN             string        `yaml:"postgresql_host"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	AutoMigrate     bool          `yaml:"auto_migrate"`
}

type Storage struct {
	Backend      constant.BlobBackend `yaml:"backend"`
	Root         string               `yaml:"root"`
	PublicPrefix string               `yaml:"public_prefix"`
}

type MinIO struct {
	URL             string `yaml:"url"`
	AccessID        string `yaml:"access_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Bucket          string `yaml:"bucket"`
	UseSSL          bool   `yaml:"use_ssl"`
}

type RabbitMQ struct {
	Host         string `json:"host"`
	Port         int    `json:"port"`
	User         string `json:"user"`
	Pass         string `json:"pass"`
	ExchangeName string `json:"exchange_name"`
	Kind         string `json:"kind"`
}

type Redis struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type Media struct {
	ImageMaxBytes      int64         `yaml:"image_max_bytes"`
	VideoMaxBytes      int64         `yaml:"video_max_bytes"`
	SingleQuality      int           `yaml:"single_quality"`
	BatchQuality       int           `yaml:"batch_quality"`
	PlaceholderQuality int           `yaml:"placeholder_quality"`
	PlaceholderWidth   int           `yaml:"placeholder_width"`
	ThumbhashBox       int           `yaml:"thumbhash_box"`
	PosterOffset       time.Duration `yaml:"poster_offset"`
	CodecTimeout       time.Duration `yaml:"codec_timeout"`
	FFmpegPath         string        `yaml:"ffmpeg_path"`
}

type Auth struct {
	UploadSecret string `yaml:"upload_secret"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.environment", string(constant.EnvironmentDevelop))
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.workers", 4)

	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", 30*time.Minute)
	v.SetDefault("db.auto_migrate", true)

	v.SetDefault("storage.backend", string(constant.BlobBackendFS))
	v.SetDefault("storage.root", "uploads")
	v.SetDefault("storage.public_prefix", "/uploads")

	v.SetDefault("minio.bucket", "media")

	v.SetDefault("rabbitmq_port", 5672)
	v.SetDefault("rabbitmq_exchange", "media_exchange")
	v.SetDefault("rabbitmq_kind", "topic")

	v.SetDefault("redis.ttl", 10*time.Minute)

	v.SetDefault("media.image_max_bytes", 1<<20)
	v.SetDefault("media.video_max_bytes", 10<<20)
	v.SetDefault("media.single_quality", 90)
	v.SetDefault("media.batch_quality", 85)
	v.SetDefault("media.placeholder_quality", 20)
	v.SetDefault("media.placeholder_width", 20)
	v.SetDefault("media.thumbhash_box", 100)
	v.SetDefault("media.poster_offset", time.Second)
	v.SetDefault("media.codec_timeout", 30*time.Second)
	v.SetDefault("media.ffmpeg_path", "ffmpeg")
}

// Load reads config.yaml from path (optional), a .env file next to it
// (optional) and the environment. Environment variables win; nested keys map
// to upper-case names with "." replaced by "_" (SERVER_PORT, MEDIA_CODEC_TIMEOUT).
func Load(path string) (*Config, error) {
	if err := godotenv.Load(filepath.Join(path, ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	_ = v.BindEnv("auth.upload_secret", "AUTH_UPLOAD_SECRET", "UPLOAD_SECRET")
	_ = v.BindEnv("postgresql_host", "POSTGRESQL_HOST", "DATABASE_URL")

	var queue *RabbitMQ
	if host := v.GetString("rabbitmq_host"); host != "" {
		queue = &RabbitMQ{
			Host:         host,
			Port:         v.GetInt("rabbitmq_port"),
			User:         v.GetString("rabbitmq_user"),
			Pass:         v.GetString("rabbitmq_pass"),
			ExchangeName: v.GetString("rabbitmq_exchange"),
			Kind:         v.GetString("rabbitmq_kind"),
		}
	}

	return &Config{
		App: App{
			Environment: constant.Environment(v.GetString("app.environment")),
		},
		Server: Server{
			HttpPort: v.GetString("server.port"),
			Workers:  v.GetInt("server.workers"),
		},
		Postgres: Postgres{
			DSN:             v.GetString("postgresql_host"),
			MaxOpenConns:    v.GetInt("db.max_open_conns"),
			MaxIdleConns:    v.GetInt("db.max_idle_conns"),
			ConnMaxLifetime: v.GetDuration("db.conn_max_lifetime"),
			AutoMigrate:     v.GetBool("db.auto_migrate"),
		},
		Storage: Storage{
			Backend:      constant.BlobBackend(v.GetString("storage.backend")),
			Root:         v.GetString("storage.root"),
			PublicPrefix: v.GetString("storage.public_prefix"),
		},
		MinIO: MinIO{
			URL:             v.GetString("minio.url"),
			AccessID:        v.GetString("minio.access_id"),
			SecretAccessKey: v.GetString("minio.secret_access_key"),
			Bucket:          v.GetString("minio.bucket"),
			UseSSL:          v.GetBool("minio.use_ssl"),
		},
		Queue: queue,
		Redis: Redis{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
			TTL:      v.GetDuration("redis.ttl"),
		},
		Media: Media{
			ImageMaxBytes:      v.GetInt64("media.image_max_bytes"),
			VideoMaxBytes:      v.GetInt64("media.video_max_bytes"),
			SingleQuality:      v.GetInt("media.single_quality"),
			BatchQuality:       v.GetInt("media.batch_quality"),
			PlaceholderQuality: v.GetInt("media.placeholder_quality"),
			PlaceholderWidth:   v.GetInt("media.placeholder_width"),
			ThumbhashBox:       v.GetInt("media.thumbhash_box"),
			PosterOffset:       v.GetDuration("media.poster_offset"),
			CodecTimeout:       v.GetDuration("media.codec_timeout"),
			FFmpegPath:         v.GetString("media.ffmpeg_path"),
		},
		Auth: Auth{
			UploadSecret: v.GetString("auth.upload_secret"),
		},
	}, nil
}
