package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"media-ingest/config"
	"media-ingest/constant"
	"media-ingest/handler"
	"media-ingest/pkg/codec"
	"media-ingest/service"
)

const shutdownTimeout = 15 * time.Second

func RunHttp(cfg *config.Config) error {
	ctx, cancel := signal.NotifyContext(setupLogger(cfg), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	isProduction := cfg.App.Environment == constant.EnvironmentProduction
	zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment.String()).Bool("isProduction", isProduction).Send()
	if isProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.Auth.UploadSecret == "" {
		zerolog.Ctx(ctx).Warn().Msg("upload secret is not set, every upload and delete will be rejected")
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close(ctx)
	a.withCache(ctx, cfg)
	a.withEvents(ctx, cfg)

	if cfg.Postgres.AutoMigrate {
		if err := a.repo.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	opts := service.OptionsFromConfig(cfg)
	images := codec.NewImageProcessor(codec.ImageOptions{
		PlaceholderWidth:   cfg.Media.PlaceholderWidth,
		PlaceholderQuality: cfg.Media.PlaceholderQuality,
		ThumbhashBox:       cfg.Media.ThumbhashBox,
	})
	videos := codec.NewFFmpeg(cfg.Media.FFmpegPath)

	guard := service.NewGuard(a.repo, a.redis, cfg.Redis.TTL)
	pipeline := service.NewPipeline(a.store, images, videos, opts)
	ingestor := service.NewIngestor(a.repo, a.store, guard, pipeline, a.events, opts)
	mediaService := service.NewMediaService(a.repo, guard, a.events)

	r := gin.New()
	r.Use(gin.Recovery(), handler.RequestLogger(*zerolog.Ctx(ctx)))
	addHealth(r)
	handler.Register(r, handler.New(ingestor, mediaService, a.store, cfg.Storage.PublicPrefix), cfg.Auth.UploadSecret)

	srv := http.Server{
		Handler:           r,
		Addr:              fmt.Sprintf(":%s", cfg.Server.HttpPort),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment.String()).Str("addr", srv.Addr).Msg("start http server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zerolog.Ctx(ctx).Error().Str("env", cfg.App.Environment.String()).Msg(err.Error())
			cancel()
		}
	}()

	<-ctx.Done()
	zerolog.Ctx(ctx).Info().Msg("shutting down server")
	shutdownCtx, stop := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zerolog.Ctx(ctx).Error().Str("env", cfg.App.Environment.String()).Msg(err.Error())
	}

	zerolog.Ctx(ctx).Info().Str("env", cfg.App.Environment.String()).Msg("server shutdown")
	return nil
}

func addHealth(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})
}
