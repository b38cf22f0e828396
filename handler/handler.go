package handler

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"media-ingest/dto"
	"media-ingest/entities"
	"media-ingest/pkg/apperr"
	"media-ingest/pkg/blob"
	"media-ingest/service"
)

type Ingestor interface {
	IngestImage(ctx context.Context, project string, up *service.Upload) (*entities.Media, error)
	IngestVideo(ctx context.Context, project string, up *service.Upload) (*entities.Media, error)
	IngestAll(ctx context.Context, project string, uploads []*service.Upload) service.BatchResult
}

type MediaReader interface {
	Get(ctx context.Context, id string) (*entities.Media, error)
	ListAll(ctx context.Context) ([]*entities.Media, error)
	ListByProject(ctx context.Context, project string) ([]*entities.Media, error)
	Delete(ctx context.Context, id string) error
}

type Handler struct {
	ingest       Ingestor
	media        MediaReader
	store        blob.Store
	publicPrefix string
}

func New(ingest Ingestor, media MediaReader, store blob.Store, publicPrefix string) *Handler {
	if publicPrefix == "" {
		publicPrefix = blob.DefaultPublicPrefix
	}
	return &Handler{
		ingest:       ingest,
		media:        media,
		store:        store,
		publicPrefix: "/" + strings.Trim(publicPrefix, "/"),
	}
}

// Register mounts the media routes on r. Mutating routes require secret in
// the upload secret header.
func Register(r *gin.Engine, h *Handler, secret string) {
	auth := UploadAuth(secret)

	media := r.Group("/media")
	media.POST("/upload/single/image", auth, h.UploadImage)
	media.POST("/upload/multiple/images", auth, h.UploadImages)
	media.POST("/upload/single/video", auth, h.UploadVideo)
	media.GET("/all", h.ListAll)
	media.GET("/project/:project", h.ListByProject)
	media.GET("/:id", h.Get)
	media.DELETE("/:id", auth, h.Delete)

	r.GET(h.publicPrefix+"/*key", h.ServeBlob)
}

func (h *Handler) UploadImage(c *gin.Context) {
	ctx := c.Request.Context()
	media, err := h.ingest.IngestImage(ctx, c.PostForm("project"), formFile(c, "file"))
	if err != nil {
		writeError(c, err, "Upload failed")
		return
	}
	c.JSON(http.StatusOK, dto.UploadResponse[dto.UploadedImage]{
		Message: "Image uploaded successfully",
		Success: true,
		Data: dto.UploadedImage{
			Name:        media.Name,
			URL:         media.URL,
			Thumbhash:   media.Thumbhash,
			BlurDataURL: media.BlurDataURL,
		},
	})
}

func (h *Handler) UploadImages(c *gin.Context) {
	ctx := c.Request.Context()
	form, err := c.MultipartForm()
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to parse multipart form")
	}

	var uploads []*service.Upload
	var project string
	if form != nil {
		for _, field := range []string{"files", "files[]"} {
			for _, fh := range form.File[field] {
				uploads = append(uploads, fileUpload(fh))
			}
		}
		if v := form.Value["project"]; len(v) > 0 {
			project = v[0]
		}
	}
	if len(uploads) == 0 {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "No files uploaded"})
		return
	}

	res := h.ingest.IngestAll(ctx, project, uploads)
	entries := make([]dto.BatchEntry, 0, len(res.Items))
	for _, item := range res.Items {
		if item.Media == nil {
			entries = append(entries, dto.BatchEntry{Name: item.Name, Error: item.Error})
			continue
		}
		entries = append(entries, dto.BatchEntry{
			Name:        item.Media.Name,
			URL:         item.Media.URL,
			Thumbhash:   item.Media.Thumbhash,
			BlurDataURL: item.Media.BlurDataURL,
		})
	}
	c.JSON(http.StatusOK, dto.BatchUploadResponse{
		Message: "Images uploaded successfully",
		Success: true,
		Count:   res.Count,
		Data:    entries,
	})
}

func (h *Handler) UploadVideo(c *gin.Context) {
	ctx := c.Request.Context()
	media, err := h.ingest.IngestVideo(ctx, c.PostForm("project"), formFile(c, "file"))
	if err != nil {
		writeError(c, err, "Video upload failed")
		return
	}
	var poster string
	if media.VideoThumbnail != nil {
		poster = *media.VideoThumbnail
	}
	c.JSON(http.StatusOK, dto.UploadResponse[dto.UploadedVideo]{
		Message: "Video uploaded successfully",
		Success: true,
		Data: dto.UploadedVideo{
			Name:           media.Name,
			URL:            media.URL,
			VideoThumbnail: poster,
			Thumbhash:      media.Thumbhash,
			BlurDataURL:    media.BlurDataURL,
		},
	})
}

func (h *Handler) ListAll(c *gin.Context) {
	media, err := h.media.ListAll(c.Request.Context())
	if err != nil {
		writeError(c, err, "Failed to get media")
		return
	}
	c.JSON(http.StatusOK, dto.MediaListResponse{Media: nonNil(media)})
}

func (h *Handler) ListByProject(c *gin.Context) {
	media, err := h.media.ListByProject(c.Request.Context(), c.Param("project"))
	if err != nil {
		writeError(c, err, "Failed to get media")
		return
	}
	c.JSON(http.StatusOK, dto.MediaListResponse{Media: nonNil(media)})
}

func (h *Handler) Get(c *gin.Context) {
	media, err := h.media.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err, "Failed to get media")
		return
	}
	c.JSON(http.StatusOK, dto.MediaResponse{Media: media})
}

func (h *Handler) Delete(c *gin.Context) {
	if err := h.media.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err, "Failed to delete media")
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Media deleted successfully", Success: true})
}

// ServeBlob streams a stored blob. The content type is sniffed from the bytes.
func (h *Handler) ServeBlob(c *gin.Context) {
	key := h.publicPrefix + c.Param("key")
	data, err := h.store.Get(c.Request.Context(), key)
	if errors.Is(err, blob.ErrNotExist) || errors.Is(err, blob.ErrInvalidKey) {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "File not found"})
		return
	}
	if err != nil {
		writeError(c, err, "Failed to read file")
		return
	}
	c.Header("Cache-Control", "public, max-age=31536000, immutable")
	c.Data(http.StatusOK, mimetype.Detect(data).String(), data)
}

func writeError(c *gin.Context, err error, fallback string) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperr.ErrValidation), errors.Is(err, apperr.ErrDuplicateContent):
		status = http.StatusBadRequest
	case errors.Is(err, apperr.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperr.ErrAuth):
		status = http.StatusUnauthorized
	}

	if status == http.StatusInternalServerError {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Str("path", c.FullPath()).Msg(fallback)
		c.JSON(status, dto.ErrorResponse{Error: fallback})
		return
	}
	c.JSON(status, dto.ErrorResponse{Error: apperr.Reason(err)})
}

func formFile(c *gin.Context, field string) *service.Upload {
	fh, err := c.FormFile(field)
	if err != nil {
		if !errors.Is(err, http.ErrMissingFile) {
			zerolog.Ctx(c.Request.Context()).Debug().Err(err).Str("field", field).Msg("no usable file in form")
		}
		return nil
	}
	return fileUpload(fh)
}

// fileUpload uses the part's declared content type and only sniffs the bytes
// when the client sent none.
func fileUpload(fh *multipart.FileHeader) *service.Upload {
	mimeType := fh.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		if f, err := fh.Open(); err == nil {
			if m, err := mimetype.DetectReader(f); err == nil {
				mimeType = m.String()
			}
			_ = f.Close()
		}
	}
	return &service.Upload{
		Name:     fh.Filename,
		MimeType: mimeType,
		Size:     fh.Size,
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

func nonNil(media []*entities.Media) []*entities.Media {
	if media == nil {
		return []*entities.Media{}
	}
	return media
}
