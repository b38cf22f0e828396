package handler

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"media-ingest/constant"
	"media-ingest/dto"
)

const requestIDHeader = "X-Request-ID"

// RequestLogger attaches a child of base carrying a request id to the request
// context and logs one line per request.
func RequestLogger(base zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)

		logger := base.With().Str("request_id", requestID).Logger()
		c.Request = c.Request.WithContext(logger.WithContext(c.Request.Context()))

		c.Next()

		logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}

// UploadAuth rejects requests whose upload secret header does not match
// secret. An empty secret rejects everything.
func UploadAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		given := c.GetHeader(constant.UploadSecretHeader)
		if secret == "" || given == "" || subtle.ConstantTimeCompare([]byte(given), []byte(secret)) != 1 {
			zerolog.Ctx(c.Request.Context()).Warn().Str("path", c.FullPath()).Msg("rejected upload secret")
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{Error: "Unauthorized"})
			return
		}
		c.Next()
	}
}
