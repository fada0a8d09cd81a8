package api

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"

	"github.com/Domenick1991/airticketing/internal/domain"

	"github.com/Domenick1991/airticketing/internal/cache"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const IdempotencyHeader = "Idempotency-Key"

type IdempotencyStore interface {
	BeginIdempotent(ctx context.Context, key, fingerprint string) (*cache.IdempotencyRecord, bool, error)
	CompleteIdempotent(ctx context.Context, key string, record cache.IdempotencyRecord) error
	AbortIdempotent(ctx context.Context, key string) error
}

type recordingWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *recordingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *recordingWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// requestFingerprint identifies a request by method, path and raw body.
func requestFingerprint(method, path string, body []byte) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s %s\n", method, path)
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// Idempotency replays the stored response for a repeated Idempotency-Key.
// A key reused with a different request is rejected. Server errors are not
// stored so the client may retry them. When the store is unreachable requests
// go through unprotected.
func Idempotency(store IdempotencyStore, log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyHeader)
		if key == "" || store == nil {
			c.Next()
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			writeError(c, fmt.Errorf("%w: read body: %v", domain.ErrInvalidRequest, err))
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		fingerprint := requestFingerprint(c.Request.Method, c.Request.URL.Path, body)

		ctx := c.Request.Context()
		record, started, err := store.BeginIdempotent(ctx, key, fingerprint)
		if err != nil {
			log.WithError(err).Warn("idempotency store unavailable")
			c.Next()
			return
		}
		if record != nil && record.Fingerprint != fingerprint {
			c.AbortWithStatusJSON(http.StatusUnprocessableEntity, errorResponse{
				Error: "idempotency key was already used for a different request",
				Code:  codeKeyReused,
			})
			return
		}
		if record != nil && !record.Pending() {
			c.Header("Idempotent-Replayed", "true")
			c.Data(record.Status, "application/json; charset=utf-8", record.Body)
			c.Abort()
			return
		}
		if !started {
			c.AbortWithStatusJSON(http.StatusConflict, errorResponse{
				Error: "a request with this idempotency key is in progress",
				Code:  codeInProgress,
			})
			return
		}

		w := &recordingWriter{ResponseWriter: c.Writer}
		c.Writer = w
		c.Next()

		saveCtx := context.WithoutCancel(ctx)
		status := w.Status()
		if status >= http.StatusInternalServerError {
			if err := store.AbortIdempotent(saveCtx, key); err != nil {
				log.WithError(err).Warn("failed to release idempotency key")
			}
			return
		}
		if err := store.CompleteIdempotent(saveCtx, key, cache.IdempotencyRecord{Status: status, Body: w.body.Bytes(), Fingerprint: fingerprint}); err != nil {
			log.WithError(err).Warn("failed to store idempotent response")
		}
	}
}
