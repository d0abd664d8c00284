package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/examportal-backend/internal/realtime"
	"github.com/stemsi/examportal-backend/internal/response"
	"github.com/stemsi/examportal-backend/internal/store"
)

const keepAliveInterval = 30 * time.Second

// StreamHandler pushes gateway change notifications to dashboards over SSE.
type StreamHandler struct {
	feed      realtime.Feed
	keepAlive time.Duration
	log       zerolog.Logger
}

func NewStreamHandler(feed realtime.Feed, log zerolog.Logger) *StreamHandler {
	return &StreamHandler{
		feed:      feed,
		keepAlive: keepAliveInterval,
		log:       log.With().Str("component", "stream_handler").Logger(),
	}
}

// ChangesSSE godoc
// GET /api/v1/stream?path=exams/{id}
// Streams every write under path. path must start with a known collection.
func (h *StreamHandler) ChangesSSE(c *gin.Context) {
	path := strings.Trim(c.Query("path"), "/")
	collection := store.TopLevel(path)
	if collection == "" {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, map[string]string{"path": "unknown collection"})
		return
	}

	reqCtx := c.Request.Context()
	changes, stop, err := h.feed.Subscribe(reqCtx, collection)
	if err != nil {
		h.log.Error().Err(err).Str("collection", collection).Msg("Subscribe failed")
		response.Fail(c, http.StatusServiceUnavailable, response.ErrInternal)
		return
	}
	defer stop()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	c.SSEvent("message", gin.H{"type": "ready", "path": path})
	c.Writer.Flush()

	keepAlive := time.NewTicker(h.keepAlive)
	defer keepAlive.Stop()
	pingPayload, _ := json.Marshal(map[string]string{"type": "ping"})

	h.log.Debug().Str("path", path).Msg("Change stream attached")

	for {
		select {
		case <-reqCtx.Done():
			h.log.Debug().Str("path", path).Msg("Change stream detached")
			return

		case ch, ok := <-changes:
			if !ok {
				return
			}
			if !under(ch.Path, path) {
				continue
			}
			payload, err := json.Marshal(gin.H{"type": "change", "path": ch.Path, "op": ch.Op, "at": ch.At})
			if err != nil {
				continue
			}
			writeEvent(c, payload)

		case <-keepAlive.C:
			writeEvent(c, pingPayload)
		}
	}
}

func writeEvent(c *gin.Context, payload []byte) {
	c.Writer.Write([]byte("data: "))
	c.Writer.Write(payload)
	c.Writer.Write([]byte("\n\n"))
	c.Writer.Flush()
}

// under reports whether p is path itself or a descendant of it.
func under(p, path string) bool {
	return p == path || strings.HasPrefix(p, path+"/")
}
