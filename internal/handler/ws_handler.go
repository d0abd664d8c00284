package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/examportal-backend/internal/middleware"
	"github.com/stemsi/examportal-backend/internal/response"
	"github.com/stemsi/examportal-backend/internal/service"
	ws "github.com/stemsi/examportal-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams a registered attempt over a WebSocket: countdown ticks
// and state changes go out, student actions come in.
type WSHandler struct {
	sessionService *service.ExamSessionService
	log            zerolog.Logger
	upgrader       websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(sessionService *service.ExamSessionService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		sessionService: sessionService,
		log:            log.With().Str("component", "ws_handler").Logger(),
		upgrader:       buildUpgrader(allowedOrigins),
	}
}

// ExamWebSocketStream godoc
// WS /ws/v1/student/exams/:id/stream
// Requires a prior POST /enter. The connection closes when the attempt is
// discarded, for example by entering again from another tab, or when a finished
// attempt is evicted.
func (h *WSHandler) ExamWebSocketStream(c *gin.Context) {
	examID := c.Param("id")
	studentID := middleware.GetActor(c).UID

	view, err := h.sessionService.State(c.Request.Context(), examID, studentID)
	if err != nil {
		fail(c, err)
		return
	}
	updates, stop, err := h.sessionService.Watch(examID, studentID)
	if err != nil {
		fail(c, err)
		return
	}
	defer stop()

	raw, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	conn := ws.Wrap(raw)
	defer conn.Close()

	wsLog := h.log.With().Str("student_id", studentID).Str("exam_id", examID).Logger()
	wsLog.Info().Msg("Student connected")

	_ = conn.WriteTyped(ws.StateResponse{Event: ws.EventState, Snapshot: view.Snapshot, Paper: view.Paper})

	go func() {
		for snap := range updates {
			if err := conn.WriteTyped(ws.EventFor(snap)); err != nil {
				return
			}
		}
		// The attempt was discarded; unblock the read loop.
		_ = conn.WriteError(string(response.ErrNoActiveAttempt), "attempt ended")
		_ = conn.Close()
	}()

	ctx := context.Background()
	for {
		var msg ws.RequestPayload
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}
		h.dispatch(ctx, conn, wsLog, examID, studentID, &msg)
	}
}

func (h *WSHandler) dispatch(ctx context.Context, conn *ws.Conn, wsLog zerolog.Logger, examID, studentID string, msg *ws.RequestPayload) {
	var (
		view *service.AttemptView
		err  error
	)
	switch msg.Action {
	case ws.ActionPing:
		_ = conn.WriteTyped(ws.PongResponse{Event: ws.EventPong})
		return
	case ws.ActionStart:
		view, err = h.sessionService.Start(ctx, examID, studentID)
	case ws.ActionAnswer:
		if msg.QID == "" || msg.Answer == "" {
			_ = conn.WriteError(string(response.ErrInvalidPayload), "q_id and ans are required")
			return
		}
		view, err = h.sessionService.Answer(ctx, examID, studentID, msg.QID, msg.Answer)
	case ws.ActionNavigate:
		if msg.Index == nil {
			_ = conn.WriteError(string(response.ErrInvalidPayload), "index is required")
			return
		}
		view, err = h.sessionService.Navigate(ctx, examID, studentID, *msg.Index)
	case ws.ActionSubmit:
		// The outcome reaches the client through the watcher.
		_, err = h.sessionService.Submit(ctx, examID, studentID)
	case ws.ActionRetry:
		_, err = h.sessionService.Retry(ctx, examID, studentID)
	default:
		wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
		_ = conn.WriteError(string(response.ErrInvalidPayload), "unknown action: "+string(msg.Action))
		return
	}

	if err != nil {
		_, code := statusFor(err)
		_ = conn.WriteError(string(code), err.Error())
		return
	}
	if view != nil {
		_ = conn.WriteTyped(ws.StateResponse{Event: ws.EventState, Snapshot: view.Snapshot, Paper: view.Paper})
	}
}
