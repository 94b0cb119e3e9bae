package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prepnest/satdiag-backend/internal/middleware"
	"github.com/prepnest/satdiag-backend/internal/service"
	ws "github.com/prepnest/satdiag-backend/internal/websocket"
	"github.com/rs/zerolog"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins slice permits all origins (development mode).
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

// WSHandler streams the module clock to the client and accepts answers
// over the same connection, so a flaky HTTP path never stalls the timer.
type WSHandler struct {
	attemptService *service.AttemptService
	log            zerolog.Logger
	upgrader       websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(attemptService *service.AttemptService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		attemptService: attemptService,
		log:            log.With().Str("component", "ws_handler").Logger(),
		upgrader:       buildUpgrader(allowedOrigins),
	}
}

// AttemptStream godoc
// WS /ws/v1/student/stream
// Upgrades to WebSocket for timer ticks and in-band answer submission.
func (h *WSHandler) AttemptStream(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	raw, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	conn := ws.Wrap(raw)
	defer conn.Close()

	userID := claims.UserID
	wsLog := h.log.With().Str("user_id", userID.String()).Logger()
	wsLog.Info().Msg("Student connected")

	done := make(chan struct{})
	go h.tickLoop(conn, userID, done)
	defer close(done)

	for {
		frame, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		var env ws.RequestEnvelope
		if err := json.Unmarshal(frame, &env); err != nil {
			conn.WriteError("malformed message")
			continue
		}

		switch env.Action {
		case ws.ActionQuestion:
			h.handleQuestion(c, conn, userID, frame)
		case ws.ActionAnswer:
			var msg ws.AnswerRequest
			if err := json.Unmarshal(frame, &msg); err != nil {
				conn.WriteError("malformed answer")
				continue
			}
			h.handleSubmit(c, conn, wsLog, userID, &msg.Answer)
		case ws.ActionSkip:
			h.handleSubmit(c, conn, wsLog, userID, nil)
		case ws.ActionPing:
			conn.WriteTyped(ws.PongResponse{Event: ws.EventPong})
		default:
			conn.WriteError("unknown action")
		}
	}
}

// tickLoop pushes the module clock once per second until the connection
// or the attempt goes away.
func (h *WSHandler) tickLoop(conn *ws.Conn, userID uuid.UUID, done chan struct{}) {
	t := time.NewTicker(time.Second)
	defer t.Stop()

	for {
		select {
		case <-done:
			return
		case <-t.C:
			value, running, err := h.attemptService.TimerValue(context.Background(), userID)
			if err != nil {
				continue
			}
			if err := conn.WriteTyped(ws.TickResponse{
				Event:       ws.EventTick,
				SecondsLeft: value,
				Running:     running,
			}); err != nil {
				return
			}
		}
	}
}

func (h *WSHandler) handleQuestion(c *gin.Context, conn *ws.Conn, userID uuid.UUID, frame []byte) {
	var msg ws.QuestionRequest
	if err := json.Unmarshal(frame, &msg); err != nil {
		conn.WriteError("malformed question request")
		return
	}

	questionID, err := uuid.Parse(msg.QID)
	if err != nil {
		conn.WriteError("invalid question id")
		return
	}

	q, err := h.attemptService.LoadQuestion(c.Request.Context(), userID, questionID)
	if err != nil {
		conn.WriteError(err.Error())
		return
	}

	conn.WriteTyped(ws.QuestionResponse{Event: ws.EventQuestion, Question: q})
}

func (h *WSHandler) handleSubmit(c *gin.Context, conn *ws.Conn, wsLog zerolog.Logger, userID uuid.UUID, answer *string) {
	step, err := h.attemptService.SubmitAnswer(c.Request.Context(), userID, answer)
	if err != nil {
		wsLog.Warn().Err(err).Msg("Submit over WS failed")
		conn.WriteError(err.Error())
		return
	}

	if step.Finalized {
		conn.WriteTyped(ws.FinalizedResponse{Event: ws.EventFinalized, Route: step.Route})
		return
	}
	conn.WriteTyped(ws.NextResponse{Event: ws.EventNext, QuestionID: step.QuestionID})
}
