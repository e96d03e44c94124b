package gateway

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/monozukuri-ai/assistant-orchestrator/internal/chat"
	"github.com/monozukuri-ai/assistant-orchestrator/internal/models"
	"github.com/monozukuri-ai/assistant-orchestrator/internal/workflow"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsPongTimeout  = 90 * time.Second
	wsPingInterval = 30 * time.Second
)

// ChatSocket serves the interactive WebSocket chat endpoint.
type ChatSocket struct {
	chatService    *chat.Service
	allowedOrigins map[string]struct{}
}

// NewChatSocket creates the WebSocket chat handler. An empty origin list
// allows any origin, which is only appropriate for local development.
func NewChatSocket(chatService *chat.Service, allowedOrigins []string) *ChatSocket {
	origins := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = struct{}{}
	}
	return &ChatSocket{
		chatService:    chatService,
		allowedOrigins: origins,
	}
}

func (s *ChatSocket) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			if len(s.allowedOrigins) == 0 {
				return true
			}
			_, ok := s.allowedOrigins[r.Header.Get("Origin")]
			return ok
		},
	}
}

// Serve handles GET /api/v1/chat/ws/:session_id.
//
//	@Summary		Interactive chat over WebSocket
//	@Description	Bidirectional chat with per-message debug event streaming
//	@Tags			chat
//	@Param			session_id	path	string	true	"Session ID"
//	@Success		101			"Switching Protocols"
//	@Failure		400			{object}	models.ErrorResponse
//	@Security		BearerAuth
//	@Router			/api/v1/chat/ws/{session_id} [get]
func (s *ChatSocket) Serve(c *gin.Context) {
	ctx, span := tracer.Start(c.Request.Context(), "gateway.chat_socket")
	defer span.End()

	sessionID := c.Param("session_id")
	if sessionID == "" {
		sessionID = uuid.New().String()
	}
	span.SetAttributes(attribute.String("session.id", sessionID))

	upgrader := s.upgrader()
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		span.RecordError(err)
		log.Warn().Err(err).Str("session_id", sessionID).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	log.Info().Str("session_id", sessionID).Msg("websocket connected")

	wc := &wsConn{conn: conn}
	if err := wc.writeJSON(models.WSStatus{
		Type:      models.WSTypeStatus,
		SessionID: sessionID,
		Data:      "connected",
	}); err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("websocket handshake write failed")
		return
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.readLoop(ctx, wc, sessionID) })
	g.Go(func() error { return pingLoop(ctx, wc) })

	if err := g.Wait(); err != nil && !isExpectedClose(err) {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("websocket session ended")
	}
	log.Info().Str("session_id", sessionID).Msg("websocket disconnected")
}

func (s *ChatSocket) readLoop(ctx context.Context, wc *wsConn, sessionID string) error {
	for {
		_ = wc.conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
		wc.conn.SetPongHandler(func(string) error {
			return wc.conn.SetReadDeadline(time.Now().Add(wsPongTimeout))
		})

		var frame models.WSClientFrame
		if err := wc.conn.ReadJSON(&frame); err != nil {
			return err
		}

		resp, err := s.chatService.ProcessMessage(ctx, models.ChatRequest{
			Message:     frame.Message,
			SessionID:   sessionID,
			FileContext: frame.FileContext,
			Debug:       frame.Debug,
		})
		if err != nil {
			if errors.Is(err, workflow.ErrInvalidRequest) {
				if werr := wc.writeJSON(models.WSError{
					Type:      models.WSTypeError,
					SessionID: sessionID,
					Data:      err.Error(),
				}); werr != nil {
					return werr
				}
				continue
			}
			return err
		}

		if resp.Debug != nil {
			for _, ev := range resp.Debug.DecisionTrace {
				if err := wc.writeJSON(models.WSDebugEvent{
					Type:      models.WSTypeDebugEvent,
					SessionID: sessionID,
					Data:      ev,
				}); err != nil {
					return err
				}
			}
		}

		if err := wc.writeJSON(models.WSChatMessage{
			Type:      models.WSTypeMessage,
			SessionID: sessionID,
			Data:      resp.Message,
		}); err != nil {
			return err
		}
	}
}

func pingLoop(ctx context.Context, wc *wsConn) error {
	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := wc.writeControl(websocket.PingMessage); err != nil {
				return err
			}
		}
	}
}

// wsConn serializes writes from the reader and the ping ticker.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (w *wsConn) writeJSON(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return w.conn.WriteJSON(v)
}

func (w *wsConn) writeControl(messageType int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteControl(messageType, nil, time.Now().Add(wsWriteTimeout))
}

func isExpectedClose(err error) bool {
	if errors.Is(err, context.Canceled) {
		return true
	}
	return websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived,
	)
}
