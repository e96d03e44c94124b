package gateway

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monozukuri-ai/assistant-orchestrator/internal/agents"
	"github.com/monozukuri-ai/assistant-orchestrator/internal/chat"
	"github.com/monozukuri-ai/assistant-orchestrator/internal/models"
	"github.com/monozukuri-ai/assistant-orchestrator/internal/tools"
	"github.com/monozukuri-ai/assistant-orchestrator/internal/workflow"
)

func newSocketServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	registry, err := agents.NewRegistry(
		&cannedAgent{name: workflow.RouteManufacturing, reply: "製造の回答"},
		&cannedAgent{name: workflow.RoutePython, reply: "pythonの回答"},
		&cannedAgent{name: workflow.RouteGeneral, reply: "一般の回答"},
	)
	require.NoError(t, err)

	engine := workflow.NewEngine(workflow.NewClassifier(), registry, tools.NewInvoker())
	svc := chat.NewService(engine, chat.NewMemoryHistory(), 10)
	socket := NewChatSocket(svc, nil)

	router := gin.New()
	router.GET("/api/v1/chat/ws/:session_id", socket.Serve)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

func dialSocket(t *testing.T, server *httptest.Server, sessionID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/v1/chat/ws/" + sessionID
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) map[string]json.RawMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var frame map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &frame))
	return frame
}

func frameType(t *testing.T, frame map[string]json.RawMessage) string {
	t.Helper()
	var typ string
	require.NoError(t, json.Unmarshal(frame["type"], &typ))
	return typ
}

func TestChatSocketChatFlow(t *testing.T) {
	server := newSocketServer(t)
	conn := dialSocket(t, server, "ws-session")

	// Connection handshake status frame.
	frame := readFrame(t, conn)
	assert.Equal(t, models.WSTypeStatus, frameType(t, frame))

	require.NoError(t, conn.WriteJSON(models.WSClientFrame{Message: "品質改善について"}))

	frame = readFrame(t, conn)
	require.Equal(t, models.WSTypeMessage, frameType(t, frame))

	var msg models.ChatMessage
	require.NoError(t, json.Unmarshal(frame["data"], &msg))
	assert.Equal(t, "製造の回答", msg.Content)
	assert.Equal(t, "assistant", msg.Role)
}

func TestChatSocketDebugEvents(t *testing.T) {
	server := newSocketServer(t)
	conn := dialSocket(t, server, "ws-debug")

	readFrame(t, conn) // status

	require.NoError(t, conn.WriteJSON(models.WSClientFrame{
		Message: "pythonのコードを見て",
		Debug:   true,
	}))

	var types []string
	for {
		frame := readFrame(t, conn)
		typ := frameType(t, frame)
		types = append(types, typ)
		if typ == models.WSTypeMessage {
			var msg models.ChatMessage
			require.NoError(t, json.Unmarshal(frame["data"], &msg))
			assert.Contains(t, msg.Content, "[DEBUG] ")
			break
		}
	}

	// Debug events stream before the final message.
	assert.Contains(t, types, models.WSTypeDebugEvent)
	assert.Equal(t, models.WSTypeMessage, types[len(types)-1])
}

func TestChatSocketInvalidMessage(t *testing.T) {
	server := newSocketServer(t)
	conn := dialSocket(t, server, "ws-invalid")

	readFrame(t, conn) // status

	require.NoError(t, conn.WriteJSON(models.WSClientFrame{Message: "   "}))

	frame := readFrame(t, conn)
	assert.Equal(t, models.WSTypeError, frameType(t, frame))

	// The connection survives an invalid message.
	require.NoError(t, conn.WriteJSON(models.WSClientFrame{Message: "こんにちは"}))
	frame = readFrame(t, conn)
	assert.Equal(t, models.WSTypeMessage, frameType(t, frame))
}

func TestWSConnWriteAfterCloseFails(t *testing.T) {
	server := newSocketServer(t)
	conn := dialSocket(t, server, "ws-closed")

	readFrame(t, conn) // status

	require.NoError(t, conn.Close())

	// A dead peer must surface as a write error so the session ends
	// instead of silently dropping every reply.
	wc := &wsConn{conn: conn}
	err := wc.writeJSON(models.WSStatus{Type: models.WSTypeStatus, SessionID: "ws-closed"})
	assert.Error(t, err)
}

func TestChatSocketOriginCheck(t *testing.T) {
	socket := NewChatSocket(nil, []string{"http://localhost:3002"})
	upgrader := socket.upgrader()

	req := httptest.NewRequest("GET", "/api/v1/chat/ws/s", nil)
	req.Header.Set("Origin", "http://evil.example")
	assert.False(t, upgrader.CheckOrigin(req))

	req.Header.Set("Origin", "http://localhost:3002")
	assert.True(t, upgrader.CheckOrigin(req))
}
