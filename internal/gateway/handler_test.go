package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monozukuri-ai/assistant-orchestrator/internal/agents"
	"github.com/monozukuri-ai/assistant-orchestrator/internal/chat"
	"github.com/monozukuri-ai/assistant-orchestrator/internal/models"
	"github.com/monozukuri-ai/assistant-orchestrator/internal/tools"
	"github.com/monozukuri-ai/assistant-orchestrator/internal/workflow"
)

type cannedAgent struct {
	name  string
	reply string
}

func (a *cannedAgent) Name() string { return a.name }

func (a *cannedAgent) Invoke(_ context.Context, _ agents.Input) (agents.Output, error) {
	return agents.Output{Content: a.reply}, nil
}

func newTestRouter(t *testing.T) *gin.Engine {
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
	handler := NewHandler(svc)

	router := gin.New()
	router.POST("/api/v1/chat", handler.Chat)
	router.GET("/api/v1/chat/history/:session_id", handler.ChatHistory)
	return router
}

func postChat(t *testing.T, router *gin.Engine, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestChatEndpoint(t *testing.T) {
	router := newTestRouter(t)

	w := postChat(t, router, models.ChatRequest{
		Message:   "品質改善について教えて",
		SessionID: "session-1",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "session-1", resp.SessionID)
	assert.Equal(t, "製造の回答", resp.Message.Content)
	assert.Nil(t, resp.Debug)
}

func TestChatEndpointDebugMode(t *testing.T) {
	router := newTestRouter(t)

	w := postChat(t, router, models.ChatRequest{
		Message:   "pythonのコードを確認して",
		SessionID: "session-1",
		Debug:     true,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.ChatResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Debug)
	assert.Equal(t, "python", resp.Debug.SelectedAgent)
	assert.Contains(t, resp.Message.Content, "[DEBUG] ")
	assert.NotEmpty(t, resp.Debug.DecisionTrace)
}

func TestChatEndpointRejectsMissingMessage(t *testing.T) {
	router := newTestRouter(t)

	w := postChat(t, router, map[string]string{"session_id": "s"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.ErrCodeInvalidRequest, resp.Code)
}

func TestChatEndpointRejectsBlankMessage(t *testing.T) {
	router := newTestRouter(t)

	w := postChat(t, router, models.ChatRequest{Message: "   ", SessionID: "s"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, models.ErrCodeInvalidRequest, resp.Code)
}

func TestChatEndpointRejectsMalformedJSON(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chat", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChatHistoryEndpoint(t *testing.T) {
	router := newTestRouter(t)

	w := postChat(t, router, models.ChatRequest{Message: "こんにちは", SessionID: "session-1"})
	require.Equal(t, http.StatusOK, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/chat/history/session-1", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var history models.ChatHistory
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &history))
	assert.Equal(t, "session-1", history.SessionID)
	assert.Len(t, history.Messages, 2)
}

func TestChatHistoryEndpointUnseenSession(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/chat/history/never-seen", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var history models.ChatHistory
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &history))
	assert.Empty(t, history.Messages)
}
