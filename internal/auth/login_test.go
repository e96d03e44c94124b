package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/monozukuri-ai/assistant-orchestrator/internal/models"
)

func newLoginRouter(t *testing.T, email, password string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	jm, err := NewJWTManager("test-secret")
	require.NoError(t, err)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	handler := NewLoginHandler(jm, email, string(hash), 24*time.Hour)
	router := gin.New()
	router.POST("/api/v1/auth/login", handler.Login)
	return router
}

func postLogin(t *testing.T, router *gin.Engine, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestLoginSuccess(t *testing.T) {
	router := newLoginRouter(t, "operator@example.com", "correct-horse")

	w := postLogin(t, router, models.LoginRequest{
		Email:    "operator@example.com",
		Password: "correct-horse",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, int64((24*time.Hour).Seconds()), resp.ExpiresIn)
}

func TestLoginWrongPassword(t *testing.T) {
	router := newLoginRouter(t, "operator@example.com", "correct-horse")

	w := postLogin(t, router, models.LoginRequest{
		Email:    "operator@example.com",
		Password: "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginUnknownEmail(t *testing.T) {
	router := newLoginRouter(t, "operator@example.com", "correct-horse")

	w := postLogin(t, router, models.LoginRequest{
		Email:    "someone-else@example.com",
		Password: "correct-horse",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginMissingFields(t *testing.T) {
	router := newLoginRouter(t, "operator@example.com", "correct-horse")

	w := postLogin(t, router, map[string]string{"email": "operator@example.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
