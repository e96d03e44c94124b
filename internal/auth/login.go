package auth

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/monozukuri-ai/assistant-orchestrator/internal/models"
)

// LoginHandler authenticates the configured operator account and issues JWTs.
type LoginHandler struct {
	jwtManager   *JWTManager
	adminEmail   string
	passwordHash string
	tokenExpiry  time.Duration
}

// NewLoginHandler creates a login handler for the single configured account.
func NewLoginHandler(jm *JWTManager, adminEmail, passwordHash string, tokenExpiry time.Duration) *LoginHandler {
	return &LoginHandler{
		jwtManager:   jm,
		adminEmail:   adminEmail,
		passwordHash: passwordHash,
		tokenExpiry:  tokenExpiry,
	}
}

// Login handles POST /api/v1/auth/login.
//
//	@Summary		Operator login
//	@Description	Validates credentials and returns a bearer token
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		models.LoginRequest	true	"Credentials"
//	@Success		200		{object}	models.LoginResponse
//	@Failure		400		{object}	models.ErrorResponse
//	@Failure		401		{object}	models.ErrorResponse
//	@Router			/api/v1/auth/login [post]
func (h *LoginHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: "invalid request body: " + err.Error(),
			Code:  models.ErrCodeInvalidRequest,
		})
		return
	}

	if req.Email != h.adminEmail ||
		bcrypt.CompareHashAndPassword([]byte(h.passwordHash), []byte(req.Password)) != nil {
		log.Warn().Str("email", req.Email).Msg("login rejected")
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Error: "invalid email or password",
			Code:  models.ErrCodeUnauthorized,
		})
		return
	}

	token, err := h.jwtManager.GenerateToken(c.Request.Context(), "admin", req.Email, h.tokenExpiry)
	if err != nil {
		log.Error().Err(err).Msg("token generation failed")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: "failed to issue token",
			Code:  models.ErrCodeInternalError,
		})
		return
	}

	c.JSON(http.StatusOK, models.LoginResponse{
		Token:     token,
		ExpiresIn: int64(h.tokenExpiry.Seconds()),
	})
}
