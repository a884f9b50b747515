package http

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookcatalog/internal/apperr"
	"github.com/mrlokans/bookcatalog/internal/auth"
)

// AuthController serves signup, login and identity endpoints.
type AuthController struct {
	service *auth.Service
	guard   *auth.LoginGuard
}

// NewAuthController creates an AuthController. guard may be nil.
func NewAuthController(service *auth.Service, guard *auth.LoginGuard) *AuthController {
	return &AuthController{service: service, guard: guard}
}

// SignupRequest is the body of POST /auth/signup.
type SignupRequest struct {
	Username    string `json:"username" binding:"required"`
	Password    string `json:"password" binding:"required"`
	DisplayName string `json:"display_name"`
	TypeAuthen  string `json:"type_authen"`
}

// LoginRequest is the body of POST /auth/login, form encoded or JSON.
type LoginRequest struct {
	Username string `form:"username" json:"username" binding:"required"`
	Password string `form:"password" json:"password" binding:"required"`
}

// TokenResponse is returned by a successful login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// MeResponse describes the caller.
type MeResponse struct {
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
}

// Signup handles POST /auth/signup.
func (ac *AuthController) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := ac.service.Signup(c.Request.Context(), auth.SignupRequest{
		Username:    req.Username,
		Password:    req.Password,
		DisplayName: req.DisplayName,
		TypeAuthen:  req.TypeAuthen,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondCreated(c, MessageResponse{Msg: fmt.Sprintf("user %s registered successfully", user.DisplayName)})
}

// Login handles POST /auth/login.
// Repeated failures for one IP+username pair lock that pair out for a while.
func (ac *AuthController) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		respondBindError(c, err)
		return
	}

	token, err := ac.guard.Login(c.Request.Context(), ac.service, c.ClientIP(), req.Username, req.Password)
	if err != nil {
		var locked *auth.LockedOutError
		if errors.As(err, &locked) {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(locked.RetryAfter.Seconds()))))
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, TokenResponse{AccessToken: token.AccessToken, TokenType: token.TokenType})
}

// Me handles GET /auth/me.
func (ac *AuthController) Me(c *gin.Context) {
	user := auth.GetUser(c)
	if user == nil {
		respondError(c, apperr.ErrUnauthorized)
		return
	}
	c.JSON(http.StatusOK, MeResponse{
		UserID:      user.ID,
		Username:    user.Username,
		DisplayName: user.DisplayName,
	})
}

// Ping handles GET /auth/ping.
func (ac *AuthController) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ping": "pong"})
}
