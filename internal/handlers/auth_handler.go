package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/justsurfingit/career-atlas/internal/auth"
	"github.com/justsurfingit/career-atlas/internal/dtos"
)

const stateCookie = "oauth_state"

// OAuthFlow is the browser sign-in flow of the identity provider.
type OAuthFlow interface {
	LoginURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	Revoke(ctx context.Context, token string) error
}

type AuthHandler struct {
	Flow OAuthFlow
}

func NewAuthHandler(flow OAuthFlow) *AuthHandler {
	return &AuthHandler{Flow: flow}
}

func (h *AuthHandler) enabled(c *gin.Context) bool {
	if h.Flow == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Sign-in is not configured"})
		return false
	}
	return true
}

// Login is GET /auth/login. Signing in for the first time also signs up.
func (h *AuthHandler) Login(c *gin.Context) {
	if !h.enabled(c) {
		return
	}
	state := uuid.NewString()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(stateCookie, state, int((10 * time.Minute).Seconds()), "/", "", false, true)
	c.Redirect(http.StatusFound, h.Flow.LoginURL(state))
}

// Callback is GET /auth/callback
func (h *AuthHandler) Callback(c *gin.Context) {
	if !h.enabled(c) {
		return
	}
	want, err := c.Cookie(stateCookie)
	if err != nil || want == "" || want != c.Query("state") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid sign-in state"})
		return
	}
	c.SetCookie(stateCookie, "", -1, "/", "", false, true)

	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing authorization code"})
		return
	}
	tok, err := h.Flow.Exchange(c.Request.Context(), code)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	resp := dtos.TokenResponse{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.Type(),
	}
	if !tok.Expiry.IsZero() {
		resp.Expiry = tok.Expiry.UTC().Format(time.RFC3339)
	}
	c.JSON(http.StatusOK, resp)
}

// Logout is POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if !h.enabled(c) {
		return
	}
	token := auth.BearerToken(c)
	if token == "" {
		c.Status(http.StatusNoContent)
		return
	}
	if err := h.Flow.Revoke(c.Request.Context(), token); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
