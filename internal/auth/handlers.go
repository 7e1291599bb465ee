package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/jimdaga/pomodo/internal/store"
	"golang.org/x/crypto/bcrypt"
)

const refreshSessionKey = "refresh_token"

// Handlers serves registration, login, token refresh and logout.
type Handlers struct {
	store         *store.Store
	issuer        *Issuer
	secureCookies bool
}

// NewHandlers creates the auth handlers. secureCookies marks cookies Secure
// and should be set in production.
func NewHandlers(s *store.Store, issuer *Issuer, secureCookies bool) *Handlers {
	return &Handlers{store: s, issuer: issuer, secureCookies: secureCookies}
}

type registerRequest struct {
	Username             string `json:"username" form:"username"`
	Password             string `json:"password" form:"password"`
	PasswordConfirmation string `json:"passwordConfirmation" form:"passwordConfirmation"`
}

type loginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// Register creates an account.
func (h *Handlers) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Username and password are required"})
		return
	}
	if req.Password != req.PasswordConfirmation {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Passwords do not match"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		slog.Error("Failed to hash password", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
		return
	}

	user, err := h.store.CreateUser(c.Request.Context(), username, string(hash))
	switch {
	case errors.Is(err, store.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"message": "User already exists"})
		return
	case errors.Is(err, store.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	case err != nil:
		slog.Error("Failed to create user", "username", username, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
		return
	}

	slog.Info("User registered", "user_id", user.ID, "username", user.Username)
	c.JSON(http.StatusCreated, gin.H{"message": fmt.Sprintf("User Created %s", user.Username)})
}

// Login checks credentials, sets the access_token cookie and keeps a refresh
// token in the session.
func (h *Handlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	user, err := h.store.UserByUsername(c.Request.Context(), req.Username)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			slog.Error("Failed to look up user", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
			return
		}
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
		return
	}

	if _, err := h.startSession(c, user.ID); err != nil {
		slog.Error("Failed to start session", "user_id", user.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
		return
	}

	slog.Info("User authenticated", "user_id", user.ID, "username", user.Username)
	c.JSON(http.StatusOK, gin.H{"message": "Successfully logged in!"})
}

// Refresh rotates the session's refresh token and issues a new access token.
func (h *Handlers) Refresh(c *gin.Context) {
	session := sessions.Default(c)
	raw, _ := session.Get(refreshSessionKey).(string)
	if raw == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "No refresh token"})
		return
	}

	claims, err := h.issuer.Parse(raw, KindRefresh)
	if err != nil {
		h.clearSession(c)
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid or expired token."})
		return
	}

	userID, err := h.store.ConsumeRefreshToken(c.Request.Context(), claims.ID, h.issuer.now())
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			slog.Error("Failed to consume refresh token", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
			return
		}
		h.clearSession(c)
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid or expired token."})
		return
	}

	access, err := h.startSession(c, userID)
	if err != nil {
		slog.Error("Failed to rotate session", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Token refreshed", "access_token": access})
}

// Logout revokes the refresh token and clears both cookies.
func (h *Handlers) Logout(c *gin.Context) {
	session := sessions.Default(c)
	if raw, _ := session.Get(refreshSessionKey).(string); raw != "" {
		if claims, err := h.issuer.Parse(raw, KindRefresh); err == nil {
			if err := h.store.RevokeRefreshToken(c.Request.Context(), claims.ID); err != nil {
				slog.Error("Failed to revoke refresh token", "error", err)
			}
		}
	}

	h.clearSession(c)
	c.JSON(http.StatusOK, gin.H{"message": "Successfully logged out"})
}

// startSession issues a token pair, records the refresh JTI, stores the
// refresh token in the session and sets the access cookie.
func (h *Handlers) startSession(c *gin.Context, userID uint) (string, error) {
	access, err := h.issuer.IssueAccess(userID)
	if err != nil {
		return "", err
	}
	refresh, claims, err := h.issuer.IssueRefresh(userID)
	if err != nil {
		return "", err
	}
	if err := h.store.SaveRefreshToken(c.Request.Context(), userID, claims.ID, claims.ExpiresAt.Time); err != nil {
		return "", err
	}

	session := sessions.Default(c)
	session.Set(refreshSessionKey, refresh)
	if err := session.Save(); err != nil {
		return "", fmt.Errorf("session save: %w", err)
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AccessCookie, access, int(h.issuer.AccessTTL().Seconds()), "/", "", h.secureCookies, true)
	return access, nil
}

func (h *Handlers) clearSession(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		slog.Error("Session clear error", "error", err)
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AccessCookie, "", -1, "/", "", h.secureCookies, true)
}
