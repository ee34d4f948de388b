package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cronhub/scheduler/internal/auth"
	"github.com/cronhub/scheduler/internal/store"
	"github.com/cronhub/scheduler/internal/transport/http/middleware"
)

type AuthHandler struct {
	auth   *auth.Service
	store  store.UserStore
	logger *slog.Logger
}

func NewAuthHandler(a *auth.Service, st store.UserStore, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: a, store: st, logger: logger.With("component", "auth_handler")}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := h.auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	user, err := h.store.GetUser(c.Request.Context(), req.Username)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

func (h *AuthHandler) Verify(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)
	user, err := h.store.GetUserByID(c.Request.Context(), claims.UserID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}
