package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cronhub/scheduler/internal/domain"
	"github.com/cronhub/scheduler/internal/store"
	"github.com/cronhub/scheduler/internal/transport/http/middleware"
)

type UserHandler struct {
	store  store.UserStore
	logger *slog.Logger
}

func NewUserHandler(st store.UserStore, logger *slog.Logger) *UserHandler {
	return &UserHandler{store: st, logger: logger.With("component", "user_handler")}
}

type userRequest struct {
	Username     string `json:"username" binding:"required"`
	Password     string `json:"password"`
	IsAdmin      bool   `json:"is_admin"`
	IsPermission bool   `json:"is_permission"`
	CategoryID   int    `json:"category_id"`
}

func (h *UserHandler) Current(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)
	user, err := h.store.GetUserByID(c.Request.Context(), claims.UserID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) List(c *gin.Context) {
	users, err := h.store.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (h *UserHandler) Get(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	user, err := h.store.GetUserByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) Create(c *gin.Context) {
	var req userRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "password is required"})
		return
	}
	user := &domain.User{
		Username:     req.Username,
		IsAdmin:      req.IsAdmin,
		IsPermission: req.IsPermission,
		CategoryID:   req.CategoryID,
	}
	if err := h.store.AddUser(c.Request.Context(), user, req.Password); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": user.ID})
}

func (h *UserHandler) Update(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	var req userRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user := &domain.User{
		ID:           id,
		Username:     req.Username,
		IsAdmin:      req.IsAdmin,
		IsPermission: req.IsPermission,
		CategoryID:   req.CategoryID,
	}
	if err := h.store.UpdateUser(c.Request.Context(), user, req.Password); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id})
}

func (h *UserHandler) Delete(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	if err := h.store.DeleteUser(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id})
}
