package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cronhub/scheduler/internal/domain"
	"github.com/cronhub/scheduler/internal/store"
)

type CategoryHandler struct {
	store  store.CategoryStore
	logger *slog.Logger
}

func NewCategoryHandler(st store.CategoryStore, logger *slog.Logger) *CategoryHandler {
	return &CategoryHandler{store: st, logger: logger.With("component", "category_handler")}
}

type categoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

func (h *CategoryHandler) List(c *gin.Context) {
	categories, err := h.store.ListCategories(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

func (h *CategoryHandler) Get(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category id"})
		return
	}
	category, err := h.store.GetCategory(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

func (h *CategoryHandler) Create(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	category := &domain.Category{Name: req.Name, Description: req.Description}
	if err := h.store.AddCategory(c.Request.Context(), category); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": category.ID})
}

func (h *CategoryHandler) Update(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category id"})
		return
	}
	if id == domain.CategoryAll {
		c.JSON(http.StatusBadRequest, gin.H{"error": domain.ErrCategoryZeroImmutable.Error()})
		return
	}
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	category := &domain.Category{ID: id, Name: req.Name, Description: req.Description}
	if err := h.store.UpdateCategory(c.Request.Context(), category); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": category.ID})
}

func (h *CategoryHandler) Delete(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category id"})
		return
	}
	if id == domain.CategoryAll {
		c.JSON(http.StatusBadRequest, gin.H{"error": domain.ErrCategoryZeroImmutable.Error()})
		return
	}
	if err := h.store.DeleteCategory(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id})
}
