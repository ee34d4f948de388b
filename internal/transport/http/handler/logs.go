package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cronhub/scheduler/internal/store"
	"github.com/cronhub/scheduler/internal/transport/http/middleware"
)

const defaultAuditWindow = 24 * time.Hour

type LogHandler struct {
	store  store.AuditStore
	logger *slog.Logger
}

func NewLogHandler(st store.AuditStore, logger *slog.Logger) *LogHandler {
	return &LogHandler{store: st, logger: logger.With("component", "log_handler")}
}

func (h *LogHandler) List(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)
	end := time.Now()
	start := end.Add(-defaultAuditWindow)

	if v := c.Query("time_range_start"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid time_range_start"})
			return
		}
		start = parsed
	}
	if v := c.Query("time_range_end"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid time_range_end"})
			return
		}
		end = parsed
	}

	logs, err := h.store.GetAuditLogsInRange(c.Request.Context(), start, end, claims.CategoryID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"logs": logs, "total": len(logs)})
}
