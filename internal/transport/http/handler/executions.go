package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cronhub/scheduler/internal/jobsvc"
	"github.com/cronhub/scheduler/internal/store"
	"github.com/cronhub/scheduler/internal/transport/http/middleware"
)

const defaultExecutionsWindow = 10 * time.Minute

type ExecutionHandler struct {
	store  store.ExecutionStore
	svc    *jobsvc.Service
	logger *slog.Logger
}

func NewExecutionHandler(st store.ExecutionStore, svc *jobsvc.Service, logger *slog.Logger) *ExecutionHandler {
	return &ExecutionHandler{store: st, svc: svc, logger: logger.With("component", "execution_handler")}
}

func (h *ExecutionHandler) ManualRun(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)
	executionID, err := h.svc.ManualRun(c.Request.Context(), c.Param("job_id"), claims)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"execution_id": executionID})
}

func (h *ExecutionHandler) List(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)
	end := time.Now()
	start := end.Add(-defaultExecutionsWindow)

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

	executions, err := h.store.GetExecutionsInRange(c.Request.Context(), start, end, claims.CategoryID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"executions": executions})
}

func (h *ExecutionHandler) Get(c *gin.Context) {
	exec, err := h.store.GetExecution(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, exec)
}
