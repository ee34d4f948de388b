package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cronhub/scheduler/internal/domain"
	"github.com/cronhub/scheduler/internal/jobsvc"
	"github.com/cronhub/scheduler/internal/transport/http/middleware"
)

type JobHandler struct {
	svc    *jobsvc.Service
	logger *slog.Logger
}

func NewJobHandler(svc *jobsvc.Service, logger *slog.Logger) *JobHandler {
	return &JobHandler{svc: svc, logger: logger.With("component", "job_handler")}
}

type jobRequest struct {
	Name           string            `json:"name" binding:"required"`
	JobClassString string            `json:"job_class_string" binding:"required"`
	PubArgs        []json.RawMessage `json:"pub_args"`
	Month          string            `json:"month"`
	Day            string            `json:"day"`
	DayOfWeek      string            `json:"day_of_week"`
	Hour           string            `json:"hour"`
	Minute         string            `json:"minute"`
	Paused         bool              `json:"paused"`
}

func (r jobRequest) trigger() domain.Trigger {
	return domain.Trigger{Month: r.Month, Day: r.Day, DayOfWeek: r.DayOfWeek, Hour: r.Hour, Minute: r.Minute}
}

func (h *JobHandler) List(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)
	jobs, err := h.svc.ListJobs(c.Request.Context(), claims)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobs": jobs})
}

func (h *JobHandler) Get(c *gin.Context) {
	job, err := h.svc.GetJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

func (h *JobHandler) Create(c *gin.Context) {
	var req jobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	claims := middleware.ClaimsFrom(c)
	job, err := h.svc.CreateJob(c.Request.Context(), jobsvc.CreateJobInput{
		Name:           req.Name,
		JobClassString: req.JobClassString,
		PubArgs:        req.PubArgs,
		Trigger:        req.trigger(),
		Paused:         req.Paused,
	}, claims)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"job_id": job.ID})
}

func (h *JobHandler) Update(c *gin.Context) {
	var req jobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	claims := middleware.ClaimsFrom(c)
	job, err := h.svc.UpdateJob(c.Request.Context(), c.Param("id"), jobsvc.UpdateJobInput{
		Name:           req.Name,
		JobClassString: req.JobClassString,
		PubArgs:        req.PubArgs,
		Trigger:        req.trigger(),
	}, claims)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"job_id": job.ID})
}

func (h *JobHandler) Delete(c *gin.Context) {
	claims := middleware.ClaimsFrom(c)
	jobID := c.Param("id")
	if err := h.svc.DeleteJob(c.Request.Context(), jobID, claims); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"job_id": jobID})
}

func (h *JobHandler) Pause(c *gin.Context) {
	h.setPaused(c, true)
}

func (h *JobHandler) Resume(c *gin.Context) {
	h.setPaused(c, false)
}

func (h *JobHandler) setPaused(c *gin.Context, paused bool) {
	claims := middleware.ClaimsFrom(c)
	job, err := h.svc.SetPaused(c.Request.Context(), c.Param("id"), paused, claims)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"job_id": job.ID})
}
