// Package httptransport wires the gin router: middleware chain, route
// groups, and handler construction. Public routes (health checks, login) sit
// outside the authenticated group; admin-only routes nest inside it behind
// RequireAdmin.
package httptransport

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	sloggin "github.com/samber/slog-gin"

	"github.com/cronhub/scheduler/internal/auth"
	"github.com/cronhub/scheduler/internal/health"
	"github.com/cronhub/scheduler/internal/jobsvc"
	"github.com/cronhub/scheduler/internal/scheduler"
	"github.com/cronhub/scheduler/internal/store"
	"github.com/cronhub/scheduler/internal/transport/http/handler"
	"github.com/cronhub/scheduler/internal/transport/http/middleware"
)

type Deps struct {
	Store     store.Store
	Engine    *scheduler.Engine
	JobSvc    *jobsvc.Service
	Auth      *auth.Service
	Health    *health.Checker
	Logger    *slog.Logger
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(sloggin.New(d.Logger), gin.Recovery(), middleware.RequestID(), middleware.Metrics())

	authHandler := handler.NewAuthHandler(d.Auth, d.Store, d.Logger)
	jobHandler := handler.NewJobHandler(d.JobSvc, d.Logger)
	execHandler := handler.NewExecutionHandler(d.Store, d.JobSvc, d.Logger)
	logHandler := handler.NewLogHandler(d.Store, d.Logger)
	categoryHandler := handler.NewCategoryHandler(d.Store, d.Logger)
	userHandler := handler.NewUserHandler(d.Store, d.Logger)

	r.GET("/healthz", func(c *gin.Context) { c.JSON(200, d.Health.Liveness(c.Request.Context())) })
	r.GET("/readyz", func(c *gin.Context) {
		result := d.Health.Readiness(c.Request.Context())
		status := 200
		if result.Status != "up" {
			status = 503
		}
		c.JSON(status, result)
	})

	api := r.Group("/api/v1")

	api.POST("/auth/login", authHandler.Login)

	authed := api.Group("")
	authed.Use(middleware.Auth(d.Auth, d.Logger))
	authed.GET("/auth/verify", authHandler.Verify)

	authed.GET("/jobs", jobHandler.List)
	authed.GET("/jobs/:id", jobHandler.Get)
	authed.POST("/jobs", jobHandler.Create)
	authed.PUT("/jobs/:id", jobHandler.Update)
	authed.DELETE("/jobs/:id", jobHandler.Delete)
	authed.PATCH("/jobs/:id", jobHandler.Pause)
	authed.OPTIONS("/jobs/:id", jobHandler.Resume)

	authed.POST("/executions/:job_id", execHandler.ManualRun)
	authed.GET("/executions", execHandler.List)
	authed.GET("/executions/:id", execHandler.Get)

	authed.GET("/logs", logHandler.List)

	authed.GET("/categories", categoryHandler.List)
	authed.GET("/categories/:id", categoryHandler.Get)
	admin := authed.Group("")
	admin.Use(middleware.RequireAdmin())
	admin.POST("/categories", categoryHandler.Create)
	admin.PUT("/categories/:id", categoryHandler.Update)
	admin.DELETE("/categories/:id", categoryHandler.Delete)

	authed.GET("/users/current", userHandler.Current)
	admin.GET("/users", userHandler.List)
	admin.GET("/users/:id", userHandler.Get)
	admin.POST("/users", userHandler.Create)
	admin.PUT("/users/:id", userHandler.Update)
	admin.DELETE("/users/:id", userHandler.Delete)

	return r
}
