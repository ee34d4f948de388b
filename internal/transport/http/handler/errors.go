package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/cronhub/scheduler/internal/apperr"
)

// respondError classifies err via apperr and writes the matching status
// code and body, logging anything above a validation/auth/not-found level.
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	appErr := apperr.FromDomain(err)
	if appErr.Kind == apperr.KindStoreFailure || appErr.Kind == apperr.KindInternal || appErr.Kind == apperr.KindRegistryFailure {
		logger.Error("request failed", "path", c.FullPath(), "error", err)
	}
	c.JSON(appErr.Kind.Status(), gin.H{"error": appErr.Message})
}
