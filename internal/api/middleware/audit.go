package middleware

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/florentincondu/proiect-web-sub000/internal/models"
)

// AuditRecorder persists audit entries. Record must not fail the caller.
type AuditRecorder interface {
	Record(ctx context.Context, entry *models.SystemLog)
}

// AdminAudit records every successful mutating admin request to the system log.
// Assumes AuthMiddleware runs first.
func AdminAudit(logs AuditRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead || c.Request.Method == http.MethodOptions {
			return
		}
		status := c.Writer.Status()
		if status >= http.StatusBadRequest {
			return
		}

		entry := &models.SystemLog{
			Level:    models.LogLevelInfo,
			Category: models.LogCategoryAdmin,
			Message:  fmt.Sprintf("Admin %s %s", c.Request.Method, c.FullPath()),
			IP:       c.ClientIP(),
			Metadata: map[string]interface{}{
				"path":   c.Request.URL.Path,
				"status": status,
			},
		}
		if actor, ok := CurrentActor(c); ok {
			id := actor.ID
			entry.UserID = &id
		}
		for _, p := range c.Params {
			entry.Metadata["param_"+p.Key] = p.Value
		}
		// The request context may already be cancelled once the response is written.
		logs.Record(context.WithoutCancel(c.Request.Context()), entry)
	}
}
