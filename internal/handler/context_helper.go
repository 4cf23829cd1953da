package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/course-registration-api/internal/middleware"
)

func actorFromContext(c *gin.Context) string {
	value, exists := c.Get(middleware.ContextActorKey)
	if !exists {
		return ""
	}
	actor, ok := value.(string)
	if !ok {
		return ""
	}
	return actor
}
