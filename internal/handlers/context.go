package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
)

// requestContext extracts the request context, falling back to Background
// for handlers invoked without a request in tests.
func requestContext(c *gin.Context) context.Context {
	if c == nil || c.Request == nil {
		return context.Background()
	}
	return c.Request.Context()
}
