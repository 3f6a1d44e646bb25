// Package middleware provides HTTP middleware components.
package middleware

import (
	"context"

	"guestbook/backend/pkg/database"
	"guestbook/backend/pkg/errors"

	"github.com/gin-gonic/gin"
)

// PoolGetter returns the shared pool, building it on first use
type PoolGetter interface {
	Get(ctx context.Context) (*database.Pool, error)
}

// EnsurePool makes sure the connection pool exists before the handler runs.
// The first request builds it; if that fails the request ends with a
// database error and the next request tries again.
func EnsurePool(pools PoolGetter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := pools.Get(c.Request.Context()); err != nil {
			c.Error(errors.NewDatabaseError("initialize pool", err))
			c.Abort()
			return
		}
		c.Next()
	}
}
