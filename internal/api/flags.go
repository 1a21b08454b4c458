package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fouta-app/functions/internal/cache"
	"github.com/fouta-app/functions/internal/flags"
)

// FlagStore reads and overrides feature flags
type FlagStore interface {
	Known(name string) bool
	Enabled(ctx context.Context, name string) bool
	Overridden(ctx context.Context, name string) (bool, error)
	Set(ctx context.Context, name string, on bool) error
	Clear(ctx context.Context, name string) error
}

type flagOverride struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

func (r *Router) getFlag(c *gin.Context) {
	name := c.Param("name")
	if !r.flags.Known(name) {
		r.sendError(c, fmt.Errorf("%w: %s", flags.ErrUnknownFlag, name))
		return
	}

	ctx := c.Request.Context()
	overridden, err := r.flags.Overridden(ctx, name)
	if err != nil && !errors.Is(err, cache.ErrCacheDisabled) {
		r.sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"flag":       name,
		"enabled":    r.flags.Enabled(ctx, name),
		"overridden": overridden,
	})
}

func (r *Router) setFlag(c *gin.Context) {
	var body flagOverride
	if err := c.ShouldBindJSON(&body); err != nil {
		r.sendError(c, NewError(http.StatusBadRequest, err.Error()))
		return
	}
	name := c.Param("name")
	if err := r.flags.Set(c.Request.Context(), name, *body.Enabled); err != nil {
		r.sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"flag": name, "enabled": *body.Enabled, "overridden": true})
}

func (r *Router) clearFlag(c *gin.Context) {
	name := c.Param("name")
	if err := r.flags.Clear(c.Request.Context(), name); err != nil {
		r.sendError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
