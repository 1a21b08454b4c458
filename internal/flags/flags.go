// Package flags resolves feature flags. Configuration supplies the
// defaults; a Redis key fouta:flags:{name} holding true or false overrides
// them at runtime.
package flags

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/fouta-app/functions/internal/cache"
)

// ScheduledPosts gates the scheduled post publisher
const ScheduledPosts = "scheduled_posts"

// ErrUnknownFlag is returned when overriding a flag that has no default
var ErrUnknownFlag = errors.New("unknown flag")

// Flags reads feature flags
type Flags struct {
	cache    *cache.Cache
	defaults map[string]bool
	logger   *zap.Logger
}

// New creates a flag reader. cache may be nil.
func New(c *cache.Cache, defaults map[string]bool, logger *zap.Logger) *Flags {
	d := make(map[string]bool, len(defaults))
	for k, v := range defaults {
		d[k] = v
	}
	return &Flags{cache: c, defaults: d, logger: logger}
}

// Enabled reports whether the flag is on. Unknown flags are off; Redis
// errors fall back to the configured default.
func (f *Flags) Enabled(ctx context.Context, name string) bool {
	def := f.defaults[name]

	val, err := f.cache.Get(ctx, key(name))
	switch {
	case errors.Is(err, cache.ErrCacheDisabled), errors.Is(err, cache.ErrMiss):
		return def
	case err != nil:
		f.logger.Warn("Failed to read flag override", zap.String("flag", name), zap.Error(err))
		return def
	}

	on, err := strconv.ParseBool(val)
	if err != nil {
		f.logger.Warn("Ignoring malformed flag override", zap.String("flag", name), zap.String("value", val))
		return def
	}
	return on
}

// Known reports whether name has a configured default
func (f *Flags) Known(name string) bool {
	_, ok := f.defaults[name]
	return ok
}

// Overridden reports whether a runtime override is stored for name
func (f *Flags) Overridden(ctx context.Context, name string) (bool, error) {
	return f.cache.Exists(ctx, key(name))
}

// Set stores a runtime override
func (f *Flags) Set(ctx context.Context, name string, on bool) error {
	if !f.Known(name) {
		return fmt.Errorf("%w: %s", ErrUnknownFlag, name)
	}
	if err := f.cache.Set(ctx, key(name), strconv.FormatBool(on), 0); err != nil {
		return err
	}
	f.logger.Info("Flag overridden", zap.String("flag", name), zap.Bool("enabled", on))
	return nil
}

// Clear drops a runtime override
func (f *Flags) Clear(ctx context.Context, name string) error {
	if !f.Known(name) {
		return fmt.Errorf("%w: %s", ErrUnknownFlag, name)
	}
	if err := f.cache.Delete(ctx, key(name)); err != nil {
		return err
	}
	f.logger.Info("Flag override cleared", zap.String("flag", name))
	return nil
}

func key(name string) string {
	return "flags:" + name
}
