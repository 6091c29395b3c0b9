package inventory

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// ErrNoCachePath means caching was requested without a configured cache
// path. This is a configuration error, never silently skipped.
var ErrNoCachePath = errors.New("cache path is not configured")

// Orchestrator decides, per call, whether the inventory is served from
// the cache file or from a live fetch. Every live fetch replaces the
// cache in full; cached and live data are never merged.
type Orchestrator struct {
	builder *Builder
	store   Store
	path    string
	ttl     time.Duration
	logger  *slog.Logger
}

func NewOrchestrator(builder *Builder, store Store, path string, ttl time.Duration, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		builder: builder,
		store:   store,
		path:    path,
		ttl:     ttl,
		logger:  logger,
	}
}

// Get returns the current inventory. With refresh set the cache is
// bypassed and rewritten. Otherwise a fresh, decodable cache file is
// served as-is; a stale, missing or corrupted one falls through to a live
// fetch that overwrites it.
func (o *Orchestrator) Get(ctx context.Context, refresh bool) (*Document, error) {
	if o.path == "" {
		return nil, ErrNoCachePath
	}
	if refresh {
		return o.fetchAndSave(ctx)
	}
	if o.store.Fresh(o.path, o.ttl) {
		doc, err := o.store.Read(o.path)
		if err == nil {
			o.logger.Debug("serving cached inventory", "path", o.path)
			return doc, nil
		}
		// Fresh but unreadable is a miss, rebuild and overwrite.
		o.logger.Debug("cache unreadable, falling back to live fetch", "path", o.path, "error", err)
	}
	return o.fetchAndSave(ctx)
}

func (o *Orchestrator) fetchAndSave(ctx context.Context) (*Document, error) {
	doc, err := o.builder.Build(ctx)
	if err != nil {
		return nil, err
	}
	if err := o.store.Write(o.path, doc); err != nil {
		return nil, err
	}
	o.logger.Debug("inventory cache refreshed", "path", o.path)
	return doc, nil
}
