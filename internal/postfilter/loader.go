// File: internal/postfilter/loader.go
// Description: Composes the registry resolver and the artifact cache into the
// model lifecycle: resolve, fetch, verify, hand out an immutable handle.

package postfilter

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/intellisa/iacsec/internal/modelcache"
	"github.com/intellisa/iacsec/internal/registry"
)

// ErrNoModelLoaded is returned when scoring is attempted before Load succeeds.
var ErrNoModelLoaded = errors.New("no model loaded")

// Loader resolves named models against the registry and materializes their
// artifacts through the cache. At most one handle is active per loader;
// loading a second model replaces it (last-load-wins, not a stack).
type Loader struct {
	registry *registry.Registry
	cache    *modelcache.Cache
	logger   *zap.Logger

	mu     sync.Mutex
	active *ModelHandle
}

// NewLoader creates a loader over the given registry and artifact cache.
func NewLoader(reg *registry.Registry, cache *modelcache.Cache, logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{registry: reg, cache: cache, logger: logger.Named("postfilter")}
}

// Load resolves and caches the named model, returning the active handle.
// A failed load leaves any previously active handle in place.
func (l *Loader) Load(name string) (ModelHandle, error) {
	entry, err := l.registry.Resolve(name)
	if err != nil {
		return ModelHandle{}, err
	}

	path, err := l.cache.EnsureCached(entry)
	if err != nil {
		return ModelHandle{}, err
	}

	handle := ModelHandle{
		Name:             entry.Name,
		Version:          entry.Version,
		Path:             path,
		Framework:        entry.Framework,
		DefaultThreshold: entry.DefaultThreshold,
		Labels:           append([]string(nil), entry.Labels...),
	}

	l.mu.Lock()
	l.active = &handle
	l.mu.Unlock()

	l.logger.Info("Post-filter model loaded",
		zap.String("model", handle.Name),
		zap.String("version", handle.Version),
		zap.String("framework", handle.Framework),
		zap.Float64("default_threshold", handle.DefaultThreshold),
	)
	return handle, nil
}

// Active returns the currently loaded handle.
func (l *Loader) Active() (ModelHandle, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.active == nil {
		return ModelHandle{}, ErrNoModelLoaded
	}
	return *l.active, nil
}

// EffectiveThreshold resolves the single classification threshold for a run:
// the caller's override when one was supplied, else the model default. This is
// the only place thresholds are resolved; everything downstream receives the
// resolved value.
func EffectiveThreshold(handle ModelHandle, override float64, overrideSet bool) float64 {
	if overrideSet {
		return override
	}
	return handle.DefaultThreshold
}
