package publishers

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/rniirs/news-harvester/internal/logger"
)

// Builder creates a Publisher from a config entry.
type Builder func(ctx context.Context, cfg PublisherConfig, log logger.Logger) (Publisher, error)

// Registry maps publisher types to builders.
type Registry interface {
	Register(typ string, builder Builder)
	Build(ctx context.Context, cfg PublisherConfig, log logger.Logger) (Publisher, error)
}

// UnknownTypeError reports a publisher whose type has no builder.
type UnknownTypeError struct {
	ID   string
	Type string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("no publisher registered for type %q (publisher %q)", e.Type, e.ID)
}

// BuilderRegistry is the map-backed Registry.
type BuilderRegistry struct {
	mu       sync.RWMutex
	builders map[string]Builder
}

// NewRegistry returns a registry with optional pre-registered builders.
func NewRegistry(builders map[string]Builder) *BuilderRegistry {
	r := &BuilderRegistry{builders: make(map[string]Builder, len(builders))}
	for typ, b := range builders {
		r.Register(typ, b)
	}
	return r
}

// Register associates a builder with a publisher type; later calls overwrite.
func (r *BuilderRegistry) Register(typ string, builder Builder) {
	key := strings.ToLower(strings.TrimSpace(typ))
	if key == "" || builder == nil {
		return
	}
	r.mu.Lock()
	r.builders[key] = builder
	r.mu.Unlock()
}

// Types lists registered publisher types in lexical order.
func (r *BuilderRegistry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.builders))
	for k := range r.builders {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// Build constructs the publisher for cfg.
func (r *BuilderRegistry) Build(ctx context.Context, cfg PublisherConfig, log logger.Logger) (Publisher, error) {
	r.mu.RLock()
	builder, ok := r.builders[strings.ToLower(strings.TrimSpace(cfg.Type))]
	r.mu.RUnlock()

	if !ok {
		return nil, &UnknownTypeError{ID: cfg.ID, Type: cfg.Type}
	}
	pub, err := builder(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("build publisher %q: %w", cfg.ID, err)
	}
	return pub, nil
}

// DefaultRegistry wires up the known publisher types.
func DefaultRegistry() *BuilderRegistry {
	return NewRegistry(map[string]Builder{
		TypeHTTP:  newHTTPPublisher,
		TypeFile:  newFilePublisher,
		TypeQueue: newQueuePublisher,
		TypeNoop:  newNoopPublisher,
	})
}

// BuildAll instantiates a publisher per config. On failure the publishers
// built so far are closed.
func BuildAll(ctx context.Context, reg Registry, cfgs []PublisherConfig, log logger.Logger) ([]Publisher, error) {
	if reg == nil || len(cfgs) == 0 {
		return nil, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	log = logger.Ensure(log)

	pubs := make([]Publisher, 0, len(cfgs))
	for _, cfg := range cfgs {
		pub, err := reg.Build(ctx, cfg, log)
		if err != nil {
			closeAll(pubs)
			return nil, err
		}
		log.DebugObj("publisher built", "publisher", map[string]any{
			"id":    pub.ID(),
			"type":  pub.Type(),
			"modes": cfg.Modes,
		})
		pubs = append(pubs, pub)
	}
	return pubs, nil
}
