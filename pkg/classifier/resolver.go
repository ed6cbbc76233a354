package classifier

import (
	"context"
	"strings"
	"sync"

	"github.com/rniirs/news-harvester/internal/logger"
)

// Resolver maps titles to category labels, caching results for its own lifetime.
// A Resolver never fails: any classifier error yields the fallback category.
type Resolver struct {
	client    Client
	fallback  string
	namespace string
	log       logger.Logger

	mu    sync.Mutex
	cache map[string]string
}

// NewResolver builds a resolver; a nil client always resolves to fallback.
func NewResolver(client Client, fallback, namespace string, log logger.Logger) *Resolver {
	return &Resolver{
		client:    client,
		fallback:  fallback,
		namespace: namespace,
		log:       logger.Ensure(log),
		cache:     make(map[string]string),
	}
}

// Resolve returns the category for title.
func (r *Resolver) Resolve(ctx context.Context, title string) string {
	key := strings.TrimSpace(title)

	r.mu.Lock()
	if label, ok := r.cache[key]; ok {
		r.mu.Unlock()
		return label
	}
	r.mu.Unlock()

	if r.client == nil || key == "" {
		return r.fallback
	}

	pred, err := r.client.Predict(ctx, key)
	if err != nil {
		r.log.WarnObj("classifier unavailable, using default category", "classifier_error", map[string]any{
			"source":   r.namespace,
			"title":    key,
			"fallback": r.fallback,
			"error":    err.Error(),
		})
		return r.fallback
	}

	r.mu.Lock()
	r.cache[key] = pred.Label
	r.mu.Unlock()

	r.log.DebugObj("classifier resolved category", "classifier_result", map[string]any{
		"source":     r.namespace,
		"title":      key,
		"category":   pred.Label,
		"confidence": pred.Confidence,
	})
	return pred.Label
}

// Fallback returns the default category.
func (r *Resolver) Fallback() string { return r.fallback }
