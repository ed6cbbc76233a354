package sources

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rniirs/news-harvester/pkg/httpclient"
)

// UnknownSourceError reports a source with no registered parser.
type UnknownSourceError struct {
	ID   string
	Type string
}

func (e *UnknownSourceError) Error() string {
	return fmt.Sprintf("no parser registered for source %q (type %q)", e.ID, e.Type)
}

// Registry implements ParserRegistry with constructors keyed by source id or type.
type Registry struct {
	mu    sync.RWMutex
	ctors map[string]Constructor
}

// NewRegistry returns a registry with optional pre-registered constructors.
func NewRegistry(ctors map[string]Constructor) *Registry {
	r := &Registry{ctors: make(map[string]Constructor)}
	for kind, ctor := range ctors {
		r.Register(kind, ctor)
	}
	return r
}

// Register associates a constructor with a source id or type; later calls overwrite.
func (r *Registry) Register(kind string, ctor Constructor) {
	key := strings.ToLower(strings.TrimSpace(kind))
	if key == "" || ctor == nil {
		return
	}

	r.mu.Lock()
	r.ctors[key] = ctor
	r.mu.Unlock()
}

// Kinds lists registered keys in lexical order.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.ctors))
	for k := range r.ctors {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Get builds a new parser for the source, matching by id first and then by type.
func (r *Registry) Get(cfg Source, deps Deps) (Parser, error) {
	if r == nil {
		return nil, fmt.Errorf("parser registry is nil")
	}
	if strings.TrimSpace(cfg.ID) == "" {
		return nil, fmt.Errorf("source id is empty")
	}

	r.mu.RLock()
	ctor, ok := r.ctors[strings.ToLower(strings.TrimSpace(cfg.ID))]
	if !ok {
		ctor, ok = r.ctors[strings.ToLower(strings.TrimSpace(cfg.Type))]
	}
	r.mu.RUnlock()

	if !ok {
		return nil, &UnknownSourceError{ID: cfg.ID, Type: cfg.Type}
	}
	if deps.Client == nil {
		deps.Client = DefaultHTTPClient()
	}
	return ctor(cfg, deps)
}

// DefaultHTTPClient returns a tuned client for source parsers.
func DefaultHTTPClient() HTTPClient { return httpclient.NewRestyClient(15 * time.Second) }

const (
	TypeRSCF    = "rscf"
	TypeNaukaRF = "nauka_rf"
)

// DefaultRegistry wires up the known source parsers.
func DefaultRegistry() *Registry {
	return NewRegistry(map[string]Constructor{
		TypeRSCF:    NewRSCFParser,
		TypeNaukaRF: NewNaukaRFParser,
	})
}
