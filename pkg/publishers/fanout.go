package publishers

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rniirs/news-harvester/internal/domain"
	"github.com/rniirs/news-harvester/internal/logger"
)

// ErrNoPublishers is returned when a batch has nowhere to go.
var ErrNoPublishers = errors.New("no publishers configured for run mode")

// Fanout dispatches events to all configured publishers.
type Fanout struct {
	publishers []Publisher
}

// NewFanout builds a dispatcher that fans out events across publishers.
func NewFanout(pubs []Publisher) *Fanout {
	cp := make([]Publisher, 0, len(pubs))
	for _, p := range pubs {
		if p == nil {
			continue
		}
		cp = append(cp, p)
	}
	return &Fanout{publishers: cp}
}

// Publish forwards the event to every registered publisher.
// It returns the number of publishers that successfully handled the event.
// A batch counts as delivered only when the returned error is nil.
func (f *Fanout) Publish(ctx context.Context, evt Event) (int, error) {
	if f == nil || len(f.publishers) == 0 {
		return 0, ErrNoPublishers
	}

	var errs []error
	successful := 0
	for _, p := range f.publishers {
		if err := p.Publish(ctx, evt); err != nil {
			errs = append(errs, fmt.Errorf("%s publisher[%s]: %w", p.Type(), p.ID(), err))
		} else {
			successful++
		}
	}
	return successful, errors.Join(errs...)
}

// Size returns the number of active publishers.
func (f *Fanout) Size() int {
	if f == nil {
		return 0
	}
	return len(f.publishers)
}

type binding struct {
	pub Publisher
	cfg PublisherConfig
}

// Selector picks the publishers taking part in a run of a given mode.
type Selector struct {
	bindings []binding
}

// BuildSelector instantiates the configured publishers and remembers which
// modes each one serves.
func BuildSelector(ctx context.Context, reg Registry, cfgs []PublisherConfig, log logger.Logger) (*Selector, error) {
	pubs, err := BuildAll(ctx, reg, cfgs, log)
	if err != nil {
		return nil, err
	}
	s := &Selector{bindings: make([]binding, 0, len(pubs))}
	for i, p := range pubs {
		s.bindings = append(s.bindings, binding{pub: p, cfg: cfgs[i]})
	}
	return s, nil
}

// NewSelector wraps already built publishers that serve every mode.
func NewSelector(pubs ...Publisher) *Selector {
	s := &Selector{}
	for _, p := range pubs {
		if p != nil {
			s.bindings = append(s.bindings, binding{pub: p})
		}
	}
	return s
}

// ForMode returns a fanout over the publishers bound to mode.
func (s *Selector) ForMode(mode domain.Mode) *Fanout {
	if s == nil {
		return NewFanout(nil)
	}
	pubs := make([]Publisher, 0, len(s.bindings))
	for _, b := range s.bindings {
		if b.cfg.AppliesTo(mode) {
			pubs = append(pubs, b.pub)
		}
	}
	return NewFanout(pubs)
}

// Close releases publishers holding client connections.
func (s *Selector) Close() error {
	if s == nil {
		return nil
	}
	pubs := make([]Publisher, 0, len(s.bindings))
	for _, b := range s.bindings {
		pubs = append(pubs, b.pub)
	}
	return closeAll(pubs)
}

func closeAll(pubs []Publisher) error {
	var errs []error
	for _, p := range pubs {
		if c, ok := p.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close %s publisher[%s]: %w", p.Type(), p.ID(), err))
			}
		}
	}
	return errors.Join(errs...)
}
