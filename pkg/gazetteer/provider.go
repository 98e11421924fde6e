package gazetteer

import (
	"context"
	"sync"
)

// NameSource loads the current canonical name list, typically from
// storage.
type NameSource func(ctx context.Context) ([]string, error)

// Provider holds the active matcher and swaps it atomically when the
// underlying name list changes.
type Provider struct {
	source NameSource
	cutoff float64

	mu      sync.RWMutex
	index   *Index
	matcher *Matcher
}

// NewProvider creates a provider with an empty matcher. Call Reload to
// populate it.
func NewProvider(source NameSource, cutoff float64) *Provider {
	index := NewIndex(nil)
	return &Provider{
		source:  source,
		cutoff:  cutoff,
		index:   index,
		matcher: NewMatcher(index, cutoff),
	}
}

// Reload rebuilds the matcher from the name source. The previous matcher
// stays active until the rebuild succeeds.
func (p *Provider) Reload(ctx context.Context) error {
	names, err := p.source(ctx)
	if err != nil {
		return err
	}

	index := NewIndex(names)
	matcher := NewMatcher(index, p.cutoff)

	p.mu.Lock()
	p.index = index
	p.matcher = matcher
	p.mu.Unlock()
	return nil
}

// Matcher returns the currently active matcher.
func (p *Provider) Matcher() *Matcher {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.matcher
}

// Index returns the currently active index.
func (p *Provider) Index() *Index {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.index
}
