package gazetteer

import (
	"context"
	"errors"
	"testing"
)

func TestProviderReloadSwapsMatcher(t *testing.T) {
	names := []string{}
	p := NewProvider(func(ctx context.Context) ([]string, error) {
		return names, nil
	}, DefaultCutoff)

	if got := p.Index().Len(); got != 0 {
		t.Fatalf("initial index len = %d, want 0", got)
	}

	names = []string{"Guilliman", "Abaddon"}
	if err := p.Reload(context.Background()); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if got := p.Index().Len(); got != 2 {
		t.Errorf("index len = %d, want 2", got)
	}
	if spans := p.Matcher().Extract("guiliman attacked"); len(spans) != 1 {
		t.Errorf("spans = %v, want the reloaded name matched", spans)
	}
}

func TestProviderReloadKeepsOldMatcherOnError(t *testing.T) {
	fail := false
	p := NewProvider(func(ctx context.Context) ([]string, error) {
		if fail {
			return nil, errors.New("store down")
		}
		return []string{"Guilliman"}, nil
	}, DefaultCutoff)

	if err := p.Reload(context.Background()); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}

	fail = true
	if err := p.Reload(context.Background()); err == nil {
		t.Fatal("Reload() error = nil, want source failure")
	}
	if got := p.Index().Len(); got != 1 {
		t.Errorf("index len after failed reload = %d, want 1", got)
	}
}
