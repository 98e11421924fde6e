// Package ingest turns raw articles into embedded chunks and keeps the
// gazetteer name list in sync with the corpus.
package ingest

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/lorebase/lorebase/internal/util"
	"github.com/lorebase/lorebase/pkg/common"
	"github.com/lorebase/lorebase/pkg/leaselock"
	"github.com/lorebase/lorebase/pkg/logger"
	"github.com/lorebase/lorebase/pkg/store/base"
)

// RebuildLeaseName serializes gazetteer rebuilds across workers.
const RebuildLeaseName = "gazetteer_rebuild"

// Pipeline ingests articles concurrently and rebuilds the gazetteer
// under a cluster-wide lease.
type Pipeline struct {
	store   base.Storage
	chunker *Chunker
	locks   *leaselock.Client
	pool    *ants.Pool
}

// NewPipelineParams configures a Pipeline. Workers <= 0 falls back to
// half the CPU count.
type NewPipelineParams struct {
	Store   base.Storage
	Chunker *Chunker
	Locks   *leaselock.Client
	Workers int
}

func NewPipeline(params NewPipelineParams) (*Pipeline, error) {
	workers := params.Workers
	if workers <= 0 {
		workers = runtime.NumCPU() / 2
		if workers < 1 {
			workers = 1
		}
	}

	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		store:   params.Store,
		chunker: params.Chunker,
		locks:   params.Locks,
		pool:    pool,
	}, nil
}

// Release frees the worker pool.
func (p *Pipeline) Release() {
	p.pool.Release()
}

// IngestArticles chunks and stores every article. Articles are processed
// concurrently; the first failure is returned after all workers finish.
func (p *Pipeline) IngestArticles(ctx context.Context, articles []common.Article) error {
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	for _, article := range articles {
		wg.Add(1)
		submitErr := p.pool.Submit(func() {
			defer wg.Done()

			chunks := p.chunker.Split(article)
			if len(chunks) == 0 {
				logger.Warn("[Ingest] article has no content, skipping", "title", article.Title)
				return
			}
			saveErr := util.RetryErr(3, func() error {
				return p.store.SaveChunks(ctx, chunks)
			})
			if saveErr != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("ingest of %q failed: %w", article.Title, saveErr)
				}
				mu.Unlock()
				return
			}
			logger.Debug("[Ingest] stored article", "title", article.Title, "chunks", len(chunks))
		})
		if submitErr != nil {
			wg.Done()
			return submitErr
		}
	}

	wg.Wait()
	return firstErr
}

// GazetteerNames extracts the canonical name candidates of a batch of
// articles: the article titles plus any tagged entities, deduplicated
// case-insensitively and sorted.
func GazetteerNames(articles []common.Article) []string {
	seen := make(map[string]struct{})
	names := make([]string, 0, len(articles))

	add := func(name string) {
		name = strings.TrimSpace(name)
		if name == "" {
			return
		}
		key := strings.ToLower(name)
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		names = append(names, name)
	}

	for _, a := range articles {
		add(a.Title)
		for _, e := range a.Entities {
			add(e)
		}
	}

	sort.Strings(names)
	return names
}

// RebuildGazetteer replaces the stored name list while holding the
// rebuild lease, so concurrent workers cannot interleave replacements.
func (p *Pipeline) RebuildGazetteer(ctx context.Context, names []string) error {
	if p.locks == nil {
		return p.store.ReplaceGazetteer(ctx, names)
	}

	return p.locks.WithLease(ctx, RebuildLeaseName, leaselock.Options{
		TTL:  2 * time.Minute,
		Wait: false,
	}, func(ctx context.Context) error {
		return p.store.ReplaceGazetteer(ctx, names)
	})
}
