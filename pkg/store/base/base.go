// Package base defines the storage interfaces consumed by retrieval and
// the gazetteer build pipeline.
package base

import (
	"context"

	"github.com/lorebase/lorebase/pkg/common"
)

// VectorStore provides similarity search over stored chunks.
type VectorStore interface {
	// SimilaritySearch returns up to limit chunks ranked by vector
	// similarity to the text.
	SimilaritySearch(ctx context.Context, text string, limit int) ([]common.Chunk, error)

	// SaveChunks embeds and persists the given chunks.
	SaveChunks(ctx context.Context, chunks []common.Chunk) error
}

// GazetteerStore persists the canonical name list the matcher is built
// from.
type GazetteerStore interface {
	// GazetteerNames returns every stored canonical name in insertion
	// order.
	GazetteerNames(ctx context.Context) ([]string, error)

	// ReplaceGazetteer atomically replaces the stored name list.
	ReplaceGazetteer(ctx context.Context, names []string) error
}

// Storage combines every persistence concern of the service.
type Storage interface {
	VectorStore
	GazetteerStore
}
