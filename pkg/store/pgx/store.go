// Package pgx implements the storage interfaces on PostgreSQL with
// pgvector for vector similarity search.
package pgx

import (
	"context"
	"fmt"

	"github.com/lorebase/lorebase/pkg/ai"
	"github.com/lorebase/lorebase/pkg/common"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"
)

type pgxIConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgxv5.Rows, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgxv5.Row
	Begin(ctx context.Context) (pgxv5.Tx, error)
}

// Store persists chunks and the gazetteer name list in PostgreSQL. The AI
// client supplies embeddings for stored and queried text.
type Store struct {
	conn     pgxIConn
	aiClient ai.LoreAIClient
}

// NewStoreWithConnection creates a Store over an existing connection or
// pool.
func NewStoreWithConnection(conn pgxIConn, aiClient ai.LoreAIClient) *Store {
	return &Store{
		conn:     conn,
		aiClient: aiClient,
	}
}

const similaritySearchSQL = `
	SELECT title, content, source, 1 - (embedding <=> $1) AS similarity
	FROM chunks
	ORDER BY embedding <=> $1
	LIMIT $2
`

// SimilaritySearch embeds the text and returns the closest chunks by
// cosine similarity.
func (s *Store) SimilaritySearch(ctx context.Context, text string, limit int) ([]common.Chunk, error) {
	embedding, err := s.aiClient.GenerateEmbedding(ctx, []byte(text))
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	rows, err := s.conn.Query(ctx, similaritySearchSQL, pgvector.NewVector(embedding), limit)
	if err != nil {
		return nil, fmt.Errorf("similarity search failed: %w", err)
	}
	defer rows.Close()

	chunks := make([]common.Chunk, 0, limit)
	for rows.Next() {
		var c common.Chunk
		if err := rows.Scan(&c.Title, &c.Content, &c.Source, &c.Score); err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

const insertChunkSQL = `
	INSERT INTO chunks (title, content, source, embedding)
	VALUES ($1, $2, $3, $4)
`

// SaveChunks embeds and persists the chunks in one transaction.
func (s *Store) SaveChunks(ctx context.Context, chunks []common.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, c := range chunks {
		embedding, err := s.aiClient.GenerateEmbedding(ctx, []byte(c.Content))
		if err != nil {
			return fmt.Errorf("failed to embed chunk of %q: %w", c.Title, err)
		}
		if _, err := tx.Exec(ctx, insertChunkSQL, c.Title, c.Content, c.Source, pgvector.NewVector(embedding)); err != nil {
			return fmt.Errorf("failed to insert chunk of %q: %w", c.Title, err)
		}
	}

	return tx.Commit(ctx)
}

const gazetteerNamesSQL = `
	SELECT name FROM gazetteer_entries ORDER BY id
`

// GazetteerNames returns every stored canonical name in insertion order.
func (s *Store) GazetteerNames(ctx context.Context) ([]string, error) {
	rows, err := s.conn.Query(ctx, gazetteerNamesSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to load gazetteer: %w", err)
	}
	defer rows.Close()

	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// ReplaceGazetteer atomically replaces the stored name list.
func (s *Store) ReplaceGazetteer(ctx context.Context, names []string) error {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `TRUNCATE gazetteer_entries RESTART IDENTITY`); err != nil {
		return fmt.Errorf("failed to clear gazetteer: %w", err)
	}
	for _, name := range names {
		if _, err := tx.Exec(ctx, `INSERT INTO gazetteer_entries (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, name); err != nil {
			return fmt.Errorf("failed to insert gazetteer name %q: %w", name, err)
		}
	}

	return tx.Commit(ctx)
}
