package ingest

import (
	"strings"

	"github.com/pkoukk/tiktoken-go"

	"github.com/lorebase/lorebase/pkg/common"
)

const (
	// DefaultChunkTokens is the target token length of one chunk.
	DefaultChunkTokens = 400

	// DefaultOverlapTokens is how many tokens adjacent chunks share.
	DefaultOverlapTokens = 50
)

// Chunker splits article text into token-bounded chunks for embedding.
type Chunker struct {
	enc         *tiktoken.Tiktoken
	chunkTokens int
	overlap     int
}

// NewChunker creates a chunker over the o200k_base encoding. Non-positive
// sizes fall back to the defaults; overlap is clamped below the chunk
// size so splitting always advances.
func NewChunker(chunkTokens int, overlap int) (*Chunker, error) {
	enc, err := tiktoken.GetEncoding("o200k_base")
	if err != nil {
		return nil, err
	}
	if chunkTokens <= 0 {
		chunkTokens = DefaultChunkTokens
	}
	if overlap < 0 {
		overlap = DefaultOverlapTokens
	}
	if overlap >= chunkTokens {
		overlap = chunkTokens / 2
	}
	return &Chunker{
		enc:         enc,
		chunkTokens: chunkTokens,
		overlap:     overlap,
	}, nil
}

// CountTokens returns the token length of the text.
func (c *Chunker) CountTokens(text string) int {
	return len(c.enc.Encode(text, nil, nil))
}

// Split cuts the article content into overlapping chunks that carry the
// article's title and source. Blank content yields no chunks.
func (c *Chunker) Split(article common.Article) []common.Chunk {
	content := strings.TrimSpace(article.Content)
	if content == "" {
		return nil
	}

	tokens := c.enc.Encode(content, nil, nil)
	chunks := make([]common.Chunk, 0, len(tokens)/c.chunkTokens+1)

	step := c.chunkTokens - c.overlap
	for start := 0; start < len(tokens); start += step {
		end := start + c.chunkTokens
		if end > len(tokens) {
			end = len(tokens)
		}

		text := strings.TrimSpace(c.enc.Decode(tokens[start:end]))
		if text != "" {
			chunks = append(chunks, common.Chunk{
				Title:   article.Title,
				Content: text,
				Source:  article.Source,
			})
		}

		if end == len(tokens) {
			break
		}
	}
	return chunks
}
