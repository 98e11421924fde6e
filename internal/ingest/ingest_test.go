package ingest

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/lorebase/lorebase/pkg/common"
)

func newTestChunker(t *testing.T, chunkTokens int, overlap int) *Chunker {
	t.Helper()
	c, err := NewChunker(chunkTokens, overlap)
	if err != nil {
		t.Skipf("encoding unavailable: %v", err)
	}
	return c
}

func TestChunkerSplitShortArticle(t *testing.T) {
	c := newTestChunker(t, 400, 50)

	article := common.Article{
		Title:   "Guilliman",
		Content: "Roboute Guilliman is the Primarch of the Ultramarines.",
		Source:  "https://wiki/guilliman",
	}

	chunks := c.Split(article)
	if len(chunks) != 1 {
		t.Fatalf("len(chunks) = %d, want 1", len(chunks))
	}
	got := chunks[0]
	if got.Title != article.Title || got.Source != article.Source {
		t.Errorf("chunk = %+v, want article metadata carried", got)
	}
	if got.Content != article.Content {
		t.Errorf("content = %q, want unchanged", got.Content)
	}
}

func TestChunkerSplitLongArticleOverlaps(t *testing.T) {
	c := newTestChunker(t, 20, 5)

	article := common.Article{
		Title:   "Siege",
		Content: strings.Repeat("The siege of Terra lasted fifty-five days. ", 30),
	}

	chunks := c.Split(article)
	if len(chunks) < 2 {
		t.Fatalf("len(chunks) = %d, want the content split", len(chunks))
	}
	for i, chunk := range chunks {
		if n := c.CountTokens(chunk.Content); n > 20 {
			t.Errorf("chunk %d has %d tokens, want <= 20", i, n)
		}
	}
}

func TestChunkerSplitBlankContent(t *testing.T) {
	c := newTestChunker(t, 400, 50)

	if chunks := c.Split(common.Article{Title: "Empty", Content: "   "}); len(chunks) != 0 {
		t.Errorf("chunks = %v, want none for blank content", chunks)
	}
}

func TestGazetteerNames(t *testing.T) {
	articles := []common.Article{
		{Title: "Guilliman", Entities: []string{"Macragge", " Ultramar "}},
		{Title: "Abaddon", Entities: []string{"guilliman", ""}},
	}

	got := GazetteerNames(articles)
	want := []string{"Abaddon", "Guilliman", "Macragge", "Ultramar"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("GazetteerNames() = %v, want %v", got, want)
	}
}

type fakeStorage struct {
	mu     sync.Mutex
	saved  [][]common.Chunk
	names  []string
	failOn string
}

func (f *fakeStorage) SimilaritySearch(ctx context.Context, text string, limit int) ([]common.Chunk, error) {
	return nil, nil
}

func (f *fakeStorage) SaveChunks(ctx context.Context, chunks []common.Chunk) error {
	if len(chunks) > 0 && chunks[0].Title == f.failOn {
		return errors.New("save failed")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, chunks)
	return nil
}

func (f *fakeStorage) GazetteerNames(ctx context.Context) ([]string, error) {
	return f.names, nil
}

func (f *fakeStorage) ReplaceGazetteer(ctx context.Context, names []string) error {
	f.names = names
	return nil
}

func TestPipelineIngestArticles(t *testing.T) {
	chunker := newTestChunker(t, 400, 50)
	store := &fakeStorage{}

	p, err := NewPipeline(NewPipelineParams{Store: store, Chunker: chunker, Workers: 2})
	if err != nil {
		t.Fatalf("NewPipeline() error = %v", err)
	}
	defer p.Release()

	articles := []common.Article{
		{Title: "Guilliman", Content: "Primarch of the XIII Legion."},
		{Title: "Abaddon", Content: "Warmaster of Chaos."},
		{Title: "Empty", Content: ""},
	}
	if err := p.IngestArticles(context.Background(), articles); err != nil {
		t.Fatalf("IngestArticles() error = %v", err)
	}
	if len(store.saved) != 2 {
		t.Errorf("saved batches = %d, want blank article skipped", len(store.saved))
	}
}

func TestPipelineIngestReportsFailure(t *testing.T) {
	chunker := newTestChunker(t, 400, 50)
	store := &fakeStorage{failOn: "Abaddon"}

	p, err := NewPipeline(NewPipelineParams{Store: store, Chunker: chunker, Workers: 1})
	if err != nil {
		t.Fatalf("NewPipeline() error = %v", err)
	}
	defer p.Release()

	articles := []common.Article{
		{Title: "Guilliman", Content: "Primarch."},
		{Title: "Abaddon", Content: "Warmaster."},
	}
	err = p.IngestArticles(context.Background(), articles)
	if err == nil || !strings.Contains(err.Error(), "Abaddon") {
		t.Fatalf("IngestArticles() error = %v, want failing article named", err)
	}
}

func TestPipelineRebuildGazetteerWithoutLocks(t *testing.T) {
	chunker := newTestChunker(t, 400, 50)
	store := &fakeStorage{}

	p, err := NewPipeline(NewPipelineParams{Store: store, Chunker: chunker, Workers: 1})
	if err != nil {
		t.Fatalf("NewPipeline() error = %v", err)
	}
	defer p.Release()

	if err := p.RebuildGazetteer(context.Background(), []string{"Guilliman"}); err != nil {
		t.Fatalf("RebuildGazetteer() error = %v", err)
	}
	if !reflect.DeepEqual(store.names, []string{"Guilliman"}) {
		t.Errorf("names = %v, want replacement applied", store.names)
	}
}
