package compendium

import (
	"context"
	"strings"
	"testing"

	"github.com/easeaico/project-sam/internal/types"
)

type fakeEmbedder struct {
	queries   []string
	documents []string
}

func (e *fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	e.queries = append(e.queries, text)
	return []float32{0.1, 0.2}, nil
}

func (e *fakeEmbedder) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	e.documents = append(e.documents, text)
	return []float32{0.3, 0.4}, nil
}

func (e *fakeEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, text := range texts {
		vec, err := e.EmbedDocument(ctx, text)
		if err != nil {
			return nil, err
		}
		out = append(out, vec)
	}
	return out, nil
}

type fakeSearchRepo struct {
	matches  []types.CompendiumMatch
	lastKind string
	lastK    int
}

func (r *fakeSearchRepo) SearchSimilar(ctx context.Context, kind string, embedding []float32, topK int, threshold float64) ([]types.CompendiumMatch, error) {
	r.lastKind = kind
	r.lastK = topK
	return r.matches, nil
}

type fakeIngestRepo struct {
	entries []types.CompendiumEntry
}

func (r *fakeIngestRepo) Insert(ctx context.Context, entries []types.CompendiumEntry) error {
	r.entries = append(r.entries, entries...)
	return nil
}

func TestRetrieverSearch(t *testing.T) {
	repo := &fakeSearchRepo{matches: []types.CompendiumMatch{
		{Content: "Fireball: 8d6", Similarity: 0.9},
	}}
	r := NewRetriever(&fakeEmbedder{}, repo, 0, 0)

	matches, err := r.Search(context.Background(), types.CompendiumSpells, "fireball")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(matches) != 1 || matches[0].Content != "Fireball: 8d6" {
		t.Fatalf("unexpected matches: %v", matches)
	}
	if repo.lastKind != types.CompendiumSpells {
		t.Fatalf("kind not forwarded: %s", repo.lastKind)
	}
	if repo.lastK != 3 {
		t.Fatalf("expected default top-k 3, got %d", repo.lastK)
	}
}

func TestRetrieverEmptyQuery(t *testing.T) {
	r := NewRetriever(&fakeEmbedder{}, &fakeSearchRepo{}, 3, 0.5)

	matches, err := r.Search(context.Background(), types.CompendiumLore, "")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if matches != nil {
		t.Fatalf("expected nil matches for empty query, got %v", matches)
	}
}

func TestRetrieverContextJoinsLore(t *testing.T) {
	repo := &fakeSearchRepo{matches: []types.CompendiumMatch{
		{Content: "Goblins fear fire.", Similarity: 0.8},
		{Content: "The keep fell in the winter war.", Similarity: 0.6},
	}}
	r := NewRetriever(&fakeEmbedder{}, repo, 3, 0.5)

	lore, err := r.Context(context.Background(), "goblin keep")
	if err != nil {
		t.Fatalf("context failed: %v", err)
	}
	if lore != "Goblins fear fire.\n\nThe keep fell in the winter war." {
		t.Fatalf("unexpected lore block: %q", lore)
	}
	if repo.lastKind != types.CompendiumLore {
		t.Fatalf("lore context must search the lore kind, got %s", repo.lastKind)
	}
}

func TestChunkTextShortInput(t *testing.T) {
	chunks := ChunkText("a short rule")
	if len(chunks) != 1 || chunks[0] != "a short rule" {
		t.Fatalf("short text should be one chunk, got %v", chunks)
	}
	if ChunkText("   ") != nil {
		t.Fatalf("blank text should yield no chunks")
	}
}

func TestChunkTextOverlap(t *testing.T) {
	// Non-repeating content so window offsets are distinguishable.
	var b strings.Builder
	for i := 0; i < 1800; i++ {
		b.WriteByte(byte('a' + i%23))
	}
	text := b.String()

	chunks := ChunkText(text)

	// Windows start every 800 runes; the second window ends exactly at
	// the document end, so 1800 chars yield two full-size chunks.
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks for 1800 chars, got %d", len(chunks))
	}
	if chunks[0] != text[:chunkSize] {
		t.Fatalf("first chunk is not the leading window")
	}
	if chunks[1] != text[chunkSize-chunkOverlap:] {
		t.Fatalf("second chunk must start %d runes before the first ends", chunkOverlap)
	}
	if chunks[0][chunkSize-chunkOverlap:] != chunks[1][:chunkOverlap] {
		t.Fatalf("neighboring chunks must share %d runes", chunkOverlap)
	}
}

func TestIngestStoresEmbeddedChunks(t *testing.T) {
	repo := &fakeIngestRepo{}
	embedder := &fakeEmbedder{}
	ing := NewIngestor(embedder, repo)

	n, err := ing.Ingest(context.Background(), types.CompendiumLore, "camp-1", "players-handbook.md", strings.Repeat("y", 1200))
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}
	if n != 2 || len(repo.entries) != 2 {
		t.Fatalf("expected 2 stored chunks, got %d / %d", n, len(repo.entries))
	}
	entry := repo.entries[0]
	if entry.Kind != types.CompendiumLore || entry.CampaignID != "camp-1" || entry.Source != "players-handbook.md" {
		t.Fatalf("entry metadata not preserved: %+v", entry)
	}
	if len(entry.Embedding) == 0 {
		t.Fatalf("entry missing embedding")
	}
	if len(embedder.documents) != 2 {
		t.Fatalf("expected document embeddings, got %d", len(embedder.documents))
	}
}
