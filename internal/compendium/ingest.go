package compendium

import (
	"context"
	"fmt"
	"strings"

	"github.com/easeaico/project-sam/internal/types"
)

// Chunking bounds for source documents. The overlap keeps rule text
// that straddles a boundary findable from either chunk.
const (
	chunkSize    = 1000
	chunkOverlap = 200
)

// IngestRepo persists embedded entries.
type IngestRepo interface {
	Insert(ctx context.Context, entries []types.CompendiumEntry) error
}

// Ingestor chunks, embeds, and stores source documents.
type Ingestor struct {
	embedder Embedder
	repo     IngestRepo
}

// NewIngestor creates an Ingestor.
func NewIngestor(embedder Embedder, repo IngestRepo) *Ingestor {
	return &Ingestor{embedder: embedder, repo: repo}
}

// Ingest splits a document into overlapping chunks, embeds each, and
// stores them under the given kind. Returns the number of chunks
// stored.
func (i *Ingestor) Ingest(ctx context.Context, kind, campaignID, source, text string) (int, error) {
	if i.embedder == nil || i.repo == nil {
		return 0, fmt.Errorf("ingestor not properly configured")
	}

	chunks := ChunkText(text)
	if len(chunks) == 0 {
		return 0, nil
	}

	vectors, err := i.embedder.EmbedDocuments(ctx, chunks)
	if err != nil {
		return 0, fmt.Errorf("failed to embed document chunks: %w", err)
	}

	entries := make([]types.CompendiumEntry, 0, len(chunks))
	for idx, chunk := range chunks {
		entries = append(entries, types.CompendiumEntry{
			Kind:       kind,
			CampaignID: campaignID,
			Source:     source,
			Content:    chunk,
			Embedding:  vectors[idx],
		})
	}

	if err := i.repo.Insert(ctx, entries); err != nil {
		return 0, fmt.Errorf("failed to store compendium entries: %w", err)
	}
	return len(entries), nil
}

// ChunkText splits text into chunks of at most chunkSize characters
// with chunkOverlap characters of overlap between neighbors.
func ChunkText(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	runes := []rune(text)
	if len(runes) <= chunkSize {
		return []string{text}
	}

	step := chunkSize - chunkOverlap
	var chunks []string
	for start := 0; start < len(runes); start += step {
		end := start + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end == len(runes) {
			break
		}
	}
	return chunks
}
