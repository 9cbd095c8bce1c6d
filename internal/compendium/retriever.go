package compendium

import (
	"context"
	"fmt"
	"strings"

	"github.com/easeaico/project-sam/internal/types"
)

// SearchRepo runs similarity searches against the stored entries.
type SearchRepo interface {
	SearchSimilar(ctx context.Context, kind string, embedding []float32, topK int, threshold float64) ([]types.CompendiumMatch, error)
}

// Retriever provides semantic search over the compendium. It backs
// both the oracle's lookup tools and the per-turn lore context.
type Retriever struct {
	embedder            Embedder
	repo                SearchRepo
	topK                int
	similarityThreshold float64
}

// NewRetriever creates a Retriever.
func NewRetriever(embedder Embedder, repo SearchRepo, topK int, threshold float64) *Retriever {
	if topK <= 0 {
		topK = 3
	}
	if threshold <= 0 {
		threshold = 0.5
	}
	return &Retriever{
		embedder:            embedder,
		repo:                repo,
		topK:                topK,
		similarityThreshold: threshold,
	}
}

// Search returns the top-k entries of one kind matching the query.
func (r *Retriever) Search(ctx context.Context, kind, query string) ([]types.CompendiumMatch, error) {
	if query == "" {
		return nil, nil
	}
	if r.embedder == nil || r.repo == nil {
		return nil, fmt.Errorf("retriever not properly configured")
	}

	vec, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	return r.repo.SearchSimilar(ctx, kind, vec, r.topK, r.similarityThreshold)
}

// Context resolves campaign lore for a player action and joins it into
// one prompt block. An empty result is returned as an empty string;
// the engine substitutes its own placeholder.
func (r *Retriever) Context(ctx context.Context, query string) (string, error) {
	matches, err := r.Search(ctx, types.CompendiumLore, query)
	if err != nil {
		return "", err
	}

	contents := make([]string, 0, len(matches))
	for _, match := range matches {
		contents = append(contents, match.Content)
	}
	return strings.Join(contents, "\n\n"), nil
}
