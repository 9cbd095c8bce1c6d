package tool

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/easeaico/project-sam/internal/types"
)

type fakeSearcher struct {
	matches  []types.CompendiumMatch
	err      error
	lastKind string
}

func (s *fakeSearcher) Search(ctx context.Context, kind, query string) ([]types.CompendiumMatch, error) {
	s.lastKind = kind
	return s.matches, s.err
}

func TestSearchToolFormatsMatches(t *testing.T) {
	searcher := &fakeSearcher{matches: []types.CompendiumMatch{
		{Content: "Fireball: 8d6 fire damage, 150 ft", Similarity: 0.91},
		{Content: "Delayed Blast Fireball: 12d6", Similarity: 0.74},
	}}

	out, err := NewSearchSpells(searcher).Invoke(context.Background(), map[string]any{"query": "fireball damage"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if searcher.lastKind != types.CompendiumSpells {
		t.Fatalf("expected spells kind, got %s", searcher.lastKind)
	}
	if !strings.HasPrefix(out, "Spells Found:") {
		t.Fatalf("unexpected header: %q", out)
	}
	if !strings.Contains(out, "Fireball: 8d6 fire damage, 150 ft (Similarity: 0.91)") {
		t.Fatalf("missing match line: %q", out)
	}
}

func TestSearchToolNoResultsString(t *testing.T) {
	searcher := &fakeSearcher{}

	out, err := NewSearchMonsters(searcher).Invoke(context.Background(), map[string]any{"query": "gelatinous emperor"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out != "No matching monsters found." {
		t.Fatalf("expected explicit no-results string, got %q", out)
	}
}

func TestSearchToolEmptyQueryShortCircuits(t *testing.T) {
	searcher := &fakeSearcher{err: fmt.Errorf("should not be called")}

	out, err := NewSearchItems(searcher).Invoke(context.Background(), map[string]any{"query": "  "})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out != "No matching items found." {
		t.Fatalf("expected no-results string, got %q", out)
	}
}
