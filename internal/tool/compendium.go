package tool

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/easeaico/project-sam/internal/types"
)

// Searcher runs a similarity search against one compendium kind.
type Searcher interface {
	Search(ctx context.Context, kind, query string) ([]types.CompendiumMatch, error)
}

// searchTool is the shared shape of the read-only lookup tools. Each
// instance is pinned to one compendium kind. On no match it returns an
// explicit "no results" string instead of an empty value, so the
// oracle can narrate the gap gracefully.
type searchTool struct {
	name        string
	description string
	kind        string
	label       string
	emptyResult string
	searcher    Searcher
}

// NewSearchSpells returns the spells lookup tool.
func NewSearchSpells(s Searcher) Tool {
	return &searchTool{
		name: "search_spells",
		description: "Search the spells compendium for rules, damage, range, and effects. " +
			"Use this when the user asks about a specific spell (e.g. \"How much damage does Fireball do?\").",
		kind:        types.CompendiumSpells,
		label:       "Spells Found:",
		emptyResult: "No matching spells found in the Compendium.",
		searcher:    s,
	}
}

// NewSearchMonsters returns the monsters lookup tool.
func NewSearchMonsters(s Searcher) Tool {
	return &searchTool{
		name: "search_monsters",
		description: "Search the monsters compendium for stat blocks, HP, AC, and attacks. " +
			"Use this when monster stats are needed (e.g. \"What is a Goblin's AC?\").",
		kind:        types.CompendiumMonsters,
		label:       "Monsters Found:",
		emptyResult: "No matching monsters found.",
		searcher:    s,
	}
}

// NewSearchItems returns the items lookup tool.
func NewSearchItems(s Searcher) Tool {
	return &searchTool{
		name: "search_items",
		description: "Search the items compendium for weapons, armor, and magic items. " +
			"Use this when equipment stats are needed (e.g. \"Damage of a Longsword?\").",
		kind:        types.CompendiumItems,
		label:       "Items Found:",
		emptyResult: "No matching items found.",
		searcher:    s,
	}
}

type searchArgs struct {
	Query string `json:"query"`
}

func (t *searchTool) Name() string        { return t.name }
func (t *searchTool) Description() string { return t.description }

func (t *searchTool) Schema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"query": {Type: "string", Description: "Natural language search query."},
		},
		Required: []string{"query"},
	}
}

func (t *searchTool) Invoke(ctx context.Context, args map[string]any) (string, error) {
	var a searchArgs
	if err := decodeArgs(args, &a); err != nil {
		return "", err
	}
	if strings.TrimSpace(a.Query) == "" {
		return t.emptyResult, nil
	}

	matches, err := t.searcher.Search(ctx, t.kind, a.Query)
	if err != nil {
		return "", fmt.Errorf("failed to search %s: %w", t.kind, err)
	}
	if len(matches) == 0 {
		return t.emptyResult, nil
	}

	var out strings.Builder
	out.WriteString(t.label)
	out.WriteString("\n")
	for _, match := range matches {
		fmt.Fprintf(&out, "- %s (Similarity: %.2f)\n", match.Content, match.Similarity)
	}
	return out.String(), nil
}
