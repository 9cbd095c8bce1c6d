package prompt

import (
	"strings"
	"testing"
)

func TestBuildSystemInjectsContext(t *testing.T) {
	b := NewBuilder(20)

	out, err := b.BuildSystem(BuildContext{
		CharacterContext: `{"name": "Grog", "status": {"hp_current": 7}}`,
		LoreContext:      "Goblins hate daylight.",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(out, `{"name": "Grog", "status": {"hp_current": 7}}`) {
		t.Fatalf("character context missing from prompt")
	}
	if !strings.Contains(out, "Goblins hate daylight.") {
		t.Fatalf("lore context missing from prompt")
	}
	if !strings.Contains(out, "S.A.M.") {
		t.Fatalf("persona identity missing from prompt")
	}
}

func TestBuildSystemDefaults(t *testing.T) {
	b := NewBuilder(0)

	if b.HistoryLimit() != 20 {
		t.Fatalf("expected default history limit 20, got %d", b.HistoryLimit())
	}

	out, err := b.BuildSystem(BuildContext{})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(out, NoCharacterContext) {
		t.Fatalf("expected default character context")
	}
	if !strings.Contains(out, NoLoreContext) {
		t.Fatalf("expected default lore context")
	}
}
