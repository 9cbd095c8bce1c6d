package tool

import (
	"context"
	"strings"
	"testing"
)

func TestApplyDamage(t *testing.T) {
	out, err := NewApplyDamage().Invoke(context.Background(), map[string]any{
		"current_hp":    float64(10),
		"damage_amount": float64(4),
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(out, "Calculation: 10 - 4 = 6.") {
		t.Fatalf("unexpected calculation trace: %q", out)
	}
	if !strings.Contains(out, `<UPDATE>{"status": {"hp_current": 6}}</UPDATE>`) {
		t.Fatalf("missing update payload: %q", out)
	}
}

func TestApplyDamageClampsAtZero(t *testing.T) {
	out, err := NewApplyDamage().Invoke(context.Background(), map[string]any{
		"current_hp":    float64(3),
		"damage_amount": float64(10),
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(out, `{"hp_current": 0}`) {
		t.Fatalf("expected floor clamp at 0: %q", out)
	}
}

func TestApplyHealingClampsAtMax(t *testing.T) {
	out, err := NewApplyHealing().Invoke(context.Background(), map[string]any{
		"current_hp":  float64(6),
		"heal_amount": float64(10),
		"max_hp":      float64(12),
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(out, `{"hp_current": 12}`) {
		t.Fatalf("expected ceiling clamp at max hp: %q", out)
	}
	if !strings.Contains(out, "(Max: 12)") {
		t.Fatalf("missing max annotation: %q", out)
	}
}

func TestGiveLootFormatsWirePayload(t *testing.T) {
	out, err := NewGiveLoot().Invoke(context.Background(), map[string]any{
		"money": map[string]any{"gp": float64(10)},
		"items": []any{map[string]any{"item": "Bag", "qty": float64(1)}},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(out, "<LOOT>") || !strings.Contains(out, "</LOOT>") {
		t.Fatalf("missing loot tag: %q", out)
	}
	if !strings.Contains(out, `"money":{"gp":10}`) {
		t.Fatalf("missing money payload: %q", out)
	}
	if !strings.Contains(out, `"items":[{"item":"Bag","qty":1}]`) {
		t.Fatalf("missing items payload: %q", out)
	}
	if !strings.Contains(out, "1x Bag") {
		t.Fatalf("missing item description: %q", out)
	}
}

func TestRegistryInvokeUnknownTool(t *testing.T) {
	registry := NewRegistry(NewApplyDamage())

	_, err := registry.Invoke(context.Background(), "summon_tarrasque", nil)
	if err == nil {
		t.Fatalf("expected error for unknown tool")
	}
	if !strings.Contains(err.Error(), "summon_tarrasque") {
		t.Fatalf("error should name the tool: %v", err)
	}
}

func TestRegistryListKeepsRegistrationOrder(t *testing.T) {
	registry := NewRegistry(NewApplyDamage(), NewApplyHealing(), NewGiveLoot())

	tools := registry.List()
	if len(tools) != 3 {
		t.Fatalf("expected 3 tools, got %d", len(tools))
	}
	want := []string{"apply_damage", "apply_healing", "give_loot"}
	for i, name := range want {
		if tools[i].Name() != name {
			t.Fatalf("expected %s at position %d, got %s", name, i, tools[i].Name())
		}
	}
}
