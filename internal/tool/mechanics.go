package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/easeaico/project-sam/internal/directive"
)

// applyDamage recomputes hit points after damage and hands the oracle
// the exact <UPDATE> payload to paste into its narration, so HP math
// never depends on the model doing arithmetic.
type applyDamage struct{}

// NewApplyDamage returns the apply_damage tool.
func NewApplyDamage() Tool { return applyDamage{} }

type applyDamageArgs struct {
	CurrentHP    int `json:"current_hp"`
	DamageAmount int `json:"damage_amount"`
}

func (applyDamage) Name() string { return "apply_damage" }

func (applyDamage) Description() string {
	return "Calculates new HP after damage and returns the REQUIRED <UPDATE> tag. " +
		"USE THIS TOOL whenever the user or an enemy deals damage."
}

func (applyDamage) Schema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"current_hp":    {Type: "integer", Description: "The character's current HP (from context)."},
			"damage_amount": {Type: "integer", Description: "The amount of damage taken."},
		},
		Required: []string{"current_hp", "damage_amount"},
	}
}

func (applyDamage) Invoke(ctx context.Context, args map[string]any) (string, error) {
	var a applyDamageArgs
	if err := decodeArgs(args, &a); err != nil {
		return "", err
	}
	newHP := a.CurrentHP - a.DamageAmount
	if newHP < 0 {
		newHP = 0
	}
	return fmt.Sprintf("Calculation: %d - %d = %d. <UPDATE>{\"status\": {\"hp_current\": %d}}</UPDATE>",
		a.CurrentHP, a.DamageAmount, newHP, newHP), nil
}

// applyHealing mirrors applyDamage with a ceiling clamp at max HP.
type applyHealing struct{}

// NewApplyHealing returns the apply_healing tool.
func NewApplyHealing() Tool { return applyHealing{} }

type applyHealingArgs struct {
	CurrentHP  int `json:"current_hp"`
	HealAmount int `json:"heal_amount"`
	MaxHP      int `json:"max_hp"`
}

func (applyHealing) Name() string { return "apply_healing" }

func (applyHealing) Description() string {
	return "Calculates new HP after healing and returns the REQUIRED <UPDATE> tag. " +
		"USE THIS TOOL whenever the user heals."
}

func (applyHealing) Schema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"current_hp":  {Type: "integer", Description: "The character's current HP."},
			"heal_amount": {Type: "integer", Description: "The amount of healing."},
			"max_hp":      {Type: "integer", Description: "The character's maximum HP (to prevent overhealing)."},
		},
		Required: []string{"current_hp", "heal_amount", "max_hp"},
	}
}

func (applyHealing) Invoke(ctx context.Context, args map[string]any) (string, error) {
	var a applyHealingArgs
	if err := decodeArgs(args, &a); err != nil {
		return "", err
	}
	newHP := a.CurrentHP + a.HealAmount
	if newHP > a.MaxHP {
		newHP = a.MaxHP
	}
	return fmt.Sprintf("Calculation: %d + %d = %d (Max: %d). <UPDATE>{\"status\": {\"hp_current\": %d}}</UPDATE>",
		a.CurrentHP, a.HealAmount, newHP, a.MaxHP, newHP), nil
}

// giveLoot formats currency and item lists into the <LOOT> wire
// payload consumed by the directive extractor and the client.
type giveLoot struct{}

// NewGiveLoot returns the give_loot tool.
func NewGiveLoot() Tool { return giveLoot{} }

type giveLootArgs struct {
	Money map[string]int       `json:"money,omitempty"`
	Items []directive.LootItem `json:"items,omitempty"`
}

func (giveLoot) Name() string { return "give_loot" }

func (giveLoot) Description() string {
	return "Generates a structured loot drop. USE THIS TOOL whenever the player finds items or money. " +
		"Keep money out of item names: money goes in 'money', containers go in 'items'."
}

func (giveLoot) Schema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"money": {
				Type:                 "object",
				Description:          "Currency mapping, e.g. {\"gp\": 10, \"sp\": 5}.",
				AdditionalProperties: &jsonschema.Schema{Type: "integer"},
			},
			"items": {
				Type:        "array",
				Description: "Dropped items. Each item MUST have 'item' (string) and 'qty' (integer).",
				Items: &jsonschema.Schema{
					Type: "object",
					Properties: map[string]*jsonschema.Schema{
						"item": {Type: "string", Description: "Item name."},
						"qty":  {Type: "integer", Description: "Quantity."},
					},
					Required: []string{"item", "qty"},
				},
			},
		},
	}
}

func (giveLoot) Invoke(ctx context.Context, args map[string]any) (string, error) {
	var a giveLootArgs
	if err := decodeArgs(args, &a); err != nil {
		return "", err
	}

	loot := directive.Loot{Money: a.Money, Items: a.Items}
	var description []string
	if len(loot.Money) > 0 {
		coins := make([]string, 0, len(loot.Money))
		for code, amount := range loot.Money {
			coins = append(coins, fmt.Sprintf("%d%s", amount, code))
		}
		description = append(description, "Money: "+strings.Join(coins, ", "))
	}
	if len(loot.Items) > 0 {
		names := make([]string, 0, len(loot.Items))
		for _, item := range loot.Items {
			names = append(names, fmt.Sprintf("%dx %s", item.Qty, item.Item))
		}
		description = append(description, "Items: "+strings.Join(names, ", "))
	}

	payload, err := json.Marshal(loot)
	if err != nil {
		return "", fmt.Errorf("failed to encode loot payload: %w", err)
	}
	return fmt.Sprintf("Loot Generated: %s. <LOOT>%s</LOOT>", strings.Join(description, "; "), payload), nil
}
