// Package prompt assembles the narrator persona and per-turn context.
package prompt

import (
	"bytes"
	"fmt"
)

// NoCharacterContext is injected when the user has no active character.
const NoCharacterContext = "No character active."

// NoLoreContext is injected when similarity search yields nothing usable.
const NoLoreContext = "No specific rules found in memory."

// Reminder is appended after the player's input on every turn so state
// changes are never narrated without the matching tag.
const Reminder = `REMINDER: If this action changes HP, you MUST output the <UPDATE> tag at the end. Example: <UPDATE>{"status": {"hp_current": 15}}</UPDATE>`

// BuildContext contains all inputs for persona assembly.
type BuildContext struct {
	CharacterContext string
	LoreContext      string
}

// Builder assembles the system prompt for the narrator.
type Builder struct {
	historyLimit int
}

// NewBuilder creates a prompt Builder.
func NewBuilder(historyLimit int) *Builder {
	if historyLimit <= 0 {
		historyLimit = 20
	}
	return &Builder{historyLimit: historyLimit}
}

// HistoryLimit reports how many prior turns a caller should feed back.
func (b *Builder) HistoryLimit() int {
	return b.historyLimit
}

// BuildSystem renders the persona with the turn's character and lore
// context injected.
func (b *Builder) BuildSystem(ctx BuildContext) (string, error) {
	if ctx.CharacterContext == "" {
		ctx.CharacterContext = NoCharacterContext
	}
	if ctx.LoreContext == "" {
		ctx.LoreContext = NoLoreContext
	}

	var buf bytes.Buffer
	if err := personaTemplate.Execute(&buf, ctx); err != nil {
		return "", fmt.Errorf("failed to build system prompt: %w", err)
	}
	return buf.String(), nil
}
