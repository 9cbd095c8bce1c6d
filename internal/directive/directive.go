// Package directive extracts tagged payloads embedded in narrator text
// and produces the cleaned string shown to the player.
package directive

import (
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/easeaico/project-sam/internal/types"
)

// Tag names the oracle may embed, angle-bracket delimited.
const (
	TagUpdate = "UPDATE"
	TagLoot   = "LOOT"
	TagImage  = "IMAGE"
	TagDMRoll = "DM_ROLL"
	TagXPGain = "XP_GAIN"
	TagEvent  = "EVENT"
)

// StateUpdate is the parsed <UPDATE> payload: a partial status mapping
// to merge into the stored character record.
type StateUpdate struct {
	Status types.Status `json:"status"`
}

// LootItem is one dropped item with its quantity.
type LootItem struct {
	Item string `json:"item"`
	Qty  int    `json:"qty"`
}

// Loot is the parsed <LOOT> payload.
type Loot struct {
	Money map[string]int `json:"money,omitempty"`
	Items []LootItem     `json:"items,omitempty"`
}

// DMRoll is the parsed <DM_ROLL> payload. It is informational: the
// engine surfaces it but never applies it mechanically.
type DMRoll struct {
	Reason string `json:"reason"`
	Roll   string `json:"roll"`
	Result int    `json:"result"`
}

// Extraction is everything pulled out of one oracle response. Text is
// the display string with every recognized tag span removed.
type Extraction struct {
	Text        string
	Update      *StateUpdate
	Loot        *Loot
	ImagePrompt string
	DMRoll      *DMRoll
	XPGain      string
	Event       string
}

// Extract scans raw oracle text for each known tag, parses the first
// occurrence per tag kind, and strips the tagged span from the display
// text. A malformed payload is logged and stripped without emitting a
// directive: display integrity wins over directive completeness.
// Repeated occurrences of the same tag in one response are unsupported
// and left in place.
func Extract(raw string) Extraction {
	ex := Extraction{Text: raw}

	if payload, ok := ex.strip(TagUpdate); ok {
		var update StateUpdate
		if err := json.Unmarshal([]byte(stripFences(payload)), &update); err != nil {
			slog.Warn("failed to parse update directive", "error", err.Error())
		} else {
			ex.Update = &update
		}
	}

	if payload, ok := ex.strip(TagLoot); ok {
		var loot Loot
		if err := json.Unmarshal([]byte(stripFences(payload)), &loot); err != nil {
			slog.Warn("failed to parse loot directive", "error", err.Error())
		} else {
			ex.Loot = &loot
		}
	}

	if payload, ok := ex.strip(TagDMRoll); ok {
		var roll DMRoll
		if err := json.Unmarshal([]byte(stripFences(payload)), &roll); err != nil {
			slog.Warn("failed to parse dm roll directive", "error", err.Error())
		} else {
			ex.DMRoll = &roll
		}
	}

	if payload, ok := ex.strip(TagImage); ok {
		ex.ImagePrompt = strings.TrimSpace(payload)
	}
	if payload, ok := ex.strip(TagXPGain); ok {
		ex.XPGain = strings.TrimSpace(payload)
	}
	if payload, ok := ex.strip(TagEvent); ok {
		ex.Event = strings.TrimSpace(payload)
	}

	ex.Text = strings.TrimSpace(ex.Text)
	return ex
}

// strip removes the first <tag>...</tag> span from the display text and
// returns its inner payload.
func (ex *Extraction) strip(tag string) (string, bool) {
	open := "<" + tag + ">"
	closing := "</" + tag + ">"

	start := strings.Index(ex.Text, open)
	if start < 0 {
		return "", false
	}
	end := strings.Index(ex.Text[start+len(open):], closing)
	if end < 0 {
		return "", false
	}
	end += start + len(open)

	inner := ex.Text[start+len(open) : end]
	ex.Text = ex.Text[:start] + ex.Text[end+len(closing):]
	return inner, true
}

// stripFences drops markdown code fences some models wrap around JSON
// payloads.
func stripFences(payload string) string {
	payload = strings.ReplaceAll(payload, "```json", "")
	payload = strings.ReplaceAll(payload, "```", "")
	return strings.TrimSpace(payload)
}
