// Package importer turns uploaded character sheet PDFs into character
// records via multimodal extraction.
package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/easeaico/project-sam/internal/types"
)

const extractionPrompt = `Analyze this D&D 5e character sheet PDF (likely D&D Beyond format).
Extract data into the JSON structure below. If a field is empty in the PDF, use an empty string.

CRITICAL EXTRACTION RULES:
1. Abilities: extract STR, DEX, CON, INT, WIS, CHA scores.
2. HP: extract "Max HP". For "Current HP", look for the value. If "Current HP" is empty, missing, or zero, SET IT EQUAL TO "Max HP". Do NOT return 0 for current HP unless the character is dead.
3. Inventory: extract money (cp, sp, ep, gp, pp) separately from items.
4. Bio: summarize background and traits into readable paragraphs.

CRITICAL OUTPUT RULES:
- Output MUST be valid, parseable JSON.
- Do NOT include comments or trailing commas.
- Use double quotes for strings.

JSON OUTPUT FORMAT:
{
    "name": "Character Name",
    "race": "Race",
    "class": "Class (e.g. 'Rogue 3')",
    "level": 3,
    "stats": { "str": 10, "dex": 10, "con": 10, "int": 10, "wis": 10, "cha": 10 },
    "status": {
        "hp_max": 20, "hp_current": 20, "ac": 14, "speed": "30", "initiative": 2,
        "proficiency_bonus": 2, "hit_dice": "3d8", "xp": 0,
        "money": { "cp": 0, "sp": 0, "ep": 0, "gp": 10, "pp": 0 },
        "inventory": [{"item": "Rope", "qty": 1}]
    },
    "bio": "Background...\n\nTrait..."
}`

// Importer parses character sheets through a multimodal model.
type Importer struct {
	client *genai.Client
	model  string
}

// NewImporter creates the sheet importer.
func NewImporter(ctx context.Context, apiKey, model string) (*Importer, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if model == "" {
		return nil, fmt.Errorf("model name cannot be empty")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &Importer{client: client, model: model}, nil
}

type sheet struct {
	Name   string         `json:"name"`
	Race   string         `json:"race"`
	Class  string         `json:"class"`
	Level  int            `json:"level"`
	Stats  map[string]int `json:"stats"`
	Status types.Status   `json:"status"`
	Bio    string         `json:"bio"`
}

// ParseSheet extracts a character from a PDF and assigns a generated
// avatar.
func (i *Importer) ParseSheet(ctx context.Context, pdf []byte) (*types.Character, error) {
	if len(pdf) == 0 {
		return nil, fmt.Errorf("pdf data is empty")
	}

	content := genai.NewContentFromParts([]*genai.Part{
		genai.NewPartFromBytes(pdf, "application/pdf"),
		genai.NewPartFromText(extractionPrompt),
	}, genai.RoleUser)

	resp, err := i.client.Models.GenerateContent(ctx, i.model, []*genai.Content{content}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to parse character sheet: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("empty extraction response")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			sb.WriteString(part.Text)
		}
	}

	return characterFromResponse(sb.String())
}

// characterFromResponse decodes the model's JSON answer, applying the
// current-HP fallback and the generated avatar.
func characterFromResponse(text string) (*types.Character, error) {
	raw, err := extractJSON(text)
	if err != nil {
		return nil, err
	}

	var s sheet
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, fmt.Errorf("failed to decode character sheet: %w", err)
	}
	if s.Name == "" {
		return nil, fmt.Errorf("character sheet missing a name")
	}
	if s.Status == nil {
		s.Status = types.Status{}
	}

	// A blank current-HP box means a healthy character, not a dead one.
	maxHP, hasMax := s.Status.IntValue(types.StatusHPMax)
	current, hasCurrent := s.Status.IntValue(types.StatusHPCurrent)
	if hasMax && (!hasCurrent || current <= 0) {
		s.Status[types.StatusHPCurrent] = maxHP
	}

	return &types.Character{
		Name:      s.Name,
		Race:      s.Race,
		Class:     s.Class,
		Level:     s.Level,
		Stats:     s.Stats,
		Status:    s.Status,
		Bio:       s.Bio,
		AvatarURL: avatarURL(s.Name, s.Race, s.Class),
	}, nil
}

// extractJSON pulls the outermost JSON object out of a model answer
// that may be wrapped in prose or code fences.
func extractJSON(text string) (string, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return "", fmt.Errorf("no JSON object in extraction response")
	}
	return text[start : end+1], nil
}

// avatarURL derives a deterministic avatar from the character's
// identity, so re-imports keep the same face without any API cost.
func avatarURL(name, race, class string) string {
	seed := strings.ReplaceAll(fmt.Sprintf("%s-%s-%s", name, race, class), " ", "")
	return fmt.Sprintf("https://api.dicebear.com/9.x/adventurer/svg?seed=%s", seed)
}
