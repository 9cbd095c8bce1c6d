// Package types holds the persisted domain records shared across the engine.
package types

import "time"

// Character is a player character owned by exactly one user.
type Character struct {
	ID         string         `json:"id"`
	UserID     string         `json:"user_id"`
	CampaignID string         `json:"campaign_id,omitempty"`
	Name       string         `json:"name"`
	Race       string         `json:"race,omitempty"`
	Class      string         `json:"class,omitempty"`
	Level      int            `json:"level,omitempty"`
	Stats      map[string]int `json:"stats"`
	Status     Status         `json:"status"`
	Bio        string         `json:"bio,omitempty"`
	AvatarURL  string         `json:"image_url,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// Campaign groups characters and messages under one game master.
type Campaign struct {
	ID           string         `json:"id"`
	GMUserID     string         `json:"gm_id"`
	Name         string         `json:"name"`
	Settings     map[string]any `json:"settings,omitempty"`
	RulesSummary string         `json:"rules_summary,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// Message roles. The engine never writes any other value.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one chat turn entry. Append-only except for the bulk
// deletes performed by reset and checkpoint load.
type Message struct {
	ID         string         `json:"id"`
	Role       string         `json:"role"`
	Content    string         `json:"content"`
	ImageURL   string         `json:"image_url,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	UserID     string         `json:"user_id"`
	CampaignID string         `json:"campaign_id,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// Checkpoint is a named full snapshot of character and chat state.
// Name is a logical unique key: saving under an existing name replaces
// the prior snapshot entirely.
type Checkpoint struct {
	Name       string      `json:"name"`
	Characters []Character `json:"character_states"`
	Messages   []Message   `json:"chat_history"`
	Notes      string      `json:"notes,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}
