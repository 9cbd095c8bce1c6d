package types

// Compendium kinds searchable by the lookup tools.
const (
	CompendiumSpells   = "spells"
	CompendiumMonsters = "monsters"
	CompendiumItems    = "items"
	// CompendiumLore holds ingested campaign module text used for
	// background context rather than tool lookups.
	CompendiumLore = "lore"
)

// CompendiumEntry is one embedded text chunk in the compendium.
type CompendiumEntry struct {
	Kind       string    `json:"kind"`
	CampaignID string    `json:"campaign_id,omitempty"`
	Source     string    `json:"source,omitempty"`
	Content    string    `json:"content"`
	Embedding  []float32 `json:"-"`
}

// CompendiumMatch is a retrieved compendium snippet with its cosine
// similarity to the query.
type CompendiumMatch struct {
	Content    string  `json:"content"`
	Similarity float64 `json:"similarity"`
}
