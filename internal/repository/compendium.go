package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"github.com/easeaico/project-sam/internal/types"
)

type compendiumModel struct {
	ID         int `gorm:"primaryKey"`
	Kind       string
	CampaignID string
	Source     string
	Content    string
	Embedding  pgvector.Vector `gorm:"type:vector(768)"`
	CreatedAt  time.Time
}

func (compendiumModel) TableName() string {
	return "compendium"
}

// CompendiumRepo accesses the compendium vector table.
type CompendiumRepo struct {
	db *gorm.DB
}

// NewCompendiumRepo returns a CompendiumRepo.
func NewCompendiumRepo(db *gorm.DB) *CompendiumRepo {
	return &CompendiumRepo{db: db}
}

// Insert stores a batch of embedded entries.
func (r *CompendiumRepo) Insert(ctx context.Context, entries []types.CompendiumEntry) error {
	if len(entries) == 0 {
		return nil
	}
	records := make([]compendiumModel, 0, len(entries))
	for _, entry := range entries {
		records = append(records, compendiumModel{
			Kind:       entry.Kind,
			CampaignID: entry.CampaignID,
			Source:     entry.Source,
			Content:    entry.Content,
			Embedding:  pgvector.NewVector(entry.Embedding),
		})
	}
	if err := r.db.WithContext(ctx).Create(&records).Error; err != nil {
		return fmt.Errorf("failed to insert compendium entries: %w", err)
	}
	return nil
}

// SearchSimilar runs a cosine similarity search within one kind.
func (r *CompendiumRepo) SearchSimilar(ctx context.Context, kind string, embedding []float32, topK int, threshold float64) ([]types.CompendiumMatch, error) {
	if len(embedding) == 0 {
		return nil, nil
	}

	query := `
		SELECT content, 1 - (embedding <=> $1) AS similarity
		FROM compendium
		WHERE kind = $2
		  AND 1 - (embedding <=> $1) > $3
		ORDER BY similarity DESC
		LIMIT $4`

	vector := pgvector.NewVector(embedding)
	var results []types.CompendiumMatch
	if err := r.db.WithContext(ctx).
		Raw(query, vector, kind, threshold, topK).
		Scan(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to search compendium: %w", err)
	}
	return results, nil
}
