package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/easeaico/project-sam/internal/types"
)

type checkpointModel struct {
	Name            string `gorm:"primaryKey"`
	CharacterStates []byte `gorm:"type:jsonb"`
	ChatHistory     []byte `gorm:"type:jsonb"`
	Notes           string
	CreatedAt       time.Time
}

func (checkpointModel) TableName() string {
	return "checkpoints"
}

// CheckpointRepo accesses the checkpoints table.
type CheckpointRepo struct {
	db *gorm.DB
}

// NewCheckpointRepo returns a CheckpointRepo.
func NewCheckpointRepo(db *gorm.DB) *CheckpointRepo {
	return &CheckpointRepo{db: db}
}

// Upsert saves a snapshot, fully replacing any prior snapshot with the
// same name.
func (r *CheckpointRepo) Upsert(ctx context.Context, cp *types.Checkpoint) error {
	chars, err := json.Marshal(cp.Characters)
	if err != nil {
		return fmt.Errorf("failed to encode character states: %w", err)
	}
	msgs, err := json.Marshal(cp.Messages)
	if err != nil {
		return fmt.Errorf("failed to encode chat history: %w", err)
	}

	record := checkpointModel{
		Name:            cp.Name,
		CharacterStates: chars,
		ChatHistory:     msgs,
		Notes:           cp.Notes,
		CreatedAt:       cp.CreatedAt,
	}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			UpdateAll: true,
		}).
		Create(&record).Error; err != nil {
		return fmt.Errorf("failed to upsert checkpoint: %w", err)
	}
	return nil
}

// GetByName returns a snapshot, or (nil, nil) when absent.
func (r *CheckpointRepo) GetByName(ctx context.Context, name string) (*types.Checkpoint, error) {
	var records []checkpointModel
	if err := r.db.WithContext(ctx).
		Where("name = ?", name).
		Limit(1).
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to query checkpoint: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	return checkpointFromModel(records[0])
}

// List returns all snapshots, most recent first.
func (r *CheckpointRepo) List(ctx context.Context) ([]types.Checkpoint, error) {
	var records []checkpointModel
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list checkpoints: %w", err)
	}

	cps := make([]types.Checkpoint, 0, len(records))
	for _, record := range records {
		cp, err := checkpointFromModel(record)
		if err != nil {
			return nil, err
		}
		cps = append(cps, *cp)
	}
	return cps, nil
}

func checkpointFromModel(record checkpointModel) (*types.Checkpoint, error) {
	cp := &types.Checkpoint{
		Name:      record.Name,
		Notes:     record.Notes,
		CreatedAt: record.CreatedAt,
	}
	if len(record.CharacterStates) > 0 {
		if err := json.Unmarshal(record.CharacterStates, &cp.Characters); err != nil {
			return nil, fmt.Errorf("failed to decode character states: %w", err)
		}
	}
	if len(record.ChatHistory) > 0 {
		if err := json.Unmarshal(record.ChatHistory, &cp.Messages); err != nil {
			return nil, fmt.Errorf("failed to decode chat history: %w", err)
		}
	}
	return cp, nil
}
