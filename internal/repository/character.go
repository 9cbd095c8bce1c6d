package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/easeaico/project-sam/internal/types"
)

type characterModel struct {
	ID         string `gorm:"primaryKey"`
	UserID     string
	CampaignID string
	Name       string
	Race       string
	Class      string
	Level      int
	Stats      []byte `gorm:"type:jsonb"`
	Status     []byte `gorm:"type:jsonb"`
	Bio        string
	ImageURL   string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (characterModel) TableName() string {
	return "characters"
}

// CharacterRepo accesses the characters table.
type CharacterRepo struct {
	db *gorm.DB
}

// NewCharacterRepo returns a CharacterRepo.
func NewCharacterRepo(db *gorm.DB) *CharacterRepo {
	return &CharacterRepo{db: db}
}

// ListByUser returns a user's characters, oldest first.
func (r *CharacterRepo) ListByUser(ctx context.Context, userID string) ([]types.Character, error) {
	var records []characterModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list characters: %w", err)
	}
	return charactersFromModels(records)
}

// ListAll returns every character record.
func (r *CharacterRepo) ListAll(ctx context.Context) ([]types.Character, error) {
	var records []characterModel
	if err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list characters: %w", err)
	}
	return charactersFromModels(records)
}

// Upsert inserts or fully replaces a character record by identity.
func (r *CharacterRepo) Upsert(ctx context.Context, char *types.Character) error {
	if char.ID == "" {
		char.ID = uuid.NewString()
	}
	char.UpdatedAt = time.Now()
	if char.CreatedAt.IsZero() {
		char.CreatedAt = char.UpdatedAt
	}

	record, err := characterToModel(char)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(&record).Error; err != nil {
		return fmt.Errorf("failed to upsert character: %w", err)
	}
	return nil
}

// UpdateStatus persists a merged status mapping as a single update.
func (r *CharacterRepo) UpdateStatus(ctx context.Context, id string, status types.Status) error {
	raw, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed to encode status: %w", err)
	}
	if err := r.db.WithContext(ctx).
		Model(&characterModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     raw,
			"updated_at": time.Now(),
		}).Error; err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}
	return nil
}

// ListUserIDsByCampaign returns the distinct owners of the campaign's
// characters.
func (r *CharacterRepo) ListUserIDsByCampaign(ctx context.Context, campaignID string) ([]string, error) {
	var userIDs []string
	if err := r.db.WithContext(ctx).
		Model(&characterModel{}).
		Where("campaign_id = ? AND user_id <> ''", campaignID).
		Distinct().
		Pluck("user_id", &userIDs).Error; err != nil {
		return nil, fmt.Errorf("failed to list campaign players: %w", err)
	}
	return userIDs, nil
}

func characterToModel(char *types.Character) (characterModel, error) {
	stats, err := json.Marshal(char.Stats)
	if err != nil {
		return characterModel{}, fmt.Errorf("failed to encode stats: %w", err)
	}
	status, err := json.Marshal(char.Status)
	if err != nil {
		return characterModel{}, fmt.Errorf("failed to encode status: %w", err)
	}
	return characterModel{
		ID:         char.ID,
		UserID:     char.UserID,
		CampaignID: char.CampaignID,
		Name:       char.Name,
		Race:       char.Race,
		Class:      char.Class,
		Level:      char.Level,
		Stats:      stats,
		Status:     status,
		Bio:        char.Bio,
		ImageURL:   char.AvatarURL,
		CreatedAt:  char.CreatedAt,
		UpdatedAt:  char.UpdatedAt,
	}, nil
}

func characterFromModel(record characterModel) (types.Character, error) {
	char := types.Character{
		ID:         record.ID,
		UserID:     record.UserID,
		CampaignID: record.CampaignID,
		Name:       record.Name,
		Race:       record.Race,
		Class:      record.Class,
		Level:      record.Level,
		Bio:        record.Bio,
		AvatarURL:  record.ImageURL,
		CreatedAt:  record.CreatedAt,
		UpdatedAt:  record.UpdatedAt,
	}
	if len(record.Stats) > 0 {
		if err := json.Unmarshal(record.Stats, &char.Stats); err != nil {
			return types.Character{}, fmt.Errorf("failed to decode stats: %w", err)
		}
	}
	if len(record.Status) > 0 {
		if err := json.Unmarshal(record.Status, &char.Status); err != nil {
			return types.Character{}, fmt.Errorf("failed to decode status: %w", err)
		}
	}
	return char, nil
}

func charactersFromModels(records []characterModel) ([]types.Character, error) {
	chars := make([]types.Character, 0, len(records))
	for _, record := range records {
		char, err := characterFromModel(record)
		if err != nil {
			return nil, err
		}
		chars = append(chars, char)
	}
	return chars, nil
}
