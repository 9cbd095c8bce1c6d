package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/easeaico/project-sam/internal/types"
)

type campaignModel struct {
	ID           string `gorm:"primaryKey"`
	GMID         string `gorm:"column:gm_id"`
	Name         string
	Settings     []byte `gorm:"type:jsonb"`
	RulesSummary string
	CreatedAt    time.Time
}

func (campaignModel) TableName() string {
	return "campaigns"
}

// CampaignRepo accesses the campaigns table.
type CampaignRepo struct {
	db *gorm.DB
}

// NewCampaignRepo returns a CampaignRepo.
func NewCampaignRepo(db *gorm.DB) *CampaignRepo {
	return &CampaignRepo{db: db}
}

// Create inserts a new campaign.
func (r *CampaignRepo) Create(ctx context.Context, camp *types.Campaign) error {
	if camp.ID == "" {
		camp.ID = uuid.NewString()
	}
	if camp.CreatedAt.IsZero() {
		camp.CreatedAt = time.Now()
	}

	settings, err := json.Marshal(camp.Settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	record := campaignModel{
		ID:           camp.ID,
		GMID:         camp.GMUserID,
		Name:         camp.Name,
		Settings:     settings,
		RulesSummary: camp.RulesSummary,
		CreatedAt:    camp.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("failed to insert campaign: %w", err)
	}
	return nil
}

// FirstByGM returns the oldest campaign the user runs as game master,
// or (nil, nil) when there is none.
func (r *CampaignRepo) FirstByGM(ctx context.Context, userID string) (*types.Campaign, error) {
	var records []campaignModel
	if err := r.db.WithContext(ctx).
		Where("gm_id = ?", userID).
		Order("created_at ASC").
		Limit(1).
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to query campaign: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	return campaignFromModel(records[0])
}

func campaignFromModel(record campaignModel) (*types.Campaign, error) {
	camp := &types.Campaign{
		ID:           record.ID,
		GMUserID:     record.GMID,
		Name:         record.Name,
		RulesSummary: record.RulesSummary,
		CreatedAt:    record.CreatedAt,
	}
	if len(record.Settings) > 0 {
		if err := json.Unmarshal(record.Settings, &camp.Settings); err != nil {
			return nil, fmt.Errorf("failed to decode settings: %w", err)
		}
	}
	return camp, nil
}
