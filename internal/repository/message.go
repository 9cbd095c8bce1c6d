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

type messageModel struct {
	ID         string `gorm:"primaryKey"`
	Role       string
	Content    string
	ImageURL   string
	Metadata   []byte `gorm:"type:jsonb"`
	UserID     string
	CampaignID string
	CreatedAt  time.Time
}

func (messageModel) TableName() string {
	return "messages"
}

// MessageRepo accesses the messages table.
type MessageRepo struct {
	db *gorm.DB
}

// NewMessageRepo returns a MessageRepo.
func NewMessageRepo(db *gorm.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// Insert appends one chat turn.
func (r *MessageRepo) Insert(ctx context.Context, msg *types.Message) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}

	record, err := messageToModel(msg)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

// ListRecent returns the newest messages for a user in chronological
// order.
func (r *MessageRepo) ListRecent(ctx context.Context, userID string, limit int) ([]types.Message, error) {
	var records []messageModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to query chat history: %w", err)
	}

	results, err := messagesFromModels(records)
	if err != nil {
		return nil, err
	}

	// Oldest -> newest
	for i, j := 0, len(results)-1; i < j; i, j = i+1, j-1 {
		results[i], results[j] = results[j], results[i]
	}
	return results, nil
}

// ListByUser returns a user's full history, oldest first.
func (r *MessageRepo) ListByUser(ctx context.Context, userID string) ([]types.Message, error) {
	var records []messageModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to query chat history: %w", err)
	}
	return messagesFromModels(records)
}

// BulkInsert restores a batch of messages verbatim, keeping their
// identities and timestamps.
func (r *MessageRepo) BulkInsert(ctx context.Context, msgs []types.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	records := make([]messageModel, 0, len(msgs))
	for i := range msgs {
		record, err := messageToModel(&msgs[i])
		if err != nil {
			return err
		}
		records = append(records, record)
	}
	if err := r.db.WithContext(ctx).Create(&records).Error; err != nil {
		return fmt.Errorf("failed to bulk insert messages: %w", err)
	}
	return nil
}

// DeleteByUser removes every message a user owns.
func (r *MessageRepo) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	res := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&messageModel{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete user messages: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// DeleteByCampaign removes every message tagged with the campaign.
func (r *MessageRepo) DeleteByCampaign(ctx context.Context, campaignID string) (int64, error) {
	res := r.db.WithContext(ctx).Where("campaign_id = ?", campaignID).Delete(&messageModel{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete campaign messages: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// DeleteByUsers removes every message owned by any of the users.
func (r *MessageRepo) DeleteByUsers(ctx context.Context, userIDs []string) (int64, error) {
	if len(userIDs) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).Where("user_id IN ?", userIDs).Delete(&messageModel{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete player messages: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// DeleteOrphaned removes messages with no campaign reference, left
// over from data written before campaign tagging existed.
func (r *MessageRepo) DeleteOrphaned(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("campaign_id IS NULL OR campaign_id = ''").
		Delete(&messageModel{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete orphaned messages: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func messageToModel(msg *types.Message) (messageModel, error) {
	metadata, err := json.Marshal(msg.Metadata)
	if err != nil {
		return messageModel{}, fmt.Errorf("failed to encode metadata: %w", err)
	}
	return messageModel{
		ID:         msg.ID,
		Role:       msg.Role,
		Content:    msg.Content,
		ImageURL:   msg.ImageURL,
		Metadata:   metadata,
		UserID:     msg.UserID,
		CampaignID: msg.CampaignID,
		CreatedAt:  msg.CreatedAt,
	}, nil
}

func messageFromModel(record messageModel) (types.Message, error) {
	msg := types.Message{
		ID:         record.ID,
		Role:       record.Role,
		Content:    record.Content,
		ImageURL:   record.ImageURL,
		UserID:     record.UserID,
		CampaignID: record.CampaignID,
		CreatedAt:  record.CreatedAt,
	}
	if len(record.Metadata) > 0 {
		if err := json.Unmarshal(record.Metadata, &msg.Metadata); err != nil {
			return types.Message{}, fmt.Errorf("failed to decode metadata: %w", err)
		}
	}
	return msg, nil
}

func messagesFromModels(records []messageModel) ([]types.Message, error) {
	msgs := make([]types.Message, 0, len(records))
	for _, record := range records {
		msg, err := messageFromModel(record)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}
