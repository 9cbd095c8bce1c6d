// Package admin implements the slash command channel: named
// checkpoints, restore, and campaign reset.
package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/easeaico/project-sam/internal/types"
)

// ErrCheckpointNotFound indicates a load referenced a name that was
// never saved.
var ErrCheckpointNotFound = errors.New("checkpoint not found")

// CharacterRepo is the character table surface the admin service needs.
type CharacterRepo interface {
	ListAll(ctx context.Context) ([]types.Character, error)
	Upsert(ctx context.Context, char *types.Character) error
	UpdateStatus(ctx context.Context, id string, status types.Status) error
	ListUserIDsByCampaign(ctx context.Context, campaignID string) ([]string, error)
}

// MessageRepo is the message table surface the admin service needs.
// ListByUser returns messages in chronological order.
type MessageRepo interface {
	ListByUser(ctx context.Context, userID string) ([]types.Message, error)
	BulkInsert(ctx context.Context, msgs []types.Message) error
	DeleteByUser(ctx context.Context, userID string) (int64, error)
	DeleteByCampaign(ctx context.Context, campaignID string) (int64, error)
	DeleteByUsers(ctx context.Context, userIDs []string) (int64, error)
	DeleteOrphaned(ctx context.Context) (int64, error)
}

// CampaignRepo resolves the campaign a game master owns. FirstByGM
// returns (nil, nil) when the user owns none.
type CampaignRepo interface {
	FirstByGM(ctx context.Context, userID string) (*types.Campaign, error)
}

// CheckpointRepo stores named snapshots. GetByName returns (nil, nil)
// when the name is absent.
type CheckpointRepo interface {
	Upsert(ctx context.Context, cp *types.Checkpoint) error
	GetByName(ctx context.Context, name string) (*types.Checkpoint, error)
	List(ctx context.Context) ([]types.Checkpoint, error)
}

// Service handles checkpoint, load, reset, and list operations.
type Service struct {
	characters  CharacterRepo
	messages    MessageRepo
	campaigns   CampaignRepo
	checkpoints CheckpointRepo
	nowFunc     func() time.Time
}

// NewService creates the admin service.
func NewService(characters CharacterRepo, messages MessageRepo, campaigns CampaignRepo, checkpoints CheckpointRepo) *Service {
	return &Service{
		characters:  characters,
		messages:    messages,
		campaigns:   campaigns,
		checkpoints: checkpoints,
		nowFunc:     time.Now,
	}
}

const helpText = `**Admin Command Center**

- /checkpoint [name] - Save current state (chat + stats).
- /load [name] - Restore a saved state (wipes current chat).
- /reset - Wipe chat history and restore HP.
- /list - Show all checkpoints.
- /help - Show this menu.`

// HandleCommand parses and dispatches one slash command. The returned
// string is shown in the chat as-is. An unrecognized command word
// yields a hint, not an error.
func (s *Service) HandleCommand(ctx context.Context, userID, input string) (string, error) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return "Empty command.", nil
	}

	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "/help":
		return helpText, nil
	case "/reset":
		return s.Reset(ctx, userID)
	case "/checkpoint":
		name := strings.Join(args, " ")
		if name == "" {
			name = fmt.Sprintf("autosave_%d", s.nowFunc().Unix())
		}
		return s.CreateCheckpoint(ctx, name, userID)
	case "/load":
		if len(args) == 0 {
			return "Usage: /load [name]", nil
		}
		name := strings.Join(args, " ")
		reply, err := s.LoadCheckpoint(ctx, name, userID)
		if errors.Is(err, ErrCheckpointNotFound) {
			return fmt.Sprintf("Checkpoint '%s' not found.", name), nil
		}
		return reply, err
	case "/list":
		return s.ListCheckpoints(ctx)
	default:
		return fmt.Sprintf("Unknown command: %s. Type /help for list.", cmd), nil
	}
}

// CreateCheckpoint snapshots all characters plus the user's chat
// history under the given name. Saving an existing name replaces the
// prior snapshot in full.
func (s *Service) CreateCheckpoint(ctx context.Context, name, userID string) (string, error) {
	chars, err := s.characters.ListAll(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to snapshot characters: %w", err)
	}
	msgs, err := s.messages.ListByUser(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to snapshot chat history: %w", err)
	}

	cp := &types.Checkpoint{
		Name:       name,
		Characters: chars,
		Messages:   msgs,
		Notes:      "Full state save via admin console",
		CreatedAt:  s.nowFunc(),
	}
	if err := s.checkpoints.Upsert(ctx, cp); err != nil {
		return "", fmt.Errorf("failed to save checkpoint: %w", err)
	}
	return fmt.Sprintf("Checkpoint '%s' saved (chars + chat).", name), nil
}

// LoadCheckpoint restores a named snapshot: every character entry that
// carries an identity is upserted, then the user's live chat history
// is wiped and replaced by the snapshot's messages. The two table
// writes are not transactional; a mid-restore failure is surfaced and
// leaves the partial state in place.
func (s *Service) LoadCheckpoint(ctx context.Context, name, userID string) (string, error) {
	cp, err := s.checkpoints.GetByName(ctx, name)
	if err != nil {
		return "", fmt.Errorf("failed to fetch checkpoint: %w", err)
	}
	if cp == nil {
		return "", fmt.Errorf("%w: %s", ErrCheckpointNotFound, name)
	}

	restoredChars := 0
	for _, char := range cp.Characters {
		if char.ID == "" {
			continue
		}
		c := char
		if err := s.characters.Upsert(ctx, &c); err != nil {
			return "", fmt.Errorf("failed to restore character %s: %w", char.ID, err)
		}
		restoredChars++
	}

	restoredMsgs := 0
	if len(cp.Messages) > 0 {
		if _, err := s.messages.DeleteByUser(ctx, userID); err != nil {
			return "", fmt.Errorf("failed to wipe chat history: %w", err)
		}
		if err := s.messages.BulkInsert(ctx, cp.Messages); err != nil {
			return "", fmt.Errorf("failed to restore chat history: %w", err)
		}
		restoredMsgs = len(cp.Messages)
	}

	return fmt.Sprintf("Loaded '%s'. Restored %d msgs & %d chars. <ACTION>REFRESH_CHARACTERS</ACTION><ACTION>RELOAD_CHAT</ACTION>",
		name, restoredMsgs, restoredChars), nil
}

// ListCheckpoints returns all saved checkpoint names, most recent
// first.
func (s *Service) ListCheckpoints(ctx context.Context) (string, error) {
	cps, err := s.checkpoints.List(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list checkpoints: %w", err)
	}
	if len(cps) == 0 {
		return "No checkpoints found.", nil
	}

	lines := []string{"**Saved Checkpoints:**"}
	for _, cp := range cps {
		lines = append(lines, fmt.Sprintf("- **%s** (%s)", cp.Name, cp.CreatedAt.Format("2006-01-02 15:04")))
	}
	return strings.Join(lines, "\n"), nil
}

// Reset heals every character that has a known max HP (full HP, zeroed
// currency and experience), then wipes chat history through the
// four-pass cleanup cascade. Pass failures are logged and do not abort
// the remaining passes.
func (s *Service) Reset(ctx context.Context, userID string) (string, error) {
	healed, err := s.healCharacters(ctx)
	if err != nil {
		return "", err
	}

	report := s.wipeChat(ctx, userID)
	for _, pass := range report {
		if pass.Err != nil {
			slog.Warn("cleanup pass failed", "pass", pass.Name, "error", pass.Err.Error())
		}
	}

	return fmt.Sprintf("Campaign Reset! Chat history cleared (%d messages). %d characters fully healed. <ACTION>CLEAR_CHAT</ACTION><ACTION>REFRESH_CHARACTERS</ACTION>",
		report.Deleted(), healed), nil
}

func (s *Service) healCharacters(ctx context.Context) (int, error) {
	chars, err := s.characters.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list characters: %w", err)
	}

	healed := 0
	for _, char := range chars {
		maxHP, ok := char.Status.IntValue(types.StatusHPMax)
		if !ok {
			continue
		}
		status := types.Merge(char.Status, types.Status{
			types.StatusHPCurrent: maxHP,
			types.StatusMoney:     zeroMoney(),
			types.StatusXP:        0,
		})
		if err := s.characters.UpdateStatus(ctx, char.ID, status); err != nil {
			return healed, fmt.Errorf("failed to heal character %s: %w", char.ID, err)
		}
		healed++
	}
	return healed, nil
}

// wipeChat runs the deletion cascade. Data may be inconsistently
// tagged (missing campaign references, multiplayer leftovers), so four
// independent passes cover every scope a message can hide in.
func (s *Service) wipeChat(ctx context.Context, userID string) CleanupReport {
	var report CleanupReport
	var campaignID string

	camp, err := s.campaigns.FirstByGM(ctx, userID)
	if err != nil {
		report = append(report, CleanupPass{
			Name: "campaign messages",
			Err:  fmt.Errorf("failed to resolve campaign: %w", err),
		})
	} else if camp != nil {
		campaignID = camp.ID
	}

	if campaignID != "" {
		deleted, err := s.messages.DeleteByCampaign(ctx, campaignID)
		report = append(report, CleanupPass{Name: "campaign messages", Deleted: deleted, Err: err})

		userIDs, err := s.characters.ListUserIDsByCampaign(ctx, campaignID)
		if err != nil {
			report = append(report, CleanupPass{Name: "player messages", Err: err})
		} else {
			if !slices.Contains(userIDs, userID) {
				userIDs = append(userIDs, userID)
			}
			deleted, err := s.messages.DeleteByUsers(ctx, userIDs)
			report = append(report, CleanupPass{Name: "player messages", Deleted: deleted, Err: err})
		}

		deleted, err = s.messages.DeleteOrphaned(ctx)
		report = append(report, CleanupPass{Name: "orphaned messages", Deleted: deleted, Err: err})
	}

	deleted, err := s.messages.DeleteByUser(ctx, userID)
	report = append(report, CleanupPass{Name: "user messages", Deleted: deleted, Err: err})

	return report
}

func zeroMoney() map[string]any {
	money := make(map[string]any, len(types.CurrencyCodes))
	for _, code := range types.CurrencyCodes {
		money[code] = 0
	}
	return money
}
