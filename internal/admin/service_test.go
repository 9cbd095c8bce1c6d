package admin

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/easeaico/project-sam/internal/types"
)

type fakeCharacterRepo struct {
	chars     []types.Character
	playerIDs []string
	upserted  []types.Character
	statuses  map[string]types.Status
}

func (r *fakeCharacterRepo) ListAll(ctx context.Context) ([]types.Character, error) {
	return r.chars, nil
}

func (r *fakeCharacterRepo) Upsert(ctx context.Context, char *types.Character) error {
	r.upserted = append(r.upserted, *char)
	return nil
}

func (r *fakeCharacterRepo) UpdateStatus(ctx context.Context, id string, status types.Status) error {
	if r.statuses == nil {
		r.statuses = make(map[string]types.Status)
	}
	r.statuses[id] = status
	return nil
}

func (r *fakeCharacterRepo) ListUserIDsByCampaign(ctx context.Context, campaignID string) ([]string, error) {
	return r.playerIDs, nil
}

type fakeMessageRepo struct {
	history []types.Message

	inserted         []types.Message
	deletedUsers     []string
	deletedCampaigns []string
	deletedUserLists [][]string
	orphanPassRan    bool

	errByCampaign error
	errByUser     error
}

func (r *fakeMessageRepo) ListByUser(ctx context.Context, userID string) ([]types.Message, error) {
	return r.history, nil
}

func (r *fakeMessageRepo) BulkInsert(ctx context.Context, msgs []types.Message) error {
	r.inserted = append(r.inserted, msgs...)
	return nil
}

func (r *fakeMessageRepo) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	if r.errByUser != nil {
		return 0, r.errByUser
	}
	r.deletedUsers = append(r.deletedUsers, userID)
	return 2, nil
}

func (r *fakeMessageRepo) DeleteByCampaign(ctx context.Context, campaignID string) (int64, error) {
	if r.errByCampaign != nil {
		return 0, r.errByCampaign
	}
	r.deletedCampaigns = append(r.deletedCampaigns, campaignID)
	return 5, nil
}

func (r *fakeMessageRepo) DeleteByUsers(ctx context.Context, userIDs []string) (int64, error) {
	r.deletedUserLists = append(r.deletedUserLists, userIDs)
	return 3, nil
}

func (r *fakeMessageRepo) DeleteOrphaned(ctx context.Context) (int64, error) {
	r.orphanPassRan = true
	return 1, nil
}

type fakeCampaignRepo struct {
	camp *types.Campaign
}

func (r *fakeCampaignRepo) FirstByGM(ctx context.Context, userID string) (*types.Campaign, error) {
	return r.camp, nil
}

type fakeCheckpointRepo struct {
	saved []types.Checkpoint
}

func (r *fakeCheckpointRepo) Upsert(ctx context.Context, cp *types.Checkpoint) error {
	for i := range r.saved {
		if r.saved[i].Name == cp.Name {
			r.saved[i] = *cp
			return nil
		}
	}
	r.saved = append(r.saved, *cp)
	return nil
}

func (r *fakeCheckpointRepo) GetByName(ctx context.Context, name string) (*types.Checkpoint, error) {
	for i := range r.saved {
		if r.saved[i].Name == name {
			cp := r.saved[i]
			return &cp, nil
		}
	}
	return nil, nil
}

// List mirrors the created_at DESC ordering of the real repository.
func (r *fakeCheckpointRepo) List(ctx context.Context) ([]types.Checkpoint, error) {
	cps := slices.Clone(r.saved)
	slices.SortFunc(cps, func(a, b types.Checkpoint) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return cps, nil
}

func newTestService(chars *fakeCharacterRepo, msgs *fakeMessageRepo, camps *fakeCampaignRepo, cps *fakeCheckpointRepo) *Service {
	if chars == nil {
		chars = &fakeCharacterRepo{}
	}
	if msgs == nil {
		msgs = &fakeMessageRepo{}
	}
	if camps == nil {
		camps = &fakeCampaignRepo{}
	}
	if cps == nil {
		cps = &fakeCheckpointRepo{}
	}
	return NewService(chars, msgs, camps, cps)
}

func TestCheckpointIdempotence(t *testing.T) {
	msgs := &fakeMessageRepo{history: []types.Message{{ID: "m1", Role: types.RoleUser, Content: "first"}}}
	cps := &fakeCheckpointRepo{}
	s := newTestService(nil, msgs, nil, cps)

	if _, err := s.CreateCheckpoint(context.Background(), "A", "gm"); err != nil {
		t.Fatalf("first save failed: %v", err)
	}

	msgs.history = []types.Message{
		{ID: "m1", Role: types.RoleUser, Content: "first"},
		{ID: "m2", Role: types.RoleAssistant, Content: "second"},
	}
	if _, err := s.CreateCheckpoint(context.Background(), "A", "gm"); err != nil {
		t.Fatalf("second save failed: %v", err)
	}

	if len(cps.saved) != 1 {
		t.Fatalf("expected exactly one checkpoint named A, got %d entries", len(cps.saved))
	}
	if got := len(cps.saved[0].Messages); got != 2 {
		t.Fatalf("expected second snapshot content (2 messages), got %d", got)
	}
}

func TestLoadMissingCheckpointPerformsNoWrites(t *testing.T) {
	chars := &fakeCharacterRepo{}
	msgs := &fakeMessageRepo{}
	s := newTestService(chars, msgs, nil, &fakeCheckpointRepo{})

	_, err := s.LoadCheckpoint(context.Background(), "missing", "gm")
	if !errors.Is(err, ErrCheckpointNotFound) {
		t.Fatalf("expected ErrCheckpointNotFound, got %v", err)
	}
	if len(chars.upserted) != 0 || len(msgs.deletedUsers) != 0 || len(msgs.inserted) != 0 {
		t.Fatalf("load of a missing checkpoint must not write")
	}

	reply, err := s.HandleCommand(context.Background(), "gm", "/load missing")
	if err != nil {
		t.Fatalf("command dispatch must absorb the not-found case: %v", err)
	}
	if reply != "Checkpoint 'missing' not found." {
		t.Fatalf("unexpected reply: %q", reply)
	}
}

func TestLoadRestoresCharactersAndChat(t *testing.T) {
	chars := &fakeCharacterRepo{}
	msgs := &fakeMessageRepo{}
	cps := &fakeCheckpointRepo{saved: []types.Checkpoint{
		{
			Name: "camp-start",
			Characters: []types.Character{
				{ID: "char-1", Name: "Grog"},
				{Name: "no identity, skipped"},
			},
			Messages: []types.Message{
				{ID: "m1", Role: types.RoleUser, Content: "hello"},
				{ID: "m2", Role: types.RoleAssistant, Content: "doom"},
			},
		},
	}}
	s := newTestService(chars, msgs, nil, cps)

	reply, err := s.LoadCheckpoint(context.Background(), "camp-start", "gm")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if len(chars.upserted) != 1 || chars.upserted[0].ID != "char-1" {
		t.Fatalf("expected only the identified character restored, got %v", chars.upserted)
	}
	if len(msgs.deletedUsers) != 1 || msgs.deletedUsers[0] != "gm" {
		t.Fatalf("expected live history wiped for gm, got %v", msgs.deletedUsers)
	}
	if len(msgs.inserted) != 2 {
		t.Fatalf("expected 2 messages restored, got %d", len(msgs.inserted))
	}
	if !strings.Contains(reply, "Restored 2 msgs & 1 chars") {
		t.Fatalf("unexpected reply: %q", reply)
	}
	if !strings.Contains(reply, "<ACTION>REFRESH_CHARACTERS</ACTION><ACTION>RELOAD_CHAT</ACTION>") {
		t.Fatalf("missing client refresh directives: %q", reply)
	}
}

func TestListCheckpointsNewestFirst(t *testing.T) {
	cps := &fakeCheckpointRepo{}
	s := newTestService(nil, nil, nil, cps)

	now := time.Unix(1700000000, 0)
	s.nowFunc = func() time.Time { return now }
	if _, err := s.CreateCheckpoint(context.Background(), "old-save", "gm"); err != nil {
		t.Fatalf("first save failed: %v", err)
	}
	now = now.Add(time.Hour)
	if _, err := s.CreateCheckpoint(context.Background(), "new-save", "gm"); err != nil {
		t.Fatalf("second save failed: %v", err)
	}

	reply, err := s.ListCheckpoints(context.Background())
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	newIdx := strings.Index(reply, "new-save")
	oldIdx := strings.Index(reply, "old-save")
	if newIdx < 0 || oldIdx < 0 {
		t.Fatalf("both checkpoints must be listed: %q", reply)
	}
	if newIdx > oldIdx {
		t.Fatalf("newest checkpoint must be listed first: %q", reply)
	}
}

func TestResetHealsCharactersAndZeroesProgress(t *testing.T) {
	chars := &fakeCharacterRepo{chars: []types.Character{
		{
			ID: "char-1",
			Status: types.Status{
				"hp_current": 4,
				"hp_max":     20,
				"money":      map[string]any{"gp": 10},
				"xp":         500,
				"conditions": []any{"poisoned"},
			},
		},
		{ID: "char-2", Status: types.Status{"mood": "grim"}},
	}}
	msgs := &fakeMessageRepo{}
	s := newTestService(chars, msgs, &fakeCampaignRepo{}, nil)

	reply, err := s.Reset(context.Background(), "gm")
	if err != nil {
		t.Fatalf("reset failed: %v", err)
	}

	status, ok := chars.statuses["char-1"]
	if !ok {
		t.Fatalf("expected char-1 healed")
	}
	if hp, _ := status.IntValue(types.StatusHPCurrent); hp != 20 {
		t.Fatalf("expected hp restored to max, got %v", status)
	}
	if xp, _ := status.IntValue(types.StatusXP); xp != 0 {
		t.Fatalf("expected xp zeroed, got %v", status)
	}
	money, ok := status[types.StatusMoney].(map[string]any)
	if !ok {
		t.Fatalf("expected money mapping, got %T", status[types.StatusMoney])
	}
	for _, code := range types.CurrencyCodes {
		if money[code] != 0 {
			t.Fatalf("expected %s zeroed, got %v", code, money[code])
		}
	}
	if _, ok := status["conditions"]; !ok {
		t.Fatalf("unrelated status keys must survive the heal")
	}

	if _, ok := chars.statuses["char-2"]; ok {
		t.Fatalf("character without hp_max must be skipped")
	}
	if !strings.Contains(reply, "1 characters fully healed") {
		t.Fatalf("unexpected reply: %q", reply)
	}
	if !strings.Contains(reply, "<ACTION>CLEAR_CHAT</ACTION><ACTION>REFRESH_CHARACTERS</ACTION>") {
		t.Fatalf("missing client directives: %q", reply)
	}
}

func TestResetCascadeSurvivesPassFailure(t *testing.T) {
	chars := &fakeCharacterRepo{playerIDs: []string{"player-1"}}
	msgs := &fakeMessageRepo{errByCampaign: fmt.Errorf("table locked")}
	camps := &fakeCampaignRepo{camp: &types.Campaign{ID: "camp-1", GMUserID: "gm"}}
	s := newTestService(chars, msgs, camps, nil)

	reply, err := s.Reset(context.Background(), "gm")
	if err != nil {
		t.Fatalf("a single failed pass must not abort the reset: %v", err)
	}

	if len(msgs.deletedUserLists) != 1 {
		t.Fatalf("player pass should still run after campaign pass failed")
	}
	got := msgs.deletedUserLists[0]
	if len(got) != 2 || got[0] != "player-1" || got[1] != "gm" {
		t.Fatalf("expected gm appended to player scope, got %v", got)
	}
	if !msgs.orphanPassRan {
		t.Fatalf("orphan pass should still run")
	}
	if len(msgs.deletedUsers) != 1 || msgs.deletedUsers[0] != "gm" {
		t.Fatalf("user pass should still run, got %v", msgs.deletedUsers)
	}
	// 3 player + 1 orphan + 2 user; the failed campaign pass adds nothing.
	if !strings.Contains(reply, "cleared (6 messages)") {
		t.Fatalf("summary should count only successful passes: %q", reply)
	}
}

func TestHandleCommandDispatch(t *testing.T) {
	s := newTestService(nil, nil, nil, nil)
	s.nowFunc = func() time.Time { return time.Unix(1700000000, 0) }

	reply, err := s.HandleCommand(context.Background(), "gm", "/dance")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != "Unknown command: /dance. Type /help for list." {
		t.Fatalf("unexpected reply: %q", reply)
	}

	reply, err = s.HandleCommand(context.Background(), "gm", "/help")
	if err != nil || !strings.Contains(reply, "/checkpoint [name]") {
		t.Fatalf("unexpected help output: %q (%v)", reply, err)
	}

	reply, err = s.HandleCommand(context.Background(), "gm", "/load")
	if err != nil || reply != "Usage: /load [name]" {
		t.Fatalf("unexpected usage output: %q (%v)", reply, err)
	}

	reply, err = s.HandleCommand(context.Background(), "gm", "/checkpoint")
	if err != nil {
		t.Fatalf("autosave failed: %v", err)
	}
	if !strings.Contains(reply, "autosave_1700000000") {
		t.Fatalf("expected timestamp-derived default name, got %q", reply)
	}
}
