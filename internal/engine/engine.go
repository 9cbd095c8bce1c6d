// Package engine orchestrates one chat turn: prompt assembly, the
// bounded oracle/tool exchange, directive extraction, and state
// reconciliation.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/easeaico/project-sam/internal/directive"
	"github.com/easeaico/project-sam/internal/prompt"
	"github.com/easeaico/project-sam/internal/tool"
	"github.com/easeaico/project-sam/internal/types"
)

// maxToolRounds bounds oracle round-trips per turn so a misbehaving
// oracle cannot spin the loop forever.
const maxToolRounds = 3

const (
	fallbackNarration = "*(S.A.M. stares at you blankly, then taps the microphone.)* " +
		"'Is this thing on? My neural pathways jammed. Say that again?' (System Error: Empty AI Response)"

	rateLimitNarration = "*(S.A.M. massages his metallic temples.)*\n\n" +
		"'Too many timelines converging at once. My upper brain needs a short rest so it doesn't melt.'\n\n" +
		"*(Try again in 30-60 seconds.)*"

	overloadedNarration = "*(S.A.M. flickers like a dying candle.)* " +
		"'The weave is overloaded. Give me a moment to glue my circuits back together.'"
)

// CharacterStore reads and mutates live character records.
type CharacterStore interface {
	ListByUser(ctx context.Context, userID string) ([]types.Character, error)
	UpdateStatus(ctx context.Context, id string, status types.Status) error
}

// MessageStore persists chat turns. ListRecent returns the newest
// messages in chronological order.
type MessageStore interface {
	Insert(ctx context.Context, msg *types.Message) error
	ListRecent(ctx context.Context, userID string, limit int) ([]types.Message, error)
}

// LoreRetriever resolves background lore for a player action via
// similarity search.
type LoreRetriever interface {
	Context(ctx context.Context, query string) (string, error)
}

// ImageGenerator turns an image directive prompt into a URL.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// CommandHandler processes slash-prefixed administrative commands.
type CommandHandler interface {
	HandleCommand(ctx context.Context, userID, input string) (string, error)
}

// TurnResult is the structured outcome of one chat turn.
type TurnResult struct {
	Response  string
	ImageURL  string
	Updates   types.Status
	Loot      *directive.Loot
	DMRoll    *directive.DMRoll
	XPGain    string
	Event     string
	DebugInfo map[string]any
}

// Config wires the engine's collaborators. Oracle, Tools, and Prompts
// are required; the rest may be nil and the matching step is skipped.
type Config struct {
	Oracle     Oracle
	Tools      *tool.Registry
	Prompts    *prompt.Builder
	Characters CharacterStore
	Messages   MessageStore
	Lore       LoreRetriever
	Images     ImageGenerator
	Admin      CommandHandler
}

// Engine runs the turn pipeline. Safe for concurrent use: all
// cross-request state lives in the external stores.
type Engine struct {
	cfg Config
}

// New creates a turn engine.
func New(cfg Config) (*Engine, error) {
	if cfg.Oracle == nil {
		return nil, fmt.Errorf("oracle is required")
	}
	if cfg.Tools == nil {
		return nil, fmt.Errorf("tool registry is required")
	}
	if cfg.Prompts == nil {
		return nil, fmt.Errorf("prompt builder is required")
	}
	return &Engine{cfg: cfg}, nil
}

// ProcessTurn handles one inbound player action. Slash-prefixed input
// routes to the admin command handler; everything else runs the
// narration pipeline. Chat turns never surface a hard failure: oracle
// faults degrade to in-character narrations, so the caller always gets
// a displayable response. Only context cancellation propagates.
func (e *Engine) ProcessTurn(ctx context.Context, userID, campaignID, input string) (TurnResult, error) {
	trimmed := strings.TrimSpace(input)
	if e.cfg.Admin != nil && strings.HasPrefix(trimmed, "/") {
		reply, err := e.cfg.Admin.HandleCommand(ctx, userID, trimmed)
		if err != nil {
			slog.Error("failed to handle admin command", "error", err.Error())
			return TurnResult{Response: fmt.Sprintf("Command failed: %v", err)}, nil
		}
		return TurnResult{Response: reply}, nil
	}

	result, err := e.narrate(ctx, userID, input)
	if err != nil {
		return TurnResult{}, err
	}

	// Persisted after the turn so the loaded history never contains
	// the input being processed.
	e.persist(ctx, &types.Message{
		Role:       types.RoleUser,
		Content:    input,
		UserID:     userID,
		CampaignID: campaignID,
	})
	e.persist(ctx, &types.Message{
		Role:       types.RoleAssistant,
		Content:    result.Response,
		ImageURL:   result.ImageURL,
		Metadata:   result.DebugInfo,
		UserID:     userID,
		CampaignID: campaignID,
	})
	return result, nil
}

func (e *Engine) narrate(ctx context.Context, userID, input string) (TurnResult, error) {
	charCtx := e.characterContext(ctx, userID)
	loreCtx := e.loreContext(ctx, input)

	system, err := e.cfg.Prompts.BuildSystem(prompt.BuildContext{
		CharacterContext: charCtx,
		LoreContext:      loreCtx,
	})
	if err != nil {
		return e.degrade(err)
	}

	messages := []ChatMessage{{Role: RoleSystem, Content: system}}
	for _, m := range e.history(ctx, userID) {
		messages = append(messages, ChatMessage{Role: m.Role, Content: m.Content})
	}
	messages = append(messages,
		ChatMessage{Role: RoleUser, Content: input},
		ChatMessage{Role: RoleSystem, Content: prompt.Reminder},
	)

	specs := e.toolSpecs()

	resp, err := e.cfg.Oracle.Complete(ctx, messages, specs)
	if err != nil {
		return e.degrade(err)
	}

	for rounds := 0; len(resp.ToolCalls) > 0 && rounds < maxToolRounds; rounds++ {
		messages = append(messages, ChatMessage{
			Role:      RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})
		slog.Info("tool calls requested", "round", rounds+1, "count", len(resp.ToolCalls))

		for _, call := range resp.ToolCalls {
			messages = append(messages, ChatMessage{
				Role:       RoleTool,
				Content:    e.invokeTool(ctx, call),
				ToolCallID: call.ID,
			})
		}

		resp, err = e.cfg.Oracle.Complete(ctx, messages, specs)
		if err != nil {
			return e.degrade(err)
		}
	}

	raw := resp.Content
	if strings.TrimSpace(raw) == "" {
		slog.Warn("oracle returned empty content, substituting fallback")
		raw = fallbackNarration
	}

	ex := directive.Extract(raw)

	var updates types.Status
	if ex.Update != nil && len(ex.Update.Status) > 0 {
		updates = ex.Update.Status
		e.reconcile(ctx, userID, updates)
	}

	imageURL := ""
	if ex.ImagePrompt != "" && e.cfg.Images != nil {
		url, imgErr := e.cfg.Images.Generate(ctx, ex.ImagePrompt)
		if imgErr != nil {
			slog.Warn("failed to generate scene image", "error", imgErr.Error())
		} else {
			imageURL = url
		}
	}

	return TurnResult{
		Response: ex.Text,
		ImageURL: imageURL,
		Updates:  updates,
		Loot:     ex.Loot,
		DMRoll:   ex.DMRoll,
		XPGain:   ex.XPGain,
		Event:    ex.Event,
		DebugInfo: map[string]any{
			"rag_context":  loreCtx,
			"raw_response": raw,
		},
	}, nil
}

// invokeTool runs one requested tool and converts every failure into an
// inline error string, so the loop keeps going and the oracle can
// narrate around the problem.
func (e *Engine) invokeTool(ctx context.Context, call ToolCall) string {
	slog.Info("executing tool", "name", call.Name)

	var args map[string]any
	if call.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			slog.Warn("failed to parse tool arguments", "tool", call.Name, "error", err.Error())
			return fmt.Sprintf("Error executing tool: %v", err)
		}
	}

	output, err := e.cfg.Tools.Invoke(ctx, call.Name, args)
	if errors.Is(err, tool.ErrUnknownTool) {
		return fmt.Sprintf("Error: Tool %s not found.", call.Name)
	}
	if err != nil {
		return fmt.Sprintf("Error executing tool: %v", err)
	}
	return output
}

// reconcile merges an extracted status update into the user's active
// character by the shallow top-level replace rule and persists it.
// Failures are logged, never fatal to the turn.
func (e *Engine) reconcile(ctx context.Context, userID string, update types.Status) {
	if e.cfg.Characters == nil {
		return
	}
	chars, err := e.cfg.Characters.ListByUser(ctx, userID)
	if err != nil {
		slog.Warn("failed to load characters for reconciliation", "error", err.Error())
		return
	}
	if len(chars) == 0 {
		return
	}

	active := chars[0]
	merged := types.Merge(active.Status, update)
	if err := e.cfg.Characters.UpdateStatus(ctx, active.ID, merged); err != nil {
		slog.Warn("failed to persist status update", "character", active.ID, "error", err.Error())
	}
}

func (e *Engine) characterContext(ctx context.Context, userID string) string {
	if e.cfg.Characters == nil {
		return prompt.NoCharacterContext
	}
	chars, err := e.cfg.Characters.ListByUser(ctx, userID)
	if err != nil {
		slog.Warn("failed to load character context", "error", err.Error())
		return prompt.NoCharacterContext
	}
	if len(chars) == 0 {
		return prompt.NoCharacterContext
	}

	raw, err := json.Marshal(chars[0])
	if err != nil {
		slog.Warn("failed to encode character context", "error", err.Error())
		return prompt.NoCharacterContext
	}
	return string(raw)
}

func (e *Engine) loreContext(ctx context.Context, query string) string {
	if e.cfg.Lore == nil {
		return prompt.NoLoreContext
	}
	lore, err := e.cfg.Lore.Context(ctx, query)
	if err != nil {
		slog.Warn("failed to retrieve lore context", "error", err.Error())
		return prompt.NoLoreContext
	}
	if strings.TrimSpace(lore) == "" {
		return prompt.NoLoreContext
	}
	return lore
}

func (e *Engine) history(ctx context.Context, userID string) []types.Message {
	if e.cfg.Messages == nil {
		return nil
	}
	msgs, err := e.cfg.Messages.ListRecent(ctx, userID, e.cfg.Prompts.HistoryLimit())
	if err != nil {
		slog.Warn("failed to load chat history", "error", err.Error())
		return nil
	}
	return msgs
}

func (e *Engine) toolSpecs() []ToolSpec {
	tools := e.cfg.Tools.List()
	specs := make([]ToolSpec, 0, len(tools))
	for _, t := range tools {
		specs = append(specs, ToolSpec{
			Name:        t.Name(),
			Description: t.Description(),
			Schema:      t.Schema(),
		})
	}
	return specs
}

// persist is best effort: a storage fault must not eat the narration.
func (e *Engine) persist(ctx context.Context, msg *types.Message) {
	if e.cfg.Messages == nil {
		return
	}
	if err := e.cfg.Messages.Insert(ctx, msg); err != nil {
		slog.Warn("failed to persist message", "role", msg.Role, "error", err.Error())
	}
}

// degrade converts an oracle fault into an in-character narration.
// Context cancellation is the only error surfaced to the caller.
func (e *Engine) degrade(err error) (TurnResult, error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return TurnResult{}, err
	}
	if errors.Is(err, ErrRateLimited) {
		slog.Warn("oracle rate limited")
		return TurnResult{Response: rateLimitNarration}, nil
	}
	slog.Error("failed to call oracle", "error", err.Error())
	return TurnResult{
		Response:  overloadedNarration,
		DebugInfo: map[string]any{"error": err.Error()},
	}, nil
}
