package engine

import (
	"context"
	"errors"

	"github.com/google/jsonschema-go/jsonschema"
)

// ErrRateLimited indicates the oracle rejected the call because of
// quota exhaustion. The engine degrades to an apologetic narration
// instead of propagating it.
var ErrRateLimited = errors.New("oracle rate limited")

// Conversation roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ChatMessage is one entry of the conversation sent to the oracle.
// ToolCalls is set on assistant messages requesting tool runs;
// ToolCallID is set on tool result messages.
type ChatMessage struct {
	Role       string
	Content    string
	ToolCallID string
	ToolCalls  []ToolCall
}

// ToolCall is one tool invocation requested by the oracle. Arguments
// is the raw JSON argument object as produced by the model.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// ToolSpec describes one callable tool to the oracle.
type ToolSpec struct {
	Name        string
	Description string
	Schema      *jsonschema.Schema
}

// OracleResponse is the oracle's answer to one completion call:
// free text, tool invocation requests, or both.
type OracleResponse struct {
	Content   string
	ToolCalls []ToolCall
}

// Oracle is the external text generation service. Implementations must
// be safe for concurrent use across sessions.
type Oracle interface {
	Complete(ctx context.Context, messages []ChatMessage, tools []ToolSpec) (OracleResponse, error)
}
