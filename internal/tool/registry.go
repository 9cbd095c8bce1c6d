// Package tool provides the callable tools the oracle may request
// during a turn, and the registry that resolves them by name.
package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
)

// ErrUnknownTool indicates the oracle requested a tool name that is
// not registered.
var ErrUnknownTool = errors.New("unknown tool")

// Tool is one callable tool. Description and Schema are consumed by
// the oracle for selection; Invoke runs synchronously and returns a
// plain string result fed back into the conversation.
type Tool interface {
	Name() string
	Description() string
	Schema() *jsonschema.Schema
	Invoke(ctx context.Context, args map[string]any) (string, error)
}

// Registry holds the fixed tool set, keyed by name.
type Registry struct {
	tools map[string]Tool
	order []string
}

// NewRegistry builds a registry from the given tools.
func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		r.Register(t)
	}
	return r
}

// Register adds a tool, replacing any previous tool with the same name.
func (r *Registry) Register(t Tool) {
	if _, exists := r.tools[t.Name()]; !exists {
		r.order = append(r.order, t.Name())
	}
	r.tools[t.Name()] = t
}

// Get resolves a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// List returns every registered tool in registration order.
func (r *Registry) List() []Tool {
	tools := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		tools = append(tools, r.tools[name])
	}
	return tools
}

// Invoke executes the named tool. An unregistered name yields
// ErrUnknownTool; the caller decides whether that aborts the turn or
// becomes an inline error string.
func (r *Registry) Invoke(ctx context.Context, name string, args map[string]any) (string, error) {
	t, ok := r.tools[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	return t.Invoke(ctx, args)
}

// decodeArgs converts the loosely typed argument mapping the oracle
// sends into a tool's typed argument struct.
func decodeArgs(args map[string]any, target any) error {
	raw, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("failed to encode tool arguments: %w", err)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("failed to decode tool arguments: %w", err)
	}
	return nil
}
