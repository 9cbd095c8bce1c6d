// Package models provides adapters for the external model providers.
package models

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/easeaico/project-sam/internal/engine"
)

// narratorTemperature keeps the narrator creative but rule-adherent.
const narratorTemperature = 0.7

// Oracle is an OpenAI compatible chat completion client implementing
// engine.Oracle.
type Oracle struct {
	client *openai.Client
	model  string
}

// NewOracle creates the chat completion adapter. baseURL may be empty
// for the default endpoint, or point at any OpenAI compatible service.
func NewOracle(apiKey, baseURL, model string) (*Oracle, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if model == "" {
		return nil, fmt.Errorf("model name cannot be empty")
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(opts...)

	return &Oracle{client: &client, model: model}, nil
}

// Complete runs one chat completion. Quota exhaustion is mapped to
// engine.ErrRateLimited so the engine can degrade gracefully.
func (o *Oracle) Complete(ctx context.Context, messages []engine.ChatMessage, tools []engine.ToolSpec) (engine.OracleResponse, error) {
	params := openai.ChatCompletionNewParams{
		Model:       o.model,
		Messages:    convertMessages(messages),
		Temperature: openai.Float(narratorTemperature),
	}
	if len(tools) > 0 {
		params.Tools = convertTools(tools)
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
			return engine.OracleResponse{}, fmt.Errorf("%w: %v", engine.ErrRateLimited, err)
		}
		slog.Error("failed to call oracle API", "error", err.Error())
		return engine.OracleResponse{}, fmt.Errorf("failed to call oracle API: %w", err)
	}

	if resp == nil || len(resp.Choices) == 0 {
		return engine.OracleResponse{}, nil
	}

	message := resp.Choices[0].Message
	out := engine.OracleResponse{Content: message.Content}
	for _, v := range message.ToolCalls {
		// OpenAI tool types are currently function only.
		if v.Type != "function" {
			continue
		}
		out.ToolCalls = append(out.ToolCalls, engine.ToolCall{
			ID:        v.ID,
			Name:      v.Function.Name,
			Arguments: v.Function.Arguments,
		})
	}
	return out, nil
}

func convertMessages(messages []engine.ChatMessage) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch {
		case m.Role == engine.RoleTool:
			out = append(out, openai.ToolMessage(m.Content, m.ToolCallID))
		case m.Role == engine.RoleAssistant && len(m.ToolCalls) > 0:
			out = append(out, assistantToolCallMessage(m))
		case m.Role == engine.RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		case m.Role == engine.RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}

// assistantToolCallMessage rebuilds the assistant turn that requested
// tool runs, so the follow-up completion sees the full exchange.
func assistantToolCallMessage(m engine.ChatMessage) openai.ChatCompletionMessageParamUnion {
	assistant := openai.ChatCompletionAssistantMessageParam{}
	if m.Content != "" {
		assistant.Content.OfString = openai.String(m.Content)
	}
	for _, call := range m.ToolCalls {
		assistant.ToolCalls = append(assistant.ToolCalls, openai.ChatCompletionMessageToolCallUnionParam{
			OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
				ID: call.ID,
				Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
					Name:      call.Name,
					Arguments: call.Arguments,
				},
			},
		})
	}
	return openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant}
}

func convertTools(tools []engine.ToolSpec) []openai.ChatCompletionToolUnionParam {
	out := make([]openai.ChatCompletionToolUnionParam, 0, len(tools))
	for _, t := range tools {
		out = append(out, openai.ChatCompletionToolUnionParam{
			OfFunction: &openai.ChatCompletionFunctionToolParam{
				Function: openai.FunctionDefinitionParam{
					Name:        t.Name,
					Description: openai.String(t.Description),
					Parameters:  schemaToParameters(t.Schema),
				},
			},
		})
	}
	return out
}
