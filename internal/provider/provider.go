// Package provider adapts an AI completion backend for the orchestrator's
// per-phase prompts. The core never calls the backend itself; it emits a
// prompt bundle and the caller invokes Complete once per phase.
package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
	"go.uber.org/zap"
)

// ErrEmptyCompletion is returned when the backend answers with no content.
var ErrEmptyCompletion = errors.New("completion backend returned no content")

// Provider produces one completion for a role-specific prompt.
type Provider interface {
	Complete(ctx context.Context, role, prompt string) (string, error)
}

// LLM is a langchaingo-backed Provider.
type LLM struct {
	model  llms.Model
	logger *zap.Logger
}

// NewLLM wraps any langchaingo model.
func NewLLM(model llms.Model, logger *zap.Logger) *LLM {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LLM{model: model, logger: logger}
}

// NewOpenAI builds an OpenAI-compatible Provider.
func NewOpenAI(model, apiKey string, logger *zap.Logger) (*LLM, error) {
	backend, err := openai.New(openai.WithModel(model), openai.WithToken(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create completion backend: %w", err)
	}
	return NewLLM(backend, logger), nil
}

// Complete implements Provider.
func (l *LLM) Complete(ctx context.Context, role, prompt string) (string, error) {
	resp, err := l.model.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, "You are the "+role+" agent for an automated build pipeline. Answer with the artifact for your phase, nothing else."),
		llms.TextParts(schema.ChatMessageTypeHuman, prompt),
	})
	if err != nil {
		return "", fmt.Errorf("generate completion: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Content == "" {
		return "", ErrEmptyCompletion
	}
	l.logger.Debug("completion generated",
		zap.String("role", role),
		zap.Int("length", len(resp.Choices[0].Content)))
	return resp.Choices[0].Content, nil
}

// Static is a fixed-response Provider for tests and dry runs.
type Static struct {
	Response string
	Err      error

	// Calls records every (role, prompt) pair, most recent last.
	Calls []struct{ Role, Prompt string }
}

// Complete implements Provider.
func (s *Static) Complete(_ context.Context, role, prompt string) (string, error) {
	s.Calls = append(s.Calls, struct{ Role, Prompt string }{role, prompt})
	if s.Err != nil {
		return "", s.Err
	}
	return s.Response, nil
}
