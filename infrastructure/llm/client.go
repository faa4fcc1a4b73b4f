package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"ideamap/application/ports"
	"ideamap/domain/core/aggregates"
	"ideamap/domain/core/entities"
	pkgerrors "ideamap/pkg/errors"
)

var _ ports.ModelClient = (*Client)(nil)

// Client turns prompts into structured drafts using a Provider. Every call is
// single-shot: failures are returned, never retried.
type Client struct {
	provider Provider
	options  CompletionOptions
	logger   *zap.Logger
}

// NewClient creates a model client
func NewClient(provider Provider, cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	name := "none"
	if provider != nil {
		name = provider.Name()
	}
	return &Client{
		provider: provider,
		options: CompletionOptions{
			Temperature: cfg.Temperature,
			TopP:        cfg.TopP,
			MaxTokens:   cfg.MaxTokens,
			Format:      "json",
		},
		logger: logger.With(zap.String("provider", name)),
	}
}

// IsAvailable returns true if the provider can take requests
func (c *Client) IsAvailable() bool {
	return c.provider != nil && c.provider.IsAvailable()
}

// SynthesizeTree asks the model for a topic/problem/idea tree
func (c *Client) SynthesizeTree(ctx context.Context, prompt string) (*aggregates.TreeDraft, error) {
	var draft aggregates.TreeDraft
	if err := c.completeJSON(ctx, "tree", prompt, &draft); err != nil {
		return nil, err
	}
	if strings.TrimSpace(draft.CentralTopic) == "" {
		return nil, fmt.Errorf("model response has no central topic")
	}
	return &draft, nil
}

// SynthesizeTaskBreakdown asks the model for a phased task plan
func (c *Client) SynthesizeTaskBreakdown(ctx context.Context, prompt string) (*entities.TaskBreakdownDraft, error) {
	var draft entities.TaskBreakdownDraft
	if err := c.completeJSON(ctx, "task", prompt, &draft); err != nil {
		return nil, err
	}
	if len(draft.Phases) == 0 {
		return nil, fmt.Errorf("model response has no development phases")
	}
	return &draft, nil
}

func (c *Client) completeJSON(ctx context.Context, kind, prompt string, out interface{}) error {
	if c.provider == nil {
		return pkgerrors.NewUnavailableError("model provider")
	}
	if !c.provider.IsAvailable() {
		return pkgerrors.NewUnavailableError(c.provider.Name())
	}

	response, err := c.provider.Complete(ctx, prompt, c.options)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return pkgerrors.NewTimeoutError(kind + " generation").WithCause(err)
		}
		if pkgerrors.GetAppError(err) != nil {
			return err
		}
		return pkgerrors.NewExternalError(c.provider.Name(), err)
	}

	response = stripCodeFence(response)
	if response == "" {
		return fmt.Errorf("received an empty %s response from the model", kind)
	}
	if err := json.Unmarshal([]byte(response), out); err != nil {
		c.logger.Warn("Model returned malformed JSON",
			zap.String("kind", kind),
			zap.Int("length", len(response)),
			zap.Error(err),
		)
		return fmt.Errorf("failed to parse %s response: %w", kind, err)
	}
	return nil
}

// stripCodeFence removes a surrounding markdown code fence
func stripCodeFence(response string) string {
	response = strings.TrimSpace(response)
	if !strings.HasPrefix(response, "```") {
		return response
	}
	response = strings.TrimPrefix(response, "```json")
	response = strings.TrimPrefix(response, "```")
	response = strings.TrimSuffix(response, "```")
	return strings.TrimSpace(response)
}
