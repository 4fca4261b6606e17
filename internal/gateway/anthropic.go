// Package gateway implements the LLM gateway contract: a remote Anthropic
// client, a deterministic offline generator, and a caching wrapper.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/opensource-finance/kestrel/internal/domain"
)

const (
	defaultModel     = "claude-haiku-4-5-20251001"
	defaultMaxTokens = 1024

	// Qualitative assessments want a little variety but not creativity.
	temperature = 0.3
)

// Anthropic is the remote gateway implementation.
type Anthropic struct {
	client    sdk.Client
	model     string
	maxTokens int64
	logger    *slog.Logger
}

// NewAnthropic creates a gateway backed by the Anthropic API.
func NewAnthropic(cfg domain.GatewayConfig, logger *slog.Logger) *Anthropic {
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Anthropic{
		client:    sdk.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:     model,
		maxTokens: maxTokens,
		logger:    logger,
	}
}

// Analyze sends the agent request and returns the model's JSON document.
// A response that does not parse as a JSON object is an error.
func (g *Anthropic) Analyze(ctx context.Context, req domain.AgentRequest) (json.RawMessage, error) {
	prompt, err := systemPrompt(req.AgentType)
	if err != nil {
		return nil, err
	}
	userMsg, err := buildUserMessage(req)
	if err != nil {
		return nil, err
	}

	msg, err := g.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:       sdk.Model(g.model),
		MaxTokens:   g.maxTokens,
		Temperature: sdk.Float(temperature),
		System:      []sdk.TextBlockParam{{Text: prompt}},
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(userMsg)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("gateway request for %s agent failed: %w", req.AgentType, err)
	}

	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}
	if text == "" {
		return nil, fmt.Errorf("gateway returned no text content for %s agent", req.AgentType)
	}

	g.logger.Debug("gateway response received",
		"agent", req.AgentType,
		"input_tokens", msg.Usage.InputTokens,
		"output_tokens", msg.Usage.OutputTokens)

	doc := stripCodeFences(text)
	if !json.Valid([]byte(doc)) {
		return nil, fmt.Errorf("gateway returned invalid JSON for %s agent", req.AgentType)
	}
	return json.RawMessage(doc), nil
}

// stripCodeFences removes a surrounding markdown code fence, if present.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
