package domain

import (
	"context"
	"encoding/json"
)

// AgentRequest carries everything the gateway needs to produce one stage's
// qualitative analysis: the raw application, the selected strategy, and the
// analyses completed by earlier stages.
type AgentRequest struct {
	AgentType   StageID          `json:"agentType"`
	Application *LoanApplication `json:"application"`
	Strategy    RiskStrategy     `json:"strategy"`
	Previous    map[string]any   `json:"previousAnalyses,omitempty"`
}

// Gateway is the narrow contract with the external text-generation service.
// Analyze returns the structured JSON document for the requested agent type.
// The caller owns validation and merging: quantitative fields it computed
// itself are never taken from the gateway, and malformed or missing JSON is a
// stage failure.
type Gateway interface {
	Analyze(ctx context.Context, req AgentRequest) (json.RawMessage, error)
}

// GatewayConfig holds configuration for the LLM gateway client.
type GatewayConfig struct {
	// APIKey enables the remote gateway; empty selects the offline generator.
	APIKey string

	// Model is the gateway model identifier.
	Model string

	// MaxTokens bounds each response.
	MaxTokens int64

	// CacheTTL bounds how long identical agent responses are reused. Zero
	// disables response caching.
	CacheTTL int // seconds
}
