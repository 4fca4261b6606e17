package gateway

import (
	"context"
	"encoding/json"

	"github.com/opensource-finance/kestrel/internal/domain"
)

// Offline is the gateway used when no API key is configured. It returns an
// empty qualitative document per agent so the workflow runs without network
// access; every analyst then falls back to its own deterministic figures and
// narrative templates.
type Offline struct{}

// NewOffline returns the offline gateway.
func NewOffline() *Offline {
	return &Offline{}
}

// Analyze returns an empty document for known agent types.
func (g *Offline) Analyze(_ context.Context, req domain.AgentRequest) (json.RawMessage, error) {
	if _, err := systemPrompt(req.AgentType); err != nil {
		return nil, err
	}
	return json.RawMessage(`{}`), nil
}
