package gateway

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/opensource-finance/kestrel/internal/domain"
)

// Cached wraps a gateway with response caching. Identical agent requests
// within the TTL reuse the stored document. Cache failures degrade to a
// direct gateway call.
type Cached struct {
	inner  domain.Gateway
	cache  domain.Cache
	ttl    time.Duration
	logger *slog.Logger
}

// NewCached wraps the inner gateway with the given cache.
func NewCached(inner domain.Gateway, cache domain.Cache, ttl time.Duration, logger *slog.Logger) *Cached {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cached{inner: inner, cache: cache, ttl: ttl, logger: logger}
}

// Analyze returns the cached document when present, otherwise delegates and
// stores the result.
func (g *Cached) Analyze(ctx context.Context, req domain.AgentRequest) (json.RawMessage, error) {
	key, err := cacheKey(req)
	if err != nil {
		return nil, err
	}

	if cached, err := g.cache.Get(ctx, key); err != nil {
		g.logger.Warn("gateway cache read failed", "error", err)
	} else if cached != nil {
		return json.RawMessage(cached), nil
	}

	doc, err := g.inner.Analyze(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := g.cache.Set(ctx, key, doc, g.ttl); err != nil {
		g.logger.Warn("gateway cache write failed", "error", err)
	}
	return doc, nil
}

// cacheKey fingerprints the full request, prior analyses included, so a
// changed upstream stage never reuses a stale document.
func cacheKey(req domain.AgentRequest) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to fingerprint gateway request: %w", err)
	}
	sum := sha256.Sum256(payload)
	return fmt.Sprintf("gateway:%s:%s", req.AgentType, hex.EncodeToString(sum[:])), nil
}
