package gateway

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/opensource-finance/kestrel/internal/domain"
)

func mustStrategy(t *testing.T, name string) domain.RiskStrategy {
	t.Helper()
	strategy, err := domain.StrategyByName(name)
	if err != nil {
		t.Fatalf("StrategyByName(%q) failed: %v", name, err)
	}
	return strategy
}

func TestStripCodeFences(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"bare", `{"a": 1}`, `{"a": 1}`},
		{"fenced", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"fenced no lang", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"whitespace", "  {\"a\": 1}  ", `{"a": 1}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := stripCodeFences(tc.in); got != tc.want {
				t.Errorf("stripCodeFences(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestOfflineReturnsValidJSON(t *testing.T) {
	g := NewOffline()
	app := &domain.LoanApplication{ApplicantName: "A", AnnualIncome: 80000, RequestedAmount: 50000}

	for _, agent := range []domain.StageID{
		domain.StageCredit, domain.StageRisk, domain.StageCompliance,
		domain.StagePricing, domain.StageChair,
	} {
		raw, err := g.Analyze(context.Background(), domain.AgentRequest{
			AgentType:   agent,
			Application: app,
			Strategy:    mustStrategy(t, "moderate"),
		})
		if err != nil {
			t.Fatalf("Analyze(%s) failed: %v", agent, err)
		}
		var doc map[string]any
		if err := json.Unmarshal(raw, &doc); err != nil {
			t.Errorf("Analyze(%s) returned invalid JSON: %v", agent, err)
		}
	}
}

func TestOfflineRejectsUnknownAgent(t *testing.T) {
	g := NewOffline()
	if _, err := g.Analyze(context.Background(), domain.AgentRequest{AgentType: "astrologer"}); err == nil {
		t.Fatal("expected an error for an unknown agent type")
	}
}

func TestBuildUserMessage(t *testing.T) {
	msg, err := buildUserMessage(domain.AgentRequest{
		AgentType: domain.StageRisk,
		Application: &domain.LoanApplication{
			ApplicantName:   "Morgan Vale",
			RequestedAmount: 120000,
			AnnualIncome:    95000,
		},
		Strategy: mustStrategy(t, "conservative"),
		Previous: map[string]any{"credit": map[string]any{"ficoScore": 712}},
	})
	if err != nil {
		t.Fatalf("buildUserMessage failed: %v", err)
	}

	for _, want := range []string{"Morgan Vale", "Conservative", "720", "Previous Analyses", "712"} {
		if !strings.Contains(msg, want) {
			t.Errorf("user message missing %q:\n%s", want, msg)
		}
	}
}

func TestBuildUserMessageOmitsEmptyPrevious(t *testing.T) {
	msg, err := buildUserMessage(domain.AgentRequest{
		AgentType:   domain.StageCredit,
		Application: &domain.LoanApplication{ApplicantName: "A"},
		Strategy:    mustStrategy(t, "moderate"),
	})
	if err != nil {
		t.Fatalf("buildUserMessage failed: %v", err)
	}
	if strings.Contains(msg, "Previous Analyses") {
		t.Error("expected no previous-analyses section for the first stage")
	}
}

// recordingGateway counts calls through the cached wrapper.
type recordingGateway struct {
	calls int
}

func (g *recordingGateway) Analyze(context.Context, domain.AgentRequest) (json.RawMessage, error) {
	g.calls++
	return json.RawMessage(`{"recommendation": "ok"}`), nil
}

// mapCache is a minimal in-process cache for tests.
type mapCache struct {
	data map[string][]byte
}

func newMapCache() *mapCache { return &mapCache{data: make(map[string][]byte)} }

func (c *mapCache) Get(_ context.Context, key string) ([]byte, error) {
	return c.data[key], nil
}

func (c *mapCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.data[key] = value
	return nil
}

func (c *mapCache) Delete(_ context.Context, key string) error {
	delete(c.data, key)
	return nil
}

func (c *mapCache) Ping(context.Context) error { return nil }
func (c *mapCache) Close() error               { return nil }

func TestCachedGatewayReusesResponses(t *testing.T) {
	inner := &recordingGateway{}
	cached := NewCached(inner, newMapCache(), time.Minute, nil)

	req := domain.AgentRequest{
		AgentType:   domain.StagePricing,
		Application: &domain.LoanApplication{ID: "app-1", RequestedAmount: 50000, AnnualIncome: 90000},
		Strategy:    mustStrategy(t, "moderate"),
	}

	for i := 0; i < 3; i++ {
		if _, err := cached.Analyze(context.Background(), req); err != nil {
			t.Fatalf("Analyze failed: %v", err)
		}
	}
	if inner.calls != 1 {
		t.Errorf("expected one upstream call, got %d", inner.calls)
	}

	// A different upstream analysis must miss.
	req.Previous = map[string]any{"risk": map[string]any{"probabilityOfDefault": 4.2}}
	if _, err := cached.Analyze(context.Background(), req); err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if inner.calls != 2 {
		t.Errorf("expected a cache miss for changed previous analyses, got %d calls", inner.calls)
	}
}
