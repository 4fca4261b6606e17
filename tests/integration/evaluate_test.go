//go:build integration
// +build integration

// Package integration provides end-to-end tests for the Kestrel underwriting engine.
//
// These tests verify the COMPLETE workflow over real HTTP:
//
//	Application → Credit → Risk → Compliance → Pricing → Chair → Decision
//
// Run with: go test -tags=integration -v ./tests/integration/...
//
// UNDERSTANDING THE DOMAIN:
//
// 1. APPLICATION: A borrower's loan request (amount, income, debt, industry)
//
// 2. STAGE: One analyst in the committee. Five run in fixed order:
//   - credit:     FICO components, what-ifs, industry benchmark, trajectory
//   - risk:       PD/LGD/expected-loss modeling
//   - compliance: KYC/AML/sanctions placeholder checks
//   - pricing:    risk-adjusted rate and 60-month payment
//   - chair:      rule-gated final decision synthesis
//
// 3. STRATEGY: conservative / moderate / aggressive threshold profiles
//
// 4. DECISION: "approved", "rejected", or "review", with conditions and a
//    provisional amount (null when rejected)
//
// The server is wired in-process with the offline gateway and a channel bus,
// so the suite needs no network access and no API key.
package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/opensource-finance/kestrel/internal/api"
	"github.com/opensource-finance/kestrel/internal/bus"
	"github.com/opensource-finance/kestrel/internal/domain"
	"github.com/opensource-finance/kestrel/internal/gateway"
	"github.com/opensource-finance/kestrel/internal/orchestrator"
	"github.com/opensource-finance/kestrel/internal/runstore"
)

type testEnv struct {
	server *httptest.Server
	bus    *bus.ChannelBus
	store  *runstore.Store
}

func newTestEnv(t *testing.T, seed int64) *testEnv {
	t.Helper()

	eventBus := bus.NewChannelBus(256)
	store := runstore.New()

	orch, err := orchestrator.New(gateway.NewOffline(), orchestrator.NewRand(seed), eventBus, store, nil)
	if err != nil {
		t.Fatalf("failed to create orchestrator: %v", err)
	}

	cfg := domain.ServerConfig{Host: "localhost", Port: 0, ReadTimeout: 30, WriteTimeout: 60}
	srv := api.NewServer(cfg, orch, store, nil, eventBus, "integration-test")

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(func() {
		ts.Close()
		eventBus.Close()
	})

	return &testEnv{server: ts, bus: eventBus, store: store}
}

func (e *testEnv) evaluate(t *testing.T, req domain.ApplicationRequest) (int, *api.EvaluateResponse) {
	t.Helper()

	body, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("failed to marshal request: %v", err)
	}

	resp, err := http.Post(e.server.URL+"/applications/evaluate", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	var out api.EvaluateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return resp.StatusCode, &out
}

func strongApplicant() domain.ApplicationRequest {
	return domain.ApplicationRequest{
		ApplicantName:   "Maya Ellison",
		RequestedAmount: 120000,
		Purpose:         "Home Purchase",
		AnnualIncome:    185000,
		EmploymentYears: 12,
		ExistingDebt:    9000,
		Industry:        "Government",
	}
}

func TestFullWorkflow(t *testing.T) {
	env := newTestEnv(t, 11)

	status, resp := env.evaluate(t, strongApplicant())
	if status != http.StatusOK {
		t.Fatalf("expected status 200, got %d", status)
	}
	run := resp.Run
	if run == nil {
		t.Fatal("expected run in response")
	}

	if run.Status != domain.RunComplete {
		t.Fatalf("expected run complete, got %s (error: %s)", run.Status, run.Error)
	}

	wantOrder := []domain.StageID{
		domain.StageCredit,
		domain.StageRisk,
		domain.StageCompliance,
		domain.StagePricing,
		domain.StageChair,
	}
	if len(run.Stages) != len(wantOrder) {
		t.Fatalf("expected %d stages, got %d", len(wantOrder), len(run.Stages))
	}
	for i, want := range wantOrder {
		if run.Stages[i].ID != want {
			t.Errorf("stage %d: expected %s, got %s", i, want, run.Stages[i].ID)
		}
		if run.Stages[i].Status != domain.StageComplete {
			t.Errorf("stage %s: expected complete, got %s", want, run.Stages[i].Status)
		}
	}

	if run.Credit == nil || run.Risk == nil || run.Compliance == nil || run.Pricing == nil {
		t.Fatal("expected every stage analysis on the completed run")
	}
	if run.Decision == nil {
		t.Fatal("expected committee decision on the completed run")
	}

	// Deterministic scoring sanity
	if run.Credit.FICOScore < 300 || run.Credit.FICOScore > 850 {
		t.Errorf("FICO out of range: %d", run.Credit.FICOScore)
	}
	if run.Risk.ProbabilityOfDefault < 0.5 || run.Risk.ProbabilityOfDefault > 35 {
		t.Errorf("PD percent out of range: %v", run.Risk.ProbabilityOfDefault)
	}
	if run.Pricing.FinalRate <= run.Pricing.BaseRate {
		t.Errorf("final rate %v should exceed base rate %v", run.Pricing.FinalRate, run.Pricing.BaseRate)
	}
	if run.Decision.Conditions == nil {
		t.Error("expected non-nil conditions slice")
	}

	// The stored run must match what the response carried
	getResp, err := http.Get(env.server.URL + "/runs/" + run.ID)
	if err != nil {
		t.Fatalf("get run failed: %v", err)
	}
	defer getResp.Body.Close()
	if getResp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200 fetching run, got %d", getResp.StatusCode)
	}
	var stored domain.WorkflowRun
	if err := json.NewDecoder(getResp.Body).Decode(&stored); err != nil {
		t.Fatalf("failed to decode stored run: %v", err)
	}
	if stored.ID != run.ID {
		t.Errorf("expected stored run %s, got %s", run.ID, stored.ID)
	}
	if stored.Decision == nil || stored.Decision.FinalDecision != run.Decision.FinalDecision {
		t.Error("stored run decision does not match response")
	}
}

func TestHighDTIApplicantNotApproved(t *testing.T) {
	env := newTestEnv(t, 5)

	// DTI 75%, half a year of employment: disqualified well before pricing
	status, resp := env.evaluate(t, domain.ApplicationRequest{
		ApplicantName:   "Theo Marsh",
		RequestedAmount: 50000,
		Purpose:         "Debt Consolidation",
		AnnualIncome:    60000,
		EmploymentYears: 0.5,
		ExistingDebt:    45000,
		Industry:        "Retail",
	})
	if status != http.StatusOK {
		t.Fatalf("expected status 200, got %d", status)
	}
	run := resp.Run

	if run.Status != domain.RunComplete {
		t.Fatalf("expected run complete, got %s", run.Status)
	}
	decision := run.Decision.FinalDecision
	if decision == domain.DecisionApproved {
		t.Fatalf("expected rejection or review for 75%% DTI profile, got %s", decision)
	}
	if decision == domain.DecisionRejected && run.Decision.ApprovedAmount != nil {
		t.Error("rejected decision must carry a null approved amount")
	}
}

func TestStrategySelection(t *testing.T) {
	env := newTestEnv(t, 9)

	req := strongApplicant()
	req.Strategy = domain.StrategyAggressive

	status, resp := env.evaluate(t, req)
	if status != http.StatusOK {
		t.Fatalf("expected status 200, got %d", status)
	}
	if resp.Run.Strategy.Name != "Aggressive" {
		t.Errorf("expected aggressive strategy on run, got %s", resp.Run.Strategy.Name)
	}
	if resp.Run.Strategy.MinFICO != 620 {
		t.Errorf("expected aggressive MinFICO 620, got %d", resp.Run.Strategy.MinFICO)
	}
}

func TestProgressEventsOverBus(t *testing.T) {
	env := newTestEnv(t, 21)

	var started, completed, runDone atomic.Int64

	env.bus.Subscribe(context.Background(), domain.TopicStageStarted, func(ctx context.Context, msg *domain.Message) error {
		started.Add(1)
		return nil
	})
	env.bus.Subscribe(context.Background(), domain.TopicStageCompleted, func(ctx context.Context, msg *domain.Message) error {
		completed.Add(1)
		return nil
	})
	env.bus.Subscribe(context.Background(), domain.TopicRunCompleted, func(ctx context.Context, msg *domain.Message) error {
		runDone.Add(1)
		return nil
	})

	time.Sleep(50 * time.Millisecond)

	status, _ := env.evaluate(t, strongApplicant())
	if status != http.StatusOK {
		t.Fatalf("expected status 200, got %d", status)
	}

	// Channel bus dispatch is asynchronous
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if started.Load() == 5 && completed.Load() == 5 && runDone.Load() == 1 {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}

	if got := started.Load(); got != 5 {
		t.Errorf("expected 5 stage.started events, got %d", got)
	}
	if got := completed.Load(); got != 5 {
		t.Errorf("expected 5 stage.completed events, got %d", got)
	}
	if got := runDone.Load(); got != 1 {
		t.Errorf("expected 1 run.completed event, got %d", got)
	}
}

func TestValidationErrors(t *testing.T) {
	env := newTestEnv(t, 2)

	cases := []struct {
		name string
		req  domain.ApplicationRequest
	}{
		{
			name: "MissingName",
			req: domain.ApplicationRequest{
				RequestedAmount: 10000,
				Purpose:         "Education",
				AnnualIncome:    50000,
				Industry:        "Education",
			},
		},
		{
			name: "ZeroIncome",
			req: domain.ApplicationRequest{
				ApplicantName:   "Test Person",
				RequestedAmount: 10000,
				Purpose:         "Education",
				Industry:        "Education",
			},
		},
		{
			name: "NegativeAmount",
			req: domain.ApplicationRequest{
				ApplicantName:   "Test Person",
				RequestedAmount: -5,
				Purpose:         "Education",
				AnnualIncome:    50000,
				Industry:        "Education",
			},
		},
		{
			name: "MissingPurpose",
			req: domain.ApplicationRequest{
				ApplicantName:   "Test Person",
				RequestedAmount: 10000,
				AnnualIncome:    50000,
				Industry:        "Education",
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body, _ := json.Marshal(tc.req)
			resp, err := http.Post(env.server.URL+"/applications/evaluate", "application/json", bytes.NewReader(body))
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("expected status 400, got %d", resp.StatusCode)
			}
		})
	}
}

func TestRunNotFound(t *testing.T) {
	env := newTestEnv(t, 2)

	resp, err := http.Get(env.server.URL + "/runs/does-not-exist")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", resp.StatusCode)
	}
}

func TestHealthAndStrategies(t *testing.T) {
	env := newTestEnv(t, 2)

	resp, err := http.Get(env.server.URL + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status 200 from /health, got %d", resp.StatusCode)
	}

	sResp, err := http.Get(env.server.URL + "/strategies")
	if err != nil {
		t.Fatalf("strategies request failed: %v", err)
	}
	defer sResp.Body.Close()

	var out struct {
		Strategies map[string]domain.RiskStrategy `json:"strategies"`
		Count      int                            `json:"count"`
	}
	if err := json.NewDecoder(sResp.Body).Decode(&out); err != nil {
		t.Fatalf("failed to decode strategies: %v", err)
	}
	if out.Count != 3 {
		t.Errorf("expected 3 strategies, got %d", out.Count)
	}
	for _, name := range []string{domain.StrategyConservative, domain.StrategyModerate, domain.StrategyAggressive} {
		if _, ok := out.Strategies[name]; !ok {
			t.Errorf("expected strategy %q in listing", name)
		}
	}
}
