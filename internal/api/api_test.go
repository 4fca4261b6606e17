package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/opensource-finance/kestrel/internal/domain"
	"github.com/opensource-finance/kestrel/internal/gateway"
	"github.com/opensource-finance/kestrel/internal/orchestrator"
	"github.com/opensource-finance/kestrel/internal/runstore"
)

// createTestServer wires a server over the offline gateway with a pinned seed.
func createTestServer(t *testing.T) *Server {
	t.Helper()

	cfg := domain.ServerConfig{
		Host:         "localhost",
		Port:         8080,
		ReadTimeout:  30,
		WriteTimeout: 30,
	}

	store := runstore.New()
	orch, err := orchestrator.New(gateway.NewOffline(), orchestrator.NewRand(7), nil, store, nil)
	if err != nil {
		t.Fatalf("failed to create orchestrator: %v", err)
	}

	return NewServer(cfg, orch, store, nil, nil, "test-v1")
}

func evaluateBody() []byte {
	body, _ := json.Marshal(domain.ApplicationRequest{
		ApplicantName:   "Dana Whitfield",
		RequestedAmount: 150000,
		Purpose:         "Home Purchase",
		AnnualIncome:    110000,
		EmploymentYears: 7,
		ExistingDebt:    20000,
		Industry:        "Healthcare",
	})
	return body
}

func TestEvaluateEndpoint(t *testing.T) {
	server := createTestServer(t)

	t.Run("SuccessfulEvaluation", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/applications/evaluate", bytes.NewBuffer(evaluateBody()))
		req.Header.Set("Content-Type", "application/json")

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
		}

		var resp EvaluateResponse
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}

		if resp.Run == nil {
			t.Fatal("expected run in response")
		}
		if resp.Run.ID == "" {
			t.Error("expected run id in response")
		}
		if resp.Run.Status != domain.RunComplete {
			t.Errorf("expected run status complete, got %s", resp.Run.Status)
		}
		if len(resp.Run.Stages) != 5 {
			t.Errorf("expected 5 stages, got %d", len(resp.Run.Stages))
		}
		if resp.Run.Decision == nil {
			t.Error("expected committee decision on completed run")
		}
		if resp.Run.Strategy.Name != "Moderate" {
			t.Errorf("expected default moderate strategy, got %s", resp.Run.Strategy.Name)
		}
		if resp.Metadata.Version != "test-v1" {
			t.Errorf("expected version test-v1, got %s", resp.Metadata.Version)
		}
		if resp.Metadata.TraceID == "" {
			t.Error("expected traceId in metadata")
		}
	})

	t.Run("StrategyQueryOverride", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/applications/evaluate?strategy=conservative", bytes.NewBuffer(evaluateBody()))
		req.Header.Set("Content-Type", "application/json")

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
		}

		var resp EvaluateResponse
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}
		if resp.Run.Strategy.Name != "Conservative" {
			t.Errorf("expected conservative strategy, got %s", resp.Run.Strategy.Name)
		}
	})

	t.Run("UnknownStrategy", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/applications/evaluate?strategy=reckless", bytes.NewBuffer(evaluateBody()))
		req.Header.Set("Content-Type", "application/json")

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rr.Code)
		}
	})

	t.Run("InvalidJSON", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/applications/evaluate", bytes.NewBufferString("not-json"))
		req.Header.Set("Content-Type", "application/json")

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rr.Code)
		}
	})

	t.Run("MissingName", func(t *testing.T) {
		body, _ := json.Marshal(domain.ApplicationRequest{
			RequestedAmount: 50000,
			Purpose:         "Education",
			AnnualIncome:    80000,
			Industry:        "Technology",
		})
		req := httptest.NewRequest(http.MethodPost, "/applications/evaluate", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rr.Code)
		}
	})

	t.Run("NonPositiveIncome", func(t *testing.T) {
		body, _ := json.Marshal(domain.ApplicationRequest{
			ApplicantName:   "Jo Marsh",
			RequestedAmount: 50000,
			Purpose:         "Education",
			AnnualIncome:    0,
			Industry:        "Technology",
		})
		req := httptest.NewRequest(http.MethodPost, "/applications/evaluate", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rr.Code)
		}
	})

	t.Run("NegativeDebt", func(t *testing.T) {
		body, _ := json.Marshal(domain.ApplicationRequest{
			ApplicantName:   "Jo Marsh",
			RequestedAmount: 50000,
			Purpose:         "Education",
			AnnualIncome:    80000,
			ExistingDebt:    -1,
			Industry:        "Technology",
		})
		req := httptest.NewRequest(http.MethodPost, "/applications/evaluate", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rr.Code)
		}
	})

	t.Run("ResponseHeaders", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/applications/evaluate", bytes.NewBuffer(evaluateBody()))
		req.Header.Set("Content-Type", "application/json")

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Header().Get("X-Request-ID") == "" {
			t.Error("expected X-Request-ID header in response")
		}
		if rr.Header().Get("X-Trace-ID") == "" {
			t.Error("expected X-Trace-ID header in response")
		}
		if rr.Header().Get("Content-Type") != "application/json" {
			t.Error("expected Content-Type: application/json")
		}
	})
}

// brokenGateway fails every agent call.
type brokenGateway struct{}

func (brokenGateway) Analyze(context.Context, domain.AgentRequest) (json.RawMessage, error) {
	return nil, errors.New("upstream unavailable")
}

func TestEvaluateGatewayOutage(t *testing.T) {
	cfg := domain.ServerConfig{
		Host:         "localhost",
		Port:         8080,
		ReadTimeout:  30,
		WriteTimeout: 30,
	}
	store := runstore.New()
	orch, err := orchestrator.New(brokenGateway{}, orchestrator.NewRand(7), nil, store, nil)
	if err != nil {
		t.Fatalf("failed to create orchestrator: %v", err)
	}
	server := NewServer(cfg, orch, store, nil, nil, "test-v1")

	req := httptest.NewRequest(http.MethodPost, "/applications/evaluate", bytes.NewBuffer(evaluateBody()))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	server.Router().ServeHTTP(rr, req)

	if rr.Code != http.StatusBadGateway {
		t.Fatalf("expected status 502, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp EvaluateResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.Run == nil || resp.Run.ID == "" {
		t.Fatal("expected the partial run with its id in the response")
	}
	if resp.Run.Status != domain.RunFailed {
		t.Errorf("expected failed run status, got %s", resp.Run.Status)
	}
}

func TestRunRetrieval(t *testing.T) {
	server := createTestServer(t)

	// Seed one run through the evaluate endpoint
	req := httptest.NewRequest(http.MethodPost, "/applications/evaluate", bytes.NewBuffer(evaluateBody()))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	server.Router().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("evaluate failed: %d: %s", rr.Code, rr.Body.String())
	}
	var resp EvaluateResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}

	t.Run("GetStoredRun", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/runs/"+resp.Run.ID, nil)
		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
		}

		var run domain.WorkflowRun
		if err := json.Unmarshal(rr.Body.Bytes(), &run); err != nil {
			t.Fatalf("failed to parse run: %v", err)
		}
		if run.ID != resp.Run.ID {
			t.Errorf("expected run %s, got %s", resp.Run.ID, run.ID)
		}
	})

	t.Run("UnknownRun", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/runs/no-such-run", nil)
		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", rr.Code)
		}
	})

	t.Run("ListRuns", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/runs", nil)
		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rr.Code)
		}

		var listResp struct {
			Runs  []*domain.WorkflowRun `json:"runs"`
			Count int                   `json:"count"`
		}
		if err := json.Unmarshal(rr.Body.Bytes(), &listResp); err != nil {
			t.Fatalf("failed to parse response: %v", err)
		}
		if listResp.Count < 1 {
			t.Errorf("expected at least one stored run, got %d", listResp.Count)
		}
	})
}

func TestStrategiesEndpoint(t *testing.T) {
	server := createTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/strategies", nil)
	rr := httptest.NewRecorder()
	server.Router().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var resp struct {
		Strategies map[string]domain.RiskStrategy `json:"strategies"`
		Count      int                            `json:"count"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if resp.Count != 3 {
		t.Errorf("expected 3 strategies, got %d", resp.Count)
	}
	if resp.Strategies["conservative"].MinFICO != 720 {
		t.Errorf("expected conservative MinFICO 720, got %d", resp.Strategies["conservative"].MinFICO)
	}
}

func TestHealthEndpoint(t *testing.T) {
	server := createTestServer(t)

	t.Run("HealthCheck", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("expected status 200, got %d", rr.Code)
		}

		var resp map[string]string
		json.Unmarshal(rr.Body.Bytes(), &resp)

		if resp["status"] != "healthy" {
			t.Errorf("expected status 'healthy', got '%s'", resp["status"])
		}
		if resp["version"] != "test-v1" {
			t.Errorf("expected version 'test-v1', got '%s'", resp["version"])
		}
	})

	t.Run("ReadyCheck", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/ready", nil)

		rr := httptest.NewRecorder()
		server.Router().ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("expected status 200, got %d", rr.Code)
		}
	})
}

func TestMiddleware(t *testing.T) {
	t.Run("TracingMiddlewareSetsRequestID", func(t *testing.T) {
		var capturedRequestID string

		handler := TracingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if v, ok := r.Context().Value(RequestIDKey).(string); ok {
				capturedRequestID = v
			}
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if capturedRequestID == "" {
			t.Error("expected request ID to be set")
		}

		if rr.Header().Get("X-Request-ID") == "" {
			t.Error("expected X-Request-ID response header")
		}
	})

	t.Run("RecoverMiddlewareHandlesPanic", func(t *testing.T) {
		handler := RecoverMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("test panic")
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rr := httptest.NewRecorder()

		// Should not panic
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusInternalServerError {
			t.Errorf("expected status 500, got %d", rr.Code)
		}
	})

	t.Run("CORSPreflight", func(t *testing.T) {
		handler := CORSMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodOptions, "/", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusNoContent {
			t.Errorf("expected status 204, got %d", rr.Code)
		}
		if rr.Header().Get("Access-Control-Allow-Origin") != "http://localhost:3000" {
			t.Errorf("expected origin echoed back, got %q", rr.Header().Get("Access-Control-Allow-Origin"))
		}
	})
}
