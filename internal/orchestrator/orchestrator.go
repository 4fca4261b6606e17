// Package orchestrator runs the five committee stages in order and tracks
// run state. Stages are strictly sequential: each stage's output feeds later
// stages, and a failure aborts the remainder of the run.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/opensource-finance/kestrel/internal/analysts"
	"github.com/opensource-finance/kestrel/internal/committee"
	"github.com/opensource-finance/kestrel/internal/domain"
	"github.com/opensource-finance/kestrel/internal/runstore"
)

// Orchestrator coordinates one underwriting run through the stage sequence.
type Orchestrator struct {
	credit     *analysts.CreditAnalyst
	risk       *analysts.RiskAnalyst
	compliance *analysts.ComplianceAnalyst
	pricing    *analysts.PricingAnalyst
	chair      *analysts.ChairAnalyst

	bus    domain.EventBus
	store  *runstore.Store
	tracer trace.Tracer
	logger *slog.Logger
}

// New builds an orchestrator around a gateway and rand source. The same rand
// source drives all simulated market figures, so a fixed seed pins a run.
func New(gw domain.Gateway, rng *rand.Rand, bus domain.EventBus, store *runstore.Store, logger *slog.Logger) (*Orchestrator, error) {
	synth, err := committee.NewSynthesizer()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		credit:     analysts.NewCreditAnalyst(gw, logger),
		risk:       analysts.NewRiskAnalyst(gw, rng),
		compliance: analysts.NewComplianceAnalyst(gw, rng),
		pricing:    analysts.NewPricingAnalyst(gw, rng),
		chair:      analysts.NewChairAnalyst(gw, synth),
		bus:        bus,
		store:      store,
		tracer:     otel.Tracer("kestrel/orchestrator"),
		logger:     logger,
	}, nil
}

// lockedSource serializes access to the underlying rand source. One
// orchestrator serves concurrent evaluations, and math/rand sources are not
// goroutine-safe on their own.
type lockedSource struct {
	mu  sync.Mutex
	src rand.Source64
}

func (s *lockedSource) Int63() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src.Int63()
}

func (s *lockedSource) Uint64() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src.Uint64()
}

func (s *lockedSource) Seed(seed int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.src.Seed(seed)
}

// NewRand returns a rand source for the given seed; zero seeds from the clock.
// The source is safe for concurrent evaluations.
func NewRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(&lockedSource{src: rand.NewSource(seed).(rand.Source64)})
}

// stage couples a stage descriptor with its compute function.
type stage struct {
	id   domain.StageID
	name string
	role string
	run  func(ctx context.Context, run *domain.WorkflowRun) error
}

func (o *Orchestrator) stages() []stage {
	return []stage{
		{
			id:   domain.StageCredit,
			name: "Credit Analyst",
			role: "FICO Scoring & Credit History",
			run: func(ctx context.Context, run *domain.WorkflowRun) error {
				analysis, err := o.credit.Analyze(ctx, run.Application, run.Strategy)
				if err != nil {
					return err
				}
				run.Credit = analysis
				return nil
			},
		},
		{
			id:   domain.StageRisk,
			name: "Risk Modeler",
			role: "PD/LGD Calculation",
			run: func(ctx context.Context, run *domain.WorkflowRun) error {
				analysis, err := o.risk.Analyze(ctx, run.Application, run.Strategy, run.Credit)
				if err != nil {
					return err
				}
				run.Risk = analysis
				return nil
			},
		},
		{
			id:   domain.StageCompliance,
			name: "Compliance Officer",
			role: "KYC/AML Verification",
			run: func(ctx context.Context, run *domain.WorkflowRun) error {
				check, err := o.compliance.Analyze(ctx, run.Application, run.Strategy)
				if err != nil {
					return err
				}
				run.Compliance = check
				return nil
			},
		},
		{
			id:   domain.StagePricing,
			name: "Pricing Strategist",
			role: "Risk-Adjusted Pricing",
			run: func(ctx context.Context, run *domain.WorkflowRun) error {
				analysis, err := o.pricing.Analyze(ctx, run.Application, run.Strategy, run.Risk)
				if err != nil {
					return err
				}
				run.Pricing = analysis
				return nil
			},
		},
		{
			id:   domain.StageChair,
			name: "Committee Chair",
			role: "Final Decision",
			run: func(ctx context.Context, run *domain.WorkflowRun) error {
				decision, err := o.chair.Analyze(ctx, &committee.DecisionInput{
					Application: run.Application,
					Strategy:    run.Strategy,
					Credit:      run.Credit,
					Risk:        run.Risk,
					Compliance:  run.Compliance,
					Pricing:     run.Pricing,
				})
				if err != nil {
					return err
				}
				run.Decision = decision
				return nil
			},
		},
	}
}

// Evaluate runs the full committee over one application. The run is returned
// non-nil on every path so callers can report its ID; failed runs are stored
// alongside complete ones, and the error names the failing stage.
func (o *Orchestrator) Evaluate(ctx context.Context, app *domain.LoanApplication, strategy domain.RiskStrategy) (*domain.WorkflowRun, error) {
	stages := o.stages()

	run := &domain.WorkflowRun{
		ID:           uuid.New().String(),
		Application:  app,
		Strategy:     strategy,
		Stages:       make([]domain.StageState, len(stages)),
		CurrentStage: -1,
		Status:       domain.RunProcessing,
		StartedAt:    time.Now().UTC(),
	}
	for i, s := range stages {
		run.Stages[i] = domain.StageState{ID: s.id, Name: s.name, Role: s.role, Status: domain.StagePending}
	}
	if err := o.store.Save(ctx, run); err != nil {
		return run, fmt.Errorf("failed to store run: %w", err)
	}

	start := time.Now()
	for i, s := range stages {
		run.CurrentStage = i
		state := &run.Stages[i]
		state.Status = domain.StageProcessing
		state.StartedAt = time.Now().UTC()
		o.publishStage(ctx, run, i)

		stageCtx, span := o.tracer.Start(ctx, fmt.Sprintf("stage.%s", s.id),
			trace.WithAttributes(
				attribute.String("run.id", run.ID),
				attribute.String("stage.id", string(s.id)),
			))
		err := s.run(stageCtx, run)
		span.End()

		state.EndedAt = time.Now().UTC()
		if err != nil {
			state.Status = domain.StageFailed
			state.Error = err.Error()
			run.Status = domain.RunFailed
			run.Error = err.Error()
			run.EndedAt = time.Now().UTC()
			o.publishStage(ctx, run, i)
			o.publishRun(ctx, run, domain.TopicRunFailed)
			_ = o.store.Save(ctx, run)

			o.logger.Error("stage failed, aborting run",
				"run_id", run.ID,
				"stage", s.id,
				"error", err)
			return run, fmt.Errorf("stage %s failed: %w", s.id, err)
		}

		state.Status = domain.StageComplete
		o.publishStage(ctx, run, i)
	}

	run.Status = domain.RunComplete
	run.EndedAt = time.Now().UTC()
	o.publishRun(ctx, run, domain.TopicRunCompleted)
	if err := o.store.Save(ctx, run); err != nil {
		return run, fmt.Errorf("failed to store run: %w", err)
	}

	o.logger.Info("run complete",
		"run_id", run.ID,
		"decision", run.Decision.FinalDecision,
		"fico", run.Credit.FICOScore,
		"duration_ms", time.Since(start).Milliseconds())
	return run, nil
}

// publishStage emits the current state of stage i. Publish failures are
// logged, never fatal to the run.
func (o *Orchestrator) publishStage(ctx context.Context, run *domain.WorkflowRun, i int) {
	if o.bus == nil {
		return
	}
	state := run.Stages[i]
	topic := domain.TopicStageStarted
	if state.Status == domain.StageComplete || state.Status == domain.StageFailed {
		topic = domain.TopicStageCompleted
	}
	payload, _ := json.Marshal(domain.StageEvent{
		RunID:      run.ID,
		Stage:      state.ID,
		StageIndex: i,
		Status:     state.Status,
		Error:      state.Error,
		Timestamp:  time.Now().UnixMilli(),
	})
	if err := o.bus.Publish(ctx, topic, payload); err != nil {
		o.logger.Warn("failed to publish stage event",
			"run_id", run.ID,
			"stage", state.ID,
			"error", err)
	}
}

func (o *Orchestrator) publishRun(ctx context.Context, run *domain.WorkflowRun, topic string) {
	if o.bus == nil {
		return
	}
	payload, _ := json.Marshal(run)
	if err := o.bus.Publish(ctx, topic, payload); err != nil {
		o.logger.Warn("failed to publish run event",
			"run_id", run.ID,
			"topic", topic,
			"error", err)
	}
}
