// Package rules provides the CEL-Go based committee gate engine. Gates are
// evaluated in a fixed priority order; the first gate that rejects
// short-circuits the walk.
package rules

import (
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"

	"github.com/opensource-finance/kestrel/internal/domain"
)

// Outcome is the effect of a triggered gate.
type Outcome string

const (
	// OutcomeReject rejects the application and stops gate evaluation.
	OutcomeReject Outcome = "reject"

	// OutcomeReview downgrades the decision to manual review.
	OutcomeReview Outcome = "review"

	// OutcomeReduce caps the approved amount by the gate's reduce factor.
	OutcomeReduce Outcome = "reduce"

	// OutcomeCondition attaches a condition string to the decision.
	OutcomeCondition Outcome = "condition"
)

// GateConfig defines one committee gate.
type GateConfig struct {
	ID          string
	Description string

	// Expression is a boolean CEL expression over the decision variables.
	Expression string

	Outcome Outcome

	// Condition is attached to the decision when the gate triggers.
	Condition string

	// ReduceFactor applies for OutcomeReduce gates (e.g. 0.7).
	ReduceFactor float64

	// OnlyIfApproved restricts the gate to runs still fully approved when
	// the walk reaches it (the approval-condition tail gates).
	OnlyIfApproved bool
}

// CompiledGate holds a pre-compiled CEL program.
type CompiledGate struct {
	Config  GateConfig
	Program cel.Program
}

// Engine evaluates an ordered list of compiled gates.
type Engine struct {
	env   *cel.Env
	gates []*CompiledGate
}

// Input is the flat activation for gate evaluation.
type Input struct {
	FICO              int
	MinFICO           int
	KYCVerified       bool
	AMLCleared        bool
	SanctionsCleared  bool
	RiskRating        domain.RiskRating
	FinalRate         float64
	CreditUtilization float64
	RequestedAmount   float64
}

// GateResult records one triggered gate.
type GateResult struct {
	GateID      string
	Outcome     Outcome
	Description string
}

// Verdict is the aggregate result of a gate walk.
type Verdict struct {
	Decision       domain.Decision
	ApprovedFactor float64 // fraction of the requested amount, 0 when rejected
	Conditions     []string
	Triggered      []GateResult
}

// NewEngine compiles the given gates in order. An invalid expression is a
// construction error.
func NewEngine(gates []GateConfig) (*Engine, error) {
	env, err := cel.NewEnv(
		cel.Variable("fico", cel.IntType),
		cel.Variable("min_fico", cel.IntType),
		cel.Variable("kyc_verified", cel.BoolType),
		cel.Variable("aml_cleared", cel.BoolType),
		cel.Variable("sanctions_cleared", cel.BoolType),
		cel.Variable("risk_rating", cel.StringType),
		cel.Variable("final_rate", cel.DoubleType),
		cel.Variable("credit_utilization", cel.DoubleType),
		cel.Variable("requested_amount", cel.DoubleType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	e := &Engine{env: env}
	for _, cfg := range gates {
		compiled, err := e.compileGate(cfg)
		if err != nil {
			return nil, err
		}
		e.gates = append(e.gates, compiled)
	}
	return e, nil
}

func (e *Engine) compileGate(cfg GateConfig) (*CompiledGate, error) {
	ast, issues := e.env.Compile(cfg.Expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("gate %s: compile error: %w", cfg.ID, issues.Err())
	}

	prg, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("gate %s: program error: %w", cfg.ID, err)
	}

	return &CompiledGate{Config: cfg, Program: prg}, nil
}

// GatesCount returns the number of compiled gates.
func (e *Engine) GatesCount() int {
	return len(e.gates)
}

// Evaluate walks the gates in order against the input. The first rejecting
// gate short-circuits: the decision becomes rejected, no further gates run,
// and no further conditions accumulate.
func (e *Engine) Evaluate(input *Input) (*Verdict, error) {
	activation := map[string]any{
		"fico":               int64(input.FICO),
		"min_fico":           int64(input.MinFICO),
		"kyc_verified":       input.KYCVerified,
		"aml_cleared":        input.AMLCleared,
		"sanctions_cleared":  input.SanctionsCleared,
		"risk_rating":        string(input.RiskRating),
		"final_rate":         input.FinalRate,
		"credit_utilization": input.CreditUtilization,
		"requested_amount":   input.RequestedAmount,
	}

	verdict := &Verdict{
		Decision:       domain.DecisionApproved,
		ApprovedFactor: 1.0,
	}

	for _, gate := range e.gates {
		if gate.Config.OnlyIfApproved && verdict.Decision != domain.DecisionApproved {
			continue
		}

		out, _, err := gate.Program.Eval(activation)
		if err != nil {
			return nil, fmt.Errorf("gate %s: evaluation error: %w", gate.Config.ID, err)
		}

		triggered, ok := out.(types.Bool)
		if !ok {
			return nil, fmt.Errorf("gate %s: expression did not yield a boolean", gate.Config.ID)
		}
		if !bool(triggered) {
			continue
		}

		verdict.Triggered = append(verdict.Triggered, GateResult{
			GateID:      gate.Config.ID,
			Outcome:     gate.Config.Outcome,
			Description: gate.Config.Description,
		})

		switch gate.Config.Outcome {
		case OutcomeReject:
			verdict.Decision = domain.DecisionRejected
			verdict.ApprovedFactor = 0
			if gate.Config.Condition != "" {
				verdict.Conditions = append(verdict.Conditions, gate.Config.Condition)
			}
			return verdict, nil

		case OutcomeReview:
			verdict.Decision = domain.DecisionReview
			if gate.Config.Condition != "" {
				verdict.Conditions = append(verdict.Conditions, gate.Config.Condition)
			}

		case OutcomeReduce:
			verdict.ApprovedFactor = gate.Config.ReduceFactor
			if gate.Config.Condition != "" {
				verdict.Conditions = append(verdict.Conditions, gate.Config.Condition)
			}

		case OutcomeCondition:
			if gate.Config.Condition != "" {
				verdict.Conditions = append(verdict.Conditions, gate.Config.Condition)
			}
		}
	}

	return verdict, nil
}
