package domain

import "time"

// StageID identifies one workflow stage.
type StageID string

const (
	StageCredit     StageID = "credit"
	StageRisk       StageID = "risk"
	StageCompliance StageID = "compliance"
	StagePricing    StageID = "pricing"
	StageChair      StageID = "chair"
)

// StageStatus tracks a stage through the sequential run.
type StageStatus string

const (
	StagePending    StageStatus = "pending"
	StageProcessing StageStatus = "processing"
	StageComplete   StageStatus = "complete"
	StageFailed     StageStatus = "failed"
)

// StageState is the per-stage record on a workflow run.
type StageState struct {
	ID        StageID     `json:"id"`
	Name      string      `json:"name"`
	Role      string      `json:"role"`
	Status    StageStatus `json:"status"`
	Error     string      `json:"error,omitempty"`
	StartedAt time.Time   `json:"startedAt,omitempty"`
	EndedAt   time.Time   `json:"endedAt,omitempty"`
}

// RunStatus is the overall state of one workflow run.
type RunStatus string

const (
	RunProcessing RunStatus = "processing"
	RunComplete   RunStatus = "complete"
	RunFailed     RunStatus = "failed"
)

// WorkflowRun is the explicit state object for one underwriting run. It is
// created fresh per submitted application and owned by a single orchestration
// goroutine; there is no cross-run state.
type WorkflowRun struct {
	ID           string           `json:"id"`
	Application  *LoanApplication `json:"application"`
	Strategy     RiskStrategy     `json:"strategy"`
	Stages       []StageState     `json:"stages"`
	CurrentStage int              `json:"currentStage"` // index into Stages, -1 before start
	Status       RunStatus        `json:"status"`
	Error        string           `json:"error,omitempty"`
	StartedAt    time.Time        `json:"startedAt"`
	EndedAt      time.Time        `json:"endedAt,omitempty"`

	Credit     *CreditAnalysis    `json:"credit,omitempty"`
	Risk       *RiskAnalysis      `json:"risk,omitempty"`
	Compliance *ComplianceCheck   `json:"compliance,omitempty"`
	Pricing    *PricingAnalysis   `json:"pricing,omitempty"`
	Decision   *CommitteeDecision `json:"decision,omitempty"`
}

// Standard topic names for workflow progress events.
const (
	TopicApplicationSubmitted = "kestrel.application.submitted"

	TopicStageStarted   = "kestrel.stage.started"
	TopicStageCompleted = "kestrel.stage.completed"
	TopicRunCompleted   = "kestrel.run.completed"
	TopicRunFailed      = "kestrel.run.failed"
)

// StageEvent is the payload published on stage topics.
type StageEvent struct {
	RunID      string      `json:"runId"`
	Stage      StageID     `json:"stage"`
	StageIndex int         `json:"stageIndex"`
	Status     StageStatus `json:"status"`
	Error      string      `json:"error,omitempty"`
	Timestamp  int64       `json:"timestamp"`
}
