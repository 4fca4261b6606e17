// Package worker provides async application processing from the EventBus.
package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/opensource-finance/kestrel/internal/domain"
	"github.com/opensource-finance/kestrel/internal/orchestrator"
)

// Worker consumes submitted applications from the EventBus and runs the full
// underwriting workflow for each. It serves deployments where applications
// arrive over NATS instead of the HTTP surface; completed runs land in the
// shared run store and the orchestrator publishes the usual progress events.
type Worker struct {
	bus  domain.EventBus
	orch *orchestrator.Orchestrator

	subscriptions []domain.Subscription
	wg            sync.WaitGroup
	ctx           context.Context
	cancel        context.CancelFunc
}

// NewWorker creates a new async worker.
func NewWorker(bus domain.EventBus, orch *orchestrator.Orchestrator) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		bus:    bus,
		orch:   orch,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start subscribes to the application-submitted topic.
func (w *Worker) Start() error {
	sub, err := w.bus.Subscribe(w.ctx, domain.TopicApplicationSubmitted, w.handleMessage)
	if err != nil {
		return err
	}
	w.subscriptions = append(w.subscriptions, sub)

	slog.Info("worker started", "topic", domain.TopicApplicationSubmitted)
	return nil
}

// ApplicationMessage is the payload on the application-submitted topic.
type ApplicationMessage struct {
	ApplicationID string                    `json:"applicationId,omitempty"`
	Application   domain.ApplicationRequest `json:"application"`
	Strategy      string                    `json:"strategy,omitempty"`
}

// handleMessage runs one submitted application through the workflow.
func (w *Worker) handleMessage(ctx context.Context, msg *domain.Message) error {
	start := time.Now()

	var appMsg ApplicationMessage
	if err := json.Unmarshal(msg.Payload, &appMsg); err != nil {
		slog.Error("failed to parse application message",
			"message_id", msg.ID,
			"error", err,
		)
		return err
	}

	appID := appMsg.ApplicationID
	if appID == "" {
		appID = uuid.New().String()
	}

	app := appMsg.Application.ToApplication(appID)
	if err := app.Validate(); err != nil {
		slog.Error("rejected invalid application message",
			"message_id", msg.ID,
			"error", err,
		)
		return err
	}

	strategyName := appMsg.Strategy
	if strategyName == "" {
		strategyName = appMsg.Application.Strategy
	}
	strategy, err := domain.StrategyByName(strategyName)
	if err != nil {
		slog.Error("rejected application with unknown strategy",
			"message_id", msg.ID,
			"error", err,
		)
		return err
	}

	slog.Debug("processing submitted application",
		"application_id", appID,
		"applicant", app.ApplicantName,
	)

	run, err := w.orch.Evaluate(ctx, app, strategy)
	if err != nil {
		slog.Error("workflow failed for submitted application",
			"application_id", appID,
			"run_id", run.ID,
			"error", err,
		)
		return err
	}

	slog.Info("application processed",
		"application_id", appID,
		"run_id", run.ID,
		"decision", run.Decision.FinalDecision,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return nil
}

// Stop gracefully stops the worker.
func (w *Worker) Stop() error {
	w.cancel()

	// Unsubscribe all
	for _, sub := range w.subscriptions {
		if err := sub.Unsubscribe(); err != nil {
			slog.Error("failed to unsubscribe",
				"topic", sub.Topic(),
				"error", err,
			)
		}
	}
	w.subscriptions = nil

	w.wg.Wait()

	slog.Info("worker stopped")
	return nil
}

// Stats returns worker statistics.
type Stats struct {
	SubscriptionCount int      `json:"subscriptionCount"`
	Topics            []string `json:"topics"`
}

// GetStats returns current worker statistics.
func (w *Worker) GetStats() Stats {
	topics := make([]string, len(w.subscriptions))
	for i, sub := range w.subscriptions {
		topics[i] = sub.Topic()
	}
	return Stats{
		SubscriptionCount: len(w.subscriptions),
		Topics:            topics,
	}
}
