// Benchmark tool for measuring Kestrel workflow throughput.
//
// Usage:
//   go run cmd/benchmark/main.go -count 10000 -workers 8 -strategy moderate
//
// This tool:
//   1. Generates synthetic loan applications across the profile spectrum
//   2. Runs the full five-stage workflow in-process with the offline gateway
//   3. Tallies the decision distribution (approved/rejected/review)
//   4. Reports latency and throughput numbers
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/opensource-finance/kestrel/internal/domain"
	"github.com/opensource-finance/kestrel/internal/gateway"
	"github.com/opensource-finance/kestrel/internal/orchestrator"
	"github.com/opensource-finance/kestrel/internal/runstore"
)

// Metrics tracks benchmark results
type Metrics struct {
	Approved int64
	Rejected int64
	Review   int64
	Failed   int64

	TotalProcessed   int64
	ProcessingTimeMs int64
}

var (
	firstNames = []string{"Avery", "Jordan", "Morgan", "Riley", "Casey", "Quinn", "Harper", "Rowan", "Sage", "Emerson"}
	lastNames  = []string{"Calloway", "Mercer", "Ashford", "Delgado", "Whitfield", "Okafor", "Lindqvist", "Moreau", "Tanaka", "Reyes"}
)

func main() {
	// Parse flags
	count := flag.Int("count", 10000, "Number of applications to evaluate")
	workers := flag.Int("workers", 8, "Number of concurrent workers")
	strategyName := flag.String("strategy", "moderate", "Risk strategy: conservative, moderate, aggressive")
	seed := flag.Int64("seed", 1, "Seed for the synthetic application generator")
	verbose := flag.Bool("verbose", false, "Print each application result")
	flag.Parse()

	// Benchmark output goes to stdout; drop the workflow logs
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))

	fmt.Println("╔═══════════════════════════════════════════════════════════════╗")
	fmt.Println("║         KESTREL BENCHMARK - Underwriting Throughput           ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════════╝")
	fmt.Printf("\nApplications: %d\n", *count)
	fmt.Printf("Workers:      %d\n", *workers)
	fmt.Printf("Strategy:     %s\n", *strategyName)
	fmt.Printf("Seed:         %d\n", *seed)
	fmt.Println()

	strategy, err := domain.StrategyByName(*strategyName)
	if err != nil {
		fmt.Printf("ERROR: %v\n", err)
		os.Exit(1)
	}

	apps := generateApplications(*count, *seed)
	fmt.Printf("✓ Generated %d synthetic applications\n", len(apps))

	fmt.Printf("\nRunning benchmark with %d workers...\n", *workers)
	startTime := time.Now()
	metrics := runBenchmark(apps, strategy, *workers, *verbose)
	duration := time.Since(startTime)

	printResults(metrics, duration)
}

// generateApplications produces a deterministic spread of borrower profiles,
// from thin-file high-leverage applicants to long-tenured low-debt ones.
func generateApplications(count int, seed int64) []*domain.LoanApplication {
	rng := rand.New(rand.NewSource(seed))
	apps := make([]*domain.LoanApplication, 0, count)

	for i := 0; i < count; i++ {
		income := 30000 + rng.Float64()*270000
		apps = append(apps, &domain.LoanApplication{
			ID:              fmt.Sprintf("bench-%06d", i),
			ApplicantName:   firstNames[rng.Intn(len(firstNames))] + " " + lastNames[rng.Intn(len(lastNames))],
			RequestedAmount: 5000 + rng.Float64()*600000,
			Purpose:         domain.LoanPurposes[rng.Intn(len(domain.LoanPurposes))],
			AnnualIncome:    income,
			EmploymentYears: rng.Float64() * 25,
			ExistingDebt:    rng.Float64() * income * 0.9,
			Industry:        domain.Industries[rng.Intn(len(domain.Industries))],
			CreatedAt:       time.Now().UTC(),
		})
	}

	return apps
}

func runBenchmark(apps []*domain.LoanApplication, strategy domain.RiskStrategy, numWorkers int, verbose bool) *Metrics {
	metrics := &Metrics{}

	work := make(chan *domain.LoanApplication, 100)
	var wg sync.WaitGroup

	// Each worker owns an orchestrator so the analyst rand source is not
	// contended across goroutines.
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()

			orch, err := orchestrator.New(gateway.NewOffline(), orchestrator.NewRand(int64(workerID+1)), nil, runstore.New(), nil)
			if err != nil {
				fmt.Printf("ERROR: failed to create orchestrator: %v\n", err)
				return
			}

			for app := range work {
				start := time.Now()
				run, err := orch.Evaluate(context.Background(), app, strategy)
				elapsed := time.Since(start).Milliseconds()

				atomic.AddInt64(&metrics.ProcessingTimeMs, elapsed)
				atomic.AddInt64(&metrics.TotalProcessed, 1)

				if err != nil {
					atomic.AddInt64(&metrics.Failed, 1)
					if verbose {
						fmt.Printf("ERROR: %s -> %v\n", app.ApplicantName, err)
					}
					continue
				}

				switch run.Decision.FinalDecision {
				case domain.DecisionApproved:
					atomic.AddInt64(&metrics.Approved, 1)
				case domain.DecisionRejected:
					atomic.AddInt64(&metrics.Rejected, 1)
				case domain.DecisionReview:
					atomic.AddInt64(&metrics.Review, 1)
				}

				if verbose {
					name := app.ApplicantName
					if len(name) > 16 {
						name = name[:16]
					}
					fmt.Printf("%-16s | Amount: $%12.2f | FICO: %d | Decision: %s\n",
						name,
						app.RequestedAmount,
						run.Credit.FICOScore,
						run.Decision.FinalDecision,
					)
				}
			}
		}(i)
	}

	// Send work
	for _, app := range apps {
		work <- app
	}
	close(work)

	// Wait for completion
	wg.Wait()

	return metrics
}

func printResults(m *Metrics, duration time.Duration) {
	fmt.Println("\n╔═══════════════════════════════════════════════════════════════╗")
	fmt.Println("║                      BENCHMARK RESULTS                        ║")
	fmt.Println("╚═══════════════════════════════════════════════════════════════╝")

	fmt.Printf("\n📊 DECISION DISTRIBUTION\n")
	fmt.Printf("   Total Processed:  %d\n", m.TotalProcessed)
	fmt.Printf("   Approved:         %d\n", m.Approved)
	fmt.Printf("   Rejected:         %d\n", m.Rejected)
	fmt.Printf("   Manual Review:    %d\n", m.Review)
	fmt.Printf("   Errors:           %d\n", m.Failed)

	decided := m.Approved + m.Rejected + m.Review
	if decided > 0 {
		fmt.Printf("\n🎯 RATES\n")
		fmt.Printf("   Approval Rate:    %.2f%%\n", 100*float64(m.Approved)/float64(decided))
		fmt.Printf("   Rejection Rate:   %.2f%%\n", 100*float64(m.Rejected)/float64(decided))
		fmt.Printf("   Review Rate:      %.2f%%\n", 100*float64(m.Review)/float64(decided))
	}

	fmt.Printf("\n⏱️  PERFORMANCE\n")
	fmt.Printf("   Total Duration:   %v\n", duration.Round(time.Millisecond))
	if m.TotalProcessed > 0 {
		avgMs := float64(m.ProcessingTimeMs) / float64(m.TotalProcessed)
		tps := float64(m.TotalProcessed) / duration.Seconds()
		fmt.Printf("   Avg Latency:      %.2f ms\n", avgMs)
		fmt.Printf("   Throughput:       %.2f runs/sec\n", tps)
	}

	fmt.Println()
}
