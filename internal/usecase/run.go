package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"morning-blessing/internal/domain"
)

// Dispatcher delivers one finished record as a text message.
type Dispatcher interface {
	Send(ctx context.Context, rec domain.GreetingRecord) error
}

// RecipientResult is one entry of the final report. Delivered is set only
// when dispatch ran for this recipient.
type RecipientResult struct {
	domain.GreetingRecord
	Delivered *bool `json:"delivered,omitempty"`
}

// Runner fans the recipient pipeline out over the requested set and
// optionally dispatches the results.
type Runner struct {
	greetings  *GreetingService
	dispatcher Dispatcher
	logger     *slog.Logger
}

// NewRunner creates a Runner. dispatcher may be nil for report-only setups.
func NewRunner(greetings *GreetingService, dispatcher Dispatcher, logger *slog.Logger) (*Runner, error) {
	if greetings == nil {
		return nil, errors.New("usecase: greeting service must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{greetings: greetings, dispatcher: dispatcher, logger: logger}, nil
}

// Resolve expands the recipient selector into names. "all" (or empty)
// selects every configured recipient in configuration order.
func Resolve(selector string, recipients RecipientSource) []string {
	selector = strings.TrimSpace(selector)
	if selector == "" || selector == "all" {
		return recipients.Names()
	}
	parts := strings.Split(selector, ",")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			names = append(names, p)
		}
	}
	return names
}

// Run processes every requested recipient concurrently and returns results
// in request order regardless of completion order. When dryRun is false and
// a dispatcher is configured, every non-degraded record is dispatched and
// its delivery outcome recorded. Run never fails: all failures are contained
// below it.
func (r *Runner) Run(ctx context.Context, names []string, dryRun bool) []RecipientResult {
	runID := newUUID()
	r.logger.Info("morning run started",
		"run_id", runID, "recipients", len(names), "dry_run", dryRun)

	results := make([]RecipientResult, len(names))
	g, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			results[i] = RecipientResult{GreetingRecord: r.greetings.Process(gctx, name)}
			return nil
		})
	}
	// Pipelines contain their own failures, so Wait cannot fail.
	_ = g.Wait()

	if !dryRun && r.dispatcher != nil {
		dg, dctx := errgroup.WithContext(ctx)
		for i := range results {
			if results[i].Degraded {
				continue
			}
			i := i
			dg.Go(func() error {
				delivered := true
				if err := r.dispatcher.Send(dctx, results[i].GreetingRecord); err != nil {
					r.logger.Error("dispatch failed",
						"run_id", runID, "recipient", results[i].Name, "err", err)
					delivered = false
				}
				results[i].Delivered = &delivered
				return nil
			})
		}
		_ = dg.Wait()
	}

	r.logger.Info("morning run finished", "run_id", runID)
	return results
}

var newUUID = func() string {
	return uuid.NewString()
}
