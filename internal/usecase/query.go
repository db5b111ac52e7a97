package usecase

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"

	"morning-blessing/internal/domain"
	"morning-blessing/internal/sanitize"
)

const (
	maxAttempts = 3
	seedMax     = 10000
)

// GenerationClient is the generation backend surface consumed here.
type GenerationClient interface {
	Generate(ctx context.Context, messages []domain.ChatMessage, seed int, enableSearch bool) (string, error)
}

// Result is the tagged outcome of a model query. Text is always populated:
// it holds domain.NoData whenever OK is false.
type Result struct {
	Text string
	OK   bool
}

// ModelQuerier wraps the generation backend with retry, sanitization, and
// failure-to-sentinel semantics. Callers can treat the result as always
// present; this is the primary failure-containment boundary.
type ModelQuerier struct {
	llm    GenerationClient
	logger *slog.Logger
	seed   func() int
}

func NewModelQuerier(llm GenerationClient, logger *slog.Logger) (*ModelQuerier, error) {
	if llm == nil {
		return nil, errors.New("usecase: generation client must not be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ModelQuerier{llm: llm, logger: logger, seed: newSeed}, nil
}

// Query sends the conversation with a fresh random seed, retrying the full
// call up to three attempts. Every failure is logged with the backend's
// detail before the next attempt; exhaustion yields the sentinel, never an
// error. On success the raw content is sanitized before returning.
func (q *ModelQuerier) Query(ctx context.Context, messages []domain.ChatMessage, enableSearch bool) Result {
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		raw, err := q.llm.Generate(ctx, messages, q.seed(), enableSearch)
		if err != nil {
			q.logger.Error("generation attempt failed",
				"attempt", attempt, "max_attempts", maxAttempts, "err", err)
			continue
		}
		return Result{Text: sanitize.Clean(raw), OK: true}
	}
	return Result{Text: domain.NoData}
}

var newSeed = func() int {
	return rand.Intn(seedMax) + 1
}
