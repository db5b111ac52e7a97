// Package handler adapts the run controller to scheduled Lambda invocations.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"morning-blessing/internal/usecase"
)

// Runner is the run-controller surface consumed by the handler.
type Runner interface {
	Run(ctx context.Context, names []string, dryRun bool) []usecase.RecipientResult
}

// Event is the scheduled-invocation payload. The zero value means "all
// recipients, dispatch enabled".
type Event struct {
	To    string `json:"to"`
	NoSMS bool   `json:"no_sms"`
}

type Response struct {
	StatusCode int               `json:"statusCode"`
	Headers    map[string]string `json:"headers"`
	Body       string            `json:"body"`
}

type Handler struct {
	runner     Runner
	recipients usecase.RecipientSource
}

func NewHandler(runner Runner, recipients usecase.RecipientSource) (*Handler, error) {
	if runner == nil {
		return nil, errors.New("handler: runner must not be nil")
	}
	if recipients == nil {
		return nil, errors.New("handler: recipient source must not be nil")
	}
	return &Handler{runner: runner, recipients: recipients}, nil
}

// Handle runs the morning batch for the recipients named in the event and
// returns the full report as the response body.
func (h *Handler) Handle(ctx context.Context, raw json.RawMessage) (Response, error) {
	var ev Event
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &ev); err != nil {
			return Response{
				StatusCode: http.StatusBadRequest,
				Headers:    jsonHeaders(),
				Body:       `{"error":"malformed event"}`,
			}, nil
		}
	}

	names := usecase.Resolve(ev.To, h.recipients)
	results := h.runner.Run(ctx, names, ev.NoSMS)

	body, err := json.Marshal(results)
	if err != nil {
		return Response{}, fmt.Errorf("handler: marshal report: %w", err)
	}
	return Response{
		StatusCode: http.StatusOK,
		Headers:    jsonHeaders(),
		Body:       string(body),
	}, nil
}

func jsonHeaders() map[string]string {
	return map[string]string{"content-type": "application/json"}
}
