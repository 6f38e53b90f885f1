package llm

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/taskpilot-dev/taskpilot/internal/executor"
	"github.com/taskpilot-dev/taskpilot/internal/plan"
	"github.com/taskpilot-dev/taskpilot/internal/prompts"
)

// Generation retries when the model returns unparseable text. The backoff is
// short; a model that fails three times in a row is not going to recover on
// the fourth.
const (
	maxParseAttempts = 3
	parseRetryDelay  = 500 * time.Millisecond
)

// GeneratePlan asks the backend for an initial plan for the task
func GeneratePlan(ctx context.Context, b Backend, logger *slog.Logger, task, discoveryContext string) (*plan.Plan, error) {
	return requestPlan(ctx, b, logger, prompts.Plan(task, discoveryContext))
}

// Evaluate asks the backend whether the task is complete, supplying the full
// execution history. The response is itself a plan: status complete with no
// actions means done.
func Evaluate(ctx context.Context, b Backend, logger *slog.Logger, task string, results []executor.PlanResult, previous []*plan.Plan) (*plan.Plan, error) {
	return requestPlan(ctx, b, logger, prompts.Evaluate(task, results, previous))
}

// GenerateCorrectedPlan asks the backend for a corrected plan after an
// execution failure. The classification is a diagnostic label only.
func GenerateCorrectedPlan(ctx context.Context, b Backend, logger *slog.Logger, task string, prior *plan.Plan, completed []executor.ActionResult, errMsg, classification string) (*plan.Plan, error) {
	return requestPlan(ctx, b, logger, prompts.Correction(task, prior, completed, errMsg, classification))
}

// requestPlan sends the prompt and parses the reply, retrying generation a
// bounded number of times on parse failure before surfacing the ParseError.
func requestPlan(ctx context.Context, b Backend, logger *slog.Logger, prompt string) (*plan.Plan, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var lastErr error
	for attempt := 1; attempt <= maxParseAttempts; attempt++ {
		raw, err := b.Complete(ctx, prompt)
		if err != nil {
			return nil, err
		}

		p, err := plan.ParsePlan(raw)
		if err == nil {
			return p, nil
		}

		var parseErr *plan.ParseError
		if !errors.As(err, &parseErr) {
			return nil, err
		}
		lastErr = err
		logger.Warn("unparseable model response, regenerating",
			"attempt", attempt, "backend", b.Name(), "error", parseErr.Reason)

		if attempt < maxParseAttempts {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(parseRetryDelay * time.Duration(attempt)):
			}
		}
	}
	return nil, lastErr
}
