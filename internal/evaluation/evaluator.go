package evaluation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/cv-screener/internal/ai"
	"github.com/spigell/cv-screener/internal/utils"
)

const (
	maxAttempts  = 3
	retryBackoff = time.Second
)

// ErrInvalidResponse marks a model response missing required fields or
// carrying out-of-range values in the single-shot evaluation path.
var ErrInvalidResponse = errors.New("model response failed validation")

// Evaluator runs a standalone single-stage CV evaluation. Unlike the
// pipeline it is strict: generation and validation failures are retried as a
// whole with a fixed backoff, and exhausting the attempts surfaces a
// terminal error instead of a degraded result.
type Evaluator struct {
	generator ai.Generator
	log       *zap.Logger
	backoff   time.Duration
}

func NewEvaluator(generator ai.Generator, log *zap.Logger) *Evaluator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Evaluator{generator: generator, log: log, backoff: retryBackoff}
}

// EvaluateCV evaluates a candidate CV against a job description, retrying the
// whole call up to three times.
func (e *Evaluator) EvaluateCV(ctx context.Context, cvText, jobDescription, jobTitle string) (*CVResult, error) {
	prompt := ComposeCVPrompt(jobTitle, []string{jobDescription}, cvText)

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			if err := utils.WaitFor(ctx, e.backoff); err != nil {
				return nil, err
			}
		}

		raw, err := e.generator.GenerateContent(ctx, prompt)
		if err != nil {
			lastErr = err
			e.log.Warn("cv evaluation attempt failed",
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			continue
		}

		data := Parse(raw)
		if err := validateCVPayload(data); err != nil {
			lastErr = err
			e.log.Warn("cv evaluation attempt rejected",
				zap.Int("attempt", attempt),
				zap.Error(err),
				zap.String("response_preview", utils.TruncateForLog(raw, maxRawSnippet)),
			)
			continue
		}

		result := CVResultFrom(raw)
		return &result, nil
	}

	return nil, fmt.Errorf("cv evaluation failed after %d attempts: %w", maxAttempts, lastErr)
}

func validateCVPayload(data map[string]any) error {
	if IsSentinel(data) {
		return fmt.Errorf("%w: not a structured response", ErrInvalidResponse)
	}

	rate, ok := asNumber(data["match_rate"])
	if !ok {
		return fmt.Errorf("%w: match_rate is missing or not numeric", ErrInvalidResponse)
	}
	if rate < 0 || rate > 1 {
		return fmt.Errorf("%w: match_rate %v out of range [0, 1]", ErrInvalidResponse, rate)
	}

	feedback, ok := data["feedback"].(string)
	if !ok || feedback == "" {
		return fmt.Errorf("%w: feedback is missing", ErrInvalidResponse)
	}

	return nil
}
