package evaluation

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"
)

type scriptedGenerator struct {
	responses []string
	errs      []error
	calls     int
}

func (s *scriptedGenerator) GenerateContent(context.Context, string) (string, error) {
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return "", s.errs[i]
	}
	if i < len(s.responses) {
		return s.responses[i], nil
	}
	return "", errors.New("no scripted response left")
}

func newTestEvaluator(gen *scriptedGenerator) *Evaluator {
	return &Evaluator{generator: gen, log: zap.NewNop(), backoff: 0}
}

func TestEvaluatorSucceedsFirstAttempt(t *testing.T) {
	t.Parallel()

	gen := &scriptedGenerator{responses: []string{`{"match_rate": 0.7, "feedback": "decent"}`}}
	e := newTestEvaluator(gen)

	result, err := e.EvaluateCV(context.Background(), "cv", "job description", "Backend Engineer")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.MatchRate != 0.7 || result.Feedback != "decent" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if gen.calls != 1 {
		t.Fatalf("expected single call, got %d", gen.calls)
	}
}

func TestEvaluatorRetriesGenerationFailure(t *testing.T) {
	t.Parallel()

	gen := &scriptedGenerator{
		errs:      []error{errors.New("transient"), nil},
		responses: []string{"", `{"match_rate": 0.4, "feedback": "ok"}`},
	}
	e := newTestEvaluator(gen)

	result, err := e.EvaluateCV(context.Background(), "cv", "jd", "role")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.MatchRate != 0.4 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if gen.calls != 2 {
		t.Fatalf("expected 2 calls, got %d", gen.calls)
	}
}

func TestEvaluatorRetriesInvalidPayload(t *testing.T) {
	t.Parallel()

	gen := &scriptedGenerator{responses: []string{
		`{"match_rate": 7, "feedback": "out of range"}`,
		`{"match_rate": 0.9, "feedback": "valid"}`,
	}}
	e := newTestEvaluator(gen)

	result, err := e.EvaluateCV(context.Background(), "cv", "jd", "role")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.MatchRate != 0.9 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestEvaluatorExhaustsAttempts(t *testing.T) {
	t.Parallel()

	gen := &scriptedGenerator{responses: []string{"garbage", "garbage", "garbage"}}
	e := newTestEvaluator(gen)

	_, err := e.EvaluateCV(context.Background(), "cv", "jd", "role")
	if err == nil {
		t.Fatal("expected terminal error")
	}
	if !errors.Is(err, ErrInvalidResponse) {
		t.Fatalf("expected ErrInvalidResponse, got %v", err)
	}
	if gen.calls != maxAttempts {
		t.Fatalf("expected %d attempts, got %d", maxAttempts, gen.calls)
	}
	if !strings.Contains(err.Error(), "after 3 attempts") {
		t.Fatalf("error must mention attempt count: %v", err)
	}
}

func TestValidateCVPayload(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		payload map[string]any
		valid   bool
	}{
		{
			name:    "valid",
			payload: map[string]any{"match_rate": 0.5, "feedback": "ok"},
			valid:   true,
		},
		{
			name:    "numeric string rate",
			payload: map[string]any{"match_rate": "0.25", "feedback": "ok"},
			valid:   true,
		},
		{
			name:    "missing rate",
			payload: map[string]any{"feedback": "ok"},
			valid:   false,
		},
		{
			name:    "out of range",
			payload: map[string]any{"match_rate": -0.1, "feedback": "ok"},
			valid:   false,
		},
		{
			name:    "missing feedback",
			payload: map[string]any{"match_rate": 0.5},
			valid:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := validateCVPayload(tt.payload)
			if tt.valid && err != nil {
				t.Fatalf("expected valid payload, got %v", err)
			}
			if !tt.valid && err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
