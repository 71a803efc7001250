// Package ai defines the contract between the evaluation pipeline and the
// external text-generation provider.
package ai

import "context"

// Generator produces raw text for a rendered prompt. Implementations do not
// retry: retry policy belongs to the single-shot evaluator, while the
// multi-stage pipeline degrades per stage instead.
type Generator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}
