package evaluation

import (
	"context"

	"go.uber.org/zap"

	"github.com/spigell/cv-screener/internal/ai"
	"github.com/spigell/cv-screener/internal/corpus"
	"github.com/spigell/cv-screener/internal/logger"
)

const (
	// DefaultTopK is the number of reference fragments retrieved per stage.
	DefaultTopK = 3

	cvQuery      = "technical skills experience achievements"
	projectQuery = "correctness code quality resilience documentation creativity"
)

// Pipeline sequences CV evaluation, project evaluation and summary synthesis.
// Its contract is best-effort: every stage failure is contained and replaced
// with a degraded result, so Run always yields a complete FinalResult and the
// surrounding job always reaches a terminal state with usable data.
type Pipeline struct {
	store     *corpus.Store
	generator ai.Generator
	log       *zap.Logger
	topK      int
}

func NewPipeline(store *corpus.Store, generator ai.Generator, log *zap.Logger, topK int) *Pipeline {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Pipeline{
		store:     store,
		generator: generator,
		log:       log,
		topK:      topK,
	}
}

// Run evaluates the candidate documents. It never returns an error: each
// stage degrades independently and the stages never abort each other.
func (p *Pipeline) Run(ctx context.Context, cvText, projectText, jobTitle string) *FinalResult {
	cv := p.evaluateCV(ctx, cvText, jobTitle)
	project := p.evaluateProject(ctx, projectText)
	summary := p.synthesize(ctx, cv, project)

	return &FinalResult{CV: cv, Project: project, Summary: summary}
}

func (p *Pipeline) evaluateCV(ctx context.Context, cvText, jobTitle string) CVResult {
	fragments := p.store.Search(cvQuery+" "+jobTitle, p.topK, corpus.Filter{
		"doc_type": {corpus.DocTypeJobDescription, corpus.DocTypeCVRubric},
	})

	prompt := ComposeCVPrompt(jobTitle, fragments, cvText)

	raw, err := p.generator.GenerateContent(ctx, prompt)
	if err != nil {
		p.log.Warn("cv stage degraded",
			zap.String(logger.FieldStage, "cv"),
			zap.Error(err),
		)
		return CVResult{
			MatchRate: 0,
			Feedback:  "CV evaluation unavailable: " + err.Error(),
			RawScores: map[string]float64{},
		}
	}

	return CVResultFrom(raw)
}

func (p *Pipeline) evaluateProject(ctx context.Context, projectText string) ProjectResult {
	fragments := p.store.Search(projectQuery, p.topK, corpus.Filter{
		"doc_type": {corpus.DocTypeCaseStudy, corpus.DocTypeProjectRubric},
	})

	prompt := ComposeProjectPrompt(fragments, projectText)

	raw, err := p.generator.GenerateContent(ctx, prompt)
	if err != nil {
		p.log.Warn("project stage degraded",
			zap.String(logger.FieldStage, "project"),
			zap.Error(err),
		)
		return ProjectResult{
			// Floor of the valid range: a failed review must not read
			// as an average one.
			ProjectScore: 1,
			Feedback:     "Project evaluation unavailable: " + err.Error(),
			RawScores:    map[string]float64{},
		}
	}

	return ProjectResultFrom(raw)
}

func (p *Pipeline) synthesize(ctx context.Context, cv CVResult, project ProjectResult) string {
	prompt := ComposeSummaryPrompt(cv, project)

	raw, err := p.generator.GenerateContent(ctx, prompt)
	if err != nil {
		p.log.Warn("summary stage degraded",
			zap.String(logger.FieldStage, "summary"),
			zap.Error(err),
		)
		return "Summary unavailable: " + err.Error()
	}

	return raw
}
