package jobs

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/cv-screener/internal/evaluation"
	"github.com/spigell/cv-screener/internal/extract"
	"github.com/spigell/cv-screener/internal/logger"
)

// Runner is the orchestration invoked for each job. It always yields a
// complete result; degradation happens inside.
type Runner interface {
	Run(ctx context.Context, cvText, projectText, jobTitle string) *evaluation.FinalResult
}

// Request carries the inputs of one submitted job.
type Request struct {
	JobID       string
	CVPath      string
	ProjectPath string
	JobTitle    string
}

// Executor runs one evaluation per job off the submitter's goroutine. The
// submitter observes progress only by polling the registry. There is no
// cancellation or timeout at this layer: a hung provider call keeps its
// worker busy until it returns.
type Executor struct {
	registry  *Registry
	extractor extract.Extractor
	pipeline  Runner
	log       *zap.Logger

	// slots bounds concurrent workers when non-nil. The reference
	// behavior is unbounded fan-out; the bound is opt-in configuration.
	slots chan struct{}
}

// NewExecutor creates an executor. workers caps concurrent jobs; zero keeps
// the unbounded one-goroutine-per-job behavior.
func NewExecutor(registry *Registry, extractor extract.Extractor, pipeline Runner, log *zap.Logger, workers int) *Executor {
	if log == nil {
		log = zap.NewNop()
	}

	e := &Executor{
		registry:  registry,
		extractor: extractor,
		pipeline:  pipeline,
		log:       log,
	}
	if workers > 0 {
		e.slots = make(chan struct{}, workers)
	}

	return e
}

// Submit schedules the job and returns immediately.
func (e *Executor) Submit(req Request) {
	go e.execute(req)
}

func (e *Executor) execute(req Request) {
	if e.slots != nil {
		e.slots <- struct{}{}
		defer func() { <-e.slots }()
	}

	log := e.log.With(zap.String(logger.FieldJobID, req.JobID))

	// The job must reach a terminal state even if the pipeline panics.
	defer func() {
		if recovered := recover(); recovered != nil {
			log.Error("evaluation panicked", zap.Any("panic", recovered))
			e.fail(req.JobID, fmt.Sprintf("internal error: %v", recovered))
		}
	}()

	if err := e.registry.SetProcessing(req.JobID); err != nil {
		log.Error("marking job as processing", zap.Error(err))
		return
	}

	cvText, err := e.extractor.Extract(req.CVPath)
	if err != nil {
		log.Warn("cv extraction failed", zap.Error(err))
		e.fail(req.JobID, fmt.Sprintf("cv document: %v", err))
		return
	}

	projectText, err := e.extractor.Extract(req.ProjectPath)
	if err != nil {
		log.Warn("project extraction failed", zap.Error(err))
		e.fail(req.JobID, fmt.Sprintf("project document: %v", err))
		return
	}

	result := e.pipeline.Run(context.Background(), cvText, projectText, req.JobTitle)

	if err := e.registry.SetCompleted(req.JobID, result); err != nil {
		log.Error("marking job as completed", zap.Error(err))
		return
	}

	log.Info("job completed",
		zap.Float64("match_rate", result.CV.MatchRate),
		zap.Float64("project_score", result.Project.ProjectScore),
	)
}

func (e *Executor) fail(id, message string) {
	if err := e.registry.SetFailed(id, message); err != nil {
		e.log.Error("marking job as failed", zap.String(logger.FieldJobID, id), zap.Error(err))
	}
}
