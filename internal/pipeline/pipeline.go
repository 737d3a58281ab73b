package pipeline

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/wgomg/kayum/internal/config"
	"github.com/wgomg/kayum/internal/imagesource"
	"github.com/wgomg/kayum/internal/utils"
)

// Pipeline drives one image through load, describe, embed and match. Every
// stage gets exactly one attempt; any failure aborts the invocation with
// the stage recorded on the error.
type Pipeline struct {
	loader        ImageLoader
	descriptor    Describer
	embedder      Embedder
	matcher       Matcher
	topK          int
	maxConcurrent int
	logger        *logrus.Logger
}

func New(
	loader ImageLoader,
	descriptor Describer,
	embedder Embedder,
	matcher Matcher,
	cfg *config.Config,
	logger *logrus.Logger,
) *Pipeline {
	maxConcurrent := cfg.Pipeline.MaxConcurrent
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}

	return &Pipeline{
		loader:        loader,
		descriptor:    descriptor,
		embedder:      embedder,
		matcher:       matcher,
		topK:          cfg.Pipeline.TopK,
		maxConcurrent: maxConcurrent,
		logger:        logger,
	}
}

func (p *Pipeline) Process(ctx context.Context, src imagesource.Source) (*Result, error) {
	return p.process(ctx, src, p.topK)
}

// ProcessTopK overrides the configured match count for one invocation.
// Values below 1 fall back to the configured default.
func (p *Pipeline) ProcessTopK(ctx context.Context, src imagesource.Source, topK int) (*Result, error) {
	if topK < 1 {
		topK = p.topK
	}
	return p.process(ctx, src, topK)
}

func (p *Pipeline) process(ctx context.Context, src imagesource.Source, topK int) (*Result, error) {
	ctx = ensureRequestID(ctx)
	log := utils.LogEntry(ctx, p.logger).WithField("source", src.Describe())

	stage := StageLoading
	log.WithField("stage", stage).Info("pipeline started")

	img, err := p.loader.Load(ctx, src)
	if err != nil {
		return nil, p.fail(log, stage, err)
	}

	stage = StageDescribing
	log.WithField("stage", stage).Debug("image acquired, requesting caption")

	description, err := p.descriptor.Describe(ctx, img.Data)
	if err != nil {
		return nil, p.fail(log, stage, err)
	}

	stage = StageEmbedding
	log.WithField("stage", stage).Debug("caption received, requesting embedding")

	vector, err := p.embedder.Embed(ctx, description)
	if err != nil {
		return nil, p.fail(log, stage, err)
	}

	stage = StageMatching
	log.WithField("stage", stage).Debug("embedding received, querying index")

	matches, err := p.matcher.Query(ctx, vector, topK)
	if err != nil {
		return nil, p.fail(log, stage, err)
	}

	log.WithFields(logrus.Fields{
		"stage":   StageDone,
		"matches": len(matches),
	}).Info("pipeline completed")

	return &Result{
		Description: description,
		Matches:     matches,
	}, nil
}

func (p *Pipeline) fail(log *logrus.Entry, stage Stage, err error) error {
	log.WithFields(logrus.Fields{
		"stage":        StageFailed,
		"failed_stage": stage,
	}).WithError(err).Error("pipeline failed")

	return &PipelineError{Stage: stage, Err: err}
}

// ensureRequestID gives an invocation an id when the caller did not attach
// one, so direct and batch invocations stay traceable in the logs.
func ensureRequestID(ctx context.Context) context.Context {
	if utils.RequestID(ctx) != "" {
		return ctx
	}
	return utils.WithRequestID(ctx, uuid.NewString())
}
