package pipeline

import (
	"context"
	"fmt"

	"github.com/wgomg/kayum/internal/imagesource"
	"github.com/wgomg/kayum/internal/index"
)

// Stage names the step a pipeline invocation is in. An invocation moves
// through loading, describing, embedding and matching in that order and
// ends in done or failed; a failed stage is never left.
type Stage string

const (
	StageIdle       Stage = "idle"
	StageLoading    Stage = "loading"
	StageDescribing Stage = "describing"
	StageEmbedding  Stage = "embedding"
	StageMatching   Stage = "matching"
	StageDone       Stage = "done"
	StageFailed     Stage = "failed"
)

// PipelineError wraps a stage failure. The wrapped error keeps its concrete
// type, so errors.As still reaches the per-stage error underneath.
type PipelineError struct {
	Stage Stage
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("pipeline failed during %s: %v", e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// Result is a completed invocation: the caption that drove the search and
// the matches that came back, best first. No partial results exist; a
// failed invocation produces only a PipelineError.
type Result struct {
	Description string              `json:"description"`
	Matches     []index.MatchRecord `json:"matches"`
}

type ImageLoader interface {
	Load(ctx context.Context, src imagesource.Source) (*imagesource.Image, error)
}

type Describer interface {
	Describe(ctx context.Context, image []byte) (string, error)
}

type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type Matcher interface {
	Query(ctx context.Context, vector []float32, topK int) ([]index.MatchRecord, error)
}
