package pipeline

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wgomg/kayum/internal/config"
	"github.com/wgomg/kayum/internal/imagesource"
	"github.com/wgomg/kayum/internal/index"
	"github.com/wgomg/kayum/internal/utils"
	"github.com/wgomg/kayum/internal/vision"
)

func TestProcessAll(t *testing.T) {
	describer := &fakeDescriber{describeFn: func(image []byte) (string, error) {
		return "caption", nil
	}}
	loader := &fakeLoader{loadFn: func(src imagesource.Source) (*imagesource.Image, error) {
		if src.Describe() == "/tmp/broken.jpg" {
			return nil, &imagesource.IOError{Source: src.Describe(), Err: context.DeadlineExceeded}
		}
		return testImage, nil
	}}

	matches := []index.MatchRecord{{Score: 0.9, Song: "A", Artist: "B", Link: "https://example.com/a"}}
	p := newTestPipeline(loader, describer, happyEmbedder([]float32{0.1}), happyMatcher(matches))

	sources := []imagesource.Source{
		imagesource.FromPath("/tmp/one.jpg"),
		imagesource.FromPath("/tmp/broken.jpg"),
		imagesource.FromPath("/tmp/three.jpg"),
	}

	items := p.ProcessAll(context.Background(), sources)
	require.Len(t, items, 3)

	assert.Equal(t, "/tmp/one.jpg", items[0].Source.Describe())
	require.NoError(t, items[0].Err)
	assert.Equal(t, matches, items[0].Result.Matches)

	assert.Equal(t, "/tmp/broken.jpg", items[1].Source.Describe())
	require.Error(t, items[1].Err)
	assert.Nil(t, items[1].Result)

	var pipeErr *PipelineError
	require.ErrorAs(t, items[1].Err, &pipeErr)
	assert.Equal(t, StageLoading, pipeErr.Stage)

	require.NoError(t, items[2].Err)
}

func TestProcessAllFailuresAreIndependent(t *testing.T) {
	describer := &fakeDescriber{describeFn: func([]byte) (string, error) {
		return "", &vision.DescriptionError{Message: "empty caption in response"}
	}}

	p := newTestPipeline(happyLoader(), describer, happyEmbedder([]float32{0.1}), happyMatcher(nil))

	sources := []imagesource.Source{
		imagesource.FromPath("/tmp/a.jpg"),
		imagesource.FromPath("/tmp/b.jpg"),
		imagesource.FromPath("/tmp/c.jpg"),
	}

	items := p.ProcessAll(context.Background(), sources)
	require.Len(t, items, 3)

	for _, item := range items {
		assert.Error(t, item.Err)
	}
	assert.Equal(t, int32(3), describer.calls.Load(), "every source gets its own attempt")
}

func TestProcessAllRespectsConcurrencyLimit(t *testing.T) {
	var inFlight, peak atomic.Int32

	describer := &fakeDescriber{describeFn: func([]byte) (string, error) {
		current := inFlight.Add(1)
		for {
			observed := peak.Load()
			if current <= observed || peak.CompareAndSwap(observed, current) {
				break
			}
		}
		time.Sleep(10 * time.Millisecond)
		inFlight.Add(-1)
		return "caption", nil
	}}

	cfg := &config.Config{Pipeline: config.PipelineConfig{TopK: 5, MaxConcurrent: 2}}
	p := New(happyLoader(), describer, happyEmbedder([]float32{0.1}), happyMatcher(nil), cfg, utils.NewDiscardLogger())

	sources := make([]imagesource.Source, 6)
	for i := range sources {
		sources[i] = imagesource.FromPath("/tmp/img.jpg")
	}

	items := p.ProcessAll(context.Background(), sources)
	require.Len(t, items, 6)

	assert.LessOrEqual(t, peak.Load(), int32(2))
	assert.Equal(t, int32(6), describer.calls.Load())
}

func TestProcessAllTopKOverride(t *testing.T) {
	var seen atomic.Int32
	matcher := &fakeMatcher{queryFn: func(_ []float32, topK int) ([]index.MatchRecord, error) {
		seen.Store(int32(topK))
		return nil, nil
	}}

	p := newTestPipeline(happyLoader(), happyDescriber("caption"), happyEmbedder([]float32{0.1}), matcher)

	items := p.ProcessAllTopK(context.Background(), []imagesource.Source{imagesource.FromPath("/tmp/img.jpg")}, 2)
	require.Len(t, items, 1)
	require.NoError(t, items[0].Err)
	assert.Equal(t, int32(2), seen.Load())

	items = p.ProcessAllTopK(context.Background(), []imagesource.Source{imagesource.FromPath("/tmp/img.jpg")}, 0)
	require.Len(t, items, 1)
	assert.Equal(t, int32(5), seen.Load(), "non-positive override falls back to the configured default")
}

func TestProcessAllEmpty(t *testing.T) {
	p := newTestPipeline(happyLoader(), happyDescriber("caption"), happyEmbedder([]float32{0.1}), happyMatcher(nil))

	items := p.ProcessAll(context.Background(), nil)
	assert.Empty(t, items)
}
