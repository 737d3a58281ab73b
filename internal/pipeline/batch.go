package pipeline

import (
	"context"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/wgomg/kayum/internal/imagesource"
	"github.com/wgomg/kayum/internal/utils"
)

// BatchItem is the outcome for one source of a batch. Exactly one of
// Result and Err is set.
type BatchItem struct {
	Source imagesource.Source
	Result *Result
	Err    error
}

// ProcessAll runs the pipeline over every source with bounded concurrency.
// Items fail independently; the returned slice matches the input order.
func (p *Pipeline) ProcessAll(ctx context.Context, sources []imagesource.Source) []BatchItem {
	return p.processAll(ctx, sources, p.topK)
}

// ProcessAllTopK overrides the configured match count for one batch.
// Values below 1 fall back to the configured default.
func (p *Pipeline) ProcessAllTopK(ctx context.Context, sources []imagesource.Source, topK int) []BatchItem {
	if topK < 1 {
		topK = p.topK
	}
	return p.processAll(ctx, sources, topK)
}

func (p *Pipeline) processAll(ctx context.Context, sources []imagesource.Source, topK int) []BatchItem {
	log := utils.LogEntry(ctx, p.logger)
	log.WithFields(logrus.Fields{
		"sources":        len(sources),
		"max_concurrent": p.maxConcurrent,
	}).Info("batch started")

	items := make([]BatchItem, len(sources))

	var g errgroup.Group
	g.SetLimit(p.maxConcurrent)

	for i, src := range sources {
		g.Go(func() error {
			result, err := p.ProcessTopK(ctx, src, topK)
			items[i] = BatchItem{Source: src, Result: result, Err: err}
			// outcomes live in items; returning the error here would stop
			// scheduling of the remaining sources
			return nil
		})
	}

	_ = g.Wait()

	var failed int
	for _, item := range items {
		if item.Err != nil {
			failed++
		}
	}

	log.WithFields(logrus.Fields{
		"total":     len(items),
		"processed": len(items) - failed,
		"failed":    failed,
	}).Info("batch completed")

	return items
}
