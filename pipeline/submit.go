package pipeline

import (
	"context"

	"github.com/google/uuid"
	"github.com/vova616/xxhash"
	"golang.org/x/sync/errgroup"
)

// AnalyseTexts submits every document produced by the supplied inputs for
// analysis and returns one Result per document, correlated by source
// identifier and ordered as supplied.
//
// Concurrency is capped to the pool size the remote advertises for this
// pipeline; the cap is a hard limit, not a hint, since the remote does not
// protect itself.  The batch is fail-fast: the first failed submission
// cancels in-flight siblings through their request context, no further
// documents are submitted, and the error is returned with no partial results.
func (p *Pipeline) AnalyseTexts(ctx context.Context, inputs ...Input) ([]Result, error) {
	docs, err := normalize(inputs)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}

	capacity, err := p.resolveCapacity(ctx)
	if err != nil {
		return nil, err
	}

	batchID := uuid.NewString()
	p.Logger.Infow("submitting analysis batch",
		"project", p.Project, "pipeline", p.Name, "batch", batchID,
		"documents", len(docs), "capacity", capacity)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(capacity)

	results := make([]Result, len(docs))
	for i, doc := range docs {
		i, doc := i, doc
		g.Go(func() error {
			// A sibling may have failed while this document waited
			// on the pool; don't start a doomed submission.
			if err := ctx.Err(); err != nil {
				return err
			}
			content, err := doc.Content()
			if err != nil {
				return &SubmissionError{Source: doc.Source, Err: err}
			}
			p.Logger.Debugw("analysing document",
				"batch", batchID, "source", doc.Source,
				"bytes", len(content), "checksum", xxhash.Checksum32(content))
			records, err := p.remote.Analyse(ctx, content)
			if err != nil {
				return &SubmissionError{Source: doc.Source, Err: err}
			}
			results[i] = Result{Source: doc.Source, Data: records}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	p.Logger.Infow("analysis batch complete",
		"project", p.Project, "pipeline", p.Name, "batch", batchID, "documents", len(docs))
	return results, nil
}

// resolveCapacity fetches the remote's advertised concurrent submission
// capacity.  Fetched once per batch; an unreachable configuration endpoint
// fails the batch rather than falling back to a default, since a guessed
// default could flood a live service.
func (p *Pipeline) resolveCapacity(ctx context.Context) (int, error) {
	return p.remote.Capacity(ctx)
}
