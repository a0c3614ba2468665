package pipeline

import (
	"context"
	"sync"

	"github.com/electora/rollscan/internal/segment"
)

// cardJob represents a single card processing job.
type cardJob struct {
	index int
	card  segment.Card
}

// cardResult represents the outcome of processing a single card.
type cardResult struct {
	index  int
	record Record
	err    error
}

// processCardsParallel runs cards through a worker pool and returns records
// in reading order. Per-card recognition failures are reported through the
// progress callback and kept as placeholder records; only context
// cancellation aborts the sheet.
func (p *Pipeline) processCardsParallel(ctx context.Context, cards []segment.Card, cb ProgressCallback) ([]Record, error) {
	jobs := make(chan cardJob, len(cards))
	results := make(chan cardResult, len(cards))

	var wg sync.WaitGroup
	workers := p.workerCount()
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go p.worker(ctx, jobs, results, &wg)
	}

	go func() {
		defer close(jobs)
		for i, card := range cards {
			select {
			case jobs <- cardJob{index: i, card: card}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	recordMap := make(map[int]Record, len(cards))
	errorMap := make(map[int]error)
	processed := 0

	for res := range results {
		recordMap[res.index] = res.record
		errorMap[res.index] = res.err
		processed++
		cb.OnProgress(processed, len(cards))
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ordered := make([]Record, len(cards))
	for i := range cards {
		ordered[i] = recordMap[i]
		if err := errorMap[i]; err != nil {
			cb.OnError(i, err)
		}
	}
	return ordered, nil
}

// worker processes cards from the jobs channel.
func (p *Pipeline) worker(ctx context.Context, jobs <-chan cardJob, results chan<- cardResult, wg *sync.WaitGroup) {
	defer wg.Done()

	for {
		select {
		case job, ok := <-jobs:
			if !ok {
				return
			}

			record, err := p.processCard(ctx, job.card)

			select {
			case results <- cardResult{index: job.index, record: record, err: err}:
			case <-ctx.Done():
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

// processCardsSequential is the fast path for single-card sheets and
// single-worker configurations.
func (p *Pipeline) processCardsSequential(ctx context.Context, cards []segment.Card, cb ProgressCallback) ([]Record, error) {
	records := make([]Record, 0, len(cards))
	for i, card := range cards {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record, err := p.processCard(ctx, card)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			cb.OnError(i, err)
		}
		records = append(records, record)
		cb.OnProgress(i+1, len(cards))
	}
	return records, nil
}
