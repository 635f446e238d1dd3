package search

import (
	"context"
	"fmt"
	"iter"
	"sync"
	"time"

	"github.com/okian/seasonmatch/internal/domain/model"
	"github.com/okian/seasonmatch/pkg/metrics"
)

// prefetchPerWorker bounds how many fetched but unconsumed seasons each
// worker may hold.
const prefetchPerWorker = 2

// Batch is one corpus season. Err is set when the season could not be
// fetched; Candidates is then empty.
type Batch struct {
	Season     int
	Candidates []model.Candidate
	Err        error
}

// Batches yields every season in the engine's range in ascending order.
// Breaking out of the loop stops further fetches.
func (e *Engine) Batches(ctx context.Context, role model.Role) iter.Seq[Batch] {
	if e.workers > 1 {
		return e.parallelBatches(ctx, role)
	}
	return func(yield func(Batch) bool) {
		for season := e.first; season <= e.last; season++ {
			if ctx.Err() != nil {
				return
			}
			if !yield(e.fetch(ctx, season, role)) {
				return
			}
		}
	}
}

// parallelBatches fetches ahead with a bounded pool and hands batches out
// in season order, so consumers see exactly what the sequential scan sees.
func (e *Engine) parallelBatches(parent context.Context, role model.Role) iter.Seq[Batch] {
	return func(yield func(Batch) bool) {
		ctx, cancel := context.WithCancel(parent)
		var wg sync.WaitGroup
		defer func() {
			cancel()
			wg.Wait()
		}()

		n := e.last - e.first + 1
		slots := make([]chan Batch, n)
		for i := range slots {
			slots[i] = make(chan Batch, 1)
		}
		seasons := make(chan int)
		tokens := make(chan struct{}, e.workers*prefetchPerWorker)

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer close(seasons)
			for season := e.first; season <= e.last; season++ {
				select {
				case tokens <- struct{}{}:
				case <-ctx.Done():
					return
				}
				select {
				case seasons <- season:
				case <-ctx.Done():
					return
				}
			}
		}()

		for range e.workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for season := range seasons {
					slots[season-e.first] <- e.fetch(ctx, season, role)
				}
			}()
		}

		for i := range slots {
			var b Batch
			select {
			case b = <-slots[i]:
			case <-ctx.Done():
				return
			}
			<-tokens
			if !yield(b) {
				return
			}
		}
	}
}

func (e *Engine) fetch(ctx context.Context, season int, role model.Role) Batch {
	start := time.Now()
	candidates, err := e.corpus.Season(ctx, season, role)
	metrics.RecordSeasonFetchDuration(float64(time.Since(start).Milliseconds()))
	if err != nil {
		return Batch{Season: season, Err: fmt.Errorf("%w: %s %d: %w", ErrSeasonFetch, role.Group(), season, err)}
	}
	return Batch{Season: season, Candidates: candidates}
}
