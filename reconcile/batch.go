// Copyright 2025 The RotaSmart Authors
// SPDX-License-Identifier: Apache-2.0

package reconcile

import (
	"context"
	"fmt"
	"log"
	"sync"
)

// Progress is reported after each batch.
type Progress struct {
	Batch   int // 1-based
	Batches int
	Done    int
	Total   int
}

// ProgressFunc receives batch progress. It is called from the goroutine
// running ReconcileAll.
type ProgressFunc func(Progress)

// ReconcileAll reconciles rows in batches of Options.BatchSize, reporting
// progress after each batch. The output keeps the input order. Row-level
// failures never abort the run; only an empty input or a cancelled context
// do.
func (r *Reconciler) ReconcileAll(ctx context.Context, rows []OrderRow, progress ProgressFunc) ([]ReconciledAddress, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyBatch
	}

	out := make([]ReconciledAddress, len(rows))
	size := r.opts.BatchSize
	batches := (len(rows) + size - 1) / size

	for b := range batches {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("reconciliation interrupted at batch %d/%d: %w", b+1, batches, err)
		}

		start := b * size
		end := min(start+size, len(rows))

		r.reconcileBatch(ctx, rows[start:end], out[start:end])

		pending := 0

		for _, a := range out[start:end] {
			if a.Status.NeedsReview() {
				pending++
			}
		}

		log.Printf("[batch %d/%d] reconciled rows %d-%d, %d need review", b+1, batches, start+1, end, pending)

		if progress != nil {
			progress(Progress{Batch: b + 1, Batches: batches, Done: end, Total: len(rows)})
		}
	}

	return out, nil
}

func (r *Reconciler) reconcileBatch(ctx context.Context, rows []OrderRow, out []ReconciledAddress) {
	if r.opts.Workers == 1 {
		for i, row := range rows {
			out[i] = r.Reconcile(ctx, row)
		}

		return
	}

	var wg sync.WaitGroup

	semaphore := make(chan struct{}, r.opts.Workers)

	for i, row := range rows {
		wg.Add(1)

		go func() {
			defer wg.Done()

			semaphore <- struct{}{}

			defer func() { <-semaphore }()

			out[i] = r.Reconcile(ctx, row)
		}()
	}

	wg.Wait()
}
