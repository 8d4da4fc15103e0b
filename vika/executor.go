package vika

import (
	"context"
	"errors"
	"log"
	"time"
)

// Op names a kind of batch.
type Op string

const (
	OpDelete Op = "delete"
	OpUpdate Op = "update"
	OpCreate Op = "create"
)

// Summary reports what a run achieved. Counts only include rows of batches
// that succeeded.
type Summary struct {
	Created int           `json:"created"`
	Updated int           `json:"updated"`
	Deleted int           `json:"deleted"`
	Errors  []*BatchError `json:"-"`
}

// Err joins all batch errors, nil if there is none.
func (s Summary) Err() error {
	errs := make([]error, len(s.Errors))
	for i, e := range s.Errors {
		errs[i] = e
	}
	return errors.Join(errs...)
}

// Executor applies a Plan to a Store in fixed-size batches.
type Executor struct {
	Store      Store
	BatchLimit int           // rows per call
	Retries    int           // extra attempts per failing batch
	Backoff    time.Duration // first retry delay, doubled on each attempt
	Clock      Clock
}

// Execute applies deletes, then updates, then creates.
//
// A failing batch is retried, then recorded in the Summary, and the next batch
// is attempted anyway. Execute stops early, returning what was done so far,
// when ctx is done or when the credentials are rejected.
func (e *Executor) Execute(ctx context.Context, plan Plan) (Summary, error) {
	var s Summary
	limit := e.BatchLimit
	if limit <= 0 {
		limit = DefaultBatchLimit
	}

	for _, batch := range chunk(plan.Delete, limit) {
		ok, err := e.apply(ctx, &s, OpDelete, batch, func(ctx context.Context) error {
			return e.Store.DeleteRecords(ctx, batch)
		})
		if err != nil {
			return s, err
		}
		if ok {
			s.Deleted += len(batch)
		}
	}

	for _, batch := range chunk(plan.Update, limit) {
		ids := make([]string, len(batch))
		for i, u := range batch {
			ids[i] = u.RecordID
		}
		ok, err := e.apply(ctx, &s, OpUpdate, ids, func(ctx context.Context) error {
			return e.Store.UpdateRecords(ctx, batch)
		})
		if err != nil {
			return s, err
		}
		if ok {
			s.Updated += len(batch)
		}
	}

	for _, batch := range chunk(plan.Create, limit) {
		keys := make([]string, len(batch))
		for i, f := range batch {
			keys[i] = f.Key()
		}
		ok, err := e.apply(ctx, &s, OpCreate, keys, func(ctx context.Context) error {
			return e.Store.CreateRecords(ctx, batch)
		})
		if err != nil {
			return s, err
		}
		if ok {
			s.Created += len(batch)
		}
	}
	return s, nil
}

// apply runs call, retrying retryable failures with an exponential backoff.
// A batch that keeps failing is recorded in s and reported as not ok. A
// non-nil error means the run must stop.
func (e *Executor) apply(ctx context.Context, s *Summary, op Op, ids []string, call func(context.Context) error) (ok bool, fatal error) {
	clock := e.Clock
	if clock == nil {
		clock = realClock{}
	}
	delay := e.Backoff
	attempts := 0
	for {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		attempts++
		err := call(ctx)
		if err == nil {
			return true, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return false, ctxErr
		}
		if errors.Is(err, ErrUnauthorized) {
			return false, err
		}
		if !retryable(err) || attempts > e.Retries {
			log.Printf("warning %s batch of %d failed: %v", op, len(ids), err)
			s.Errors = append(s.Errors, &BatchError{Op: op, IDs: ids, Attempts: attempts, Err: err})
			return false, nil
		}
		log.Printf("%s batch of %d failed (attempt %d), retrying in %v: %v", op, len(ids), attempts, delay, err)
		if err := clock.Sleep(ctx, delay); err != nil {
			return false, err
		}
		delay *= 2
	}
}

// chunk splits items into consecutive slices of at most size elements.
func chunk[T any](items []T, size int) [][]T {
	var batches [][]T
	for size < len(items) {
		batches = append(batches, items[:size:size])
		items = items[size:]
	}
	if len(items) > 0 {
		batches = append(batches, items)
	}
	return batches
}
