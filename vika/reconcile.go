package vika

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
)

// Defaults applied by Config.withDefaults.
const (
	DefaultBatchLimit = 10   // rows per create, update or delete call
	DefaultPageSize   = 1000 // rows per list call
	DefaultInterval   = 300 * time.Millisecond
	DefaultTimeout    = 10 * time.Second
	DefaultRetries    = 2
	DefaultBackoff    = 500 * time.Millisecond
)

// Config is everything a Reconciler needs. Zero numeric values take the defaults.
type Config struct {
	BaseURL     string
	Token       string
	DatasheetID string
	Schema      Schema

	BatchLimit int
	PageSize   int
	Interval   time.Duration // minimum spacing between two calls, negative for none
	Timeout    time.Duration // per call
	Retries    int           // extra attempts for a failing batch, negative for none
	Backoff    time.Duration
}

// Validate reports ErrNotConfigured when the configuration cannot be used.
func (c Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.Token) == "" {
		missing = append(missing, "token")
	}
	if strings.TrimSpace(c.DatasheetID) == "" {
		missing = append(missing, "datasheet id")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrNotConfigured, strings.Join(missing, " and "))
	}
	return c.Schema.Validate()
}

func (c Config) withDefaults() Config {
	if c.BatchLimit <= 0 {
		c.BatchLimit = DefaultBatchLimit
	}
	if c.PageSize <= 0 {
		c.PageSize = DefaultPageSize
	}
	if c.Interval == 0 {
		c.Interval = DefaultInterval
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	switch {
	case c.Retries == 0:
		c.Retries = DefaultRetries
	case c.Retries < 0:
		c.Retries = 0
	}
	if c.Backoff <= 0 {
		c.Backoff = DefaultBackoff
	}
	return c
}

// Option customizes a Reconciler.
type Option func(*Reconciler)

// WithHTTPClient sets the http.Client used to reach the API.
func WithHTTPClient(c *http.Client) Option { return func(r *Reconciler) { r.httpClient = c } }

// WithClock replaces the time source used for pacing and backoff.
func WithClock(c Clock) Option { return func(r *Reconciler) { r.clock = c } }

// WithStore replaces the remote datasheet altogether.
func WithStore(s Store) Option { return func(r *Reconciler) { r.store = s } }

// Reconciler converges one datasheet to a desired set of rows. It holds no
// state between runs: the datasheet is the system of record.
type Reconciler struct {
	cfg        Config
	httpClient *http.Client
	clock      Clock
	store      Store
}

// New validates cfg and returns a Reconciler. No remote call is made.
func New(cfg Config, opts ...Option) (*Reconciler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r := &Reconciler{cfg: cfg.withDefaults(), clock: realClock{}}
	for _, opt := range opts {
		opt(r)
	}
	if r.store == nil {
		pacer := NewPacer(r.cfg.Interval, r.clock)
		r.store = NewClient(r.httpClient, r.cfg.BaseURL, r.cfg.Token, r.cfg.DatasheetID, r.cfg.Timeout, pacer)
	}
	return r, nil
}

// Schema returns the validated schema.
func (r *Reconciler) Schema() Schema { return r.cfg.Schema }

// Preview lists the datasheet and returns the Plan a Reconcile would apply.
func (r *Reconciler) Preview(ctx context.Context, desired []Fields) (Plan, error) {
	if err := r.cfg.Schema.Check(desired); err != nil {
		return Plan{}, err
	}
	idx, err := BuildIndex(ctx, r.store.ListRecords, r.cfg.PageSize)
	if err != nil {
		return Plan{}, fmt.Errorf("cannot list datasheet %s: %w", r.cfg.DatasheetID, err)
	}
	log.Printf("datasheet %s: %d rows, %d keys, %d unkeyed", r.cfg.DatasheetID, idx.Len(), len(idx.Keys()), len(idx.Unkeyed))
	return NewPlan(desired, idx), nil
}

// Reconcile converges the datasheet to desired.
//
// The error is non-nil when nothing could be attempted (invalid records,
// rejected credentials, listing failure) or when the run stopped early; batch
// failures do not abort the run and are reported in Summary.Errors.
func (r *Reconciler) Reconcile(ctx context.Context, desired []Fields) (Summary, error) {
	plan, err := r.Preview(ctx, desired)
	if err != nil {
		return Summary{}, err
	}
	log.Printf("plan: %d to delete, %d to update, %d to create", len(plan.Delete), len(plan.Update), len(plan.Create))

	exec := &Executor{
		Store:      r.store,
		BatchLimit: r.cfg.BatchLimit,
		Retries:    r.cfg.Retries,
		Backoff:    r.cfg.Backoff,
		Clock:      r.clock,
	}
	return exec.Execute(ctx, plan)
}
