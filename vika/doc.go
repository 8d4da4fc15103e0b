// Package vika converges a Vika datasheet to a desired set of fund rows.
//
// A run lists every row of the datasheet, indexes them by fund code, computes
// a Plan (rows to create, update and delete) and applies it in batches,
// deletes first, then updates, then creates. Outbound calls are serialized and
// paced, each batch is retried a bounded number of times and failures are
// accumulated in the returned Summary instead of aborting the run.
//
// The Plan only touches rows by their record id, so a run interrupted midway
// leaves the table partially converged but consistent, and the next run
// finishes the job. There is no rollback across phases.
package vika
