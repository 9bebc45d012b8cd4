// Package workflow drives one run through the fixed plan, generate,
// assemble, and eval stages.
//
// A Run mirrors the persisted workflow_state.v1 document: run metadata, the
// typed per-stage configuration, and exactly four Stage records in
// execution order. Each Stage moves pending -> running -> completed|failed
// exactly once, stamping timestamps and attaching a StageError on failure.
//
// The Manager sequences the stages explicitly, threads each stage's
// principal output into the next, and persists the run state on both the
// success and the failure path before returning. It never retries; the
// retryable flag on a StageError is advisory for an outer supervisor.
package workflow
