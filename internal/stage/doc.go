// Package stage defines the shared contract between the workflow manager and
// the plan, generate, assemble, and eval handlers: the per-run environment,
// the artifacts and outputs a handler reports, and optional logger and
// health hooks.
package stage
