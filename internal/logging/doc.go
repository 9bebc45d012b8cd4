// Package logging builds the slog loggers comicflow writes with: a console
// handler that folds run, stage and shot ids into a readable prefix, a JSON
// handler for run logs, per-stage level floors, and a tee that mirrors the
// process log into each run's logs/run.log.
package logging
