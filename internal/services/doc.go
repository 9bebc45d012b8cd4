// Package services defines shared utilities consumed by the workflow stage
// handlers.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, shot IDs, and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     into the configuration / validation / resolution / execution taxonomy
//     persisted on failed stages.
//
// Use these helpers when wiring new stage logic so error handling and
// observability stay uniform across the pipeline.
package services
