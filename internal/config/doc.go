// Package config loads, normalizes, and validates comicflow configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads an optional project .env file, and
// honours environment fallbacks such as COMICFLOW_MODEL_ID. The Config type
// holds the run-wide defaults that workflow descriptors may override per run.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
