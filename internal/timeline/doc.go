// Package timeline models the ordered shot list produced by the plan stage.
//
// Timelines are read from JSON or YAML sources, checked with Validate before
// generation begins, and written back as the run's timeline snapshot. Shot
// values are copied with Clone whenever another component needs to rewrite
// one, so the loaded timeline is never aliased.
package timeline
