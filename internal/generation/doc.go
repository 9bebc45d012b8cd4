// Package generation implements the generate stage.
//
// Shots are processed one at a time in timeline order. Each shot is resolved
// against the capability registry, the resolved copy replaces the timeline
// entry, and the backend client produces the shot artifact. Every shot gets
// a generation log entry carrying the resolution warnings.
package generation
