// Package preflight provides readiness checks for the filesystem and the
// stage handlers that a workflow run depends on.
//
// These checks run in two contexts:
//   - "comicflow run" calls RunAll before executing a workflow when
//     preflight.enabled is set. Any failed check aborts the run before the
//     output tree is created.
//   - "comicflow preflight" prints every result as a table.
package preflight
