// Package runstore owns the on-disk layout of a run's output tree.
//
// Every file is written through a temp file in the destination directory and
// renamed into place, so readers never observe a partial state document. A
// flock-based lock guards a run directory against two concurrent invocations
// of the same run id.
package runstore
