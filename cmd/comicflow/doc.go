// Package main hosts the comicflow CLI entrypoint and command graph.
//
// The Cobra-based command tree loads configuration once, resolves the
// project root that workflow descriptors and outputs are relative to, and
// wires the four stage handlers into a workflow manager. Subcommands cover
// executing a workflow, validating inputs without running them, inspecting
// persisted run state, listing model capabilities, and preflight checks.
package main
