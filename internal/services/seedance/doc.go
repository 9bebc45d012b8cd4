// Package seedance is the generation backend boundary used by the generate
// stage.
//
// It exposes a Client interface that consumes one resolved shot request and
// returns the produced artifact path, plus a Placeholder implementation that
// writes a deterministic text stand-in instead of calling a provider. Engines
// are selected by name from the workflow descriptor.
package seedance
