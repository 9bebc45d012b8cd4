// Package resolver decides, per shot, which control mode, model, and flags
// are actually used given the target model's capability record.
//
// Resolve never mutates its input. It returns a resolved copy of the shot
// carrying every downgrade plus one human-readable warning per adjustment.
// Warnings are informational; the only fatal outcome is a model that
// supports no control mode at all.
package resolver
