// Package textutil provides small string helpers for turning identifiers
// from workflow documents into safe file names.
package textutil
