// Package capability holds the model capability registry consulted by the
// mode resolver.
//
// A Registry is an immutable table keyed by model identifier. The built-in
// table covers the Seedance video models; additional records declared in the
// [[models]] config section are merged over it once at process start.
package capability
