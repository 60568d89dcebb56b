// Package shape holds the canonical, rank-bounded axis model every tiling
// strategy plans over.
//
// A Model is built once per operator invocation from already-inferred sizes.
// It is immutable: the merge and drop passes return new models that address
// the same elements in the same row-major order with fewer axes.
package shape
