// Package derive synthesizes definitions from stored prototypes into a
// module builder.
//
// A variant copies a function or material definition with new defaults
// and annotations and forwards to it. A material re-parameterizes a
// material instance: chosen argument paths of the instance become
// parameters of the new material and the rest stay fixed.
//
// The synthesizer only accepts a *frontend.Builder. Once the builder is
// analyzed it is sealed and every further add fails.
package derive
