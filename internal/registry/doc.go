// Package registry creates module records.
//
// Every create follows the same protocol: validate the name, look it up,
// compile, then materialize. Materialization walks the import graph
// iteratively in post-order, compiling and committing every import that
// is not yet stored exactly once, and finally commits the requested
// module together with its definition records in one store transaction.
//
// Name uniqueness is decided by that commit. Two callers racing for the
// same name both compile; the loser gets NameCollision.
package registry
