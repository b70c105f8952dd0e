// Package frontend defines the contract between the module store and the
// shading-language compiler front-end.
//
// A compiled Module is an immutable, already validated artifact. A Builder
// is the only mutable module form: definitions are added to it until it is
// passed to Frontend.Analyze, which seals it and returns a Module. Once
// sealed, every add method fails with ErrSealed.
package frontend
