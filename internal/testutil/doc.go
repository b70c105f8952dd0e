// Package testutil builds throwaway environments for tests: a temporary
// store, a compiler over a temporary search path with module sources on
// disk, a resource cache over a temporary resource root, and a registry
// wired to all three.
package testutil
