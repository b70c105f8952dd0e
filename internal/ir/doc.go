// Package ir provides the shared data model of the module store.
//
// All other internal packages import ir; ir imports nothing internal. It holds
// tags, MDL types and values, expressions, annotations, definitions, resource
// references, diagnostics and result codes, plus the persisted element
// framing and the canonical JSON used for resource keys.
//
// Key constraints:
//   - Every composite value has a Clone method; values crossing an API
//     boundary are copied, never aliased
//   - All JSON tags use snake_case
//   - Persisted field order is the struct declaration order
package ir
