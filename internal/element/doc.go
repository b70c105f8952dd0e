// Package element holds the auxiliary records the registry stores next to
// module records: function and material definitions, function calls and
// material instances.
//
// Every record serializes through ir.Encode with its class id in front and
// enumerates the tags it references so an external collector can walk the
// store.
package element
