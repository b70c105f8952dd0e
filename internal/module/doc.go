// Package module defines the persisted module record.
//
// A Record is a value snapshot created once per module by the registry. It
// names its definitions instead of pointing at them, so definition records
// may be removed independently; readers re-resolve names through the store
// and must be prepared for them to dangle.
//
// The compiled front-end module is process-local. It is never serialized
// and is re-attached by name after a record is decoded.
package module
