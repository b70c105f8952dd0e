// Package annotation converts annotation blocks between the store form
// kept in records (ir.AnnotationBlock) and the native form the front-end
// works with (frontend.AnnotationBlock).
//
// Both directions produce deep copies; neither side ever shares argument
// values with the other.
package annotation
