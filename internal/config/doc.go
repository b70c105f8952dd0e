// Package config loads shadestore settings.
//
// Values come, in increasing precedence, from built-in defaults, an
// optional CUE file validated against the embedded #Config schema,
// SHADESTORE_* environment variables and command-line flags.
package config
