// Package env reads raw process environment variables. It covers the few
// knobs consulted before the typed config is loaded, such as log formatting.
package env

import "os"

// Get returns the value of key, or fallback when the variable is unset
// or empty.
func Get(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok && val != "" {
		return val
	}
	return fallback
}
