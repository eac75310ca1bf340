// Package env reads process settings that are needed before the typed config
// is loaded, such as the log format.
package env

import (
	"os"
	"strings"
)

// Prefix namespaces SocietyHub variables, matching the typed config.
const Prefix = "SOCIETYHUB"

// Get returns SOCIETYHUB_<key>, then the bare key, then fallback. Values are
// trimmed and blank values count as unset.
func Get(key, fallback string) string {
	for _, name := range []string{Prefix + "_" + key, key} {
		if val := strings.TrimSpace(os.Getenv(name)); val != "" {
			return val
		}
	}
	return fallback
}
