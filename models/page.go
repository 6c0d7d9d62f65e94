package models

import "strings"

// PageMap maps a lowercase symbolic page key to a destination path relative
// to the configured base URL. Read-only after configuration load.
type PageMap map[string]string

// Lookup normalises the key before the map access.
func (m PageMap) Lookup(key string) (string, bool) {
	path, ok := m[strings.ToLower(strings.TrimSpace(key))]
	return path, ok
}

// Keys returns the page keys in no particular order.
func (m PageMap) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
