package utils

import (
	"net/url"
	"strings"
)

// uriUnreserved restores the marks encodeURIComponent leaves alone but
// url.QueryEscape escapes, and writes spaces as %20 instead of '+'.
var uriUnreserved = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// EncodeURIComponent escapes s like the browser's encodeURIComponent.
func EncodeURIComponent(s string) string {
	return uriUnreserved.Replace(url.QueryEscape(s))
}

// DecodeURIComponent reverses EncodeURIComponent.
func DecodeURIComponent(s string) (string, error) {
	return url.PathUnescape(s)
}
