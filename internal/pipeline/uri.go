package pipeline

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// NormalizeURI converts a local filesystem path into a file:// URI and
// passes anything that already carries a scheme through untouched.
func NormalizeURI(input string) (string, error) {
	if input == "" {
		return "", fmt.Errorf("empty media location")
	}

	if u, err := url.Parse(input); err == nil && u.Scheme != "" && len(u.Scheme) > 1 {
		// Single-letter schemes are Windows drive prefixes, not URLs.
		return input, nil
	}

	abs, err := filepath.Abs(input)
	if err != nil {
		return "", fmt.Errorf("resolve path %q: %w", input, err)
	}

	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return u.String(), nil
}

// LocalPath extracts the filesystem path from a file:// URI. Non-file URIs
// are returned unchanged so they can be handed to the decoder as-is.
func LocalPath(uri string) string {
	if strings.HasPrefix(uri, "file://") {
		if u, err := url.Parse(uri); err == nil {
			return filepath.FromSlash(u.Path)
		}
	}
	return uri
}
