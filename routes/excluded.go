package routes

import (
	"path"
	"strings"
)

// StaticPrefix is where the gateway serves its own assets.
const StaticPrefix = "/static/"

var excludedPrefixes = []string{StaticPrefix, "/api/", "/_next/"}

var assetExtensions = map[string]struct{}{
	".css": {}, ".js": {}, ".map": {}, ".ico": {}, ".png": {}, ".jpg": {}, ".jpeg": {},
	".gif": {}, ".svg": {}, ".webp": {}, ".woff": {}, ".woff2": {}, ".ttf": {}, ".txt": {},
}

// Excluded reports whether p bypasses the edge check: static assets and API routes.
func (m *Matcher) Excluded(p string) bool {
	p = cleanPath(p)
	if p == "/favicon.ico" {
		return true
	}
	for _, prefix := range excludedPrefixes {
		if strings.HasPrefix(p+"/", prefix) {
			return true
		}
	}
	_, asset := assetExtensions[strings.ToLower(path.Ext(p))]
	return asset
}
