// Package normalise converts marked-up document formats to plain text
// before chunking. Formats without markup pass through unchanged.
package normalise

import (
	"path/filepath"
	"strings"
)

// ForExtension normalises content according to the file extension.
// Unknown extensions return the content unchanged.
func ForExtension(path, content string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return Markdown(content)
	case ".html", ".htm":
		return HTML(content)
	}
	return content
}
