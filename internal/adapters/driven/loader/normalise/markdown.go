package normalise

import (
	"regexp"
	"strings"
)

// Pre-compiled regular expressions for markdown stripping.
var (
	mdCodeBlock    = regexp.MustCompile("(?s)```[^`]*```")
	mdInlineCode   = regexp.MustCompile("`[^`]+`")
	mdImages       = regexp.MustCompile(`!\[[^\]]*\]\([^)]+\)`)
	mdLinks        = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	mdHeadings     = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	mdBlockquote   = regexp.MustCompile(`(?m)^>\s*`)
	mdHorizRule    = regexp.MustCompile(`(?m)^[-*_]{3,}\s*$`)
	mdListMarkers  = regexp.MustCompile(`(?m)^\s*[-*+]\s+`)
	mdNumberedList = regexp.MustCompile(`(?m)^\s*\d+\.\s+`)
	mdMultiNewline = regexp.MustCompile(`\n{3,}`)
)

// Markdown removes common markdown formatting for plain text content.
// This is a simplified implementation that handles common cases.
func Markdown(content string) string {
	content = mdCodeBlock.ReplaceAllString(content, "")
	content = mdInlineCode.ReplaceAllString(content, "")
	content = mdImages.ReplaceAllString(content, "")

	// Convert links [text](url) to just text
	content = mdLinks.ReplaceAllString(content, "$1")

	content = mdHeadings.ReplaceAllString(content, "")

	// Remove bold/italic markers
	content = strings.ReplaceAll(content, "**", "")
	content = strings.ReplaceAll(content, "__", "")
	content = strings.ReplaceAll(content, "*", "")
	content = strings.ReplaceAll(content, "_", " ")

	content = mdBlockquote.ReplaceAllString(content, "")
	content = mdHorizRule.ReplaceAllString(content, "")
	content = mdListMarkers.ReplaceAllString(content, "")
	content = mdNumberedList.ReplaceAllString(content, "")
	content = mdMultiNewline.ReplaceAllString(content, "\n\n")

	return strings.TrimSpace(content)
}

// MarkdownTitle extracts a title from the first H1 heading, or returns
// the empty string when the content has none.
func MarkdownTitle(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "#"))
		}
	}
	return ""
}
