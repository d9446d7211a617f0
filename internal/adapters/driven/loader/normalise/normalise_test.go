package normalise

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMarkdown_StripsFormatting(t *testing.T) {
	content := `# Title

Some **bold** and *italic* text with a [link](https://example.com).

- item one
- item two

> a quote

` + "```go\nfunc main() {}\n```"

	result := Markdown(content)

	assert.NotContains(t, result, "#")
	assert.NotContains(t, result, "**")
	assert.NotContains(t, result, "](")
	assert.NotContains(t, result, "```")
	assert.NotContains(t, result, ">")
	assert.Contains(t, result, "Title")
	assert.Contains(t, result, "bold")
	assert.Contains(t, result, "link")
	assert.Contains(t, result, "item one")
	assert.Contains(t, result, "a quote")
}

func TestMarkdown_CollapsesBlankLines(t *testing.T) {
	result := Markdown("one\n\n\n\n\ntwo")
	assert.Equal(t, "one\n\ntwo", result)
}

func TestMarkdownTitle(t *testing.T) {
	assert.Equal(t, "Hello World", MarkdownTitle("intro\n# Hello World\nbody"))
	assert.Equal(t, "", MarkdownTitle("no heading here"))
}

func TestHTML_StripsTags(t *testing.T) {
	content := `<html><head><title>Page</title><style>body { color: red; }</style></head>
<body>
<script>alert("hi")</script>
<h1>Heading</h1>
<p>First paragraph with &amp; entity.</p>
<ul><li>alpha</li><li>beta</li></ul>
<!-- hidden comment -->
</body></html>`

	result := HTML(content)

	assert.NotContains(t, result, "<")
	assert.NotContains(t, result, "alert")
	assert.NotContains(t, result, "color: red")
	assert.NotContains(t, result, "hidden comment")
	assert.Contains(t, result, "Heading")
	assert.Contains(t, result, "First paragraph with & entity.")
	assert.Contains(t, result, "alpha")
	assert.Contains(t, result, "beta")
}

func TestHTML_BlockElementsBecomeNewlines(t *testing.T) {
	result := HTML("<p>one</p><p>two</p>")
	assert.Equal(t, "one\ntwo", result)
}

func TestHTMLTitle(t *testing.T) {
	assert.Equal(t, "My Page", HTMLTitle(`<head><title> My Page </title></head>`))
	assert.Equal(t, "", HTMLTitle("<p>no title</p>"))
}

func TestForExtension(t *testing.T) {
	assert.Equal(t, "Heading", ForExtension("doc.md", "# Heading"))
	assert.Equal(t, "text", ForExtension("page.html", "<p>text</p>"))
	assert.Equal(t, "# Heading", ForExtension("notes.txt", "# Heading"))
}
