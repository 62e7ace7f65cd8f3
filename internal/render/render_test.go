package render

import (
	"strings"
	"testing"
)

func TestSanitizeStripsScript(t *testing.T) {
	out := Sanitize(`<p>ok</p><script>alert(1)</script>`)
	if strings.Contains(out, "script") || strings.Contains(out, "alert") {
		t.Errorf("script survived sanitization: %q", out)
	}
	if !strings.Contains(out, "<p>ok</p>") {
		t.Errorf("allowed tag stripped: %q", out)
	}
}

func TestSanitizeKeepsAllowedAttributes(t *testing.T) {
	out := Sanitize(`<a href="https://example.com" onclick="evil()">x</a>`)
	if !strings.Contains(out, `href="https://example.com"`) {
		t.Errorf("href stripped: %q", out)
	}
	if strings.Contains(out, "onclick") {
		t.Errorf("onclick survived: %q", out)
	}
}

func TestSanitizeRejectsJavascriptURL(t *testing.T) {
	out := Sanitize(`<a href="javascript:alert(1)">x</a>`)
	if strings.Contains(out, "javascript") {
		t.Errorf("javascript URL survived: %q", out)
	}
}

func TestMarkdownBasics(t *testing.T) {
	out := Markdown("# Title\n\nsome *emphasis* here")
	if !strings.Contains(out, "<h1>") {
		t.Errorf("no heading: %q", out)
	}
	if !strings.Contains(out, "<em>emphasis</em>") {
		t.Errorf("no emphasis: %q", out)
	}
}

func TestMarkdownStrikethrough(t *testing.T) {
	out := Markdown("~~gone~~")
	if !strings.Contains(out, "<del>gone</del>") {
		t.Errorf("no strikethrough: %q", out)
	}
}

func TestMarkdownTable(t *testing.T) {
	out := Markdown("| a | b |\n|---|---|\n| 1 | 2 |")
	if !strings.Contains(out, "<table>") {
		t.Errorf("no table: %q", out)
	}
}

func TestMarkdownHardWraps(t *testing.T) {
	out := Markdown("line one\nline two")
	if !strings.Contains(out, "<br") {
		t.Errorf("no hard wrap: %q", out)
	}
}

func TestMarkdownEmbeddedHTMLStripped(t *testing.T) {
	out := Markdown("hello <script>alert(1)</script>")
	if strings.Contains(out, "script") {
		t.Errorf("embedded script survived: %q", out)
	}
}
