package deck

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleSlide = `<!doctype html>
<html>
<head>
  <title>Market size</title>
  <style>.slide-container { color: red; }</style>
  <script src="https://cdn.example.com/chart.js"></script>
</head>
<body>
  <div class="slide-container wide">
    <h1>Market size</h1>
    <p>We grew <strong>40%</strong> this year.</p>
    <ul><li>North</li><li>South</li></ul>
    <script>drawChart()</script>
  </div>
</body>
</html>`

func TestLoadHTMLExtractsContainer(t *testing.T) {
	l := NewLoader(DefaultContainerClass)
	c, err := l.LoadHTML(strings.NewReader(sampleSlide))
	if err != nil {
		t.Fatal(err)
	}
	if c.Title != "Market size" {
		t.Fatalf("title = %q", c.Title)
	}
	if !strings.Contains(c.Markdown, "# Market size") || !strings.Contains(c.Markdown, "**40%**") {
		t.Fatalf("markdown = %q", c.Markdown)
	}
	if !strings.Contains(c.Markdown, "North") {
		t.Fatalf("list lost: %q", c.Markdown)
	}
	if strings.Contains(c.HTML, "<script") || strings.Contains(c.Markdown, "drawChart") {
		t.Fatalf("scripts must be stripped, got %q", c.HTML)
	}
	if len(c.Styles) != 1 {
		t.Fatalf("styles = %v", c.Styles)
	}
	if frag := c.Fragment(); !strings.HasPrefix(frag, "<style>.slide-container { color: red; }</style>") || !strings.Contains(frag, "<h1>Market size</h1>") {
		t.Fatalf("fragment = %q", frag)
	}
	if len(c.Scripts) != 1 || c.Scripts[0] != "https://cdn.example.com/chart.js" {
		t.Fatalf("scripts = %v", c.Scripts)
	}
}

func TestLoadHTMLDedupesExternalScriptsAcrossSlides(t *testing.T) {
	l := NewLoader(DefaultContainerClass)
	if _, err := l.LoadHTML(strings.NewReader(sampleSlide)); err != nil {
		t.Fatal(err)
	}
	c, err := l.LoadHTML(strings.NewReader(sampleSlide))
	if err != nil {
		t.Fatal(err)
	}
	if len(c.Scripts) != 0 {
		t.Fatalf("script reported twice: %v", c.Scripts)
	}
}

func TestFragmentKeepsStylesInsideTheirBlock(t *testing.T) {
	c := Content{HTML: "<p>x</p>", Styles: []string{"a::after { content: '</style><script>'; }"}}
	if frag := c.Fragment(); strings.Count(frag, "</style>") != 1 {
		t.Fatalf("fragment = %q", frag)
	}
}

func TestReloadedSlideReportsItsScriptsAgain(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "1.html")
	second := filepath.Join(dir, "2.html")
	for _, p := range []string{first, second} {
		if err := os.WriteFile(p, []byte(sampleSlide), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	l := NewLoader(DefaultContainerClass)
	ctx := context.Background()

	c, err := l.Load(ctx, first)
	if err != nil || len(c.Scripts) != 1 {
		t.Fatalf("first load scripts %v err %v", c.Scripts, err)
	}
	if c, _ = l.Load(ctx, second); len(c.Scripts) != 0 {
		t.Fatalf("second slide repeated scripts: %v", c.Scripts)
	}
	if c, _ = l.Load(ctx, first); len(c.Scripts) != 1 {
		t.Fatalf("reload lost scripts: %v", c.Scripts)
	}
}

func TestLoadHTMLWithoutContainer(t *testing.T) {
	l := NewLoader(DefaultContainerClass)
	_, err := l.LoadHTML(strings.NewReader("<html><body><p>loose</p></body></html>"))
	if !errors.Is(err, ErrNoContainer) {
		t.Fatalf("err = %v", err)
	}

	body := NewLoader("")
	c, err := body.LoadHTML(strings.NewReader("<html><body><h2>Loose</h2><p>text</p></body></html>"))
	if err != nil {
		t.Fatal(err)
	}
	if c.Title != "Loose" || !strings.Contains(c.Markdown, "text") {
		t.Fatalf("content = %+v", c)
	}
}

func TestLoadMarkdownFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "2.md")
	if err := os.WriteFile(path, []byte("intro\n\n# Roadmap\n\n- ship it\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := NewLoader(DefaultContainerClass).Load(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if c.Title != "Roadmap" {
		t.Fatalf("title = %q", c.Title)
	}
	if !strings.Contains(c.HTML, "<li>ship it</li>") {
		t.Fatalf("html = %q", c.HTML)
	}
}

func TestLoadHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewLoader("").Load(ctx, "does-not-matter.html"); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
}
