package deck

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var ErrNoContainer = errors.New("no slide content found")

const DefaultContainerClass = "slide-container"

// Content is what a slide file yields once loaded.
type Content struct {
	Title    string
	Markdown string
	// HTML is the sanitized slide body.
	HTML   string
	Styles []string
	// Scripts lists external script sources first seen in this slide, or
	// seen again when the same file is reloaded.
	Scripts []string
}

// Fragment is the slide as an HTML snippet: its lifted styles followed by the
// sanitized body.
func (c Content) Fragment() string {
	var b strings.Builder
	for _, css := range c.Styles {
		b.WriteString("<style>")
		b.WriteString(strings.ReplaceAll(css, "</", `<\/`))
		b.WriteString("</style>\n")
	}
	b.WriteString(c.HTML)
	return b.String()
}

// Loader turns slide files into Content. It is safe for concurrent use.
type Loader struct {
	containerClass string
	policy         *bluemonday.Policy
	markdown       goldmark.Markdown

	mu          sync.Mutex
	converter   *converter.Converter
	seenScripts map[string]string
}

// NewLoader extracts the element carrying containerClass from HTML slides.
// An empty class takes the whole <body>.
func NewLoader(containerClass string) *Loader {
	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("class").Globally()

	return &Loader{
		containerClass: containerClass,
		policy:         policy,
		markdown:       goldmark.New(goldmark.WithExtensions(extension.GFM)),
		converter: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
		seenScripts: make(map[string]string),
	}
}

func (l *Loader) Load(ctx context.Context, path string) (Content, error) {
	if err := ctx.Err(); err != nil {
		return Content{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return Content{}, fmt.Errorf("opening slide: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".md":
		return l.LoadMarkdown(f)
	default:
		return l.loadHTML(f, path)
	}
}

func (l *Loader) LoadMarkdown(r io.Reader) (Content, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Content{}, fmt.Errorf("reading slide: %w", err)
	}
	var buf bytes.Buffer
	if err := l.markdown.Convert(data, &buf); err != nil {
		return Content{}, fmt.Errorf("rendering markdown: %w", err)
	}
	src := string(data)
	return Content{
		Title:    markdownTitle(src),
		Markdown: src,
		HTML:     l.policy.Sanitize(buf.String()),
	}, nil
}

// LoadHTML loads a slide read from r. Without a file to attribute them to,
// its external scripts are reported only on first sighting.
func (l *Loader) LoadHTML(r io.Reader) (Content, error) {
	return l.loadHTML(r, "")
}

func (l *Loader) loadHTML(r io.Reader, path string) (Content, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return Content{}, fmt.Errorf("parsing slide: %w", err)
	}

	var c Content
	walk(doc, func(n *html.Node) bool {
		switch n.DataAtom {
		case atom.Title:
			if c.Title == "" {
				c.Title = strings.TrimSpace(textOf(n))
			}
		case atom.Style:
			if css := strings.TrimSpace(textOf(n)); css != "" {
				c.Styles = append(c.Styles, css)
			}
			return false
		case atom.Script:
			if src := attr(n, "src"); src != "" && l.firstSighting(src, path) {
				c.Scripts = append(c.Scripts, src)
			}
			return false
		}
		return true
	})

	container := l.container(doc)
	if container == nil {
		return c, ErrNoContainer
	}
	if c.Title == "" {
		c.Title = firstHeading(container)
	}

	var raw bytes.Buffer
	if err := html.Render(&raw, container); err != nil {
		return c, fmt.Errorf("rendering slide: %w", err)
	}
	c.HTML = l.policy.Sanitize(raw.String())

	l.mu.Lock()
	md, err := l.converter.ConvertString(c.HTML)
	l.mu.Unlock()
	if err != nil {
		return c, fmt.Errorf("converting slide: %w", err)
	}
	c.Markdown = strings.TrimSpace(md)
	return c, nil
}

// firstSighting reports whether src is new to the deck. The file that first
// referenced a script keeps reporting it, so reloads stay visible.
func (l *Loader) firstSighting(src, path string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	owner, seen := l.seenScripts[src]
	if !seen {
		l.seenScripts[src] = path
		return true
	}
	return path != "" && owner == path
}

func (l *Loader) container(doc *html.Node) *html.Node {
	var found *html.Node
	walk(doc, func(n *html.Node) bool {
		if found != nil {
			return false
		}
		if l.containerClass == "" && n.DataAtom == atom.Body {
			found = n
		} else if l.containerClass != "" && hasClass(n, l.containerClass) {
			found = n
		}
		return found == nil
	})
	return found
}

// walk visits element nodes depth first; fn returning false skips children.
func walk(n *html.Node, fn func(*html.Node) bool) {
	if n.Type == html.ElementNode && !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textOf(n *html.Node) string {
	var b strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return b.String()
}

func firstHeading(n *html.Node) string {
	var title string
	walk(n, func(n *html.Node) bool {
		if title != "" {
			return false
		}
		switch n.DataAtom {
		case atom.H1, atom.H2, atom.H3:
			title = strings.Join(strings.Fields(textOf(n)), " ")
			return false
		}
		return true
	})
	return title
}

func markdownTitle(src string) string {
	for _, line := range strings.Split(src, "\n") {
		line = strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(line, "# "); ok {
			return strings.TrimSpace(rest)
		}
	}
	return ""
}
