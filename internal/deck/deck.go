// Package deck models a presentation directory: one content file per slide,
// named by its 1-based index (1.html, 2.html, ... or 1.md, ...), plus an
// optional deck.yaml manifest.
package deck

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
)

// MaxSlides bounds the index space of a deck.
const MaxSlides = 1000

var (
	ErrEmptyDeck     = errors.New("no slides found")
	ErrMissingSlide  = errors.New("slide file not found")
	ErrTooManySlides = fmt.Errorf("a deck holds at most %d slides", MaxSlides)
)

var slideName = regexp.MustCompile(`^(\d+)\.(html|htm|md)$`)

// extension preference when a slide exists in several formats
var extRank = map[string]int{"html": 0, "htm": 1, "md": 2}

// ParseSlideName returns the slide index encoded in a file name.
func ParseSlideName(name string) (int, bool) {
	m := slideName.FindStringSubmatch(filepath.Base(name))
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

// Handle is one slide's container. Source stays empty until the slide is
// requested; a requested handle keeps its source for good.
type Handle struct {
	Index     int
	Path      string
	Title     string
	Source    string
	Requested bool
	Loaded    bool
	Active    bool
	Content   Content
	Err       error
}

// Deck is the ordered handle set. Index i lives at handles[i-1]; a nil entry
// is a slide whose file is missing. Paths are fixed at Open, the rest of a
// handle belongs to the UI event loop.
type Deck struct {
	Dir     string
	Title   string
	// Ignored lists slide-named files numbered past MaxSlides.
	Ignored []string
	handles []*Handle
}

// Open scans dir for slide files. total fixes the slide count; zero takes it
// from the manifest, then from the highest numbered file up to MaxSlides.
func Open(dir string, total int) (*Deck, error) {
	if total > MaxSlides {
		return nil, fmt.Errorf("%w, got %d", ErrTooManySlides, total)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading deck %s: %w", dir, err)
	}

	manifest, err := ReadManifest(dir)
	if err != nil {
		return nil, err
	}

	if manifest.Slides > MaxSlides {
		return nil, fmt.Errorf("%s: %w, got %d", ManifestName, ErrTooManySlides, manifest.Slides)
	}

	found := map[int]string{}
	var ignored []string
	highest := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		m := slideName.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil || n > MaxSlides {
			ignored = append(ignored, e.Name())
			continue
		}
		if n < 1 {
			continue
		}
		if prev, ok := found[n]; ok && extRank[ext(prev)] <= extRank[m[2]] {
			continue
		}
		found[n] = e.Name()
		if n > highest {
			highest = n
		}
	}

	if total <= 0 {
		total = manifest.Slides
	}
	if total <= 0 {
		total = highest
	}
	if total <= 0 {
		return nil, fmt.Errorf("%w in %s", ErrEmptyDeck, dir)
	}

	d := &Deck{Dir: dir, Title: manifest.Title, Ignored: ignored, handles: make([]*Handle, total)}
	if d.Title == "" {
		d.Title = filepath.Base(filepath.Clean(dir))
	}
	for i := 1; i <= total; i++ {
		name, ok := found[i]
		if !ok {
			continue
		}
		d.handles[i-1] = &Handle{
			Index: i,
			Path:  filepath.Join(dir, name),
			Title: manifest.Titles[i],
		}
	}
	return d, nil
}

func ext(name string) string {
	return filepath.Ext(name)[1:]
}

// Total is the size of the index space, missing slides included.
func (d *Deck) Total() int { return len(d.handles) }

// Handle returns the handle at index i, or nil when it is missing or i is
// out of range.
func (d *Deck) Handle(i int) *Handle {
	if i < 1 || i > len(d.handles) {
		return nil
	}
	return d.handles[i-1]
}

// Path is safe to call from any goroutine.
func (d *Deck) Path(i int) (string, error) {
	h := d.Handle(i)
	if h == nil {
		return "", fmt.Errorf("%w: slide %d", ErrMissingSlide, i)
	}
	return h.Path, nil
}

// Missing lists indices that have no slide file.
func (d *Deck) Missing() []int {
	var out []int
	for i, h := range d.handles {
		if h == nil {
			out = append(out, i+1)
		}
	}
	return out
}

func (d *Deck) First() int {
	for i, h := range d.handles {
		if h != nil {
			return i + 1
		}
	}
	return 0
}

func (d *Deck) Activate(i int) bool {
	h := d.Handle(i)
	if h == nil {
		return false
	}
	h.Active = true
	return true
}

func (d *Deck) Deactivate(i int) bool {
	h := d.Handle(i)
	if h == nil {
		return false
	}
	h.Active = false
	return true
}

func (d *Deck) AssignSource(i int) bool {
	h := d.Handle(i)
	if h == nil || h.Requested {
		return false
	}
	h.Source = h.Path
	h.Requested = true
	return true
}

// MarkLoaded stores a finished load. A repeated load replaces the content,
// so a late prefetch landing after a reload is harmless.
func (d *Deck) MarkLoaded(i int, c Content, err error) {
	h := d.Handle(i)
	if h == nil {
		return
	}
	h.Loaded = true
	h.Err = err
	if err != nil {
		return
	}
	h.Content = c
	if h.Title == "" {
		h.Title = c.Title
	}
}

// Titles returns one label per index for pickers and listings.
func (d *Deck) Titles() []string {
	out := make([]string, len(d.handles))
	for i, h := range d.handles {
		switch {
		case h == nil:
			out[i] = "(missing)"
		case h.Title != "":
			out[i] = h.Title
		default:
			out[i] = filepath.Base(h.Path)
		}
	}
	return out
}

// Active lists the indices currently marked active.
func (d *Deck) Active() []int {
	var out []int
	for i, h := range d.handles {
		if h != nil && h.Active {
			out = append(out, i+1)
		}
	}
	return out
}
