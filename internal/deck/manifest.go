package deck

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const ManifestName = "deck.yaml"

// Manifest is the optional deck.yaml next to the slides.
type Manifest struct {
	Title  string         `yaml:"title"`
	Slides int            `yaml:"slides"`
	Titles map[int]string `yaml:"titles"`
}

// ReadManifest returns an empty manifest when the file does not exist.
func ReadManifest(dir string) (Manifest, error) {
	var m Manifest
	data, err := os.ReadFile(filepath.Join(dir, ManifestName))
	if errors.Is(err, os.ErrNotExist) {
		return m, nil
	}
	if err != nil {
		return m, fmt.Errorf("reading manifest: %w", err)
	}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("parsing %s: %w", ManifestName, err)
	}
	if m.Slides < 0 {
		return m, fmt.Errorf("%s: slides must be non-negative, got %d", ManifestName, m.Slides)
	}
	return m, nil
}
