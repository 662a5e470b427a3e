// Package icons resolves logo slugs to icon records. The curated octicon set is
// bundled into the binary and always takes precedence over the custom icon store.
package icons

import (
	"embed"
	"encoding/base64"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/custom-icon-badges/custom-icon-badges/internal/db/models"
)

//go:embed octicons/*.svg
var octiconFS embed.FS

// Curated is a read-only icon table keyed by slug.
type Curated struct {
	icons map[string]models.Icon
	slugs []string
}

// LoadCurated builds the curated table from the embedded octicon set.
func LoadCurated() (*Curated, error) {
	return loadCurated(octiconFS, "octicons")
}

func loadCurated(fsys fs.FS, dir string) (*Curated, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read curated icons: %w", err)
	}

	c := &Curated{icons: make(map[string]models.Icon, len(entries))}
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".svg" {
			continue
		}
		raw, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read curated icon %s: %w", e.Name(), err)
		}
		slug := strings.TrimSuffix(e.Name(), ".svg")
		c.icons[slug] = models.Icon{
			Slug: slug,
			Type: models.SVGType,
			Data: base64.StdEncoding.EncodeToString(raw),
		}
		c.slugs = append(c.slugs, slug)
	}
	sort.Strings(c.slugs)
	return c, nil
}

// Get returns the curated icon for slug. The match is exact and case-sensitive.
func (c *Curated) Get(slug string) (*models.Icon, bool) {
	if c == nil {
		return nil, false
	}
	icon, ok := c.icons[slug]
	if !ok {
		return nil, false
	}
	return &icon, true
}

// Slugs returns every curated slug in lexical order.
func (c *Curated) Slugs() []string {
	if c == nil {
		return nil
	}
	out := make([]string, len(c.slugs))
	copy(out, c.slugs)
	return out
}
