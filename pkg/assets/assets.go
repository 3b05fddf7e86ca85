// Package assets bundles the stylesheets referenced by every generated
// SVG and HTML document.
//
// Both documents link the same two files by relative name, so the
// stylesheets must be written next to the output (see [Write]) and the
// output served over HTTP; some browsers refuse cross-file stylesheet
// processing instructions when SVG files are opened from disk.
package assets

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
)

// Stylesheet file names linked from generated documents.
const (
	BaseStylesheet = "tilecache_base.css" // page layout and report typography
	Stylesheet     = "tilecache.css"      // one rule per invalidation style class
)

//go:embed static/*.css
var static embed.FS

// Names returns the stylesheet file names in link order.
func Names() []string {
	return []string{BaseStylesheet, Stylesheet}
}

// Read returns the contents of a bundled stylesheet.
func Read(name string) ([]byte, error) {
	data, err := static.ReadFile("static/" + name)
	if err != nil {
		return nil, fmt.Errorf("asset %s: %w", name, err)
	}
	return data, nil
}

// Write copies every bundled stylesheet into dir.
func Write(dir string) error {
	for _, name := range Names() {
		data, err := Read(name)
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}
	return nil
}
