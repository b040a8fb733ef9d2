// ABOUTME: Card file naming: "<numericId>-<slug>.md", with the id recoverable from the name alone.
// ABOUTME: Legacy files without a numeric prefix use their whole base name as the id.
package codec

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/2389-research/kanbanfs/board/core"
)

// Extension is the file extension of card files.
const Extension = ".md"

var numericPrefix = regexp.MustCompile(`^(\d+)-`)

// IDFromFilename derives a card id from its file name.
func IDFromFilename(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), Extension)
	if m := numericPrefix.FindStringSubmatch(base); m != nil {
		return m[1]
	}
	return base
}

// FileName returns the canonical file name for a card id and title.
func FileName(id, title string) string {
	return id + "-" + core.Slugify(title) + Extension
}

// IsCardFile reports whether name looks like a card file.
func IsCardFile(name string) bool {
	return strings.HasSuffix(name, Extension) && !strings.HasPrefix(name, ".")
}
