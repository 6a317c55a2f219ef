// Package ignore reads .lintdiffignore, a gitignore-syntax list of paths whose
// changes are never linted.
package ignore

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// FileName is the ignore file looked up in the working directory root.
const FileName = ".lintdiffignore"

// Matcher matches paths under root against gitignore patterns.
type Matcher struct {
	root string
	m    gitignore.Matcher
	n    int
}

// Load reads root/.lintdiffignore. A missing file yields a matcher that
// matches nothing.
func Load(root string) (*Matcher, error) {
	data, err := os.ReadFile(filepath.Join(root, FileName))
	if errors.Is(err, fs.ErrNotExist) {
		return Parse(root, nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", FileName, err)
	}
	return Parse(root, data), nil
}

// Parse builds a matcher from ignore file contents.
func Parse(root string, data []byte) *Matcher {
	var ps []gitignore.Pattern
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ps = append(ps, gitignore.ParsePattern(line, nil))
	}
	return &Matcher{root: root, m: gitignore.NewMatcher(ps), n: len(ps)}
}

// Len returns the number of patterns.
func (m *Matcher) Len() int {
	if m == nil {
		return 0
	}
	return m.n
}

// Match reports whether path is ignored. Absolute paths are made relative to
// the root first; paths outside the root never match.
func (m *Matcher) Match(path string) bool {
	if m == nil || m.n == 0 {
		return false
	}
	rel := path
	if filepath.IsAbs(path) {
		r, err := filepath.Rel(m.root, path)
		if err != nil || strings.HasPrefix(r, "..") {
			return false
		}
		rel = r
	}
	return m.m.Match(strings.Split(filepath.ToSlash(rel), "/"), false)
}

// Filter returns the paths that are not ignored, in order.
func (m *Matcher) Filter(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if !m.Match(p) {
			out = append(out, p)
		}
	}
	return out
}
