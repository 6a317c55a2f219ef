package changes

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/sourcegraph/go-diff/diff"
)

const devNull = "/dev/null"

// FromUnifiedDiff builds a Set from a unified diff such as the output of
// `git diff base...tip`. Paths are joined onto root. Deleted files, binary
// files and hunks without additions contribute nothing.
func FromUnifiedDiff(r io.Reader, root string) (*Set, error) {
	files, err := diff.NewMultiFileDiffReader(r).ReadAllFiles()
	if err != nil {
		return nil, fmt.Errorf("parsing unified diff: %w", err)
	}

	set := New()
	for _, fd := range files {
		name := newPath(fd)
		if name == "" {
			continue
		}
		path := filepath.Join(root, filepath.FromSlash(name))
		for _, h := range fd.Hunks {
			for _, line := range addedLines(h) {
				set.Add(path, line)
			}
		}
	}
	return set, nil
}

// newPath returns the post-image path of fd, or "" for deletions.
func newPath(fd *diff.FileDiff) string {
	name := strings.TrimSpace(fd.NewName)
	if name == "" || name == devNull {
		return ""
	}
	return strings.TrimPrefix(name, "b/")
}

// addedLines walks a hunk body and returns the new-file numbers of its '+' lines.
func addedLines(h *diff.Hunk) []int {
	var out []int
	next := int(h.NewStartLine)
	body := bytes.TrimSuffix(h.Body, []byte("\n"))
	if len(body) == 0 {
		return nil
	}
	for _, line := range bytes.Split(body, []byte("\n")) {
		if len(line) == 0 {
			// context line whose leading space was stripped
			next++
			continue
		}
		switch line[0] {
		case '+':
			out = append(out, next)
			next++
		case '-', '\\':
		default:
			next++
		}
	}
	return out
}
