package git

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	fdiff "github.com/go-git/go-git/v5/plumbing/format/diff"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/accrava/lintdiff/internal/changes"
)

// ChangedLines diffs base against tip with rename detection and returns the
// new-file line numbers of every added line, keyed by absolute path under the
// working directory.
//
// Deleted files, binary files and renames without edits produce no entry.
func (r *Repository) ChangedLines(ctx context.Context, base, tip *object.Commit) (*changes.Set, error) {
	baseTree, err := base.Tree()
	if err != nil {
		return nil, fmt.Errorf("reading tree of %s: %w", short(base.Hash), err)
	}
	tipTree, err := tip.Tree()
	if err != nil {
		return nil, fmt.Errorf("reading tree of %s: %w", short(tip.Hash), err)
	}

	opts := *object.DefaultDiffTreeOptions
	opts.DetectRenames = true
	diffs, err := object.DiffTreeWithOptions(ctx, baseTree, tipTree, &opts)
	if err != nil {
		return nil, fmt.Errorf("diffing %s..%s: %w", short(base.Hash), short(tip.Hash), err)
	}

	patch, err := diffs.PatchContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("building patch: %w", err)
	}

	set := changes.New()
	for _, fp := range patch.FilePatches() {
		if fp.IsBinary() {
			continue
		}
		_, to := fp.Files()
		if to == nil {
			continue
		}
		path := filepath.Join(r.workdir, filepath.FromSlash(to.Path()))
		for _, line := range addedLines(fp.Chunks()) {
			set.Add(path, line)
		}
	}
	return set, nil
}

// addedLines walks the chunks of a file patch. go-git chunks cover the whole
// file, so counting Equal and Add lines yields new-file line numbers directly.
func addedLines(chunks []fdiff.Chunk) []int {
	var out []int
	next := 1
	for _, c := range chunks {
		n := lineCount(c.Content())
		switch c.Type() {
		case fdiff.Add:
			for i := 0; i < n; i++ {
				out = append(out, next+i)
			}
			next += n
		case fdiff.Equal:
			next += n
		}
	}
	return out
}

func lineCount(s string) int {
	if s == "" {
		return 0
	}
	n := strings.Count(s, "\n")
	if !strings.HasSuffix(s, "\n") {
		n++
	}
	return n
}
