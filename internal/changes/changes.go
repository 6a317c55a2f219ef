// Package changes holds the per-file set of lines added between two revisions.
package changes

import "sort"

// LineSet is a set of 1-based line numbers.
type LineSet map[int]struct{}

// Has reports whether line is in the set.
func (s LineSet) Has(line int) bool {
	_, ok := s[line]
	return ok
}

// Sorted returns the lines in ascending order.
func (s LineSet) Sorted() []int {
	out := make([]int, 0, len(s))
	for l := range s {
		out = append(out, l)
	}
	sort.Ints(out)
	return out
}

// LineRange is an inclusive span of lines.
type LineRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Set maps file paths to the lines added in them. Paths keep the order they
// were first added in, which is the order the diff returned them.
//
// Entries only come into existence through Add, so every path has at least
// one line.
type Set struct {
	order []string
	lines map[string]LineSet
}

// New returns an empty Set.
func New() *Set {
	return &Set{lines: map[string]LineSet{}}
}

// Add records line as added in path.
func (s *Set) Add(path string, line int) {
	ls, ok := s.lines[path]
	if !ok {
		ls = LineSet{}
		s.lines[path] = ls
		s.order = append(s.order, path)
	}
	ls[line] = struct{}{}
}

// Paths returns the paths in insertion order.
func (s *Set) Paths() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Lines returns the added lines for path, or nil if the path has none.
func (s *Set) Lines(path string) LineSet {
	return s.lines[path]
}

// Contains reports whether line was added in path.
func (s *Set) Contains(path string, line int) bool {
	return s.lines[path].Has(line)
}

// Len returns the number of paths.
func (s *Set) Len() int {
	return len(s.order)
}

// Retain drops every path not in keep. Order of the survivors is unchanged.
func (s *Set) Retain(keep []string) {
	want := make(map[string]bool, len(keep))
	for _, p := range keep {
		want[p] = true
	}
	kept := s.order[:0]
	for _, p := range s.order {
		if want[p] {
			kept = append(kept, p)
			continue
		}
		delete(s.lines, p)
	}
	s.order = kept
}

// Ranges collapses the lines of path into contiguous spans.
func (s *Set) Ranges(path string) []LineRange {
	var out []LineRange
	for _, l := range s.lines[path].Sorted() {
		if n := len(out); n > 0 && out[n-1].End == l-1 {
			out[n-1].End = l
			continue
		}
		out = append(out, LineRange{Start: l, End: l})
	}
	return out
}
