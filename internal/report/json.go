package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/accrava/lintdiff/internal/lint"
)

type jsonFile struct {
	Path     string         `json:"path"`
	Offenses []lint.Offense `json:"offenses"`
	Error    string         `json:"error,omitempty"`
}

type jsonSummary struct {
	OffenseCount       int `json:"offense_count"`
	TargetFileCount    int `json:"target_file_count"`
	InspectedFileCount int `json:"inspected_file_count"`
	FailedFileCount    int `json:"failed_file_count"`
}

type jsonDocument struct {
	Files   []jsonFile  `json:"files"`
	Summary jsonSummary `json:"summary"`
}

// JSON buffers every file and writes a single document at Finished.
type JSON struct {
	w    io.Writer
	opts Options
	doc  jsonDocument
}

// NewJSON returns a JSON formatter writing to w.
func NewJSON(w io.Writer, opts Options) *JSON {
	return &JSON{w: w, opts: opts, doc: jsonDocument{Files: []jsonFile{}}}
}

func (j *JSON) Started(paths []string) {
	j.doc.Summary.TargetFileCount = len(paths)
}

func (j *JSON) FileFinished(path string, offenses []lint.Offense) {
	rel := relPath(j.opts.Dir, path)
	out := make([]lint.Offense, len(offenses))
	for i, o := range offenses {
		o.Path = rel
		out[i] = o
	}
	j.doc.Files = append(j.doc.Files, jsonFile{Path: rel, Offenses: out})
	j.doc.Summary.OffenseCount += len(out)
	j.doc.Summary.InspectedFileCount++
}

func (j *JSON) FileFailed(path string, err error) {
	j.doc.Files = append(j.doc.Files, jsonFile{
		Path:     relPath(j.opts.Dir, path),
		Offenses: []lint.Offense{},
		Error:    err.Error(),
	})
	j.doc.Summary.FailedFileCount++
}

func (j *JSON) Finished([]string) error {
	enc := json.NewEncoder(j.w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(j.doc); err != nil {
		return fmt.Errorf("writing json report: %w", err)
	}
	return nil
}
