package audit

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/accrava/lintdiff/internal/changes"
	"github.com/accrava/lintdiff/internal/engine"
)

// RunRecord is one line of the run log.
type RunRecord struct {
	Timestamp    time.Time        `json:"timestamp"`
	RunID        string           `json:"run_id"`
	Repo         string           `json:"repo"`
	Base         string           `json:"base"`
	Tip          string           `json:"tip"`
	BaseCommit   string           `json:"base_commit,omitempty"`
	TipCommit    string           `json:"tip_commit,omitempty"`
	FilesChanged int              `json:"files_changed"`
	FilesLinted  int              `json:"files_linted"`
	Offenses     int              `json:"offenses"`
	Failed       int              `json:"failed"`
	Success      bool             `json:"success"`
	Duration     string           `json:"duration"`
	TopOffenses  []OffenseSummary `json:"top_offenses,omitempty"`
	Changed      []FileRanges     `json:"changed,omitempty"`
}

// OffenseSummary is the short form of an offense kept in the log.
type OffenseSummary struct {
	Path     string `json:"path"`
	Line     int    `json:"line"`
	Cop      string `json:"cop"`
	Severity string `json:"severity"`
}

// FileRanges lists the added line ranges of one linted file.
type FileRanges struct {
	Path   string              `json:"path"`
	Ranges []changes.LineRange `json:"ranges"`
}

// RunLog appends run records to a JSON Lines file.
type RunLog struct {
	logPath string
}

func NewRunLog(path string) *RunLog {
	return &RunLog{logPath: path}
}

// LoadHistory returns the recorded runs, newest first. A missing log is an
// empty history.
func (a *RunLog) LoadHistory() ([]RunRecord, error) {
	f, err := os.Open(a.logPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open run log: %w", err)
	}
	defer f.Close()

	var records []RunRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var record RunRecord
		if err := json.Unmarshal(line, &record); err != nil {
			continue
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read run log: %w", err)
	}

	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}

// Append writes record as one line, assigning a RunID if it has none.
func (a *RunLog) Append(record RunRecord) error {
	if record.RunID == "" {
		record.RunID = uuid.NewString()
	}

	f, err := os.OpenFile(a.logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open run log: %w", err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(record); err != nil {
		return fmt.Errorf("failed to write run record: %w", err)
	}
	return nil
}

// Revisions identifies the compared range.
type Revisions struct {
	Repo       string
	Base       string
	Tip        string
	BaseCommit string
	TipCommit  string
}

// NewRunRecord summarises an engine result. set is the change set after
// target filtering, so its paths are the linted files.
func NewRunRecord(rev Revisions, set *changes.Set, res engine.Result) RunRecord {
	top := make([]OffenseSummary, 0, 10)
	for _, f := range res.Files {
		for _, o := range f.Offenses {
			if len(top) == 10 {
				break
			}
			top = append(top, OffenseSummary{Path: o.Path, Line: o.Line, Cop: o.Cop, Severity: o.Severity.String()})
		}
	}

	var ranges []FileRanges
	if set != nil {
		for _, p := range set.Paths() {
			ranges = append(ranges, FileRanges{Path: p, Ranges: set.Ranges(p)})
		}
	}

	return RunRecord{
		Timestamp:    time.Now().UTC(),
		RunID:        uuid.NewString(),
		Repo:         rev.Repo,
		Base:         rev.Base,
		Tip:          rev.Tip,
		BaseCommit:   rev.BaseCommit,
		TipCommit:    rev.TipCommit,
		FilesChanged: res.Changed,
		FilesLinted:  len(res.Files),
		Offenses:     res.Offenses,
		Failed:       res.Failed,
		Success:      res.Success,
		Duration:     res.Duration.String(),
		TopOffenses:  top,
		Changed:      ranges,
	}
}
