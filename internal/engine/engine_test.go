package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accrava/lintdiff/internal/changes"
	"github.com/accrava/lintdiff/internal/ignore"
	"github.com/accrava/lintdiff/internal/lint"
)

type fakeLinter struct {
	excluded  map[string]bool
	offenses  map[string][]lint.Offense
	failing   map[string]error
	targetErr error
	inspected []string
	onInspect func(path string)
}

func (f *fakeLinter) TargetFiles(_ context.Context, paths []string) ([]string, error) {
	if f.targetErr != nil {
		return nil, f.targetErr
	}
	var out []string
	for _, p := range paths {
		if !f.excluded[p] {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeLinter) FileOffenses(_ context.Context, path string) ([]lint.Offense, error) {
	f.inspected = append(f.inspected, path)
	if f.onInspect != nil {
		f.onInspect(path)
	}
	if err := f.failing[path]; err != nil {
		return nil, err
	}
	return f.offenses[path], nil
}

// recorder captures formatter events as strings.
type recorder struct {
	events    []string
	finishErr error
}

func (r *recorder) Started(paths []string) {
	r.events = append(r.events, fmt.Sprintf("started %v", paths))
}

func (r *recorder) FileFinished(path string, offenses []lint.Offense) {
	lines := make([]int, len(offenses))
	for i, o := range offenses {
		lines[i] = o.Line
	}
	r.events = append(r.events, fmt.Sprintf("finished %s %v", path, lines))
}

func (r *recorder) FileFailed(path string, err error) {
	r.events = append(r.events, "failed "+path)
}

func (r *recorder) Finished(paths []string) error {
	r.events = append(r.events, fmt.Sprintf("done %d", len(paths)))
	return r.finishErr
}

func offense(path string, line int) lint.Offense {
	return lint.Offense{Path: path, Line: line, Column: 1, Cop: "Style/Test", Severity: lint.SeverityConvention, Message: "m"}
}

func setOf(entries map[string][]int, order ...string) *changes.Set {
	s := changes.New()
	for _, p := range order {
		for _, l := range entries[p] {
			s.Add(p, l)
		}
	}
	return s
}

func TestRun_OnlyAddedLinesReported(t *testing.T) {
	set := setOf(map[string][]int{"/r/foo.rb": {10, 11, 12}}, "/r/foo.rb")
	l := &fakeLinter{offenses: map[string][]lint.Offense{
		"/r/foo.rb": {offense("/r/foo.rb", 11), offense("/r/foo.rb", 50)},
	}}
	rec := &recorder{}

	res, err := Run(context.Background(), Input{Changes: set, Linter: l, Formatter: rec})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, 1, res.Offenses)
	require.Len(t, res.Files, 1)
	assert.Equal(t, 2, res.Files[0].Reported)
	assert.Equal(t, []string{"started [/r/foo.rb]", "finished /r/foo.rb [11]", "done 1"}, rec.events)
}

func TestRun_OffensesOnUntouchedLinesPass(t *testing.T) {
	set := setOf(map[string][]int{"/r/foo.rb": {3}}, "/r/foo.rb")
	l := &fakeLinter{offenses: map[string][]lint.Offense{
		"/r/foo.rb": {offense("/r/foo.rb", 1), offense("/r/foo.rb", 4)},
	}}
	res, err := Run(context.Background(), Input{Changes: set, Linter: l})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Zero(t, res.Offenses)
}

func TestRun_ExcludedFilesNeverInspected(t *testing.T) {
	set := setOf(map[string][]int{
		"/r/README.md":    {1},
		"/r/app.rb":       {2},
		"/r/db/schema.rb": {5},
	}, "/r/README.md", "/r/app.rb", "/r/db/schema.rb")
	l := &fakeLinter{excluded: map[string]bool{"/r/README.md": true, "/r/db/schema.rb": true}}
	rec := &recorder{}

	res, err := Run(context.Background(), Input{Changes: set, Linter: l, Formatter: rec})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 3, res.Changed)
	assert.Equal(t, []string{"/r/app.rb"}, l.inspected)
	assert.Equal(t, []string{"/r/app.rb"}, set.Paths())
	assert.Equal(t, "started [/r/app.rb]", rec.events[0])
}

func TestRun_IgnoreFileDropsPaths(t *testing.T) {
	set := setOf(map[string][]int{"/r/vendor/x.rb": {1}, "/r/app.rb": {1}}, "/r/vendor/x.rb", "/r/app.rb")
	l := &fakeLinter{offenses: map[string][]lint.Offense{"/r/vendor/x.rb": {offense("/r/vendor/x.rb", 1)}}}

	res, err := Run(context.Background(), Input{
		Changes: set,
		Ignore:  ignore.Parse("/r", []byte("vendor/\n")),
		Linter:  l,
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, []string{"/r/app.rb"}, l.inspected)
}

func TestRun_InsertionOrderAndSuccessNeverResets(t *testing.T) {
	order := []string{"/r/c.rb", "/r/a.rb", "/r/b.rb"}
	set := setOf(map[string][]int{"/r/c.rb": {1}, "/r/a.rb": {1}, "/r/b.rb": {1}}, order...)
	l := &fakeLinter{offenses: map[string][]lint.Offense{"/r/a.rb": {offense("/r/a.rb", 1)}}}

	res, err := Run(context.Background(), Input{Changes: set, Linter: l})
	require.NoError(t, err)
	assert.Equal(t, order, l.inspected)
	assert.False(t, res.Success, "clean file after a failing one must not reset success")
}

func TestRun_SuccessIffNoFilteredOffenses(t *testing.T) {
	cases := []struct {
		name    string
		lines   []int
		found   []int
		success bool
	}{
		{"nothing found", []int{1, 2}, nil, true},
		{"all outside", []int{1, 2}, []int{3, 9}, true},
		{"one inside", []int{1, 2}, []int{2, 9}, false},
		{"all inside", []int{5}, []int{5, 5}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			set := setOf(map[string][]int{"/r/x.rb": tc.lines}, "/r/x.rb")
			var reported []lint.Offense
			for _, l := range tc.found {
				reported = append(reported, offense("/r/x.rb", l))
			}
			l := &fakeLinter{offenses: map[string][]lint.Offense{"/r/x.rb": reported}}
			res, err := Run(context.Background(), Input{Changes: set, Linter: l})
			require.NoError(t, err)
			assert.Equal(t, tc.success, res.Success)
			assert.Equal(t, tc.success, res.Offenses == 0)
		})
	}
}

func TestRun_FileFailureContinues(t *testing.T) {
	set := setOf(map[string][]int{"/r/a.rb": {1}, "/r/b.rb": {1}}, "/r/a.rb", "/r/b.rb")
	lerr := &lint.LinterError{Linter: "rubocop", Path: "/r/a.rb", Err: lint.ErrLinterFailed}
	l := &fakeLinter{failing: map[string]error{"/r/a.rb": lerr}}
	rec := &recorder{}

	res, err := Run(context.Background(), Input{Changes: set, Linter: l, Formatter: rec})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 1, res.Failed)
	assert.ErrorIs(t, res.Files[0].Err, lint.ErrLinterFailed)
	assert.Equal(t, []string{"started [/r/a.rb /r/b.rb]", "failed /r/a.rb", "finished /r/b.rb []", "done 2"}, rec.events)
}

func TestRun_TargetFilesError(t *testing.T) {
	set := setOf(map[string][]int{"/r/a.rb": {1}}, "/r/a.rb")
	_, err := Run(context.Background(), Input{Changes: set, Linter: &fakeLinter{targetErr: lint.ErrLinterNotInstalled}})
	require.ErrorIs(t, err, lint.ErrLinterNotInstalled)
}

func TestRun_CancelStopsBetweenFiles(t *testing.T) {
	set := setOf(map[string][]int{"/r/a.rb": {1}, "/r/b.rb": {1}}, "/r/a.rb", "/r/b.rb")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	l := &fakeLinter{onInspect: func(string) { cancel() }}

	_, err := Run(ctx, Input{Changes: set, Linter: l})
	require.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, []string{"/r/a.rb"}, l.inspected)
}

func TestRun_EmptyChangeSet(t *testing.T) {
	rec := &recorder{}
	res, err := Run(context.Background(), Input{Changes: changes.New(), Linter: &fakeLinter{}, Formatter: rec})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, []string{"started []", "done 0"}, rec.events)
}

func TestRun_ReportWriteErrorIsReturned(t *testing.T) {
	set := setOf(map[string][]int{"/r/a.rb": {1}}, "/r/a.rb")
	rec := &recorder{finishErr: errors.New("broken pipe")}

	_, err := Run(context.Background(), Input{Changes: set, Linter: &fakeLinter{}, Formatter: rec})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "writing report: broken pipe")
}
