// Package lint adapts an external linter to lintdiff.
//
// The Linter interface is the only surface the rest of lintdiff sees. It
// answers two questions: which of these files would the linter inspect, and
// what does it report for one file. RuboCop implements it by running the
// rubocop executable, so the include/exclude rules and file-type detection
// are always RuboCop's own.
//
//	l := lint.NewRuboCop(cmd, lint.WithWorkdir(root), lint.WithConfigFile(cfg))
//	targets, err := l.TargetFiles(ctx, paths)
//	offenses, err := l.FileOffenses(ctx, targets[0])
//
// The minimum supported RuboCop release is MinRuboCopVersion; older binaries
// are rejected by BinaryManager.
package lint
