package lint

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/mod/semver"
)

// MinRuboCopVersion is the oldest RuboCop release whose JSON formatter and
// --list-target-files behaviour lintdiff relies on.
const MinRuboCopVersion = "1.0.0"

// Command is an executable plus the arguments that precede linter flags,
// e.g. {"bundle", ["exec", "rubocop"]}.
type Command struct {
	Path string
	Args []string
}

func (c Command) String() string {
	return strings.Join(append([]string{c.Path}, c.Args...), " ")
}

func (c Command) with(args ...string) []string {
	out := make([]string, 0, len(c.Args)+len(args))
	out = append(out, c.Args...)
	return append(out, args...)
}

// BinaryManager locates the RuboCop executable for a working directory.
type BinaryManager struct {
	custom  string
	workdir string
}

// NewBinaryManager returns a manager. custom may be empty, a path, or a
// command line such as "bundle exec rubocop".
func NewBinaryManager(custom, workdir string) *BinaryManager {
	return &BinaryManager{custom: strings.TrimSpace(custom), workdir: workdir}
}

// Find locates RuboCop. Search order:
//  1. the custom command, if configured
//  2. bin/rubocop binstub in the working directory
//  3. bundle exec rubocop, when the Gemfile.lock bundles rubocop
//  4. rubocop on $PATH
func (bm *BinaryManager) Find() (Command, error) {
	if bm.custom != "" {
		fields := strings.Fields(bm.custom)
		path, err := lookPath(fields[0])
		if err != nil {
			return Command{}, fmt.Errorf("%w: %s", ErrLinterNotInstalled, fields[0])
		}
		return Command{Path: path, Args: fields[1:]}, nil
	}

	binstub := filepath.Join(bm.workdir, "bin", "rubocop")
	if st, err := os.Stat(binstub); err == nil && !st.IsDir() && st.Mode()&0o111 != 0 {
		return Command{Path: binstub}, nil
	}

	if bundled(filepath.Join(bm.workdir, "Gemfile.lock")) {
		if path, err := lookPath("bundle"); err == nil {
			return Command{Path: path, Args: []string{"exec", "rubocop"}}, nil
		}
	}

	if path, err := lookPath("rubocop"); err == nil {
		return Command{Path: path}, nil
	}
	return Command{}, fmt.Errorf("%w: rubocop (searched %s, Gemfile.lock, $PATH)", ErrLinterNotInstalled, binstub)
}

var versionRe = regexp.MustCompile(`\d+\.\d+(\.\d+)?`)

// Version runs `rubocop --version` and returns the first version number it prints.
func (bm *BinaryManager) Version(ctx context.Context, cmd Command) (string, error) {
	res, err := runCommand(ctx, bm.workdir, cmd.Path, cmd.with("--version")...)
	if err != nil || res.ExitCode != 0 {
		return "", &LinterError{Linter: cmd.String(), Err: ErrLinterFailed, Output: strings.TrimSpace(string(res.Stderr))}
	}
	sc := bufio.NewScanner(strings.NewReader(string(res.Stdout)))
	for sc.Scan() {
		if v := versionRe.FindString(sc.Text()); v != "" {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: no version in %q", ErrParseOutput, strings.TrimSpace(string(res.Stdout)))
}

// Check returns an error wrapping ErrVersionTooOld if cmd is older than minimum.
func (bm *BinaryManager) Check(ctx context.Context, cmd Command, minimum string) (string, error) {
	v, err := bm.Version(ctx, cmd)
	if err != nil {
		return "", err
	}
	if VersionLess(v, minimum) {
		return v, fmt.Errorf("%w: %s reports %s, need %s or newer", ErrVersionTooOld, cmd, v, minimum)
	}
	return v, nil
}

// VersionLess reports whether a < b for dotted numeric versions.
func VersionLess(a, b string) bool {
	return semver.Compare(canonical(a), canonical(b)) < 0
}

func canonical(v string) string {
	v = strings.TrimPrefix(strings.TrimSpace(v), "v")
	return "v" + v
}

// bundled reports whether a Gemfile.lock lists rubocop as a gem.
func bundled(lockfile string) bool {
	f, err := os.Open(lockfile)
	if err != nil {
		return false
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if strings.HasPrefix(strings.TrimSpace(sc.Text()), "rubocop (") {
			return true
		}
	}
	return false
}
