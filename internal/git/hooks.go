package git

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// HooksDir returns the directory git runs hooks from. core.hooksPath wins,
// then the hooks directory of the common git dir, which linked worktrees
// and submodules reach through a .git file.
func (r *Repository) HooksDir() (string, error) {
	cfg, err := r.repo.Config()
	if err != nil {
		return "", fmt.Errorf("reading git config: %w", err)
	}
	if p := cfg.Raw.Section("core").Option("hooksPath"); p != "" {
		if !filepath.IsAbs(p) {
			p = filepath.Join(r.workdir, p)
		}
		return p, nil
	}
	return hooksDir(r.workdir)
}

func hooksDir(workdir string) (string, error) {
	dotGit := filepath.Join(workdir, ".git")
	fi, err := os.Stat(dotGit)
	if err != nil {
		return "", fmt.Errorf("locating git dir: %w", err)
	}
	if fi.IsDir() {
		return filepath.Join(dotGit, "hooks"), nil
	}

	gitDir, err := readGitPointer(dotGit, workdir)
	if err != nil {
		return "", err
	}
	common := gitDir
	b, err := os.ReadFile(filepath.Join(gitDir, "commondir"))
	switch {
	case err == nil:
		common = strings.TrimSpace(string(b))
		if !filepath.IsAbs(common) {
			common = filepath.Join(gitDir, common)
		}
	case !errors.Is(err, fs.ErrNotExist):
		return "", fmt.Errorf("reading commondir: %w", err)
	}
	return filepath.Join(filepath.Clean(common), "hooks"), nil
}

// readGitPointer parses a "gitdir: <path>" file. Relative paths are taken
// from dir.
func readGitPointer(path, dir string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	line := strings.TrimSpace(string(b))
	target, ok := strings.CutPrefix(line, "gitdir:")
	if !ok {
		return "", fmt.Errorf("%s: not a gitdir file", path)
	}
	target = strings.TrimSpace(target)
	if !filepath.IsAbs(target) {
		target = filepath.Join(dir, target)
	}
	return target, nil
}
