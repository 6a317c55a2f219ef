package git

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHooksDir_DotGitDirectory(t *testing.T) {
	f := newFixture(t)
	f.write("a.rb", "x\n")
	f.commit("init")

	got, err := f.open().HooksDir()
	require.NoError(t, err)
	assert.Equal(t, evalParent(t, filepath.Join(f.dir, ".git", "hooks")), evalParent(t, got))
}

func TestHooksDir_CoreHooksPath(t *testing.T) {
	f := newFixture(t)
	f.write("a.rb", "x\n")
	f.commit("init")

	cfg, err := f.repo.Config()
	require.NoError(t, err)
	cfg.Raw.Section("core").SetOption("hooksPath", ".githooks")
	require.NoError(t, f.repo.SetConfig(cfg))

	got, err := f.open().HooksDir()
	require.NoError(t, err)
	assert.Equal(t, evalParent(t, filepath.Join(f.dir, ".githooks")), evalParent(t, got))
}

func TestHooksDir_LinkedWorktree(t *testing.T) {
	primary := t.TempDir()
	admin := filepath.Join(primary, ".git", "worktrees", "feature")
	require.NoError(t, os.MkdirAll(admin, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(admin, "commondir"), []byte("../..\n"), 0o644))

	wt := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(wt, ".git"), []byte("gitdir: "+admin+"\n"), 0o644))

	got, err := hooksDir(wt)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(primary, ".git", "hooks"), got)
}

func TestHooksDir_GitFileWithoutCommondir(t *testing.T) {
	root := t.TempDir()
	modules := filepath.Join(root, ".git", "modules", "vendor")
	require.NoError(t, os.MkdirAll(modules, 0o755))
	sub := filepath.Join(root, "vendor")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(sub, ".git"), []byte("gitdir: ../.git/modules/vendor\n"), 0o644))

	got, err := hooksDir(sub)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(modules, "hooks"), got)
}

func TestHooksDir_MalformedGitFile(t *testing.T) {
	wt := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(wt, ".git"), []byte("nonsense\n"), 0o644))

	_, err := hooksDir(wt)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a gitdir file")
}

// evalParent resolves symlinks in the parent of p, which may not exist yet.
func evalParent(t *testing.T, p string) string {
	t.Helper()
	dir, err := filepath.EvalSymlinks(filepath.Dir(p))
	require.NoError(t, err)
	return filepath.Join(dir, filepath.Base(p))
}
