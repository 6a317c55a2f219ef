package changes

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSet_AddKeepsInsertionOrder(t *testing.T) {
	s := New()
	s.Add("b.rb", 3)
	s.Add("a.rb", 1)
	s.Add("b.rb", 4)

	assert.Equal(t, []string{"b.rb", "a.rb"}, s.Paths())
	assert.Equal(t, 2, s.Len())
	assert.True(t, s.Contains("b.rb", 4))
	assert.False(t, s.Contains("a.rb", 4))
	assert.False(t, s.Contains("missing.rb", 1))
}

func TestSet_RetainDropsOthers(t *testing.T) {
	s := New()
	s.Add("a.rb", 1)
	s.Add("b.rb", 1)
	s.Add("c.rb", 1)

	s.Retain([]string{"c.rb", "a.rb"})

	assert.Equal(t, []string{"a.rb", "c.rb"}, s.Paths())
	assert.Nil(t, s.Lines("b.rb"))
}

func TestSet_Ranges(t *testing.T) {
	s := New()
	for _, l := range []int{12, 10, 11, 20, 22, 21, 40} {
		s.Add("foo.rb", l)
	}
	assert.Equal(t, []LineRange{{10, 12}, {20, 22}, {40, 40}}, s.Ranges("foo.rb"))
}

func TestSet_NoEmptyEntries(t *testing.T) {
	s := New()
	s.Add("a.rb", 5)
	for _, p := range s.Paths() {
		require.NotEmpty(t, s.Lines(p), "path %s has empty line set", p)
	}
}

func TestFromUnifiedDiff_AdditionsOnly(t *testing.T) {
	patch := strings.Join([]string{
		"diff --git a/foo.rb b/foo.rb",
		"index 111..222 100644",
		"--- a/foo.rb",
		"+++ b/foo.rb",
		"@@ -8,3 +8,5 @@ class Foo",
		" def a",
		"-  old",
		"+  new_one",
		"+  new_two",
		"+  new_three",
		" end",
		"",
	}, "\n")

	set, err := FromUnifiedDiff(strings.NewReader(patch), "/repo")
	require.NoError(t, err)

	path := filepath.Join("/repo", "foo.rb")
	require.Equal(t, []string{path}, set.Paths())
	assert.Equal(t, []int{9, 10, 11}, set.Lines(path).Sorted())
	assert.False(t, set.Contains(path, 8), "context line must not count")
}

func TestFromUnifiedDiff_SkipsDeletionsAndRenames(t *testing.T) {
	patch := strings.Join([]string{
		"diff --git a/gone.rb b/gone.rb",
		"deleted file mode 100644",
		"index 111..000",
		"--- a/gone.rb",
		"+++ /dev/null",
		"@@ -1,2 +0,0 @@",
		"-one",
		"-two",
		"diff --git a/a.rb b/b.rb",
		"similarity index 100%",
		"rename from a.rb",
		"rename to b.rb",
		"diff --git a/c.rb b/c.rb",
		"index 333..444 100644",
		"--- a/c.rb",
		"+++ b/c.rb",
		"@@ -1,3 +1,2 @@",
		" keep",
		"-drop",
		" keep",
		"",
	}, "\n")

	set, err := FromUnifiedDiff(strings.NewReader(patch), "/repo")
	require.NoError(t, err)
	assert.Zero(t, set.Len())
}

func TestFromUnifiedDiff_Binary(t *testing.T) {
	patch := strings.Join([]string{
		"diff --git a/logo.png b/logo.png",
		"index 111..222 100644",
		"Binary files a/logo.png and b/logo.png differ",
		"",
	}, "\n")

	set, err := FromUnifiedDiff(strings.NewReader(patch), "/repo")
	require.NoError(t, err)
	assert.Zero(t, set.Len())
}
