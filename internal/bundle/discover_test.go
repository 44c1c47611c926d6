package bundle

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotlnx-dev/dotlnx/internal/domain/entities"
)

func tierAt(dir string) entities.Tier {
	return entities.NewUserTier("alice", 1000, 1000, "/home/alice", dir)
}

func Test_Discover_FindsBundles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "beta.lnx"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "alpha.lnx"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "plaindir"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "file.lnx"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), nil, 0o644))

	found, err := Discover(tierAt(root))
	require.NoError(t, err)

	require.Len(t, found, 2)
	assert.Equal(t, "alpha.lnx", found[0].Name())
	assert.Equal(t, "beta.lnx", found[1].Name())
}

func Test_Discover_SortedByPath(t *testing.T) {
	root := t.TempDir()
	for _, n := range []string{"zz.lnx", "aa.lnx", "mm.lnx"} {
		require.NoError(t, os.MkdirAll(filepath.Join(root, n), 0o755))
	}

	found, err := Discover(tierAt(root))
	require.NoError(t, err)

	var names []string
	for _, b := range found {
		names = append(names, b.Name())
	}
	assert.Equal(t, []string{"aa.lnx", "mm.lnx", "zz.lnx"}, names)
}

func Test_Discover_FollowsSymlinkedBundle(t *testing.T) {
	target := filepath.Join(t.TempDir(), "real")
	require.NoError(t, os.MkdirAll(target, 0o755))

	root := t.TempDir()
	require.NoError(t, os.Symlink(target, filepath.Join(root, "linked.lnx")))

	found, err := Discover(tierAt(root))
	require.NoError(t, err)

	require.Len(t, found, 1)
	assert.Equal(t, "linked.lnx", found[0].Name())
}

func Test_Discover_IgnoresNestedBundles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "outer", "inner.lnx"), 0o755))

	found, err := Discover(tierAt(root))
	require.NoError(t, err)

	assert.Empty(t, found)
}

func Test_Discover_MissingRoot(t *testing.T) {
	found, err := Discover(tierAt(filepath.Join(t.TempDir(), "missing")))

	require.NoError(t, err)
	assert.Empty(t, found)
}

func Test_Discover_CarriesTier(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "app.lnx"), 0o755))
	tier := tierAt(root)

	found, err := Discover(tier)
	require.NoError(t, err)

	require.Len(t, found, 1)
	assert.Equal(t, tier, found[0].Tier)
}

func Test_IsBundle(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "app.lnx")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	file := filepath.Join(root, "file.lnx")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	assert.True(t, IsBundle(dir))
	assert.False(t, IsBundle(file))
	assert.False(t, IsBundle(filepath.Join(root, "plain")))
}

func Test_WatchRoots_IncludesTierRoots(t *testing.T) {
	tiers := []entities.Tier{tierAt("/srv/apps"), entities.NewSystemTier("")}

	roots := WatchRoots(tiers)

	assert.Contains(t, roots, "/srv/apps")
	assert.Contains(t, roots, "/Applications")
}
