package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFindRepoRoot_DirectGitDir(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}

	got := findRepoRoot(root)
	assert.Equal(t, root, got)
}

func TestFindRepoRoot_NestedSubdirectory(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}
	deep := filepath.Join(root, "sub", "deep")
	if err := os.MkdirAll(deep, 0o755); err != nil {
		t.Fatal(err)
	}

	got := findRepoRoot(deep)
	assert.Equal(t, root, got)
}

func TestFindRepoRoot_NoGitAncestor(t *testing.T) {
	t.Parallel()
	// TempDir has no .git directory anywhere in its ancestry
	// (unless /tmp itself is a repo, which would be unusual).
	dir := t.TempDir()

	got := findRepoRoot(dir)
	assert.Equal(t, dir, got)
}

func TestResolveDBPath_DefaultsUnderRepoRoot(t *testing.T) {
	flagDB = ""
	root := "/repo"
	assert.Equal(t, filepath.Join(root, ".ariadne", "index.db"), resolveDBPath(root))
}

func TestResolveDBPath_RelativeFlagJoinedToRoot(t *testing.T) {
	flagDB = "custom.db"
	defer func() { flagDB = "" }()
	root := "/repo"
	assert.Equal(t, filepath.Join(root, "custom.db"), resolveDBPath(root))
}

func TestResolveDBPath_AbsoluteFlagUsedAsIs(t *testing.T) {
	flagDB = "/elsewhere/index.db"
	defer func() { flagDB = "" }()
	assert.Equal(t, "/elsewhere/index.db", resolveDBPath("/repo"))
}

func TestValidateFormat_AcceptsJSONAndText(t *testing.T) {
	t.Parallel()
	assert.NoError(t, validateFormat("json"))
	assert.NoError(t, validateFormat("text"))
}

func TestValidateFormat_RejectsUnknownFormat(t *testing.T) {
	t.Parallel()
	assert.Error(t, validateFormat("yaml"))
}
