package upload

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) (*LocalStore, string, string) {
	t.Helper()
	storageDir := filepath.Join(t.TempDir(), "storage")
	tempDir := filepath.Join(t.TempDir(), "tmp")
	validator := NewValidator(testConfig())
	store := NewLocalStore(storageDir, tempDir, validator, NewScanner(nil), true)
	return store, storageDir, tempDir
}

func dirEntries(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestSave_PromotesValidFile(t *testing.T) {
	store, storageDir, tempDir := testStore(t)
	content := append(append([]byte{}, jpegHeader...), []byte("pixels")...)

	stored, err := store.Save(bytes.NewReader(content), FileInfo{
		Name:     "holiday photo.jpg",
		Size:     int64(len(content)),
		MimeType: "image/jpeg",
	})
	require.NoError(t, err)

	assert.Equal(t, "holiday photo.jpg", stored.FileName)
	assert.Equal(t, int64(len(content)), stored.FileSize)
	assert.Equal(t, "image/jpeg", stored.MimeType)
	// The on-disk name is generated, only the extension survives.
	assert.True(t, strings.HasSuffix(stored.FilePath, ".jpg"))
	assert.NotContains(t, stored.FilePath, "holiday")

	onDisk, err := os.ReadFile(filepath.Join(storageDir, stored.FilePath))
	require.NoError(t, err)
	assert.Equal(t, content, onDisk)

	assert.Empty(t, dirEntries(t, tempDir), "temp file must be promoted, not copied")
}

func TestSave_RejectedScanLeavesNothingBehind(t *testing.T) {
	store, storageDir, tempDir := testStore(t)
	content := []byte("#!/bin/sh\necho pwned\n")

	_, err := store.Save(bytes.NewReader(content), FileInfo{
		Name:     "photo.jpg",
		Size:     int64(len(content)),
		MimeType: "image/jpeg",
	})
	scanErr := &ScanError{}
	require.ErrorAs(t, err, &scanErr)
	assert.Equal(t, ThreatSignatureMismatch, scanErr.Threat)

	assert.Empty(t, dirEntries(t, storageDir))
	assert.Empty(t, dirEntries(t, tempDir))
}

func TestSave_RejectsInvalidMetadataBeforeWriting(t *testing.T) {
	store, storageDir, tempDir := testStore(t)

	_, err := store.Save(bytes.NewReader([]byte("x")), FileInfo{
		Name:     "evil.php",
		Size:     1,
		MimeType: "image/jpeg",
	})
	validationErr := &ValidationError{}
	require.ErrorAs(t, err, &validationErr)

	assert.Empty(t, dirEntries(t, storageDir))
	assert.Empty(t, dirEntries(t, tempDir))
}

func TestSave_RejectsStreamLargerThanDeclared(t *testing.T) {
	storageDir := filepath.Join(t.TempDir(), "storage")
	tempDir := filepath.Join(t.TempDir(), "tmp")
	validator := NewValidator(Config{MaxFileSize: 16, AllowedMimeTypes: []string{"text/plain"}})
	store := NewLocalStore(storageDir, tempDir, validator, NewScanner(nil), true)

	// Declared size sneaks under the limit, actual bytes do not.
	_, err := store.Save(bytes.NewReader(bytes.Repeat([]byte("a"), 64)), FileInfo{
		Name:     "notes.txt",
		Size:     10,
		MimeType: "text/plain",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeds the maximum allowed size")
	assert.Empty(t, dirEntries(t, tempDir))
}

func TestScanDisabledSkipsScanner(t *testing.T) {
	storageDir := filepath.Join(t.TempDir(), "storage")
	tempDir := filepath.Join(t.TempDir(), "tmp")
	validator := NewValidator(testConfig())
	store := NewLocalStore(storageDir, tempDir, validator, NewScanner(nil), false)

	content := []byte("not a real jpeg")
	stored, err := store.Save(bytes.NewReader(content), FileInfo{
		Name:     "photo.jpg",
		Size:     int64(len(content)),
		MimeType: "image/jpeg",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, stored.FilePath)
}

func TestResolve_RejectsTraversalAndMissing(t *testing.T) {
	store, storageDir, _ := testStore(t)
	require.NoError(t, os.MkdirAll(storageDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(storageDir, "real.txt"), []byte("data"), 0o644))

	resolved, err := store.Resolve("real.txt")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(storageDir, "real.txt"), resolved)

	_, err = store.Resolve("../outside.txt")
	assert.Error(t, err)

	_, err = store.Resolve("missing.txt")
	assert.Error(t, err)

	// Directories are not servable.
	require.NoError(t, os.MkdirAll(filepath.Join(storageDir, "subdir"), 0o755))
	_, err = store.Resolve("subdir")
	assert.Error(t, err)
}

func TestRemove_IgnoresMissingFiles(t *testing.T) {
	store, storageDir, _ := testStore(t)
	require.NoError(t, os.MkdirAll(storageDir, 0o755))

	assert.NoError(t, store.Remove("never-existed.jpg"))

	require.NoError(t, os.WriteFile(filepath.Join(storageDir, "gone.txt"), []byte("x"), 0o644))
	assert.NoError(t, store.Remove("gone.txt"))
	_, err := os.Stat(filepath.Join(storageDir, "gone.txt"))
	assert.True(t, os.IsNotExist(err))
}
