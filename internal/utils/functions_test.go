package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHeaderArgs(t *testing.T) {
	headers := ParseHeaderArgs([]string{
		"Authorization: Bearer abc123",
		"X-Custom:value",
		"malformed-no-colon",
		"Spaced :  padded value ",
	})
	assert.Equal(t, "Bearer abc123", headers["Authorization"])
	assert.Equal(t, "value", headers["X-Custom"])
	assert.Equal(t, "padded value", headers["Spaced"])
	assert.Len(t, headers, 3)
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", FormatBytes(512))
	assert.Equal(t, "1.00 KB", FormatBytes(1024))
	assert.Equal(t, "1.50 MB", FormatBytes(1024*1024+512*1024))
	assert.Equal(t, "2.00 GB", FormatBytes(2*1024*1024*1024))
}

func TestFormatSpeed(t *testing.T) {
	assert.Equal(t, "0 B/s", FormatSpeed(1000, 0))
	assert.Equal(t, "1.00 KB/s", FormatSpeed(2048, 2))
}

func TestRenewOutputPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mod.zip")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

	renewed := RenewOutputPath(path)
	assert.Equal(t, filepath.Join(dir, "mod-(1).zip"), renewed)

	require.NoError(t, os.WriteFile(renewed, []byte("x"), 0644))
	assert.Equal(t, filepath.Join(dir, "mod-(2).zip"), RenewOutputPath(path))
}

func TestReadDownloadList(t *testing.T) {
	dir := t.TempDir()
	listPath := filepath.Join(dir, "list.yaml")
	content := `
- link: https://example.com/a.zip
  op: a.zip
- link: s3://bucket/b.zip
  op: b.zip
  type: s3
`
	require.NoError(t, os.WriteFile(listPath, []byte(content), 0644))

	entries, err := ReadDownloadList(listPath)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "https://example.com/a.zip", entries[0].URL)
	assert.Equal(t, "s3", entries[1].Type)
}

func TestReadDownloadListMissingFields(t *testing.T) {
	dir := t.TempDir()
	listPath := filepath.Join(dir, "list.yaml")
	require.NoError(t, os.WriteFile(listPath, []byte("- op: only-path.zip\n"), 0644))

	_, err := ReadDownloadList(listPath)
	assert.Error(t, err)
}

func TestCleanRemovesPartFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.zip.part"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.zip"), []byte("x"), 0644))

	require.NoError(t, Clean(dir))

	_, err := os.Stat(filepath.Join(dir, "a.zip.part"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, "b.zip"))
	assert.NoError(t, err)
}

func TestDetermineDownloadType(t *testing.T) {
	assert.Equal(t, "s3", DetermineDownloadType("s3://bucket/key.zip"))
	assert.Equal(t, "gitclone", DetermineDownloadType("https://github.com/owner/repo.git"))
	assert.Equal(t, "gitclone", DetermineDownloadType("https://gitlab.com/owner/repo.git"))
	assert.Equal(t, "http", DetermineDownloadType("https://github.com/owner/repo/releases/download/v1/mod.zip"))
	assert.Equal(t, "http", DetermineDownloadType("https://example.com/mod.zip"))
}
