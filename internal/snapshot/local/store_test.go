package local

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidatesBaseDir(t *testing.T) {
	t.Parallel()

	_, err := New(Config{})
	require.Error(t, err)

	file := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o600))
	_, err = New(Config{BaseDir: file})
	require.Error(t, err)
}

func TestPutWritesSnapshot(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s, err := New(Config{BaseDir: dir})
	require.NoError(t, err)

	uri, err := s.Put(context.Background(), "2026/03/page.html", "text/html", []byte("<html></html>"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uri, "file://"))

	data, err := os.ReadFile(filepath.Join(dir, "2026/03/page.html"))
	require.NoError(t, err)
	assert.Equal(t, "<html></html>", string(data))
}

func TestPutRejectsTraversal(t *testing.T) {
	t.Parallel()

	s, err := New(Config{BaseDir: t.TempDir()})
	require.NoError(t, err)

	_, err = s.Put(context.Background(), "../escape.html", "text/html", []byte("x"))
	require.Error(t, err)

	_, err = s.Put(context.Background(), "  ", "text/html", []byte("x"))
	require.Error(t, err)
}
