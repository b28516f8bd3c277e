package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeChunk(t *testing.T, w *LogFile, marker string) {
	t.Helper()
	// 20 bytes per chunk.
	_, err := w.Write([]byte(marker + strings.Repeat("x", 20-len(marker))))
	require.NoError(t, err)
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(raw)
}

func TestLogFileRotates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.log")
	w, err := OpenLimit(path, 32, 2)
	require.NoError(t, err)
	defer w.Close()

	writeChunk(t, w, "A")
	writeChunk(t, w, "B")
	writeChunk(t, w, "C")

	require.True(t, strings.HasPrefix(readFile(t, path), "C"))
	require.True(t, strings.HasPrefix(readFile(t, path+".1"), "B"))
	require.True(t, strings.HasPrefix(readFile(t, path+".2"), "A"))
}

func TestLogFileDropsOldestBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.log")
	w, err := OpenLimit(path, 32, 1)
	require.NoError(t, err)
	defer w.Close()

	writeChunk(t, w, "A")
	writeChunk(t, w, "B")
	writeChunk(t, w, "C")

	require.True(t, strings.HasPrefix(readFile(t, path+".1"), "B"))
	_, err = os.Stat(path + ".2")
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestLogFileOversizedEntryStillWritten(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.log")
	w, err := OpenLimit(path, 8, 2)
	require.NoError(t, err)
	defer w.Close()

	big := strings.Repeat("y", 64)
	n, err := w.Write([]byte(big))
	require.NoError(t, err)
	require.Equal(t, 64, n)
	require.Equal(t, big, readFile(t, path))
}

func TestLogFileCreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "nested", "server.log")
	w, err := Open(path)
	require.NoError(t, err)
	defer w.Close()

	_, err = w.Write([]byte("hello\n"))
	require.NoError(t, err)
	require.Equal(t, "hello\n", readFile(t, path))
}

func TestLogFileWriteAfterClose(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.log")
	w, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())

	_, err = w.Write([]byte("late"))
	require.ErrorIs(t, err, os.ErrClosed)
}

func TestLogFileResumesExistingSize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.log")
	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("A", 20)), 0o644))

	// Reopening picks up the existing 20 bytes, so the next 20-byte write
	// rotates instead of blowing past the cap.
	w, err := OpenLimit(path, 32, 1)
	require.NoError(t, err)
	defer w.Close()
	writeChunk(t, w, "B")

	require.True(t, strings.HasPrefix(readFile(t, path), "B"))
	require.True(t, strings.HasPrefix(readFile(t, path+".1"), "A"))
}
