package logger_test

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/edithx/rewarder/internal/setup/telemetry/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogRotatorKeepsNewestLines(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "main.log")

	w, err := logger.Open(path, 3)
	require.NoError(t, err)
	defer w.Close()

	for i := 1; i <= 6; i++ {
		_, err := fmt.Fprintf(w, "line %d\n", i)
		require.NoError(t, err)
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "line 4\nline 5\nline 6\n", string(data))

	_, err = w.Write([]byte("line 7\n"))
	require.NoError(t, err)

	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "line 4\nline 5\nline 6\nline 7\n", string(data))
}

func TestLogRotatorSplitsMultilineWrites(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "database.log")

	w, err := logger.Open(path, 2)
	require.NoError(t, err)
	defer w.Close()

	_, err = w.Write([]byte("a\nb\n\nc\nd\n"))
	require.NoError(t, err)
	require.NoError(t, w.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "d"}, strings.Fields(string(data)))
}
