package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/camsync/pkg/ports"
)

func TestConsoleLogger_LevelsAndStreams(t *testing.T) {
	var out, errOut bytes.Buffer
	l := NewConsoleTo(ports.LevelInfo, &out, &errOut)

	l.Debug("hidden %d", 1)
	l.Info("Found %d streams", 3)
	l.WithComponent("sync").Warn("Stream %d: ignoring repeated end of stream", 2)

	assert.Equal(t, "Found 3 streams\n", out.String())
	assert.Equal(t, "[sync] Stream 2: ignoring repeated end of stream\n", errOut.String())
}

func TestConsoleLogger_Quiet(t *testing.T) {
	var out, errOut bytes.Buffer
	l := NewConsoleTo(ports.LevelQuiet, &out, &errOut)
	l.Error("boom")
	assert.Zero(t, out.Len()+errOut.Len())
}

func TestFileLogger_Fields(t *testing.T) {
	var buf bytes.Buffer
	l := NewFileWriter(&buf, ports.LevelDebug, map[string]interface{}{"run_id": "abc"})

	l.WithComponent("reader").Debug("Stream %d: end of input after %d frames", 1, 10)

	line := buf.String()
	assert.Contains(t, line, "level=debug")
	assert.Contains(t, line, "component=reader")
	assert.Contains(t, line, "run_id=abc")
	assert.Contains(t, line, "Stream 1: end of input after 10 frames")
}

func TestFileLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	l := NewFileWriter(&buf, ports.LevelWarn, nil)
	l.Info("skipped")
	l.Warn("kept")
	assert.NotContains(t, buf.String(), "skipped")
	assert.Contains(t, buf.String(), "kept")
}

func TestNewFile_WritesToPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "camsync.log")
	l, closer, err := NewFile(FileOptions{Path: path, Level: ports.LevelInfo, MaxSizeMB: 1}, nil)
	require.NoError(t, err)

	l.Info("Starting run %s", "r1")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "Starting run r1"))
}

func TestTee(t *testing.T) {
	var a, b bytes.Buffer
	l := Tee(NewConsoleTo(ports.LevelDebug, &a, &a), nil, NewConsoleTo(ports.LevelDebug, &b, &b))

	l.WithComponent("persist").Info("Saved batch %d", 0)

	assert.Equal(t, "[persist] Saved batch 0\n", a.String())
	assert.Equal(t, a.String(), b.String())

	_, isNoop := Tee().(*NoopLogger)
	assert.True(t, isNoop)

	single := NewNoop()
	assert.Same(t, single, Tee(single))
}
