package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupLoggingWritesFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	log, closeLog := setupLogging(dir, false)
	log.Infow("hello", "n", 1)
	log.Debugw("hidden")
	closeLog()

	data, err := os.ReadFile(filepath.Join(dir, logFileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")
	assert.NotContains(t, string(data), "hidden")
}

func TestSetupLoggingDebugLevel(t *testing.T) {
	dir := t.TempDir()
	log, closeLog := setupLogging(dir, true)
	log.Debugw("verbose")
	closeLog()

	data, err := os.ReadFile(filepath.Join(dir, logFileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), "verbose")
}

func TestSetupLoggingFallsBackToNop(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	log, closeLog := setupLogging(filepath.Join(file, "logs"), true)
	require.NotNil(t, log)
	log.Infow("dropped")
	closeLog()
}
