package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/enso/event"
)

func TestDefaults(t *testing.T) {
	c := Default()
	assert.Equal(t, event.VKCapital, c.QuasimodeStartKey)
	assert.Equal(t, event.VKReturn, c.QuasimodeEndKey)
	assert.Equal(t, event.VKEscape, c.QuasimodeCancelKey)
	assert.True(t, c.IsQuasimodeModal)
	assert.Equal(t, 200*time.Millisecond, c.SuggestionDelay)
	assert.Equal(t, 10, c.MaxSuggestions)
	assert.Equal(t, 1, c.MinAutocompleteChars)
	assert.Equal(t, 2, c.BadCommandMinChars)
	assert.Equal(t, "green", c.ColorTheme)
	assert.False(t, c.TrackCommandChanges)
}

func TestSetParsesEachKind(t *testing.T) {
	tests := []struct {
		name  string
		value any
		check func(t *testing.T, c *Config)
	}{
		{"QUASIMODE_START_KEY", "KEYCODE_F5", func(t *testing.T, c *Config) { assert.Equal(t, event.VKF1+4, c.QuasimodeStartKey) }},
		{"quasimode_end_key", "enter", func(t *testing.T, c *Config) { assert.Equal(t, event.VKReturn, c.QuasimodeEndKey) }},
		{"QUASIMODE_CANCEL_KEY", 0x1B, func(t *testing.T, c *Config) { assert.Equal(t, event.VKEscape, c.QuasimodeCancelKey) }},
		{"IS_QUASIMODE_MODAL", "false", func(t *testing.T, c *Config) { assert.False(t, c.IsQuasimodeModal) }},
		{"QUASIMODE_SUGGESTION_DELAY", "250ms", func(t *testing.T, c *Config) { assert.Equal(t, 250*time.Millisecond, c.SuggestionDelay) }},
		{"QUASIMODE_SUGGESTION_DELAY", 0.5, func(t *testing.T, c *Config) { assert.Equal(t, 500*time.Millisecond, c.SuggestionDelay) }},
		{"QUASIMODE_MAX_SUGGESTIONS", "3", func(t *testing.T, c *Config) { assert.Equal(t, 3, c.MaxSuggestions) }},
		{"DISABLED_COMMANDS", "quit enso, help", func(t *testing.T, c *Config) {
			assert.Equal(t, []string{"quit enso", "help"}, c.DisabledCommands)
		}},
		{"PLUGINS", []any{"builtins"}, func(t *testing.T, c *Config) { assert.Equal(t, []string{"builtins"}, c.Plugins) }},
		{"SELECTION_CONTEXTS", "alacritty=terminal, kate=nonreplacing", func(t *testing.T, c *Config) {
			assert.Equal(t, map[string]string{"alacritty": "terminal", "kate": "nonreplacing"}, c.SelectionContexts)
		}},
		{"RAG_DELTA", "2.5", func(t *testing.T, c *Config) { assert.Equal(t, 2.5, c.RagDelta) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			require.NoError(t, c.Set(tt.name, tt.value))
			tt.check(t, c)
		})
	}
}

func TestSetRejects(t *testing.T) {
	c := Default()
	assert.ErrorIs(t, c.Set("NO_SUCH_OPTION", 1), ErrUnknownOption)
	assert.Error(t, c.Set("QUASIMODE_MAX_SUGGESTIONS", "-1"))
	assert.Error(t, c.Set("IS_QUASIMODE_MODAL", "perhaps"))
	assert.Error(t, c.Set("QUASIMODE_START_KEY", "hyper"))
	assert.Error(t, c.Set("SELECTION_CONTEXTS", "oops"))

	_, err := c.Get("NO_SUCH_OPTION")
	assert.ErrorIs(t, err, ErrUnknownOption)
}

func TestKeyNameRoundTrip(t *testing.T) {
	for _, k := range []event.KeyCode{event.VKCapital, event.VKReturn, event.VKF1 + 11, event.VKA + 2, event.VK0 + 7, event.VKScroll} {
		code, ok := event.KeyByName(k.Name())
		require.True(t, ok, k.Name())
		assert.Equal(t, k, code)
	}
}

func TestLoadLayers(t *testing.T) {
	dir := t.TempDir()
	cfg := "COLOR_THEME: desert\nQUASIMODE_MAX_SUGGESTIONS: 4\nDISABLED_COMMANDS:\n  - quit enso\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "enso.cfg"), []byte(cfg), 0o644))

	c, err := Load(dir, nil)
	require.NoError(t, err)
	assert.Equal(t, dir, c.UserDir)
	assert.Equal(t, "desert", c.ColorTheme)
	assert.Equal(t, 4, c.MaxSuggestions)
	assert.Equal(t, []string{"quit enso"}, c.DisabledCommands)
}

func TestLoadUnknownKeyNamesIt(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "enso.cfg"), []byte("BOGUS_KEY: 1\n"), 0o644))

	_, err := Load(dir, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownOption)
	assert.Contains(t, err.Error(), "BOGUS_KEY")
}

func TestLoadRCOverridesCfg(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("rc file is a shell script")
	}
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "enso.cfg"), []byte("COLOR_THEME: desert\n"), 0o644))
	rc := "#!/bin/sh\necho 'COLOR_THEME=cyan'\necho 'NOT_AN_OPTION=1'\necho 'garbage'\necho 'IS_QUASIMODE_MODAL=\"false\"'\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ensorc"), []byte(rc), 0o755))

	c, err := Load(dir, nil)
	require.NoError(t, err)
	assert.Equal(t, "cyan", c.ColorTheme)
	assert.False(t, c.IsQuasimodeModal)
}

func TestLoadIgnoresNonExecutableRC(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ensorc"), []byte("#!/bin/sh\necho COLOR_THEME=red\n"), 0o644))

	c, err := Load(dir, nil)
	require.NoError(t, err)
	assert.Equal(t, "green", c.ColorTheme)
}

func TestSaveWritesOnlyChanges(t *testing.T) {
	dir := t.TempDir()
	c := Default()
	c.UserDir = dir
	require.NoError(t, c.Set("COLOR_THEME", "magenta"))
	require.NoError(t, c.Set("QUASIMODE_SUGGESTION_DELAY", "300ms"))
	require.NoError(t, c.Save(c.CfgPath()))

	data, err := os.ReadFile(c.CfgPath())
	require.NoError(t, err)
	assert.Contains(t, string(data), "COLOR_THEME: magenta")
	assert.NotContains(t, string(data), "QUASIMODE_MAX_SUGGESTIONS")

	loaded, err := Load(dir, nil)
	require.NoError(t, err)
	assert.Equal(t, "magenta", loaded.ColorTheme)
	assert.Equal(t, 300*time.Millisecond, loaded.SuggestionDelay)
}

func TestCloneIsDeep(t *testing.T) {
	c := Default()
	c.SelectionContexts["kate"] = "nonreplacing"
	n := c.Clone()
	n.Plugins[0] = "changed"
	n.SelectionContexts["kate"] = "terminal"
	assert.Equal(t, "scripts", c.Plugins[0])
	assert.Equal(t, "nonreplacing", c.SelectionContexts["kate"])
}

func TestNamesSorted(t *testing.T) {
	names := Names()
	assert.Contains(t, names, "ENABLE_WEB_UI")
	assert.IsIncreasing(t, names)
}
