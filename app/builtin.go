package app

import (
	"os"

	"github.com/lixenwraith/enso/audio"
	"github.com/lixenwraith/enso/builtin"
	"github.com/lixenwraith/enso/core"
	"github.com/lixenwraith/enso/script"
	"github.com/lixenwraith/enso/selection"
	"github.com/lixenwraith/enso/shortcut"
)

func init() {
	RegisterProvider("clipboard", provideClipboard)
	RegisterProvider("xdotool", provideXdotool)
	RegisterProvider("audio", provideAudio)

	RegisterPlugin("scripts", pluginScripts)
	RegisterPlugin("shortcuts", pluginShortcuts)
	RegisterPlugin("builtins", pluginBuiltins)
}

func provideClipboard(c *Context) error {
	clip, err := selection.NewSystemClipboard()
	if err != nil {
		return err
	}
	c.Clipboard = clip
	return nil
}

func provideXdotool(c *Context) error {
	x, err := selection.NewXdotool()
	if err != nil {
		return err
	}
	if err := x.MarkSelf(os.Getenv("WINDOWID")); err != nil {
		c.Log.Warnw("launcher window not identified", "error", err)
	}
	c.Keys = x
	c.Windows = x
	return nil
}

func provideAudio(c *Context) error {
	p := audio.NewPlayer(c.Config.SoundFeedback, c.Log.Named("audio"))
	p.Start()
	core.RegisterCrashFinisher(p)
	c.Player = p
	return nil
}

func pluginScripts(c *Context) error {
	t := script.NewTracker(c.Registry, c.Bus, script.Options{
		Dirs:     []string{c.Config.CommandsDir(), c.Config.SecondaryCommandsDir()},
		TrackAll: c.Config.TrackCommandChanges,
		Starter:  c.Starter,
		Failures: c,
		OnReload: func(n int) {
			c.Metrics.ScriptReloads.Inc()
			c.Metrics.ScriptCommands.Set(float64(n))
		},
		Log: c.Log.Named("script"),
	})
	if err := t.Init(); err != nil {
		return err
	}
	if err := t.Watch(); err != nil {
		c.Log.Warnw("script directories not watched, rescanning on every session", "error", err)
	}
	c.Tracker = t
	return nil
}

func pluginShortcuts(c *Context) error {
	store := shortcut.NewStore(c.Config.LearnedDir())
	if err := store.Load(); err != nil {
		c.Log.Warnw("learned shortcuts partially loaded", "dir", c.Config.LearnedDir(), "error", err)
	}
	opener := c.Opener
	if opener == nil {
		opener = shortcut.NewSystemOpener()
	}
	c.Shortcuts = store
	return c.Register(shortcut.Commands(store, opener)...)
}

func pluginBuiltins(c *Context) error {
	return c.Register(builtin.Commands(c, c.Calc)...)
}
