package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"

	"go.uber.org/zap"

	"github.com/lixenwraith/enso/audio"
	"github.com/lixenwraith/enso/builtin"
	"github.com/lixenwraith/enso/command"
	"github.com/lixenwraith/enso/config"
	"github.com/lixenwraith/enso/event"
	"github.com/lixenwraith/enso/layout"
	"github.com/lixenwraith/enso/message"
	"github.com/lixenwraith/enso/quasimode"
	"github.com/lixenwraith/enso/script"
	"github.com/lixenwraith/enso/selection"
	"github.com/lixenwraith/enso/shortcut"
	"github.com/lixenwraith/enso/suggest"
	"github.com/lixenwraith/enso/webui"
)

// Service is a background worker supervised by Run
type Service func(ctx context.Context) error

// Context threads the core components through commands, plugins and providers
//
// The platform slots are filled by providers before the core is assembled;
// empty slots fall back to a memory clipboard, no renderer and the system opener
type Context struct {
	Config *config.Config
	Log    *zap.SugaredLogger
	Clock  event.Clock

	Bus       *event.Bus
	Registry  *command.Registry
	Index     *suggest.Index
	Layout    *layout.Layout
	Messages  *message.Manager
	Bridge    *selection.Bridge
	Quasimode *quasimode.Quasimode
	Tracker   *script.Tracker
	Shortcuts *shortcut.Store
	Player    *audio.Player
	Metrics   *webui.Metrics
	Calc      *builtin.Calculator
	Net       *SafetyNet

	// Platform slots
	Renderer      quasimode.Renderer
	Display       message.Display
	NumLock       quasimode.NumLock
	Clipboard     selection.Clipboard
	Keys          selection.Keystroker
	Windows       selection.WindowInspector
	Opener        shortcut.Opener
	Starter       script.Starter
	Wake          <-chan struct{}
	OnMouseWanted func(bool)

	services []Service
	last     *command.Match
	cancel   context.CancelFunc
}

// New assembles the application: providers, core components, then plugins
func New(cfg *config.Config, clock event.Clock, log *zap.SugaredLogger) (*Context, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if clock == nil {
		clock = event.SystemClock{}
	}
	c := &Context{
		Config:   cfg,
		Log:      log,
		Clock:    clock,
		Bus:      event.NewBus(clock, log.Named("bus")),
		Registry: command.NewRegistry(log.Named("registry")),
		Metrics:  webui.NewMetrics(),
		Calc:     &builtin.Calculator{},
		Starter:  script.ExecStarter{Dir: cfg.UserDir},
	}
	c.Net = NewSafetyNet(clock, c.Submit, log.Named("safetynet"))
	c.Index = suggest.NewIndex(c.Registry, cfg.MinAutocompleteChars, cfg.MaxSuggestions)
	c.Layout = layout.New(layout.CellMeasurer{}, layout.CellStyles(), c.palette(), float64(cfg.HUDWidth))

	if err := c.startProviders(cfg.Providers); err != nil {
		return nil, err
	}

	if c.Clipboard == nil {
		c.Clipboard = selection.NewMemoryClipboard()
	}
	contexts := selection.NewContextTable()
	if err := contexts.Override(cfg.SelectionContexts); err != nil {
		return nil, fmt.Errorf("selection contexts: %w", err)
	}
	bridge, err := selection.NewBridge(c.Clipboard, c.Keys, c.Windows,
		selection.WithClock(clock),
		selection.WithContexts(contexts),
		selection.WithObserver(c.Metrics),
		selection.WithLogger(log.Named("selection")),
		selection.WithTiming(selectionTiming(cfg)),
	)
	if err != nil {
		return nil, err
	}
	c.Bridge = bridge

	c.Messages = message.NewManager(c.Bus, clock, c.Display, log.Named("message"))
	if c.Player != nil {
		c.Messages.SetChime(c.Player)
	}

	qm, err := quasimode.New(quasimode.Deps{
		Bus:      c.Bus,
		Registry: c.Registry,
		Index:    c.Index,
		Layout:   c.Layout,
		Renderer: c.Renderer,
		Messages: c,
		Executor: c,
		NumLock:  c.NumLock,
		Log:      log.Named("quasimode"),
	}, quasimodeConfig(cfg))
	if err != nil {
		return nil, err
	}
	c.Quasimode = qm
	qm.OnBadCommand(func(string) { c.Metrics.BadCommands.Inc() })
	if c.Player != nil {
		qm.OnBadCommand(c.Player.BadCommand)
	}

	c.apply()
	if err := c.startPlugins(cfg.Plugins); err != nil {
		return nil, err
	}
	if c.OnMouseWanted != nil {
		c.Bus.OnMouseWanted(c.OnMouseWanted)
	}
	if err := c.Bus.Publish(event.TopicInit, nil); err != nil {
		return nil, err
	}
	return c, nil
}

// AddService registers a worker started by Run
func (c *Context) AddService(s Service) {
	c.services = append(c.services, s)
}

// Register adds commands, joining every failure
func (c *Context) Register(cmds ...command.Command) error {
	var errs []error
	for _, cmd := range cmds {
		if err := c.Registry.Register(cmd); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (c *Context) palette() layout.Palette {
	p, err := layout.PaletteByName(c.Config.ColorTheme)
	if err != nil {
		c.Log.Warnw("color theme", "error", err)
	}
	return p
}

// apply pushes the live-tunable options into the running components
func (c *Context) apply() {
	cfg := c.Config
	c.Registry.SetDisabled(cfg.DisabledCommands)
	c.Index.SetLimits(cfg.MinAutocompleteChars, cfg.MaxSuggestions)
	c.Layout.SetPalette(c.palette())
	c.Layout.SetRag(cfg.RagIterations, cfg.RagDelta)
	c.Bus.SetIdleInterval(cfg.IdleInterval)

	t := message.DefaultTiming()
	t.Grace = cfg.PrimaryGrace
	t.Poll = cfg.MiniPollInterval
	c.Messages.SetTiming(t)

	if c.Quasimode != nil {
		c.Quasimode.SetConfig(quasimodeConfig(cfg))
	}
	if c.Player != nil {
		c.Player.SetEnabled(cfg.SoundFeedback)
	}
}

func quasimodeConfig(cfg *config.Config) quasimode.Config {
	return quasimode.Config{
		StartKey:                cfg.QuasimodeStartKey,
		EndKey:                  cfg.QuasimodeEndKey,
		CancelKey:               cfg.QuasimodeCancelKey,
		Modal:                   cfg.IsQuasimodeModal,
		SuggestionDelay:         cfg.SuggestionDelay,
		TrailingSuggestionDelay: cfg.TrailingSuggestionDelay,
		BadCommandMinChars:      cfg.BadCommandMinChars,
	}
}

func selectionTiming(cfg *config.Config) selection.Timing {
	t := selection.DefaultTiming()
	t.Read = cfg.SelectionTimeout
	t.LongRead = cfg.SelectionFileTimeout
	t.OpenTimeout = cfg.ClipboardOpenTimeout
	t.OpenStep = cfg.ClipboardOpenStep
	return t
}

// GetSelection implements command.API
func (c *Context) GetSelection() (selection.Dict, error) { return c.Bridge.Get() }

// SetSelection implements command.API
func (c *Context) SetSelection(sel selection.Dict) (bool, error) { return c.Bridge.Set(sel) }

// DisplayMessage shows content as a transient primary message
func (c *Context) DisplayMessage(content string) { c.Submit(message.Primary(content)) }

// Submit hands msg to the message manager
func (c *Context) Submit(msg *message.Message) {
	c.Metrics.Messages.Inc()
	c.Messages.Submit(msg)
}

// Traceback implements builtin.Host
func (c *Context) Traceback() (string, bool) {
	tb, ok := c.Net.Last()
	if !ok {
		return "", false
	}
	return tb.String(), true
}

func (c *Context) CommandCount() int { return c.Registry.Len() }

func (c *Context) SettingsAddr() string {
	if !c.Config.EnableWebUI {
		return ""
	}
	return c.Config.WebUIAddr
}

// Quit stops Run; safe to call from any goroutine once Run started
func (c *Context) Quit() {
	c.Log.Infow("quit requested")
	if c.cancel != nil {
		c.cancel()
	}
}

// ScriptFailed implements script.FailureSink
func (c *Context) ScriptFailed(path string, err error) {
	name := filepath.Base(path)
	c.Net.RecordWith("script "+name, err, fmt.Sprintf(
		"<p>Script <command>%s</command> failed to load</p><caption>Run <command>traceback</command> for details.</caption>",
		message.Escape(name)))
}

// Commands implements webui.Backend
func (c *Context) Commands() []webui.CommandInfo {
	all := c.Registry.All()
	names := make([]string, 0, len(all))
	for name := range all {
		names = append(names, name)
	}
	slices.Sort(names)

	out := make([]webui.CommandInfo, 0, len(names))
	for _, name := range names {
		d := all[name].Describe()
		info := webui.CommandInfo{
			Expression:  name,
			Description: d.Description,
			Category:    d.Category,
			Kind:        d.Kind.String(),
		}
		if d.Kind == command.ArgBounded && d.Source != nil {
			info.Args = d.Source.Args()
		}
		out = append(out, info)
	}
	return out
}

func (c *Context) Settings() map[string]any { return c.Config.Values() }

func (c *Context) Setting(key string) (any, error) {
	v, err := c.Config.Get(key)
	if errors.Is(err, config.ErrUnknownOption) {
		return nil, fmt.Errorf("%w: %s", webui.ErrUnknownKey, key)
	}
	return v, err
}

// SetSetting changes one option, applies it to the running components and persists the cfg layer
func (c *Context) SetSetting(key string, value any) error {
	if err := c.Config.Set(key, value); err != nil {
		if errors.Is(err, config.ErrUnknownOption) {
			return fmt.Errorf("%w: %s", webui.ErrUnknownKey, key)
		}
		return err
	}
	c.apply()
	if err := c.Config.Save(c.Config.CfgPath()); err != nil {
		c.Log.Warnw("save config", "path", c.Config.CfgPath(), "error", err)
		return err
	}
	return nil
}

// Close releases the components that hold resources
func (c *Context) Close() error {
	var errs []error
	if c.Tracker != nil {
		errs = append(errs, c.Tracker.Close())
	}
	if c.Quasimode != nil {
		c.Quasimode.Close()
	}
	if c.Player != nil {
		c.Player.Fini()
	}
	return errors.Join(errs...)
}
