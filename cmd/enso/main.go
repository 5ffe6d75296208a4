package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/lixenwraith/enso/app"
	"github.com/lixenwraith/enso/config"
	"github.com/lixenwraith/enso/core"
	"github.com/lixenwraith/enso/event"
	"github.com/lixenwraith/enso/layout"
	"github.com/lixenwraith/enso/platform/terminal"
)

const logFileName = "enso.log"

var (
	debugFlag   = flag.Bool("debug", false, "Write debug level logs")
	userDirFlag = flag.String("userdir", "", "User directory (default $ENSO_USER_DIR or the platform config dir)")
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			core.HandleCrash(r)
		}
	}()
	flag.Parse()

	userDir := *userDirFlag
	if userDir == "" {
		userDir = config.DefaultUserDir()
	}
	log, closeLog := setupLogging(filepath.Join(userDir, "logs"), *debugFlag)

	cfg, err := config.Load(userDir, log.Named("config"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		closeLog()
		os.Exit(1)
	}

	palette, err := layout.PaletteByName(cfg.ColorTheme)
	if err != nil {
		log.Warnw("color theme", "error", err)
	}
	scr, err := terminal.New(terminal.Bindings{
		Start:  cfg.QuasimodeStartKey,
		End:    cfg.QuasimodeEndKey,
		Cancel: cfg.QuasimodeCancelKey,
	}, palette, log.Named("terminal"))
	if err == nil {
		err = scr.Init()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize terminal: %v\n", err)
		closeLog()
		os.Exit(1)
	}
	core.RegisterCrashFinisher(scr)

	app.RegisterProvider("terminal", func(c *app.Context) error {
		c.Renderer = scr
		c.Display = scr
		c.Wake = scr.Wake()
		c.OnMouseWanted = scr.SetMouse
		c.AddService(func(ctx context.Context) error { return scr.Run(ctx, c.Bus) })
		scr.OnInterrupt(c.Quit)
		return nil
	})

	code := run(cfg, log)
	scr.Fini()
	closeLog()
	os.Exit(code)
}

func run(cfg *config.Config, log *zap.SugaredLogger) int {
	c, err := app.New(cfg, event.SystemClock{}, log)
	if err != nil {
		log.Errorw("startup failed", "error", err)
		fmt.Fprintf(os.Stderr, "Startup failed: %v\n", err)
		return 1
	}
	defer func() {
		if err := c.Close(); err != nil {
			log.Warnw("close", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Infow("enso started", "commands", c.Registry.Len(), "userdir", cfg.UserDir)
	if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Errorw("stopped", "error", err)
		return 1
	}
	log.Infow("enso stopped")
	return 0
}

// setupLogging writes to a rotated file under dir; failures fall back to a no-op logger
func setupLogging(dir string, debug bool) (*zap.SugaredLogger, func()) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return zap.NewNop().Sugar(), func() {}
	}
	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}

	sink := &lumberjack.Logger{
		Filename:   filepath.Join(dir, logFileName),
		MaxSize:    5, // MB
		MaxBackups: 3,
		MaxAge:     14, // days
	}
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	zc := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), zapcore.AddSync(sink), level)
	logger := zap.New(zc, zap.AddCaller())
	return logger.Sugar(), func() {
		_ = logger.Sync()
		_ = sink.Close()
	}
}
