package shortcut

import (
	"os/exec"
	"runtime"

	"github.com/lixenwraith/enso/core"
)

// Opener launches a learned target
type Opener interface {
	Open(sc Shortcut) error
}

// Launcher starts a program without waiting for it
type Launcher func(name string, args ...string) error

func startDetached(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	core.Go(func() { _ = cmd.Wait() })
	return nil
}

// SystemOpener opens targets with the desktop's default handler
type SystemOpener struct {
	goos   string
	launch Launcher
}

func NewSystemOpener() *SystemOpener {
	return &SystemOpener{goos: runtime.GOOS, launch: startDetached}
}

// NewSystemOpenerWith returns an opener for goos using launch
func NewSystemOpenerWith(goos string, launch Launcher) *SystemOpener {
	return &SystemOpener{goos: goos, launch: launch}
}

func (o *SystemOpener) Open(sc Shortcut) error {
	if sc.Kind == KindExecutable {
		return o.launch(sc.Target)
	}
	switch o.goos {
	case "darwin":
		return o.launch("open", sc.Target)
	case "windows":
		if sc.Kind == KindControlPanel {
			return o.launch("control.exe", sc.Target)
		}
		return o.launch("cmd", "/c", "start", "", sc.Target)
	default:
		return o.launch("xdg-open", sc.Target)
	}
}
