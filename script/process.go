package script

import (
	"bytes"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/lixenwraith/enso/core"
)

// ErrEmptyArgv is returned when a run list resolves to nothing
var ErrEmptyArgv = errors.New("empty command line")

// Process is a started external command observed without blocking
type Process interface {
	// Poll reports whether the process exited, with its stdout and exit error once it has
	Poll() (done bool, out string, err error)
}

// Starter launches external commands
type Starter interface {
	Start(argv []string, stdin string) (Process, error)
}

// ExecStarter runs commands with os/exec
type ExecStarter struct {
	Dir string
}

func (s ExecStarter) Start(argv []string, stdin string) (Process, error) {
	if len(argv) == 0 {
		return nil, ErrEmptyArgv
	}
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = s.Dir
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}
	p := &execProcess{}
	cmd.Stdout = &p.stdout
	cmd.Stderr = &p.stderr
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", argv[0], err)
	}
	core.Go(func() { p.wait(cmd) })
	return p, nil
}

type execProcess struct {
	mu     sync.Mutex
	done   bool
	err    error
	stdout bytes.Buffer
	stderr bytes.Buffer
}

func (p *execProcess) wait(cmd *exec.Cmd) {
	err := cmd.Wait()
	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		if msg := strings.TrimSpace(p.stderr.String()); msg != "" {
			err = fmt.Errorf("%w: %s", err, msg)
		}
	}
	p.done, p.err = true, err
}

func (p *execProcess) Poll() (bool, string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.done {
		return false, "", nil
	}
	return true, p.stdout.String(), p.err
}

// expand substitutes {arg}, the named slot and {selection} in every argv element
func expand(argv []string, slot, arg, sel string) []string {
	pairs := []string{"{arg}", arg, "{selection}", sel}
	if slot != "" && slot != "arg" && slot != "selection" {
		pairs = append(pairs, "{"+slot+"}", arg)
	}
	r := strings.NewReplacer(pairs...)
	out := make([]string, len(argv))
	for i, a := range argv {
		out[i] = r.Replace(a)
	}
	return out
}

// wantsSelection reports whether any argv element references the selection
func wantsSelection(argv []string) bool {
	for _, a := range argv {
		if strings.Contains(a, "{selection}") {
			return true
		}
	}
	return false
}
