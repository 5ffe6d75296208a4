package core

import (
	"fmt"
	"os"
	"runtime/debug"
	"sync"
)

// Finisher restores an owned resource (terminal, speaker) before the process exits
type Finisher interface {
	Fini()
}

var (
	crashMu        sync.Mutex
	crashFinishers []Finisher
	exit           = os.Exit
)

// RegisterCrashFinisher adds f to the set restored by HandleCrash, most recent first
func RegisterCrashFinisher(f Finisher) {
	if f == nil {
		return
	}
	crashMu.Lock()
	crashFinishers = append(crashFinishers, f)
	crashMu.Unlock()
}

// HandleCrash is the unified panic handler that restores registered resources and prints the stack trace
func HandleCrash(r any) {
	if r == nil {
		return
	}

	crashMu.Lock()
	fins := crashFinishers
	crashFinishers = nil
	crashMu.Unlock()
	for i := len(fins) - 1; i >= 0; i-- {
		fins[i].Fini()
	}

	os.Stdout.Sync()
	fmt.Fprintf(os.Stderr, "\r\n\x1b[31mCRASH DETECTED: %v\x1b[0m\r\n", r)
	fmt.Fprintf(os.Stderr, "Stack Trace:\r\n%s\r\n", debug.Stack())
	os.Stderr.Sync()

	exit(1)
}

// Go runs a function in a new goroutine with panic recovery
// Use this instead of the 'go' keyword so owned resources are restored on crash
func Go(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				HandleCrash(r)
			}
		}()
		fn()
	}()
}
