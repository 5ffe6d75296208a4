package script

import (
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/lixenwraith/enso/core"
	"github.com/lixenwraith/enso/parameter"
)

// Watcher reports script directory changes from a background goroutine
// onChange must be safe to call off the main loop
type Watcher struct {
	fs   *fsnotify.Watcher
	done chan struct{}
	log  *zap.SugaredLogger
}

// NewWatcher watches every existing directory in dirs; missing directories are skipped
func NewWatcher(dirs []string, onChange func(), log *zap.SugaredLogger) (*Watcher, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for _, d := range dirs {
		if err := fw.Add(d); err != nil {
			log.Debugw("script dir not watched", "dir", d, "error", err)
		}
	}
	w := &Watcher{fs: fw, done: make(chan struct{}), log: log}
	core.Go(func() { w.loop(onChange) })
	return w, nil
}

func (w *Watcher) loop(onChange func()) {
	defer close(w.done)
	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if relevant(ev) {
				onChange()
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.log.Warnw("script watcher error", "error", err)
			onChange()
		}
	}
}

// relevant filters events down to script files
func relevant(ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod {
		return false
	}
	return strings.EqualFold(filepath.Ext(ev.Name), parameter.ScriptExtension)
}

// Watching returns the directories currently registered
func (w *Watcher) Watching() []string {
	return w.fs.WatchList()
}

// Close stops the watcher and waits for its goroutine
func (w *Watcher) Close() error {
	err := w.fs.Close()
	<-w.done
	return err
}
