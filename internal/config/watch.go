package config

import (
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDebounce collapses the burst of events editors emit on save.
const reloadDebounce = 100 * time.Millisecond

// TuningWatcher reloads a tuning file when it changes on disk. Updates
// delivers every successfully parsed tuning; Errors delivers load and
// watch failures. Both channels are closed by Close.
type TuningWatcher struct {
	path    string
	watcher *fsnotify.Watcher
	Updates chan Tuning
	Errors  chan error
	closeCh chan struct{}
	done    chan struct{}
	once    sync.Once
}

// WatchTuning starts watching path. The parent directory is watched so
// that editors replacing the file by rename are still seen.
func WatchTuning(path string) (*TuningWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		_ = w.Close()
		return nil, err
	}

	tw := &TuningWatcher{
		path:    abs,
		watcher: w,
		Updates: make(chan Tuning, 1),
		Errors:  make(chan error, 1),
		closeCh: make(chan struct{}),
		done:    make(chan struct{}),
	}
	go tw.run()
	return tw, nil
}

// Close stops the watcher.
func (w *TuningWatcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
		<-w.done
		close(w.Updates)
		close(w.Errors)
	})
	return err
}

func (w *TuningWatcher) run() {
	defer close(w.done)

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(reloadDebounce)
			} else {
				timer.Reset(reloadDebounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			t, err := LoadTuning(w.path)
			if err != nil {
				log.Printf("Tuning reload failed: %v", err)
				w.send(nil, err)
				continue
			}
			log.Printf("Reloaded tuning from %s", w.path)
			w.send(&t, nil)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.send(nil, err)
		case <-w.closeCh:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

// send delivers the newest result, replacing an unread older one.
func (w *TuningWatcher) send(t *Tuning, err error) {
	if t != nil {
		select {
		case <-w.Updates:
		default:
		}
		select {
		case w.Updates <- *t:
		case <-w.closeCh:
		}
		return
	}
	select {
	case <-w.Errors:
	default:
	}
	select {
	case w.Errors <- err:
	case <-w.closeCh:
	}
}
