// Package watch reports external edits to a scene script. The watcher
// observes the script's parent directory rather than the file itself,
// because editors that save via write-temp-then-rename would otherwise
// drop the watch on every save. Bursts of events (editors often fire
// several per save) are coalesced with a short debounce.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceInterval coalesces event bursts from a single save.
const debounceInterval = 100 * time.Millisecond

// Change reports that the watched script was modified externally.
type Change struct {
	Path string
	At   time.Time
}

// Watcher reports external modifications to one file.
type Watcher struct {
	path    string
	fw      *fsnotify.Watcher
	changes chan Change
	errs    chan error
}

// New starts watching the script at path. Cancel ctx to stop.
func New(ctx context.Context, path string) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve %s: %w", path, err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watch: add %s: %w", filepath.Dir(abs), err)
	}

	w := &Watcher{
		path:    abs,
		fw:      fw,
		changes: make(chan Change, 1),
		errs:    make(chan error, 1),
	}
	go w.loop(ctx)
	return w, nil
}

// Changes delivers debounced change notifications. The channel closes when
// the context is cancelled.
func (w *Watcher) Changes() <-chan Change { return w.changes }

// Errors delivers watcher failures.
func (w *Watcher) Errors() <-chan error { return w.errs }

func (w *Watcher) loop(ctx context.Context) {
	defer w.fw.Close()
	defer close(w.changes)

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			if !w.relevant(ev) {
				continue
			}
			// Restart the debounce window on every event in the burst.
			if timer == nil {
				timer = time.NewTimer(debounceInterval)
				fire = timer.C
			} else {
				if !timer.Stop() {
					<-timer.C
				}
				timer.Reset(debounceInterval)
			}

		case <-fire:
			timer = nil
			fire = nil
			select {
			case w.changes <- Change{Path: w.path, At: time.Now()}:
			default:
				// A pending notification already covers this burst.
			}

		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			select {
			case w.errs <- err:
			default:
			}
		}
	}
}

// relevant filters directory events down to writes touching the script.
func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if ev.Name != w.path {
		return false
	}
	return ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Rename)
}
