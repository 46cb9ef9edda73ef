package prefabs

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const DefaultDebounce = 100 * time.Millisecond

// Watcher reports spec and script files changed under the watched directories. Bursts
// of events for one file inside the debounce window are reported once.
type Watcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration
	Events   chan string
	Errors   chan error
	closeCh  chan struct{}
	done     chan struct{}
	once     sync.Once
}

func NewWatcher(dirs ...string) (*Watcher, error) {
	return NewWatcherDebounce(DefaultDebounce, dirs...)
}

func NewWatcherDebounce(debounce time.Duration, dirs ...string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for _, dir := range dirs {
		if err := fw.Add(dir); err != nil {
			_ = fw.Close()
			return nil, err
		}
	}

	w := &Watcher{
		watcher:  fw,
		debounce: debounce,
		Events:   make(chan string, 16),
		Errors:   make(chan error, 1),
		closeCh:  make(chan struct{}),
		done:     make(chan struct{}),
	}
	go w.run()
	return w, nil
}

func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
		<-w.done
		close(w.Events)
		close(w.Errors)
	})
	return err
}

func (w *Watcher) run() {
	defer close(w.done)
	last := make(map[string]time.Time)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if !isSpecFile(event.Name) && !isScriptFile(event.Name) {
				continue
			}
			now := time.Now()
			if t, ok := last[event.Name]; ok && now.Sub(t) < w.debounce {
				continue
			}
			last[event.Name] = now
			select {
			case w.Events <- event.Name:
			case <-w.closeCh:
				return
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.Errors <- err:
			default:
			}
		case <-w.closeCh:
			return
		}
	}
}

func isSpecFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func isScriptFile(path string) bool {
	return strings.ToLower(filepath.Ext(path)) == ".tengo"
}

// Reloader turns watcher events into validated specs. Saves that fail to parse or
// leave the content unchanged yield nothing.
type Reloader struct {
	name    string
	tracker *Tracker
}

func NewReloader(name string, initial []byte) *Reloader {
	r := &Reloader{name: name, tracker: NewTracker()}
	if initial != nil {
		r.tracker.Changed(Path(name), initial)
	}
	return r
}

// Matches reports whether a watcher event refers to the watched wheelchair file.
func (r *Reloader) Matches(event string) bool {
	a, err1 := filepath.Abs(event)
	b, err2 := filepath.Abs(Path(r.name))
	if err1 != nil || err2 != nil {
		return filepath.Clean(event) == filepath.Clean(Path(r.name))
	}
	return a == b
}

// Reload reads the wheelchair file from disk. ok is false when the content is unchanged.
func (r *Reloader) Reload() (spec WheelchairSpec, ok bool, err error) {
	data, err := Load(r.name)
	if err != nil {
		return WheelchairSpec{}, false, err
	}
	if !r.tracker.Changed(Path(r.name), data) {
		return WheelchairSpec{}, false, nil
	}
	spec, err = ParseWheelchairSpec(r.name, data)
	if err != nil {
		r.tracker.Forget(Path(r.name))
		return WheelchairSpec{}, false, err
	}
	return spec, true, nil
}
