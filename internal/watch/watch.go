// Package watch delivers filesystem change notifications for glob patterns.
package watch

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	foundationerrors "git.home.luguber.info/inful/assetpipe/internal/foundation/errors"
	"git.home.luguber.info/inful/assetpipe/internal/logfields"
)

// EventKind is the kind of change observed.
type EventKind string

const (
	Added    EventKind = "added"
	Modified EventKind = "modified"
)

// ChangeEvent is a transient notification about one path.
type ChangeEvent struct {
	Path string
	Kind EventKind
}

// Handler receives change events. It is called from the subscription's own goroutine.
type Handler func(ChangeEvent)

// Subscription is an active watch.
type Subscription interface {
	Unsubscribe() error
}

// Capability subscribes handlers to changes of paths matching a glob pattern. Events are
// not deduplicated; a burst of writes produces a burst of events.
type Capability interface {
	Subscribe(pattern string, handler Handler) (Subscription, error)
}

// FSCapability is the fsnotify-backed Capability.
type FSCapability struct{}

// NewFSCapability returns a Capability watching the local filesystem.
func NewFSCapability() *FSCapability { return &FSCapability{} }

// Subscribe watches the static base directory of pattern (recursively) and forwards
// Create and Write events of matching paths.
func (c *FSCapability) Subscribe(pattern string, handler Handler) (Subscription, error) {
	if !doublestar.ValidatePattern(filepath.ToSlash(pattern)) {
		return nil, foundationerrors.ConfigError("invalid watch pattern").WithContext("pattern", pattern).Build()
	}
	base, _ := doublestar.SplitPattern(filepath.ToSlash(pattern))
	base = filepath.FromSlash(base)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, foundationerrors.WatchError("cannot create watcher").WithCause(err).Build()
	}
	if _, err := os.Stat(base); err != nil {
		_ = watcher.Close()
		return nil, foundationerrors.WatchError("watch base directory unavailable").WithCause(err).WithContext("path", base).Build()
	}
	addDirsRecursive(watcher, base)

	s := &fsSubscription{
		watcher: watcher,
		pattern: filepath.ToSlash(pattern),
		handler: handler,
		done:    make(chan struct{}),
	}
	go s.loop()
	slog.Debug("Watching pattern", logfields.Pattern(pattern), logfields.Path(base))
	return s, nil
}

type fsSubscription struct {
	watcher *fsnotify.Watcher
	pattern string
	handler Handler
	done    chan struct{}
	once    sync.Once
	err     error
}

func (s *fsSubscription) loop() {
	defer close(s.done)
	for {
		select {
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			s.handle(ev)
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("Watcher error", logfields.Pattern(s.pattern), logfields.Error(err))
		}
	}
}

func (s *fsSubscription) handle(ev fsnotify.Event) {
	if shouldIgnoreEvent(ev.Name) {
		return
	}
	var kind EventKind
	switch {
	case ev.Has(fsnotify.Create):
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			addDirsRecursive(s.watcher, ev.Name)
			return
		}
		kind = Added
	case ev.Has(fsnotify.Write):
		kind = Modified
	default:
		return
	}
	path := filepath.ToSlash(ev.Name)
	if ok, _ := doublestar.Match(s.pattern, path); !ok {
		return
	}
	slog.Debug("File change detected", logfields.Path(path), logfields.Event(string(kind)))
	s.handler(ChangeEvent{Path: path, Kind: kind})
}

// Unsubscribe closes the watcher and waits until no handler call is in progress.
func (s *fsSubscription) Unsubscribe() error {
	s.once.Do(func() {
		if err := s.watcher.Close(); err != nil && !errors.Is(err, fsnotify.ErrClosed) {
			s.err = fmt.Errorf("close watcher: %w", err)
		}
		<-s.done
	})
	return s.err
}

func addDirsRecursive(w *fsnotify.Watcher, root string) {
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if err := w.Add(path); err != nil {
				slog.Warn("Watch add failed", logfields.Path(path), logfields.Error(err))
			}
		}
		return nil
	})
}

// shouldIgnoreEvent reports hidden files and editor temp files.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)
	switch {
	case strings.HasPrefix(base, "."),
		strings.HasSuffix(base, "~"),
		strings.HasSuffix(base, ".swp"),
		strings.HasSuffix(base, ".swx"),
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#"),
		base == "Thumbs.db":
		return true
	}
	return false
}
