// Package incremental turns filesystem changes into scoped stage rebuilds.
package incremental

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"git.home.luguber.info/inful/assetpipe/internal/build"
	foundationerrors "git.home.luguber.info/inful/assetpipe/internal/foundation/errors"
	"git.home.luguber.info/inful/assetpipe/internal/logfields"
	"git.home.luguber.info/inful/assetpipe/internal/metrics"
	"git.home.luguber.info/inful/assetpipe/internal/watch"
)

// DefaultDebounce is the coalescing window for events on the same file.
const DefaultDebounce = 300 * time.Millisecond

// ReportFunc receives the report of every completed rebuild.
type ReportFunc func(*build.BuildReport)

// Controller maps change events to the owning stage and rebuilds only what changed.
type Controller struct {
	watcher  watch.Capability
	stages   []build.Stage
	debounce time.Duration
	recorder metrics.Recorder
	onError  func(error)
}

// NewController creates a controller over the declared stages.
func NewController(watcher watch.Capability, stages []build.Stage) *Controller {
	return &Controller{
		watcher:  watcher,
		stages:   stages,
		debounce: DefaultDebounce,
		recorder: metrics.NoopRecorder{},
		onError:  logError,
	}
}

// WithDebounce sets the coalescing window.
func (c *Controller) WithDebounce(d time.Duration) *Controller {
	if d > 0 {
		c.debounce = d
	}
	return c
}

// WithRecorder sets the metrics recorder.
func (c *Controller) WithRecorder(r metrics.Recorder) *Controller {
	if r != nil {
		c.recorder = r
	}
	return c
}

// WithErrorHandler sets the handler for errors raised while routing events, such as a
// path owned by more than one stage. By default they are logged.
func (c *Controller) WithErrorHandler(fn func(error)) *Controller {
	if fn != nil {
		c.onError = fn
	}
	return c
}

func logError(err error) {
	slog.Warn("Dropping change event", logfields.Error(err))
}

type source struct {
	stage   build.Stage
	pattern string
	base    string
}

// Start subscribes to every source pattern (keyed by stage ID) and returns the session
// owning the subscriptions. The session stays active until Stop is called.
func (c *Controller) Start(ctx context.Context, sources map[string]string, onReport ReportFunc) (*Session, error) {
	srcs, err := c.resolveSources(sources)
	if err != nil {
		return nil, err
	}

	sctx, cancel := context.WithCancel(ctx)
	s := &Session{
		c:        c,
		sources:  srcs,
		onReport: onReport,
		ctx:      sctx,
		cancel:   cancel,
		files:    make(map[fileKey]*fileState),
	}
	for _, src := range srcs {
		sub, err := c.watcher.Subscribe(src.pattern, s.handle)
		if err != nil {
			s.Stop()
			return nil, err
		}
		s.mu.Lock()
		s.subs = append(s.subs, sub)
		s.mu.Unlock()
		slog.Info("Watching stage inputs", logfields.Stage(src.stage.ID()), logfields.Pattern(src.pattern))
	}
	return s, nil
}

func (c *Controller) resolveSources(sources map[string]string) ([]source, error) {
	if len(sources) == 0 {
		return nil, foundationerrors.ConfigError("no watch sources configured").Build()
	}
	byID := make(map[string]build.Stage, len(c.stages))
	for _, st := range c.stages {
		byID[st.ID()] = st
	}
	for id := range sources {
		if _, ok := byID[id]; !ok {
			return nil, foundationerrors.ConfigError("watch source names an unknown stage").WithContext("stage", id).Build()
		}
	}

	// Declaration order keeps subscription and matching order deterministic.
	srcs := make([]source, 0, len(sources))
	owner := make(map[string]string, len(sources))
	for _, st := range c.stages {
		pattern, ok := sources[st.ID()]
		if !ok {
			continue
		}
		pattern = filepath.ToSlash(strings.TrimSpace(pattern))
		if pattern == "" {
			return nil, foundationerrors.ConfigError("empty watch pattern").WithContext("stage", st.ID()).Build()
		}
		if !doublestar.ValidatePattern(pattern) {
			return nil, foundationerrors.ConfigError("invalid watch pattern").WithContext("stage", st.ID()).WithContext("pattern", pattern).Build()
		}
		if other, dup := owner[pattern]; dup {
			return nil, foundationerrors.ConfigError("identical watch patterns").
				WithContext("stages", other+","+st.ID()).
				WithContext("pattern", pattern).
				Build()
		}
		owner[pattern] = st.ID()
		base, _ := doublestar.SplitPattern(pattern)
		srcs = append(srcs, source{stage: st, pattern: pattern, base: base})
	}
	return srcs, nil
}
