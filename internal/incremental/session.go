package incremental

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"

	"git.home.luguber.info/inful/assetpipe/internal/build"
	foundationerrors "git.home.luguber.info/inful/assetpipe/internal/foundation/errors"
	"git.home.luguber.info/inful/assetpipe/internal/logfields"
	"git.home.luguber.info/inful/assetpipe/internal/metrics"
	"git.home.luguber.info/inful/assetpipe/internal/observability"
	"git.home.luguber.info/inful/assetpipe/internal/watch"
)

// fileKey identifies one debounced unit of work. file is empty for stages that can only
// rebuild as a whole, so all their events coalesce into one stage rebuild.
type fileKey struct {
	stage string
	file  string
}

type fileState struct {
	timer   *time.Timer
	trigger string
	running bool
	dirty   bool
	// gen identifies the most recently armed timer; a timer whose generation is stale
	// has been superseded and must not touch the state.
	gen uint64
}

// Session owns the watch subscriptions and rebuild state of one Start call.
type Session struct {
	c        *Controller
	sources  []source
	onReport ReportFunc
	ctx      context.Context
	cancel   context.CancelFunc

	mu      sync.Mutex
	subs    []watch.Subscription
	files   map[fileKey]*fileState
	stopped bool

	// gate is held shared by scoped rebuilds and exclusively by RunExclusive.
	gate sync.RWMutex

	wg       sync.WaitGroup
	stopOnce sync.Once
}

// RunExclusive runs fn while no scoped rebuild is in flight. Rebuilds that become due
// meanwhile wait until fn returns. It reports false without running fn once the session
// is stopped.
func (s *Session) RunExclusive(fn func()) bool {
	s.mu.Lock()
	stopped := s.stopped
	s.mu.Unlock()
	if stopped {
		return false
	}
	s.gate.Lock()
	defer s.gate.Unlock()
	fn()
	return true
}

// Stop releases the subscriptions, drops pending rebuilds and waits for in-flight ones.
// No report is delivered after Stop returns. Calling Stop again is a no-op.
func (s *Session) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.stopped = true
		for key, st := range s.files {
			if st.timer != nil {
				st.timer.Stop()
			}
			if !st.running {
				delete(s.files, key)
			}
		}
		subs := s.subs
		s.subs = nil
		s.mu.Unlock()

		for _, sub := range subs {
			if err := sub.Unsubscribe(); err != nil {
				slog.Warn("Failed to release watch subscription", logfields.Error(err))
			}
		}
		s.cancel()
		s.wg.Wait()
		slog.Info("Watch session stopped")
	})
}

func (s *Session) handle(ev watch.ChangeEvent) {
	path := strings.TrimPrefix(ev.Path, "./")

	var owner *source
	var matched []string
	for i := range s.sources {
		if ok, _ := doublestar.Match(s.sources[i].pattern, path); ok {
			if owner == nil {
				owner = &s.sources[i]
			}
			matched = append(matched, s.sources[i].stage.ID())
		}
	}
	switch {
	case len(matched) == 0:
		return
	case len(matched) > 1:
		s.c.onError(foundationerrors.ConfigError("path matches more than one watch pattern").
			WithContext("path", path).
			WithContext("stages", strings.Join(matched, ",")).
			Build())
		return
	}

	key := fileKey{stage: owner.stage.ID()}
	if _, ok := owner.stage.(build.SingleFileBuilder); ok {
		key.file = relativeTo(owner.base, path)
	}
	s.schedule(key, path)
}

// schedule starts or restarts the debounce timer of key; the last event wins.
func (s *Session) schedule(key fileKey, trigger string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	st, ok := s.files[key]
	if !ok {
		st = &fileState{}
		s.files[key] = st
	}
	st.trigger = trigger
	if st.timer != nil && st.timer.Stop() {
		s.c.recorder.IncCoalescedEvent(key.stage)
	}
	st.gen++
	gen := st.gen
	st.timer = time.AfterFunc(s.c.debounce, func() { s.fire(key, st, gen) })
}

// fire runs the rebuild of key unless one is already in flight, in which case exactly one
// follow-up runs after it. A timer re-armed after this one expired owns the next run.
func (s *Session) fire(key fileKey, st *fileState, gen uint64) {
	s.mu.Lock()
	if s.stopped || s.files[key] != st || st.gen != gen {
		s.mu.Unlock()
		return
	}
	st.timer = nil
	if st.running {
		st.dirty = true
		s.mu.Unlock()
		return
	}
	st.running = true
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	for {
		s.mu.Lock()
		trigger := st.trigger
		s.mu.Unlock()

		s.rebuild(key, trigger)

		s.mu.Lock()
		if st.dirty && !s.stopped {
			st.dirty = false
			s.mu.Unlock()
			continue
		}
		st.running = false
		st.dirty = false
		if st.timer == nil {
			delete(s.files, key)
		}
		s.mu.Unlock()
		return
	}
}

func (s *Session) rebuild(key fileKey, trigger string) {
	s.gate.RLock()
	defer s.gate.RUnlock()

	stage := s.stage(key.stage)
	ctx := observability.WithTrigger(observability.WithStage(s.ctx, key.stage), trigger)
	ctx = observability.WithBuildID(ctx, uuid.NewString())
	start := time.Now()

	var res build.StageResult
	scope := metrics.ScopeStage
	if key.file != "" {
		scope = metrics.ScopeFile
		ctx = observability.WithFile(ctx, key.file)
		r, found, err := build.InvokeBuildOne(ctx, stage, key.file)
		if err != nil {
			res = build.NewFailure(key.stage, err.Error(), time.Since(start))
		} else if !found {
			observability.DebugContext(ctx, "Changed input no longer exists; skipping rebuild")
			return
		} else {
			res = r
		}
	} else {
		res = build.InvokeBuildAll(ctx, stage)
	}
	if s.ctx.Err() != nil {
		return
	}

	s.c.recorder.IncRebuild(key.stage, scope)
	s.c.recorder.ObserveStageDuration(key.stage, res.Duration)
	if res.Succeeded() {
		s.c.recorder.IncStageResult(key.stage, metrics.ResultSuccess)
		s.c.recorder.AddArtifacts(key.stage, len(res.Artifacts))
		observability.InfoContext(ctx, "Rebuilt", logfields.Artifacts(len(res.Artifacts)), logfields.Duration(res.Duration))
	} else {
		s.c.recorder.IncStageResult(key.stage, metrics.ResultFailure)
		observability.WarnContext(ctx, "Rebuild failed", logfields.Outcome(res.Outcome.Reason))
	}

	report := &build.BuildReport{
		ID:            observability.GetContext(ctx).BuildID,
		Mode:          build.ModeSequential,
		Stages:        []build.StageResult{res},
		StartedAt:     start,
		TotalDuration: time.Since(start),
		Trigger:       trigger,
	}
	s.mu.Lock()
	stopped := s.stopped
	s.mu.Unlock()
	if !stopped && s.onReport != nil {
		s.onReport(report)
	}
}

func (s *Session) stage(id string) build.Stage {
	for _, src := range s.sources {
		if src.stage.ID() == id {
			return src.stage
		}
	}
	panic(fmt.Sprintf("incremental: no source for stage %q", id))
}

// relativeTo returns path relative to the static base of a pattern, in slash form.
func relativeTo(base, path string) string {
	if base == "" || base == "." {
		return path
	}
	return strings.TrimPrefix(strings.TrimPrefix(path, strings.TrimSuffix(base, "/")), "/")
}
