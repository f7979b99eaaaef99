package incremental

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/assetpipe/internal/build"
	foundationerrors "git.home.luguber.info/inful/assetpipe/internal/foundation/errors"
	"git.home.luguber.info/inful/assetpipe/internal/watch"
)

// fakeWatcher hands events to every subscription whose pattern matches.
type fakeWatcher struct {
	mu   sync.Mutex
	subs map[string]watch.Handler
}

func newFakeWatcher() *fakeWatcher { return &fakeWatcher{subs: map[string]watch.Handler{}} }

func (f *fakeWatcher) Subscribe(pattern string, h watch.Handler) (watch.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs[pattern] = h
	return fakeSub{f: f, pattern: pattern}, nil
}

func (f *fakeWatcher) emit(path string) {
	f.mu.Lock()
	var hs []watch.Handler
	for p, h := range f.subs {
		if ok, _ := doublestar.Match(p, path); ok {
			hs = append(hs, h)
		}
	}
	f.mu.Unlock()
	for _, h := range hs {
		h(watch.ChangeEvent{Path: path, Kind: watch.Modified})
	}
}

func (f *fakeWatcher) active() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

type fakeSub struct {
	f       *fakeWatcher
	pattern string
}

func (s fakeSub) Unsubscribe() error {
	s.f.mu.Lock()
	defer s.f.mu.Unlock()
	delete(s.f.subs, s.pattern)
	return nil
}

type fileStage struct {
	id      string
	delay   time.Duration
	fail    bool
	all     atomic.Int32
	running atomic.Int32
	mu      sync.Mutex
	rebuilt []string
}

func (s *fileStage) ID() string         { return s.id }
func (s *fileStage) OutputRoot() string { return "out/" + s.id }
func (s *fileStage) BuildAll(context.Context) build.StageResult {
	s.all.Add(1)
	return build.NewSuccess(s.id, nil, 0)
}

func (s *fileStage) BuildOne(_ context.Context, file string) (build.StageResult, bool) {
	if file == "gone.css" {
		return build.StageResult{}, false
	}
	s.running.Add(1)
	defer s.running.Add(-1)
	time.Sleep(s.delay)
	s.mu.Lock()
	s.rebuilt = append(s.rebuilt, file)
	s.mu.Unlock()
	if s.fail {
		return build.NewFailure(s.id, "parse error", 0), true
	}
	return build.NewSuccess(s.id, []build.ArtifactRef{{SourcePath: file}}, 0), true
}

func (s *fileStage) builds() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.rebuilt...)
}

// bundleStage only rebuilds as a whole.
type bundleStage struct {
	all atomic.Int32
}

func (b *bundleStage) ID() string         { return "js" }
func (b *bundleStage) OutputRoot() string { return "out/js" }
func (b *bundleStage) BuildAll(context.Context) build.StageResult {
	b.all.Add(1)
	return build.NewSuccess("js", nil, 0)
}

type reports struct {
	mu   sync.Mutex
	list []*build.BuildReport
}

func (r *reports) add(rep *build.BuildReport) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.list = append(r.list, rep)
}

func (r *reports) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.list)
}

func (r *reports) get(i int) *build.BuildReport {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.list[i]
}

const debounce = 40 * time.Millisecond

func TestSession_DebounceCoalescesBurst(t *testing.T) {
	w := newFakeWatcher()
	css := &fileStage{id: "css"}
	got := &reports{}

	s, err := NewController(w, []build.Stage{css}).WithDebounce(debounce).
		Start(t.Context(), map[string]string{"css": "src/css/**/*.css"}, got.add)
	require.NoError(t, err)
	defer s.Stop()

	for range 3 {
		w.emit("src/css/site.css")
		time.Sleep(5 * time.Millisecond)
	}

	require.Eventually(t, func() bool { return got.len() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(3 * debounce)
	require.Equal(t, 1, got.len())
	require.Equal(t, []string{"site.css"}, css.builds())

	rep := got.get(0)
	require.Equal(t, "src/css/site.css", rep.Trigger)
	require.Equal(t, []string{"css"}, rep.StageIDs())
	require.True(t, rep.Success())
	require.Zero(t, css.all.Load())
}

func TestSession_DistinctFilesRebuildIndependently(t *testing.T) {
	w := newFakeWatcher()
	css := &fileStage{id: "css"}
	got := &reports{}

	s, err := NewController(w, []build.Stage{css}).WithDebounce(debounce).
		Start(t.Context(), map[string]string{"css": "src/**/*.css"}, got.add)
	require.NoError(t, err)
	defer s.Stop()

	w.emit("src/a.css")
	w.emit("src/nested/b.css")

	require.Eventually(t, func() bool { return got.len() == 2 }, time.Second, 5*time.Millisecond)
	require.ElementsMatch(t, []string{"a.css", "nested/b.css"}, css.builds())
}

func TestSession_StageWithoutSingleFileSupportRebuildsWhole(t *testing.T) {
	w := newFakeWatcher()
	js := &bundleStage{}
	got := &reports{}

	s, err := NewController(w, []build.Stage{js}).WithDebounce(debounce).
		Start(t.Context(), map[string]string{"js": "src/js/**/*.js"}, got.add)
	require.NoError(t, err)
	defer s.Stop()

	w.emit("src/js/a.js")
	w.emit("src/js/b.js")

	require.Eventually(t, func() bool { return got.len() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(3 * debounce)
	require.Equal(t, int32(1), js.all.Load())
}

func TestSession_FailureIsReportedAndWatchingContinues(t *testing.T) {
	w := newFakeWatcher()
	css := &fileStage{id: "css", fail: true}
	got := &reports{}

	s, err := NewController(w, []build.Stage{css}).WithDebounce(debounce).
		Start(t.Context(), map[string]string{"css": "src/*.css"}, got.add)
	require.NoError(t, err)
	defer s.Stop()

	w.emit("src/a.css")
	require.Eventually(t, func() bool { return got.len() == 1 }, time.Second, 5*time.Millisecond)
	require.False(t, got.get(0).Success())

	w.emit("src/a.css")
	require.Eventually(t, func() bool { return got.len() == 2 }, time.Second, 5*time.Millisecond)
}

func TestSession_MissingInputProducesNoReport(t *testing.T) {
	w := newFakeWatcher()
	css := &fileStage{id: "css"}
	got := &reports{}

	s, err := NewController(w, []build.Stage{css}).WithDebounce(debounce).
		Start(t.Context(), map[string]string{"css": "src/*.css"}, got.add)
	require.NoError(t, err)
	defer s.Stop()

	w.emit("src/gone.css")
	time.Sleep(4 * debounce)
	require.Zero(t, got.len())
}

func TestSession_EventDuringRebuildSchedulesOneFollowUp(t *testing.T) {
	w := newFakeWatcher()
	css := &fileStage{id: "css", delay: 4 * debounce}
	got := &reports{}

	s, err := NewController(w, []build.Stage{css}).WithDebounce(debounce).
		Start(t.Context(), map[string]string{"css": "src/*.css"}, got.add)
	require.NoError(t, err)
	defer s.Stop()

	w.emit("src/a.css")
	time.Sleep(debounce + debounce/2)
	// Two separate debounced events while the first rebuild runs.
	w.emit("src/a.css")
	time.Sleep(debounce + debounce/2)
	w.emit("src/a.css")

	require.Eventually(t, func() bool { return got.len() == 2 }, 2*time.Second, 5*time.Millisecond)
	time.Sleep(6 * debounce)
	require.Equal(t, 2, got.len())
}

func TestSession_RunExclusiveNeverOverlapsRebuilds(t *testing.T) {
	w := newFakeWatcher()
	css := &fileStage{id: "css", delay: 4 * debounce}
	got := &reports{}

	s, err := NewController(w, []build.Stage{css}).WithDebounce(debounce).
		Start(t.Context(), map[string]string{"css": "src/*.css"}, got.add)
	require.NoError(t, err)
	defer s.Stop()

	w.emit("src/a.css")
	require.Eventually(t, func() bool { return css.running.Load() == 1 }, time.Second, time.Millisecond)

	var overlapped atomic.Bool
	ran := s.RunExclusive(func() {
		if css.running.Load() != 0 {
			overlapped.Store(true)
		}
		// Becomes due while the sweep holds the session.
		w.emit("src/b.css")
		time.Sleep(3 * debounce)
		if css.running.Load() != 0 {
			overlapped.Store(true)
		}
	})
	require.True(t, ran)
	require.False(t, overlapped.Load())
	require.Equal(t, 1, got.len())

	require.Eventually(t, func() bool { return got.len() == 2 }, 2*time.Second, 5*time.Millisecond)
	require.Equal(t, []string{"a.css", "b.css"}, css.builds())

	s.Stop()
	require.False(t, s.RunExclusive(func() { t.Error("ran after Stop") }))
}

func TestSession_ExpiredTimerDoesNotDropRearmedRebuild(t *testing.T) {
	w := newFakeWatcher()
	css := &fileStage{id: "css"}
	got := &reports{}

	s, err := NewController(w, []build.Stage{css}).WithDebounce(time.Hour).
		Start(t.Context(), map[string]string{"css": "src/*.css"}, got.add)
	require.NoError(t, err)
	defer s.Stop()

	key := fileKey{stage: "css", file: "a.css"}
	s.schedule(key, "src/a.css")

	// The first timer expires, and the event that re-arms it wins the lock.
	s.mu.Lock()
	st := s.files[key]
	expired := st.gen
	st.timer.Stop()
	s.mu.Unlock()
	s.schedule(key, "src/a.css")
	s.fire(key, st, expired)

	s.mu.Lock()
	require.Same(t, st, s.files[key])
	require.NotNil(t, st.timer)
	current := st.gen
	st.timer.Stop()
	s.mu.Unlock()
	require.Empty(t, css.builds())
	require.Zero(t, got.len())

	s.fire(key, st, current)
	require.Equal(t, []string{"a.css"}, css.builds())
	require.Equal(t, 1, got.len())

	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotContains(t, s.files, key)
}

func TestSession_StopIsIdempotentAndSilencesReports(t *testing.T) {
	w := newFakeWatcher()
	css := &fileStage{id: "css"}
	got := &reports{}

	s, err := NewController(w, []build.Stage{css}).WithDebounce(debounce).
		Start(t.Context(), map[string]string{"css": "src/*.css"}, got.add)
	require.NoError(t, err)
	require.Equal(t, 1, w.active())

	w.emit("src/a.css")
	s.Stop()
	s.Stop()

	require.Zero(t, w.active())
	time.Sleep(3 * debounce)
	require.Zero(t, got.len())
	require.Empty(t, css.builds())
}

func TestSession_AmbiguousPathGoesToErrorHandler(t *testing.T) {
	w := newFakeWatcher()
	a, b := &fileStage{id: "a"}, &fileStage{id: "b"}
	got := &reports{}
	var errs []error
	var mu sync.Mutex

	s, err := NewController(w, []build.Stage{a, b}).WithDebounce(debounce).
		WithErrorHandler(func(err error) {
			mu.Lock()
			defer mu.Unlock()
			errs = append(errs, err)
		}).
		Start(t.Context(), map[string]string{"a": "src/**/*.css", "b": "src/*.css"}, got.add)
	require.NoError(t, err)
	defer s.Stop()

	w.emit("src/x.css")
	time.Sleep(3 * debounce)

	mu.Lock()
	defer mu.Unlock()
	// Both subscriptions receive the event and both detect the ambiguity.
	require.NotEmpty(t, errs)
	require.Equal(t, foundationerrors.CategoryConfig, foundationerrors.GetCategory(errs[0]))
	require.Zero(t, got.len())
}

func TestStart_RejectsInvalidSources(t *testing.T) {
	css, js := &fileStage{id: "css"}, &fileStage{id: "js"}
	c := NewController(newFakeWatcher(), []build.Stage{css, js})

	cases := map[string]map[string]string{
		"none":      {},
		"unknown":   {"scss": "src/*.scss"},
		"empty":     {"css": "  "},
		"identical": {"css": "src/*", "js": "src/*"},
	}
	for name, sources := range cases {
		t.Run(name, func(t *testing.T) {
			s, err := c.Start(t.Context(), sources, nil)
			require.Error(t, err)
			require.Nil(t, s)
			require.Equal(t, foundationerrors.CategoryConfig, foundationerrors.GetCategory(err))
		})
	}
}

func TestRelativeTo(t *testing.T) {
	require.Equal(t, "a.css", relativeTo("src/css", "src/css/a.css"))
	require.Equal(t, "x/a.css", relativeTo("src/", "src/x/a.css"))
	require.Equal(t, "a.css", relativeTo(".", "a.css"))
}
