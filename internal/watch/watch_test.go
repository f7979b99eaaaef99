package watch

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type collector struct {
	mu     sync.Mutex
	events []ChangeEvent
}

func (c *collector) handle(ev ChangeEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
}

func (c *collector) snapshot() []ChangeEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]ChangeEvent(nil), c.events...)
}

func TestFSCapability_DeliversMatchingEvents(t *testing.T) {
	dir := t.TempDir()
	c := &collector{}

	sub, err := NewFSCapability().Subscribe(filepath.ToSlash(dir)+"/**/*.css", c.handle)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sub.Unsubscribe() })

	require.NoError(t, os.WriteFile(filepath.Join(dir, "site.css"), []byte("a{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignored.js"), []byte("x"), 0o644))

	require.Eventually(t, func() bool {
		for _, ev := range c.snapshot() {
			if filepath.Base(ev.Path) == "site.css" {
				return true
			}
		}
		return false
	}, 2*time.Second, 20*time.Millisecond)

	for _, ev := range c.snapshot() {
		require.Equal(t, ".css", filepath.Ext(ev.Path))
	}
}

func TestFSCapability_UnsubscribeStopsDelivery(t *testing.T) {
	dir := t.TempDir()
	c := &collector{}

	sub, err := NewFSCapability().Subscribe(filepath.ToSlash(dir)+"/*.html", c.handle)
	require.NoError(t, err)
	require.NoError(t, sub.Unsubscribe())
	require.NoError(t, sub.Unsubscribe())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<p>"), 0o644))
	time.Sleep(100 * time.Millisecond)
	require.Empty(t, c.snapshot())
}

func TestFSCapability_RejectsMissingBase(t *testing.T) {
	_, err := NewFSCapability().Subscribe(filepath.ToSlash(t.TempDir())+"/missing/*.css", func(ChangeEvent) {})
	require.Error(t, err)
}

func TestShouldIgnoreEvent(t *testing.T) {
	require.True(t, shouldIgnoreEvent("src/.hidden.css"))
	require.True(t, shouldIgnoreEvent("src/site.css~"))
	require.True(t, shouldIgnoreEvent("src/.site.css.swp"))
	require.False(t, shouldIgnoreEvent("src/site.css"))
}
