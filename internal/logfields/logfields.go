package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyStage      = "stage"
	KeyMode       = "mode"
	KeyOutcome    = "outcome"
	KeyDurationMS = "duration_ms"
	KeyArtifacts  = "artifacts"
	KeyPath       = "path"
	KeyFile       = "file"
	KeyPattern    = "pattern"
	KeyEvent      = "event"
	KeyRevision   = "revision"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Stage(id string) slog.Attr       { return slog.String(KeyStage, id) }
func Mode(m string) slog.Attr         { return slog.String(KeyMode, m) }
func Outcome(o string) slog.Attr      { return slog.String(KeyOutcome, o) }
func Artifacts(n int) slog.Attr       { return slog.Int(KeyArtifacts, n) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func File(f string) slog.Attr         { return slog.String(KeyFile, f) }
func Pattern(p string) slog.Attr      { return slog.String(KeyPattern, p) }
func Event(kind string) slog.Attr     { return slog.String(KeyEvent, kind) }
func Revision(rev string) slog.Attr   { return slog.String(KeyRevision, rev) }
func Duration(d time.Duration) slog.Attr {
	return slog.Int64(KeyDurationMS, d.Milliseconds())
}
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
