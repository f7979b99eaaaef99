package build

import "context"

// Stage is the contract every asset stage implements.
type Stage interface {
	// ID returns the stage identifier, unique within one orchestrated run.
	ID() string
	// OutputRoot returns the directory the stage writes into. Output roots of the stages
	// in one run must be disjoint.
	OutputRoot() string
	// BuildAll builds every input of the stage.
	BuildAll(ctx context.Context) StageResult
}

// SingleFileBuilder is implemented by stages able to rebuild one input in isolation.
// The file is relative to the stage's input directory. found is false when the input
// does not exist; that is a skip, not a failure.
type SingleFileBuilder interface {
	BuildOne(ctx context.Context, file string) (result StageResult, found bool)
}

// Watchable is implemented by stages that declare which input paths they own.
type Watchable interface {
	WatchPattern() string
}

// WatchSources collects the watch pattern of every Watchable stage, keyed by stage ID.
func WatchSources(stages []Stage) map[string]string {
	sources := make(map[string]string, len(stages))
	for _, st := range stages {
		if w, ok := st.(Watchable); ok && w.WatchPattern() != "" {
			sources[st.ID()] = w.WatchPattern()
		}
	}
	return sources
}
