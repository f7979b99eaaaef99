package build

import (
	"fmt"
	"path/filepath"
	"strings"

	foundationerrors "git.home.luguber.info/inful/assetpipe/internal/foundation/errors"
)

// ValidateStages checks the orchestration preconditions: a non-empty stage set, unique
// non-empty identifiers and pairwise disjoint output roots.
func ValidateStages(stages []Stage) error {
	if len(stages) == 0 {
		return foundationerrors.ConfigError("no stages configured").Build()
	}

	seen := make(map[string]struct{}, len(stages))
	for i, st := range stages {
		if st == nil {
			return foundationerrors.ConfigError(fmt.Sprintf("stage at position %d is nil", i)).Build()
		}
		id := st.ID()
		if id == "" {
			return foundationerrors.ConfigError(fmt.Sprintf("stage at position %d has an empty id", i)).Build()
		}
		if _, dup := seen[id]; dup {
			return foundationerrors.ConfigError("duplicate stage id").WithContext("stage", id).Build()
		}
		seen[id] = struct{}{}
	}

	for i := range stages {
		for j := i + 1; j < len(stages); j++ {
			a, b := stages[i].OutputRoot(), stages[j].OutputRoot()
			if a == "" || b == "" {
				continue
			}
			if rootsOverlap(a, b) {
				return foundationerrors.ConfigError("overlapping output roots").
					WithContext("stages", stages[i].ID()+","+stages[j].ID()).
					WithContext("roots", a+","+b).
					Build()
			}
		}
	}
	return nil
}

func rootsOverlap(a, b string) bool {
	a, b = absClean(a), absClean(b)
	return a == b || within(a, b) || within(b, a)
}

func within(parent, child string) bool {
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

func absClean(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}
