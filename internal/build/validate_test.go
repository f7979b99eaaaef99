package build

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateStages(t *testing.T) {
	noRoot := stage("noroot")
	noRoot.root = ""

	require.NoError(t, ValidateStages(asStages(stage("a"), stage("b"), noRoot)))
	require.Error(t, ValidateStages([]Stage{nil}))
	require.Error(t, ValidateStages(asStages(stage(""))))
}

func TestRootsOverlap(t *testing.T) {
	require.True(t, rootsOverlap("/out", "/out"))
	require.True(t, rootsOverlap("/out", "/out/js"))
	require.True(t, rootsOverlap("/out/js/", "/out"))
	require.False(t, rootsOverlap("/out/js", "/out/jsx"))
	require.False(t, rootsOverlap("/out/css", "/out/js"))
}

func TestParseSchedulingMode(t *testing.T) {
	require.Equal(t, ModeParallel, ParseSchedulingMode("Parallel"))
	require.Equal(t, ModeSequential, ParseSchedulingMode("serial"))
	require.Equal(t, SchedulingMode(""), ParseSchedulingMode("eventually"))
}
