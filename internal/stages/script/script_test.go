package script

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/assetpipe/internal/build"
	"git.home.luguber.info/inful/assetpipe/internal/stages"
)

const source = `// greeting helper
function greet(name) {
  /* say hi */
  console.log("hello " + name);
  debugger;
  return "https://example.com/" + name;
}
greet("world");
`

func write(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestProcessor_ProductionDropsConsole(t *testing.T) {
	p := newProcessor(Config{Minify: true, Production: true, Target: "modern"})

	out, err := p.Process(t.Context(), stages.Input{Rel: "app.js", Path: "app.js", OutputPath: "dist/app.min.js", Data: []byte(source)}, false)
	require.NoError(t, err)

	got := string(out.Data)
	require.NotContains(t, got, "console.log")
	require.NotContains(t, got, "debugger")
	require.NotContains(t, got, "greeting helper")
	require.Contains(t, got, "https://example.com/")
}

func TestProcessor_SyntaxErrorFails(t *testing.T) {
	p := newProcessor(Config{Minify: true})

	_, err := p.Process(t.Context(), stages.Input{Rel: "bad.js", Data: []byte("function (")}, false)
	require.Error(t, err)
}

func TestProcessor_SourceMap(t *testing.T) {
	p := newProcessor(Config{Minify: true})

	out, err := p.Process(t.Context(), stages.Input{Rel: "app.js", Path: "src/app.js", OutputPath: "dist/app.min.js", Data: []byte(source)}, true)
	require.NoError(t, err)
	require.Contains(t, string(out.Data), "//# sourceMappingURL=app.min.js.map")

	var sm map[string]any
	require.NoError(t, json.Unmarshal(out.SourceMap, &sm))
	require.EqualValues(t, 3, sm["version"])
}

func TestFallbackProcess(t *testing.T) {
	out, err := fallbackProcess(stages.Input{Data: []byte(source)}, true, false)
	require.NoError(t, err)

	got := string(out.Data)
	require.NotContains(t, got, "greeting helper")
	require.NotContains(t, got, "say hi")
	require.Contains(t, got, `"https://example.com/"`)
	require.Contains(t, got, "function greet(name) {\nconsole.log")
}

func TestNew_RejectsUnknownTargetAndFormat(t *testing.T) {
	_, err := New(Config{InputDir: "a", OutputDir: "b", Target: "es3"})
	require.Error(t, err)
	_, err = New(Config{InputDir: "a", OutputDir: "b", Format: "amd"})
	require.Error(t, err)
}

func TestStage_PerFileOutputs(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	write(t, in, "app.js", source)
	write(t, in, "lib.min.js", "x")

	st, err := New(Config{InputDir: in, OutputDir: out, Minify: true})
	require.NoError(t, err)
	_, ok := st.(build.SingleFileBuilder)
	require.True(t, ok)

	res := st.BuildAll(t.Context())
	require.True(t, res.Succeeded(), res.Outcome.String())
	require.Len(t, res.Artifacts, 1)
	require.Equal(t, filepath.Join(out, "app.min.js"), res.Artifacts[0].OutputPath)
}

func TestBundleStage(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	write(t, in, "main.js", `import { add } from "./math.js";
console.log(add(1, 2));
`)
	write(t, in, "math.js", `export function add(a, b) { return a + b; }
`)

	st, err := New(Config{InputDir: in, OutputDir: out, Bundle: true, Minify: true, SourceMaps: true, GlobalName: "App"})
	require.NoError(t, err)
	_, single := st.(build.SingleFileBuilder)
	require.False(t, single)

	res := st.BuildAll(t.Context())
	require.True(t, res.Succeeded(), res.Outcome.String())
	require.Len(t, res.Artifacts, 1)

	art := res.Artifacts[0]
	require.Equal(t, filepath.Join(out, "bundle.min.js"), art.OutputPath)
	require.True(t, art.HasSourceMap)
	require.FileExists(t, filepath.Join(out, "bundle.min.js.map"))

	data, err := os.ReadFile(art.OutputPath)
	require.NoError(t, err)
	require.NotContains(t, string(data), "import")
}

func TestBundleStage_MissingEntryFails(t *testing.T) {
	in := t.TempDir()
	st, err := New(Config{InputDir: in, OutputDir: t.TempDir(), Bundle: true})
	require.NoError(t, err)

	res := st.BuildAll(t.Context())
	require.False(t, res.Succeeded())
	require.Contains(t, res.Outcome.Reason, "main.js")
}

func TestBundleStage_FallbackCopiesEntry(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	write(t, in, "main.js", source)

	st, err := New(Config{InputDir: in, OutputDir: out, Bundle: true, Strategy: stages.StrategyFallback})
	require.NoError(t, err)

	res := st.BuildAll(t.Context())
	require.True(t, res.Succeeded(), res.Outcome.String())
	require.FileExists(t, filepath.Join(out, "bundle.js"))
}
