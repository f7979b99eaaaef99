package stages

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/assetpipe/internal/build"
	foundationerrors "git.home.luguber.info/inful/assetpipe/internal/foundation/errors"
	"git.home.luguber.info/inful/assetpipe/internal/logfields"
	"git.home.luguber.info/inful/assetpipe/internal/observability"
)

// ReasonInputDirMissing is the failure reason when a stage's input directory is absent.
const ReasonInputDirMissing = "input directory not found"

// Options are the settings every file stage shares.
type Options struct {
	ID         string
	InputDir   string
	OutputDir  string
	Include    string
	Exclude    []string
	SourceMaps bool
	// Concurrency bounds per-file parallelism; zero or less means unbounded.
	Concurrency int
}

// Input is one file handed to a Processor.
type Input struct {
	// Rel is the slash separated path relative to the input directory.
	Rel  string
	Path string
	Data []byte
	// OutputRel is the slash separated output path relative to the output directory.
	OutputRel  string
	OutputPath string
}

// Output is the transformed content of one input.
type Output struct {
	Data []byte
	// SourceMap is written to a sibling .map file when source maps are enabled.
	SourceMap []byte
}

// Processor is the per-file transformation of a stage.
type Processor interface {
	// OutputName maps an input path to its output path, both relative and slash separated.
	OutputName(rel string) string
	// Process transforms one input. withMap requests a source map in the output.
	Process(ctx context.Context, in Input, withMap bool) (Output, error)
}

// FileStage runs a Processor over every input matching the include glob.
type FileStage struct {
	opts Options
	proc Processor
}

var (
	_ build.Stage             = (*FileStage)(nil)
	_ build.SingleFileBuilder = (*FileStage)(nil)
	_ build.Watchable         = (*FileStage)(nil)
)

// NewFileStage validates opts and returns the stage.
func NewFileStage(opts Options, proc Processor) (*FileStage, error) {
	if opts.ID == "" {
		return nil, foundationerrors.ConfigError("stage id is required").Build()
	}
	if opts.InputDir == "" || opts.OutputDir == "" {
		return nil, foundationerrors.ConfigError("stage input and output directories are required").WithContext("stage", opts.ID).Build()
	}
	if opts.Include == "" || !doublestar.ValidatePattern(opts.Include) {
		return nil, foundationerrors.ConfigError("invalid include pattern").WithContext("stage", opts.ID).WithContext("pattern", opts.Include).Build()
	}
	for _, ex := range opts.Exclude {
		if !doublestar.ValidatePattern(ex) {
			return nil, foundationerrors.ConfigError("invalid exclude pattern").WithContext("stage", opts.ID).WithContext("pattern", ex).Build()
		}
	}
	return &FileStage{opts: opts, proc: proc}, nil
}

func (s *FileStage) ID() string         { return s.opts.ID }
func (s *FileStage) OutputRoot() string { return s.opts.OutputDir }

// WatchPattern is the include glob anchored at the input directory.
func (s *FileStage) WatchPattern() string {
	return path.Join(filepath.ToSlash(s.opts.InputDir), s.opts.Include)
}

// BuildAll processes every matching input concurrently. Any per-file error fails the
// stage; the remaining files are still processed.
func (s *FileStage) BuildAll(ctx context.Context) build.StageResult {
	start := time.Now()
	if !dirExists(s.opts.InputDir) {
		return build.NewFailure(s.opts.ID, ReasonInputDirMissing, time.Since(start))
	}
	inputs, err := s.discover()
	if err != nil {
		return build.NewFailure(s.opts.ID, err.Error(), time.Since(start))
	}
	if len(inputs) == 0 {
		observability.InfoContext(ctx, "No inputs found", logfields.Path(s.opts.InputDir))
		return build.NewSuccess(s.opts.ID, nil, time.Since(start))
	}
	if err := s.checkCollisions(inputs); err != nil {
		return build.NewFailure(s.opts.ID, err.Error(), time.Since(start))
	}

	artifacts := make([]build.ArtifactRef, len(inputs))
	errs := make([]error, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	if s.opts.Concurrency > 0 {
		g.SetLimit(s.opts.Concurrency)
	}
	for i, rel := range inputs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			artifacts[i], errs[i] = s.processOne(ctx, rel)
			return nil
		})
	}
	_ = g.Wait()

	if err := summarize(errs); err != nil {
		return build.NewFailure(s.opts.ID, err.Error(), time.Since(start))
	}
	return build.NewSuccess(s.opts.ID, artifacts, time.Since(start))
}

// BuildOne rebuilds one input given relative to the input directory. Files that do not
// exist, or that the stage does not own, are reported as not found. An input sharing its
// output with another input fails without writing.
func (s *FileStage) BuildOne(ctx context.Context, file string) (build.StageResult, bool) {
	start := time.Now()
	rel := path.Clean(filepath.ToSlash(file))
	if !s.owns(rel) {
		return build.StageResult{}, false
	}
	if fi, err := os.Stat(filepath.Join(s.opts.InputDir, filepath.FromSlash(rel))); err != nil || !fi.Mode().IsRegular() {
		return build.StageResult{}, false
	}
	if err := s.collision(rel); err != nil {
		return build.NewFailure(s.opts.ID, err.Error(), time.Since(start)), true
	}
	art, err := s.processOne(ctx, rel)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return build.StageResult{}, false
		}
		return build.NewFailure(s.opts.ID, err.Error(), time.Since(start)), true
	}
	return build.NewSuccess(s.opts.ID, []build.ArtifactRef{art}, time.Since(start)), true
}

func (s *FileStage) owns(rel string) bool {
	if ok, _ := doublestar.Match(s.opts.Include, rel); !ok {
		return false
	}
	for _, ex := range s.opts.Exclude {
		if ok, _ := doublestar.Match(ex, rel); ok {
			return false
		}
	}
	return true
}

func (s *FileStage) discover() ([]string, error) {
	matches, err := doublestar.Glob(os.DirFS(s.opts.InputDir), s.opts.Include, doublestar.WithFilesOnly())
	if err != nil {
		return nil, foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "cannot list inputs").WithContext("dir", s.opts.InputDir).Build()
	}
	inputs := matches[:0]
	for _, rel := range matches {
		if s.owns(rel) {
			inputs = append(inputs, rel)
		}
	}
	sort.Strings(inputs)
	return inputs, nil
}

func (s *FileStage) checkCollisions(inputs []string) error {
	seen := make(map[string]string, len(inputs))
	for _, rel := range inputs {
		out := s.proc.OutputName(rel)
		if other, dup := seen[out]; dup {
			return fmt.Errorf("inputs %s and %s both produce %s", other, rel, out)
		}
		seen[out] = rel
	}
	return nil
}

// collision reports another input that maps to the same output as rel.
func (s *FileStage) collision(rel string) error {
	inputs, err := s.discover()
	if err != nil {
		return err
	}
	out := s.proc.OutputName(rel)
	for _, other := range inputs {
		if other != rel && s.proc.OutputName(other) == out {
			return fmt.Errorf("inputs %s and %s both produce %s", other, rel, out)
		}
	}
	return nil
}

func (s *FileStage) processOne(ctx context.Context, rel string) (build.ArtifactRef, error) {
	src := filepath.Join(s.opts.InputDir, filepath.FromSlash(rel))
	data, err := os.ReadFile(src)
	if err != nil {
		return build.ArtifactRef{}, err
	}
	outRel := s.proc.OutputName(rel)
	dst := filepath.Join(s.opts.OutputDir, filepath.FromSlash(outRel))
	in := Input{Rel: rel, Path: src, Data: data, OutputRel: outRel, OutputPath: dst}
	out, err := s.proc.Process(ctx, in, s.opts.SourceMaps)
	if err != nil {
		return build.ArtifactRef{}, fmt.Errorf("%s: %w", rel, err)
	}

	if err := WriteFile(dst, out.Data); err != nil {
		return build.ArtifactRef{}, err
	}
	hasMap := s.opts.SourceMaps && len(out.SourceMap) > 0
	if hasMap {
		if err := WriteFile(MapFileName(dst), out.SourceMap); err != nil {
			return build.ArtifactRef{}, err
		}
	}
	observability.DebugContext(ctx, "Wrote output", logfields.File(rel), logfields.Path(dst))
	return build.ArtifactRef{
		SourcePath:   src,
		OutputPath:   dst,
		ByteSize:     int64(len(out.Data)),
		HasSourceMap: hasMap,
	}, nil
}

// WriteFile writes data to dst, creating parent directories.
func WriteFile(dst string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "cannot create output directory").WithContext("path", dst).Build()
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return foundationerrors.WrapError(err, foundationerrors.CategoryFileSystem, "cannot write output").WithContext("path", dst).Build()
	}
	return nil
}

func dirExists(dir string) bool {
	fi, err := os.Stat(dir)
	return err == nil && fi.IsDir()
}

// summarize folds per-file errors into one failure reason.
func summarize(errs []error) error {
	var failed []string
	for _, err := range errs {
		if err != nil {
			failed = append(failed, err.Error())
		}
	}
	switch len(failed) {
	case 0:
		return nil
	case 1:
		return errors.New(failed[0])
	default:
		return fmt.Errorf("%d files failed: %s", len(failed), strings.Join(failed, "; "))
	}
}
