package script

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/evanw/esbuild/pkg/api"

	"git.home.luguber.info/inful/assetpipe/internal/build"
	foundationerrors "git.home.luguber.info/inful/assetpipe/internal/foundation/errors"
	"git.home.luguber.info/inful/assetpipe/internal/stages"
)

const defaultEntry = "main.js"

// bundleStage bundles one entry point. Any change under the input directory rebuilds the
// whole bundle, so it deliberately offers no single-file rebuild.
type bundleStage struct {
	cfg Config
}

var (
	_ build.Stage     = (*bundleStage)(nil)
	_ build.Watchable = (*bundleStage)(nil)
)

func newBundleStage(cfg Config) (*bundleStage, error) {
	if cfg.InputDir == "" || cfg.OutputDir == "" {
		return nil, foundationerrors.ConfigError("stage input and output directories are required").WithContext("stage", cfg.ID).Build()
	}
	if cfg.Entry == "" {
		cfg.Entry = defaultEntry
	}
	return &bundleStage{cfg: cfg}, nil
}

func (b *bundleStage) ID() string         { return b.cfg.ID }
func (b *bundleStage) OutputRoot() string { return b.cfg.OutputDir }

func (b *bundleStage) WatchPattern() string {
	return path.Join(filepath.ToSlash(b.cfg.InputDir), "**/*.js")
}

func (b *bundleStage) outputPath() string {
	return filepath.Join(b.cfg.OutputDir, "bundle"+b.cfg.outputSuffix())
}

func (b *bundleStage) BuildAll(ctx context.Context) build.StageResult {
	start := time.Now()
	if fi, err := os.Stat(b.cfg.InputDir); err != nil || !fi.IsDir() {
		return build.NewFailure(b.cfg.ID, stages.ReasonInputDirMissing, time.Since(start))
	}
	entry := filepath.Join(b.cfg.InputDir, b.cfg.Entry)
	if _, err := os.Stat(entry); err != nil {
		return build.NewFailure(b.cfg.ID, "entry point not found: "+b.cfg.Entry, time.Since(start))
	}

	var art build.ArtifactRef
	var err error
	if b.cfg.Strategy == stages.StrategyFallback {
		art, err = b.copyEntry(entry)
	} else {
		art, err = b.bundle(entry)
	}
	if err != nil {
		return build.NewFailure(b.cfg.ID, err.Error(), time.Since(start))
	}
	return build.NewSuccess(b.cfg.ID, []build.ArtifactRef{art}, time.Since(start))
}

func (b *bundleStage) bundle(entry string) (build.ArtifactRef, error) {
	outfile, err := filepath.Abs(b.outputPath())
	if err != nil {
		return build.ArtifactRef{}, err
	}
	target, _ := parseTarget(b.cfg.Target)
	format, _ := parseFormat(b.cfg.Format)
	opts := api.BuildOptions{
		EntryPoints:       []string{entry},
		Bundle:            true,
		Write:             false,
		Outfile:           outfile,
		Target:            target,
		Format:            format,
		GlobalName:        b.cfg.GlobalName,
		MinifyWhitespace:  b.cfg.Minify,
		MinifyIdentifiers: b.cfg.Minify,
		MinifySyntax:      b.cfg.Minify,
		Drop:              b.cfg.drop(),
		Define:            b.cfg.define(),
		Platform:          api.PlatformBrowser,
		LogLevel:          api.LogLevelSilent,
	}
	if b.cfg.SourceMaps {
		opts.Sourcemap = api.SourceMapLinked
	}

	res := api.Build(opts)
	if len(res.Errors) > 0 {
		return build.ArtifactRef{}, esbuildErr(res.Errors)
	}

	art := build.ArtifactRef{SourcePath: entry, OutputPath: b.outputPath()}
	for _, f := range res.OutputFiles {
		dst := b.outputPath()
		if strings.HasSuffix(f.Path, ".map") {
			dst = stages.MapFileName(dst)
			art.HasSourceMap = true
		} else {
			art.ByteSize = int64(len(f.Contents))
		}
		if err := stages.WriteFile(dst, f.Contents); err != nil {
			return build.ArtifactRef{}, err
		}
	}
	return art, nil
}

// copyEntry is the fallback: no module resolution, the entry is only stripped.
func (b *bundleStage) copyEntry(entry string) (build.ArtifactRef, error) {
	data, err := os.ReadFile(entry)
	if err != nil {
		return build.ArtifactRef{}, err
	}
	in := stages.Input{Rel: b.cfg.Entry, Path: entry, Data: data, OutputRel: filepath.Base(b.outputPath()), OutputPath: b.outputPath()}
	out, err := fallbackProcess(in, b.cfg.Minify, b.cfg.SourceMaps)
	if err != nil {
		return build.ArtifactRef{}, err
	}
	if err := stages.WriteFile(in.OutputPath, out.Data); err != nil {
		return build.ArtifactRef{}, err
	}
	art := build.ArtifactRef{SourcePath: entry, OutputPath: in.OutputPath, ByteSize: int64(len(out.Data))}
	if len(out.SourceMap) > 0 {
		if err := stages.WriteFile(stages.MapFileName(in.OutputPath), out.SourceMap); err != nil {
			return build.ArtifactRef{}, err
		}
		art.HasSourceMap = true
	}
	return art, nil
}
