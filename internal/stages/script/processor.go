package script

import (
	"context"
	"regexp"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	"git.home.luguber.info/inful/assetpipe/internal/stages"
)

type processor struct {
	cfg      Config
	strategy stages.Strategy
}

func newProcessor(cfg Config) *processor {
	return &processor{cfg: cfg, strategy: cfg.Strategy}
}

func (p *processor) OutputName(rel string) string {
	return strings.TrimSuffix(rel, ".js") + p.cfg.outputSuffix()
}

func (p *processor) Process(_ context.Context, in stages.Input, withMap bool) (stages.Output, error) {
	if p.strategy == stages.StrategyFallback {
		return fallbackProcess(in, p.cfg.Minify, withMap)
	}

	target, _ := parseTarget(p.cfg.Target)
	format, _ := parseFormat(p.cfg.Format)
	opts := api.TransformOptions{
		Loader:            api.LoaderJS,
		Sourcefile:        stages.SourceRef(in),
		Target:            target,
		Format:            format,
		GlobalName:        p.cfg.GlobalName,
		MinifyWhitespace:  p.cfg.Minify,
		MinifyIdentifiers: p.cfg.Minify,
		MinifySyntax:      p.cfg.Minify,
		Drop:              p.cfg.drop(),
		Define:            p.cfg.define(),
		LogLevel:          api.LogLevelSilent,
	}
	if withMap {
		opts.Sourcemap = api.SourceMapExternal
		opts.SourcesContent = api.SourcesContentInclude
	}

	res := api.Transform(string(in.Data), opts)
	if len(res.Errors) > 0 {
		return stages.Output{}, esbuildErr(res.Errors)
	}
	out := stages.Output{Data: res.Code}
	if withMap && len(res.Map) > 0 {
		out.SourceMap = res.Map
		out.Data = appendMapURL(out.Data, stages.MapURL(in))
	}
	return out, nil
}

func appendMapURL(code []byte, url string) []byte {
	return append(code, []byte("//# sourceMappingURL="+url+"\n")...)
}

var (
	blockCommentRe = regexp.MustCompile(`(?s)/\*.*?\*/`)
	lineCommentRe  = regexp.MustCompile(`(?m)^[ \t]*//.*$`)
	indentRe       = regexp.MustCompile(`(?m)^[ \t]+|[ \t]+$`)
	blankLinesRe   = regexp.MustCompile(`\n{2,}`)
)

// fallbackProcess strips comments and indentation without parsing. Only whole-line
// comments are removed so string literals containing "//" survive.
func fallbackProcess(in stages.Input, minify, withMap bool) (stages.Output, error) {
	code := string(in.Data)
	if minify {
		code = blockCommentRe.ReplaceAllString(code, "")
		code = lineCommentRe.ReplaceAllString(code, "")
		code = indentRe.ReplaceAllString(code, "")
		code = strings.TrimSpace(blankLinesRe.ReplaceAllString(code, "\n")) + "\n"
	}
	out := stages.Output{Data: []byte(code)}
	if withMap {
		sm, err := stages.WholeFileMap(in)
		if err != nil {
			return stages.Output{}, err
		}
		out.SourceMap = sm
		out.Data = appendMapURL(out.Data, stages.MapURL(in))
	}
	return out, nil
}
