package stages

import (
	"encoding/json"
	"path/filepath"
)

// SourceMap is a version 3 source map document.
type SourceMap struct {
	Version        int      `json:"version"`
	File           string   `json:"file"`
	SourceRoot     string   `json:"sourceRoot"`
	Sources        []string `json:"sources"`
	SourcesContent []string `json:"sourcesContent,omitempty"`
	Names          []string `json:"names"`
	Mappings       string   `json:"mappings"`
}

// WholeFileMap returns a source map pointing the whole output at its source file, for
// transformations that do not track positions.
func WholeFileMap(in Input) ([]byte, error) {
	sm := SourceMap{
		Version:        3,
		File:           filepath.Base(in.OutputPath),
		Sources:        []string{SourceRef(in)},
		SourcesContent: []string{string(in.Data)},
		Names:          []string{},
		Mappings:       "AAAA",
	}
	return json.MarshalIndent(sm, "", "  ")
}

// SourceRef is the input path as seen from the output file's directory.
func SourceRef(in Input) string {
	rel, err := filepath.Rel(filepath.Dir(absOr(in.OutputPath)), absOr(in.Path))
	if err != nil {
		return filepath.ToSlash(in.Path)
	}
	return filepath.ToSlash(rel)
}

// MapFileName is the sibling source map path of an output.
func MapFileName(output string) string { return output + ".map" }

// MapURL is the reference to an output's source map, relative to the output itself.
func MapURL(in Input) string { return filepath.Base(MapFileName(in.OutputPath)) }

func absOr(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
