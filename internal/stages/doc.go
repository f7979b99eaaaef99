// Package stages provides the file-oriented stage skeleton shared by the concrete asset
// stages: input discovery, concurrent per-file processing, output and source map writing.
//
// A concrete stage supplies a Processor; FileStage turns it into a build.Stage that also
// supports single-file rebuilds.
package stages
