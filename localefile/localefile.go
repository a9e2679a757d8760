// Package localefile reads and writes locale resource files.
//
// Three encodings are supported, chosen by file extension:
//
//	.json                     plain data
//	.yaml .yml                structured text (comments and scalar styles kept on rewrite)
//	.js .mjs .cjs .ts .mts    source literal: `export default {...}` or `module.exports = {...}`
//
// Every decoder yields a canonical value (see package tree). Writers merge
// the new value into the original source text when the document was read
// from disk, and fall back to a fresh rendering otherwise.
package localefile

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/minios-linux/locsync/tree"
)

// ---------------------------------------------------------------------------
// Document model
// ---------------------------------------------------------------------------

// Format is the concrete file format.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatJS   Format = "js"
	FormatTS   Format = "ts"
)

// Encoding groups formats by how they are parsed and rewritten.
type Encoding string

const (
	PlainData      Encoding = "plain-data"
	StructuredText Encoding = "structured-text"
	SourceLiteral  Encoding = "source-literal"
)

// Wrapper records how a source-literal document exposes its value.
type Wrapper string

const (
	WrapperNone          Wrapper = ""
	WrapperDefaultExport Wrapper = "default-export"
	WrapperModuleExports Wrapper = "module-exports"
)

// Document is a decoded locale file.
type Document struct {
	Path    string
	Format  Format
	Wrapper Wrapper
	// Value is the canonical value of the whole document.
	Value any
	// Source is the text the document was decoded from. Nil for new
	// documents, which forces a fresh rendering on write.
	Source []byte
}

// Encoding returns the encoding family of the document's format.
func (d *Document) Encoding() Encoding {
	switch d.Format {
	case FormatYAML:
		return StructuredText
	case FormatJS, FormatTS:
		return SourceLiteral
	}
	return PlainData
}

// FormatOf maps a file extension to its format.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".js", ".mjs", ".cjs":
		return FormatJS, nil
	case ".ts", ".mts", ".cts":
		return FormatTS, nil
	}
	return "", fmt.Errorf("unsupported locale file extension %q", filepath.Ext(path))
}

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------

// DecodeError reports a file that could not be read as a locale document.
type DecodeError struct {
	Path string
	// Line and Column are 1-based; zero when the parser gave no position.
	Line   int
	Column int
	// Construct names the offending syntax for source-literal files
	// (e.g. "computed key", "spread element").
	Construct string
	Err       error
}

func (e *DecodeError) Error() string {
	loc := e.Path
	switch {
	case e.Line > 0 && e.Column > 0:
		loc = fmt.Sprintf("%s:%d:%d", e.Path, e.Line, e.Column)
	case e.Line > 0:
		loc = fmt.Sprintf("%s:%d", e.Path, e.Line)
	}
	return fmt.Sprintf("%s: %v", loc, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// EncodeError reports a value that cannot be serialized. It always means
// the caller built a non-canonical value.
type EncodeError struct {
	Path string
	Err  error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encoding %s: %v", e.Path, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }

// ---------------------------------------------------------------------------
// Reading
// ---------------------------------------------------------------------------

// Decode reads and parses the locale file at path.
func Decode(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	return DecodeBytes(path, data)
}

// DecodeBytes parses data as the locale file at path. The extension of
// path selects the format.
func DecodeBytes(path string, data []byte) (*Document, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	doc := &Document{Path: path, Format: format, Source: data}
	switch format {
	case FormatJSON:
		doc.Value, err = decodeJSON(path, data)
	case FormatYAML:
		doc.Value, err = decodeYAML(path, data)
	default:
		doc.Value, doc.Wrapper, err = decodeModule(path, format, data)
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// New returns an empty document for a file that does not exist yet.
// The wrapper only matters for source-literal formats; WrapperNone means
// default-export there.
func New(path string, wrapper Wrapper) (*Document, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	doc := &Document{Path: path, Format: format, Value: tree.NewMap()}
	if doc.Encoding() == SourceLiteral {
		if wrapper == WrapperNone {
			wrapper = WrapperDefaultExport
		}
		doc.Wrapper = wrapper
	}
	return doc, nil
}

// ---------------------------------------------------------------------------
// Writing
// ---------------------------------------------------------------------------

// Encode serializes v in the document's format. When the document carries
// its original source, the result keeps as much of that text as the
// format allows.
func Encode(doc *Document, v any) ([]byte, error) {
	if err := tree.Validate(v); err != nil {
		return nil, &EncodeError{Path: doc.Path, Err: err}
	}
	var (
		out []byte
		err error
	)
	switch doc.Format {
	case FormatJSON:
		out, err = encodeJSON(v)
	case FormatYAML:
		out, err = encodeYAML(doc.Source, v)
	case FormatJS, FormatTS:
		out, err = encodeModule(doc, v)
	default:
		err = fmt.Errorf("unknown format %q", doc.Format)
	}
	if err != nil {
		return nil, &EncodeError{Path: doc.Path, Err: err}
	}
	return out, nil
}

// Write encodes v and writes it to path, creating parent directories.
// path may differ from doc.Path (e.g. writing into an output directory).
func Write(path string, doc *Document, v any) error {
	data, err := Encode(doc, v)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// position converts a byte offset into a 1-based line and column.
func position(data []byte, offset int64) (line, col int) {
	if offset < 0 {
		offset = 0
	}
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	head := data[:offset]
	line = 1 + bytes.Count(head, []byte("\n"))
	col = int(offset) - (bytes.LastIndexByte(head, '\n') + 1) + 1
	return line, col
}
