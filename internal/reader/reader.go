// Package reader turns bean documents into ordered definition records.
//
// Every format maps onto the same model: a list of beans, each with an
// id, aliases, a type token, constructor arguments, properties and
// lifecycle attributes. Malformed input is reported as a
// definition-parse error carrying the document name.
package reader

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	beanerrors "github.com/xraph/beans/errors"
	"github.com/xraph/beans/internal/definition"
	"github.com/xraph/beans/internal/resource"
)

// Reader parses one document.
type Reader interface {
	Read(ctx context.Context, r io.Reader, source string) ([]*definition.Definition, error)
}

// ReaderFunc adapts a function to Reader.
type ReaderFunc func(ctx context.Context, r io.Reader, source string) ([]*definition.Definition, error)

// Read calls f.
func (f ReaderFunc) Read(ctx context.Context, r io.Reader, source string) ([]*definition.Definition, error) {
	return f(ctx, r, source)
}

// Format names a document format.
type Format string

const (
	FormatXML  Format = "xml"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
	FormatHCL  Format = "hcl"
)

// FormatOf picks the format of descriptor from its extension. Unknown
// extensions default to XML.
func FormatOf(descriptor string) Format {
	_, rest := resource.Scheme(descriptor)
	if i := strings.IndexAny(rest, "?#"); i >= 0 {
		rest = rest[:i]
	}
	switch strings.ToLower(path.Ext(rest)) {
	case ".yaml", ".yml":
		return FormatYAML
	case ".json":
		return FormatJSON
	case ".toml":
		return FormatTOML
	case ".hcl":
		return FormatHCL
	default:
		return FormatXML
	}
}

// ParseFormat maps a format name, case-insensitively, onto a Format.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case FormatXML, FormatYAML, FormatJSON, FormatTOML, FormatHCL:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown document format %q", name)
	}
}

// New returns the reader for format.
func New(format Format) Reader {
	switch format {
	case FormatYAML:
		return NewYAMLReader()
	case FormatJSON:
		return NewJSONReader()
	case FormatTOML:
		return NewTOMLReader()
	case FormatHCL:
		return NewHCLReader()
	default:
		return NewXMLReader()
	}
}

// ForSource returns the reader matching descriptor's extension.
func ForSource(descriptor string) Reader {
	return New(FormatOf(descriptor))
}

func parseError(source string, err error) error {
	return beanerrors.ErrDefinitionParse(source, err)
}
