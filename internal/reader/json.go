package reader

import (
	"context"
	"io"

	jsoniter "github.com/json-iterator/go"

	"github.com/xraph/beans/internal/definition"
)

var jsonAPI = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	UseNumber:              true,
	DisallowUnknownFields:  true,
}.Froze()

// JSONReader reads JSON bean documents with the same shape as the YAML
// format.
type JSONReader struct{}

// NewJSONReader creates a JSON reader.
func NewJSONReader() *JSONReader { return &JSONReader{} }

// Read parses r.
func (JSONReader) Read(_ context.Context, r io.Reader, source string) ([]*definition.Definition, error) {
	var doc document
	if err := jsonAPI.NewDecoder(r).Decode(&doc); err != nil {
		return nil, parseError(source, err)
	}

	defs, err := doc.definitions(source)
	if err != nil {
		return nil, parseError(source, err)
	}
	return defs, nil
}
