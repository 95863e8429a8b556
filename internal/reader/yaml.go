package reader

import (
	"context"
	"errors"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/xraph/beans/internal/definition"
)

// YAMLReader reads YAML bean documents:
//
//	beans:
//	  - id: repo
//	    type: sql.Repo
//	    args: [{ref: db}]
//	    properties:
//	      timeout: 5s
type YAMLReader struct{}

// NewYAMLReader creates a YAML reader.
func NewYAMLReader() *YAMLReader { return &YAMLReader{} }

// Read parses r.
func (YAMLReader) Read(_ context.Context, r io.Reader, source string) ([]*definition.Definition, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc document
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, parseError(source, err)
	}

	defs, err := doc.definitions(source)
	if err != nil {
		return nil, parseError(source, err)
	}
	return defs, nil
}
