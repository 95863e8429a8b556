package reader

import (
	"context"
	"io"

	"github.com/BurntSushi/toml"

	"github.com/xraph/beans/internal/definition"
)

// TOMLReader reads TOML bean documents:
//
//	[[beans]]
//	id = "repo"
//	type = "sql.Repo"
//	args = [{ ref = "db" }]
type TOMLReader struct{}

// NewTOMLReader creates a TOML reader.
func NewTOMLReader() *TOMLReader { return &TOMLReader{} }

// Read parses r.
func (TOMLReader) Read(_ context.Context, r io.Reader, source string) ([]*definition.Definition, error) {
	var doc document
	if _, err := toml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, parseError(source, err)
	}

	defs, err := doc.definitions(source)
	if err != nil {
		return nil, parseError(source, err)
	}
	return defs, nil
}
