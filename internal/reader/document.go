package reader

import (
	"fmt"
	"slices"
	"strings"

	"github.com/xraph/beans/internal/definition"
)

// document is the format-neutral shape shared by the YAML, JSON and TOML
// readers.
type document struct {
	Beans   []documentBean    `yaml:"beans" json:"beans" toml:"beans"`
	Aliases map[string]string `yaml:"aliases" json:"aliases" toml:"aliases"`
}

type documentBean struct {
	ID            string         `yaml:"id" json:"id" toml:"id"`
	Aliases       []string       `yaml:"aliases" json:"aliases" toml:"aliases"`
	Type          string         `yaml:"type" json:"type" toml:"type"`
	Scope         string         `yaml:"scope" json:"scope" toml:"scope"`
	Lazy          bool           `yaml:"lazy" json:"lazy" toml:"lazy"`
	DependsOn     []string       `yaml:"depends-on" json:"depends-on" toml:"depends-on"`
	InitMethod    string         `yaml:"init-method" json:"init-method" toml:"init-method"`
	DestroyMethod string         `yaml:"destroy-method" json:"destroy-method" toml:"destroy-method"`
	Description   string         `yaml:"description" json:"description" toml:"description"`
	Args          []any          `yaml:"args" json:"args" toml:"args"`
	Properties    map[string]any `yaml:"properties" json:"properties" toml:"properties"`
}

// definitions converts the document, attaching top-level aliases
// (alias -> id) to their beans.
func (d *document) definitions(source string) ([]*definition.Definition, error) {
	defs := make([]*definition.Definition, 0, len(d.Beans))
	byID := make(map[string]*definition.Definition, len(d.Beans))

	for i, b := range d.Beans {
		def, err := b.definition(source)
		if err != nil {
			return nil, fmt.Errorf("bean %d (%q): %w", i, b.ID, err)
		}
		defs = append(defs, def)
		byID[def.ID] = def
	}

	if err := attachAliases(byID, d.Aliases); err != nil {
		return nil, err
	}
	return defs, nil
}

func (b documentBean) definition(source string) (*definition.Definition, error) {
	scope, err := definition.ParseScope(b.Scope)
	if err != nil {
		return nil, err
	}

	def := &definition.Definition{
		ID:            b.ID,
		Aliases:       slices.Clone(b.Aliases),
		Type:          b.Type,
		Scope:         scope,
		Lazy:          b.Lazy,
		DependsOn:     slices.Clone(b.DependsOn),
		InitMethod:    b.InitMethod,
		DestroyMethod: b.DestroyMethod,
		Description:   b.Description,
		Source:        source,
	}

	for i, raw := range b.Args {
		v, err := valueOf(raw)
		if err != nil {
			return nil, fmt.Errorf("arg %d: %w", i, err)
		}
		def.ConstructorArgs = append(def.ConstructorArgs, v)
	}

	for _, name := range sortedKeys(b.Properties) {
		v, err := valueOf(b.Properties[name])
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", name, err)
		}
		def.Properties = append(def.Properties, definition.Property{Name: name, Value: v})
	}

	return def, nil
}

// valueOf converts a decoded document value into a Value.
//
// A map with the single key "ref" is a reference, "parent" a parent
// reference, "idref" the checked name of a bean, "list" and "map" force the collection kind and "value" wraps
// a literal verbatim. Any other map is a map value, any slice a list
// value and everything else a literal.
func valueOf(raw any) (definition.Value, error) {
	switch v := raw.(type) {
	case []any:
		items := make([]definition.Value, 0, len(v))
		for i, item := range v {
			iv, err := valueOf(item)
			if err != nil {
				return definition.Value{}, fmt.Errorf("[%d]: %w", i, err)
			}
			items = append(items, iv)
		}
		return definition.List(items...), nil

	case map[string]any:
		if len(v) == 1 {
			for key, inner := range v {
				if tagged, ok, err := taggedValue(key, inner); ok || err != nil {
					return tagged, err
				}
			}
		}
		return mapValue(v)

	case map[any]any:
		m := make(map[string]any, len(v))
		for k, val := range v {
			m[fmt.Sprint(k)] = val
		}
		return valueOf(m)

	default:
		return definition.Literal(normalizeLiteral(raw)), nil
	}
}

func taggedValue(key string, inner any) (definition.Value, bool, error) {
	switch key {
	case "ref", "parent", "idref":
		id, ok := inner.(string)
		if !ok || strings.TrimSpace(id) == "" {
			return definition.Value{}, true, fmt.Errorf("%s must be a non-empty string", key)
		}
		switch key {
		case "parent":
			return definition.ParentRef(id), true, nil
		case "idref":
			return definition.IDRef(id), true, nil
		}
		return definition.Ref(id), true, nil

	case "list":
		items, ok := inner.([]any)
		if !ok {
			return definition.Value{}, true, fmt.Errorf("list must be a sequence")
		}
		v, err := valueOf(items)
		return v, true, err

	case "map":
		m, ok := inner.(map[string]any)
		if !ok {
			return definition.Value{}, true, fmt.Errorf("map must be a mapping")
		}
		v, err := mapValue(m)
		return v, true, err

	case "value":
		return definition.Literal(normalizeLiteral(inner)), true, nil

	default:
		return definition.Value{}, false, nil
	}
}

func mapValue(m map[string]any) (definition.Value, error) {
	entries := make([]definition.MapEntry, 0, len(m))
	for _, key := range sortedKeys(m) {
		ev, err := valueOf(m[key])
		if err != nil {
			return definition.Value{}, fmt.Errorf("key %q: %w", key, err)
		}
		entries = append(entries, definition.Entry(key, ev))
	}
	return definition.Map(entries...), nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func attachAliases(byID map[string]*definition.Definition, aliases map[string]string) error {
	for _, alias := range sortedKeys(aliases) {
		id := aliases[alias]
		def, ok := byID[id]
		if !ok {
			return fmt.Errorf("alias %q refers to unknown bean %q", alias, id)
		}
		def.Aliases = append(def.Aliases, alias)
	}
	return nil
}
