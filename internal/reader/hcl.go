package reader

import (
	"context"
	"fmt"
	"io"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/xraph/beans/internal/definition"
)

// HCLReader reads HCL bean documents. References are written with the
// ref() and parent() functions:
//
//	bean "repo" {
//	  type    = "sql.Repo"
//	  aliases = ["store"]
//	  args    = [ref("db"), 30]
//	  properties = {
//	    tables = ["users", ref("audit")]
//	  }
//	}
//
//	alias "repository" {
//	  bean = "repo"
//	}
type HCLReader struct{}

// NewHCLReader creates an HCL reader.
func NewHCLReader() *HCLReader { return &HCLReader{} }

type hclFile struct {
	Beans   []*hclBean  `hcl:"bean,block"`
	Aliases []*hclAlias `hcl:"alias,block"`
}

type hclBean struct {
	ID            string    `hcl:"id,label"`
	Type          string    `hcl:"type"`
	Aliases       []string  `hcl:"aliases,optional"`
	Scope         string    `hcl:"scope,optional"`
	Lazy          bool      `hcl:"lazy,optional"`
	DependsOn     []string  `hcl:"depends_on,optional"`
	InitMethod    string    `hcl:"init_method,optional"`
	DestroyMethod string    `hcl:"destroy_method,optional"`
	Description   string    `hcl:"description,optional"`
	Args          cty.Value `hcl:"args,optional"`
	Properties    cty.Value `hcl:"properties,optional"`
}

type hclAlias struct {
	Name string `hcl:"name,label"`
	Bean string `hcl:"bean"`
}

// Read parses r.
func (HCLReader) Read(_ context.Context, r io.Reader, source string) ([]*definition.Definition, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, parseError(source, err)
	}

	file, diags := hclparse.NewParser().ParseHCL(src, source)
	if diags.HasErrors() {
		return nil, parseError(source, diags)
	}

	var parsed hclFile
	if diags := gohcl.DecodeBody(file.Body, hclEvalContext(), &parsed); diags.HasErrors() {
		return nil, parseError(source, diags)
	}

	doc := document{Aliases: make(map[string]string, len(parsed.Aliases))}
	for _, a := range parsed.Aliases {
		if _, dup := doc.Aliases[a.Name]; dup {
			return nil, parseError(source, fmt.Errorf("alias %q declared twice", a.Name))
		}
		doc.Aliases[a.Name] = a.Bean
	}

	for _, b := range parsed.Beans {
		db := documentBean{
			ID:            b.ID,
			Aliases:       b.Aliases,
			Type:          b.Type,
			Scope:         b.Scope,
			Lazy:          b.Lazy,
			DependsOn:     b.DependsOn,
			InitMethod:    b.InitMethod,
			DestroyMethod: b.DestroyMethod,
			Description:   b.Description,
		}

		args, err := ctyToNative(b.Args)
		if err != nil {
			return nil, parseError(source, fmt.Errorf("bean %q args: %w", b.ID, err))
		}
		if args != nil {
			list, ok := args.([]any)
			if !ok {
				return nil, parseError(source, fmt.Errorf("bean %q: args must be a list", b.ID))
			}
			db.Args = list
		}

		props, err := ctyToNative(b.Properties)
		if err != nil {
			return nil, parseError(source, fmt.Errorf("bean %q properties: %w", b.ID, err))
		}
		if props != nil {
			m, ok := props.(map[string]any)
			if !ok {
				return nil, parseError(source, fmt.Errorf("bean %q: properties must be an object", b.ID))
			}
			db.Properties = m
		}

		doc.Beans = append(doc.Beans, db)
	}

	defs, err := doc.definitions(source)
	if err != nil {
		return nil, parseError(source, err)
	}
	return defs, nil
}

// hclEvalContext exposes ref(id) and parent(id), which expand to the
// tagged objects understood by the document model.
func hclEvalContext() *hcl.EvalContext {
	tagged := func(tag string) function.Function {
		return function.New(&function.Spec{
			Params: []function.Parameter{{Name: "id", Type: cty.String}},
			Type:   function.StaticReturnType(cty.Object(map[string]cty.Type{tag: cty.String})),
			Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
				return cty.ObjectVal(map[string]cty.Value{tag: args[0]}), nil
			},
		})
	}
	return &hcl.EvalContext{
		Functions: map[string]function.Function{
			"ref":    tagged("ref"),
			"parent": tagged("parent"),
		},
	}
}

// ctyToNative converts a cty value to plain Go values. Null and absent
// values become nil.
func ctyToNative(v cty.Value) (any, error) {
	if v.IsNull() {
		return nil, nil
	}
	if !v.IsWhollyKnown() {
		return nil, fmt.Errorf("value is not known")
	}

	ty := v.Type()
	switch {
	case ty == cty.String:
		return v.AsString(), nil

	case ty == cty.Number:
		bf := v.AsBigFloat()
		if bf.IsInt() {
			if i, acc := bf.Int64(); acc == 0 {
				return intOf(i), nil
			}
		}
		var f float64
		if err := gocty.FromCtyValue(v, &f); err != nil {
			return nil, err
		}
		return f, nil

	case ty == cty.Bool:
		return v.True(), nil

	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		out := make([]any, 0, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			native, err := ctyToNative(ev)
			if err != nil {
				return nil, err
			}
			out = append(out, native)
		}
		return out, nil

	case ty.IsObjectType() || ty.IsMapType():
		out := make(map[string]any, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			k, ev := it.Element()
			native, err := ctyToNative(ev)
			if err != nil {
				return nil, fmt.Errorf("in attribute %q: %w", k.AsString(), err)
			}
			out[k.AsString()] = native
		}
		return out, nil

	default:
		return nil, fmt.Errorf("unsupported value type %s", ty.FriendlyName())
	}
}
