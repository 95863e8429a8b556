package definition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	beanerrors "github.com/xraph/beans/errors"
)

func TestParseScope(t *testing.T) {
	s, err := ParseScope("")
	require.NoError(t, err)
	assert.Equal(t, ScopeSingleton, s)

	s, err = ParseScope(" Prototype ")
	require.NoError(t, err)
	assert.Equal(t, ScopePrototype, s)

	_, err = ParseScope("request")
	assert.Error(t, err)
}

func TestDefinitionValidate(t *testing.T) {
	tests := []struct {
		name string
		def  *Definition
		ok   bool
	}{
		{"valid", &Definition{ID: "a", Type: "T", Aliases: []string{"b"}}, true},
		{"nil", nil, false},
		{"empty id", &Definition{Type: "T"}, false},
		{"empty type", &Definition{ID: "a"}, false},
		{"alias equals id", &Definition{ID: "a", Type: "T", Aliases: []string{"a"}}, false},
		{"duplicate alias", &Definition{ID: "a", Type: "T", Aliases: []string{"b", "b"}}, false},
		{"bad scope", &Definition{ID: "a", Type: "T", Scope: Scope(7)}, false},
		{"empty ref", &Definition{ID: "a", Type: "T", ConstructorArgs: []Value{Ref("")}}, false},
		{"nested empty ref", &Definition{ID: "a", Type: "T", Properties: []Property{{Name: "p", Value: List(Literal(1), Ref(""))}}}, false},
		{"duplicate property", &Definition{ID: "a", Type: "T", Properties: []Property{{Name: "p"}, {Name: "p"}}}, false},
		{"duplicate map key", &Definition{ID: "a", Type: "T", Properties: []Property{{Name: "p", Value: Map(Entry("k", Literal(1)), Entry("k", Literal(2)))}}}, false},
		{"empty depends-on", &Definition{ID: "a", Type: "T", DependsOn: []string{""}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.def.Validate()
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.True(t, beanerrors.IsInvalidDefinition(err), "got %v", err)
		})
	}
}

func TestReferences(t *testing.T) {
	def := &Definition{
		ID:              "svc",
		Type:            "Service",
		ConstructorArgs: []Value{Ref("db"), Literal("x")},
		Properties: []Property{
			{Name: "handlers", Value: List(Ref("h1"), Map(Entry("k", Ref("h2"))))},
			{Name: "parent", Value: ParentRef("root")},
		},
	}

	assert.Equal(t, []string{"db", "h1", "h2", "root"}, def.References())
	assert.Equal(t, []string{"db"}, def.ConstructorReferences())
	assert.Equal(t, []string{"h1", "h2"}, def.PropertyReferences())
	assert.Equal(t, []string{"svc"}, def.Names())
}

func TestCloneIsDeep(t *testing.T) {
	def := &Definition{
		ID:              "a",
		Type:            "T",
		Aliases:         []string{"b"},
		ConstructorArgs: []Value{List(Literal(1))},
		Properties:      []Property{{Name: "m", Value: Map(Entry("k", Ref("x")))}},
	}
	cp := def.Clone()

	cp.Aliases[0] = "changed"
	cp.ConstructorArgs[0].List[0] = Literal(2)
	cp.Properties[0].Value.Map[0].Value = Ref("y")

	assert.Equal(t, "b", def.Aliases[0])
	assert.Equal(t, 1, def.ConstructorArgs[0].List[0].Literal)
	assert.Equal(t, "x", def.Properties[0].Value.Map[0].Value.Ref)
}

func TestValueString(t *testing.T) {
	v := List(Literal(1), Ref("a"), ParentRef("b"), Map(Entry("k", Literal("v"))))
	assert.Equal(t, "[1, ref(a), ref(parent:b), {k: v}]", v.String())
	assert.Equal(t, "singleton", ScopeSingleton.String())
	assert.Equal(t, "map", KindMap.String())
}
