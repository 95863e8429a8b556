package reader

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xraph/beans/internal/definition"
)

// XMLReader reads the classic bean document grammar:
//
//	<beans default-lazy-init="false">
//	  <bean id="repo" name="repository" class="sql.Repo" scope="singleton"
//	        lazy-init="true" depends-on="migrator" init-method="open" destroy-method="close">
//	    <constructor-arg ref="db"/>
//	    <constructor-arg index="1" value="30" type="int"/>
//	    <property name="tables">
//	      <list><value>users</value><ref bean="audit"/></list>
//	    </property>
//	    <property name="labels">
//	      <map><entry key="env" value="prod"/><entry key="owner" value-ref="team"/></map>
//	    </property>
//	  </bean>
//	  <alias name="repo" alias="store"/>
//	</beans>
//
// Schema and DTD declarations are ignored.
type XMLReader struct{}

// NewXMLReader creates an XML reader.
func NewXMLReader() *XMLReader { return &XMLReader{} }

// xmlNode is a generic element; children keep document order.
type xmlNode struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Text     string     `xml:",chardata"`
	Children []xmlNode  `xml:",any"`
}

func (n *xmlNode) attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

func (n *xmlNode) attrOr(name, fallback string) string {
	if v, ok := n.attr(name); ok {
		return v
	}
	return fallback
}

// valueChildren returns child elements other than description.
func (n *xmlNode) valueChildren() []xmlNode {
	out := make([]xmlNode, 0, len(n.Children))
	for _, c := range n.Children {
		if c.XMLName.Local != "description" {
			out = append(out, c)
		}
	}
	return out
}

// Read parses r.
func (XMLReader) Read(_ context.Context, r io.Reader, source string) ([]*definition.Definition, error) {
	var root xmlNode
	if err := xml.NewDecoder(r).Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, parseError(source, errors.New("empty document"))
		}
		return nil, parseError(source, err)
	}

	defs, err := readBeans(&root, source)
	if err != nil {
		return nil, parseError(source, err)
	}
	return defs, nil
}

func readBeans(root *xmlNode, source string) ([]*definition.Definition, error) {
	if root.XMLName.Local != "beans" {
		return nil, fmt.Errorf("root element must be <beans>, got <%s>", root.XMLName.Local)
	}

	defaultLazy, err := parseBool(root.attrOr("default-lazy-init", "false"))
	if err != nil {
		return nil, fmt.Errorf("default-lazy-init: %w", err)
	}

	var defs []*definition.Definition
	byID := make(map[string]*definition.Definition)
	aliases := make(map[string]string)

	for i := range root.Children {
		child := &root.Children[i]
		switch child.XMLName.Local {
		case "bean":
			def, err := readBean(child, source, defaultLazy)
			if err != nil {
				return nil, err
			}
			defs = append(defs, def)
			byID[def.ID] = def
		case "alias":
			name, alias := child.attrOr("name", ""), child.attrOr("alias", "")
			if name == "" || alias == "" {
				return nil, errors.New("<alias> requires name and alias attributes")
			}
			if prev, dup := aliases[alias]; dup {
				return nil, fmt.Errorf("alias %q declared for both %q and %q", alias, prev, name)
			}
			aliases[alias] = name
		case "description":
		default:
			return nil, fmt.Errorf("unexpected element <%s> in <beans>", child.XMLName.Local)
		}
	}

	if err := attachAliases(byID, aliases); err != nil {
		return nil, err
	}
	return defs, nil
}

func readBean(n *xmlNode, source string, defaultLazy bool) (*definition.Definition, error) {
	names := splitList(n.attrOr("name", ""))
	id := n.attrOr("id", "")
	if id == "" {
		if len(names) == 0 {
			return nil, errors.New("<bean> requires an id or name attribute")
		}
		id, names = names[0], names[1:]
	}
	fail := func(format string, args ...any) error {
		return fmt.Errorf("bean %q: "+format, append([]any{id}, args...)...)
	}

	scope, err := definition.ParseScope(n.attrOr("scope", ""))
	if err != nil {
		return nil, fail("%w", err)
	}

	lazy := defaultLazy
	if v, ok := n.attr("lazy-init"); ok && v != "default" {
		if lazy, err = parseBool(v); err != nil {
			return nil, fail("lazy-init: %w", err)
		}
	}

	def := &definition.Definition{
		ID:            id,
		Aliases:       names,
		Type:          n.attrOr("class", n.attrOr("type", "")),
		Scope:         scope,
		Lazy:          lazy,
		DependsOn:     splitList(n.attrOr("depends-on", "")),
		InitMethod:    n.attrOr("init-method", ""),
		DestroyMethod: n.attrOr("destroy-method", ""),
		Source:        source,
	}

	var args []indexedValue
	for i := range n.Children {
		child := &n.Children[i]
		switch child.XMLName.Local {
		case "description":
			def.Description = strings.TrimSpace(child.Text)
		case "constructor-arg":
			v, err := readValueHolder(child)
			if err != nil {
				return nil, fail("constructor-arg %d: %w", len(args), err)
			}
			index := -1
			if raw, ok := child.attr("index"); ok {
				if index, err = strconv.Atoi(raw); err != nil || index < 0 {
					return nil, fail("constructor-arg index %q is not a non-negative integer", raw)
				}
			}
			args = append(args, indexedValue{index: index, value: v})
		case "property":
			name := child.attrOr("name", "")
			if name == "" {
				return nil, fail("<property> requires a name")
			}
			v, err := readValueHolder(child)
			if err != nil {
				return nil, fail("property %q: %w", name, err)
			}
			def.Properties = append(def.Properties, definition.Property{Name: name, Value: v})
		default:
			return nil, fail("unexpected element <%s>", child.XMLName.Local)
		}
	}

	if def.ConstructorArgs, err = orderArgs(args); err != nil {
		return nil, fail("%w", err)
	}
	return def, nil
}

type indexedValue struct {
	index int
	value definition.Value
}

// orderArgs places indexed arguments at their index and fills the
// remaining slots with unindexed ones in document order.
func orderArgs(args []indexedValue) ([]definition.Value, error) {
	if len(args) == 0 {
		return nil, nil
	}
	out := make([]definition.Value, len(args))
	used := make([]bool, len(args))
	for _, a := range args {
		if a.index < 0 {
			continue
		}
		if a.index >= len(args) {
			return nil, fmt.Errorf("constructor-arg index %d out of range", a.index)
		}
		if used[a.index] {
			return nil, fmt.Errorf("constructor-arg index %d declared twice", a.index)
		}
		out[a.index], used[a.index] = a.value, true
	}
	next := 0
	for _, a := range args {
		if a.index >= 0 {
			continue
		}
		for used[next] {
			next++
		}
		out[next], used[next] = a.value, true
	}
	return out, nil
}

// readValueHolder reads the value of a constructor-arg, property or map
// entry: either a value/ref attribute or exactly one value element.
func readValueHolder(n *xmlNode) (definition.Value, error) {
	value, hasValue := n.attr("value")
	ref, hasRef := n.attr("ref")
	if !hasRef {
		ref, hasRef = n.attr("value-ref")
	}
	children := n.valueChildren()

	set := 0
	for _, b := range []bool{hasValue, hasRef, len(children) > 0} {
		if b {
			set++
		}
	}
	switch {
	case set == 0:
		return definition.Value{}, errors.New("no value specified")
	case set > 1 || len(children) > 1:
		return definition.Value{}, errors.New("exactly one of value, ref or a value element is allowed")
	case hasValue:
		lit, err := convertLiteral(value, n.attrOr("type", ""))
		if err != nil {
			return definition.Value{}, err
		}
		return definition.Literal(lit), nil
	case hasRef:
		return refValue(ref, false)
	default:
		return readValueElement(&children[0])
	}
}

func readValueElement(n *xmlNode) (definition.Value, error) {
	switch n.XMLName.Local {
	case "value":
		lit, err := convertLiteral(n.Text, n.attrOr("type", ""))
		if err != nil {
			return definition.Value{}, err
		}
		return definition.Literal(lit), nil
	case "null":
		return definition.Literal(nil), nil
	case "idref":
		id := strings.TrimSpace(n.attrOr("bean", n.attrOr("local", "")))
		if id == "" {
			return definition.Value{}, errors.New("idref without a target")
		}
		return definition.IDRef(id), nil
	case "ref":
		if parent, ok := n.attr("parent"); ok {
			return refValue(parent, true)
		}
		return refValue(n.attrOr("bean", ""), false)
	case "list", "set", "array":
		items := make([]definition.Value, 0, len(n.Children))
		for i := range n.Children {
			item, err := readValueElement(&n.Children[i])
			if err != nil {
				return definition.Value{}, fmt.Errorf("%s item %d: %w", n.XMLName.Local, i, err)
			}
			items = append(items, item)
		}
		return definition.List(items...), nil
	case "map", "props":
		entries := make([]definition.MapEntry, 0, len(n.Children))
		for i := range n.Children {
			e := &n.Children[i]
			if e.XMLName.Local != "entry" && e.XMLName.Local != "prop" {
				return definition.Value{}, fmt.Errorf("unexpected element <%s> in <%s>", e.XMLName.Local, n.XMLName.Local)
			}
			key, ok := e.attr("key")
			if !ok {
				return definition.Value{}, fmt.Errorf("<%s> requires a key", e.XMLName.Local)
			}
			var v definition.Value
			var err error
			if e.XMLName.Local == "prop" {
				v = definition.Literal(strings.TrimSpace(e.Text))
			} else if v, err = readValueHolder(e); err != nil {
				return definition.Value{}, fmt.Errorf("entry %q: %w", key, err)
			}
			entries = append(entries, definition.Entry(key, v))
		}
		return definition.Map(entries...), nil
	case "bean":
		return definition.Value{}, errors.New("inner beans are not supported; declare the bean and reference it")
	default:
		return definition.Value{}, fmt.Errorf("unexpected value element <%s>", n.XMLName.Local)
	}
}

func refValue(id string, parent bool) (definition.Value, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return definition.Value{}, errors.New("reference without a target")
	}
	if parent {
		return definition.ParentRef(id), nil
	}
	return definition.Ref(id), nil
}

func splitList(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';' || r == ' ' || r == '\t' || r == '\n'
	})
	if len(fields) == 0 {
		return nil
	}
	return fields
}

func parseBool(s string) (bool, error) {
	return strconv.ParseBool(strings.TrimSpace(s))
}
