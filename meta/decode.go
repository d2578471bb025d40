package meta

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Definition is a single named element definition. Fields hold the raw
// declaration as decoded from YAML or JSON; predicate fields may also hold
// a Property, a func(Node) bool, and aria fields a func(Node) string or
// func(Node) Naming.
type Definition struct {
	TagName string
	Fields  map[string]any
}

var propertyFields = map[string]func(*Element) *Property{
	"metadata":         func(e *Element) *Property { return &e.Metadata },
	"flow":             func(e *Element) *Property { return &e.Flow },
	"sectioning":       func(e *Element) *Property { return &e.Sectioning },
	"heading":          func(e *Element) *Property { return &e.Heading },
	"phrasing":         func(e *Element) *Property { return &e.Phrasing },
	"embedded":         func(e *Element) *Property { return &e.Embedded },
	"interactive":      func(e *Element) *Property { return &e.Interactive },
	"scriptSupporting": func(e *Element) *Property { return &e.ScriptSupporting },
	"form":             func(e *Element) *Property { return &e.Form },
	"labelable":        func(e *Element) *Property { return &e.Labelable },
	"focusable":        func(e *Element) *Property { return &e.Focusable },
}

var flagFields = map[string]func(*Element) *bool{
	"void":        func(e *Element) *bool { return &e.Void },
	"foreign":     func(e *Element) *bool { return &e.Foreign },
	"deprecated":  func(e *Element) *bool { return &e.Deprecated },
	"transparent": func(e *Element) *bool { return &e.Transparent },
}

var stringListFields = map[string]func(*Element) *[]string{
	"implicitClosed":       func(e *Element) *[]string { return &e.ImplicitClosed },
	"requiredAttributes":   func(e *Element) *[]string { return &e.RequiredAttributes },
	"deprecatedAttributes": func(e *Element) *[]string { return &e.DeprecatedAttributes },
	"requiredAncestors":    func(e *Element) *[]string { return &e.RequiredAncestors },
}

var permittedFields = map[string]func(*Element) *Permitted{
	"permittedContent":     func(e *Element) *Permitted { return &e.PermittedContent },
	"permittedDescendants": func(e *Element) *Permitted { return &e.PermittedDescendants },
	"permittedParent":      func(e *Element) *Permitted { return &e.PermittedParent },
}

var entryFields = map[string]func(*Element) *[]Entry{
	"permittedOrder":  func(e *Element) *[]Entry { return &e.PermittedOrder },
	"requiredContent": func(e *Element) *[]Entry { return &e.RequiredContent },
}

var attributeKeys = map[string]bool{
	"boolean": true, "omit": true, "list": true, "deprecated": true, "required": true, "enum": true,
}

// decoder turns raw definitions into elements, producing schema errors
// that name the source and the path to the offending field.
type decoder struct {
	source string
	lines  map[string]int
}

func (d *decoder) errorf(path, format string, args ...any) error {
	return &SchemaError{
		Source:  d.source,
		Path:    path,
		Line:    d.lines[path],
		Message: fmt.Sprintf(format, args...),
	}
}

func inheritOf(def Definition) string {
	s, _ := def.Fields["inherit"].(string)
	return strings.ToLower(s)
}

func (d *decoder) decodeInto(el *Element, def Definition) error {
	base := "/" + def.TagName
	keys := make([]string, 0, len(def.Fields))
	for key := range def.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		raw := def.Fields[key]
		path := base + "/" + key
		if err := d.decodeField(el, key, path, raw); err != nil {
			return err
		}
	}
	return nil
}

func (d *decoder) decodeField(el *Element, key, path string, raw any) error {
	if field, ok := propertyFields[key]; ok {
		p, err := d.property(path, raw)
		if err != nil {
			return err
		}
		*field(el) = p
		return nil
	}
	if field, ok := flagFields[key]; ok {
		b, ok := raw.(bool)
		if !ok {
			return d.errorf(path, "expected boolean")
		}
		*field(el) = b
		return nil
	}
	if field, ok := stringListFields[key]; ok {
		list, err := d.stringList(path, raw)
		if err != nil {
			return err
		}
		*field(el) = list
		return nil
	}
	if field, ok := permittedFields[key]; ok {
		p, err := ParsePermitted(raw)
		if err != nil {
			return errors.Wrapf(err, "element metadata %q: %s", d.source, path)
		}
		*field(el) = p
		return nil
	}
	if field, ok := entryFields[key]; ok {
		entries, err := ParseEntries(raw)
		if err != nil {
			return errors.Wrapf(err, "element metadata %q: %s", d.source, path)
		}
		*field(el) = entries
		return nil
	}

	switch key {
	case "inherit":
		if _, ok := raw.(string); !ok {
			return d.errorf(path, "expected tag name")
		}
		return nil
	case "attributes":
		attrs, err := d.attributes(path, raw)
		if err != nil {
			return err
		}
		el.Attributes = attrs
		return nil
	case "textContent":
		s, _ := raw.(string)
		tc, ok := textContentNames[s]
		if !ok {
			return d.errorf(path, "expected one of none, default, required or accessible")
		}
		el.TextContent = tc
		return nil
	case "formAssociated":
		fa, err := d.formAssociated(path, raw)
		if err != nil {
			return err
		}
		el.FormAssociated = fa
		return nil
	case "aria":
		return d.aria(el, path, raw)
	}
	return d.errorf(path, "unknown property %q", key)
}

func (d *decoder) stringList(path string, raw any) ([]string, error) {
	list, ok := raw.([]any)
	if !ok {
		return nil, d.errorf(path, "expected a list of strings")
	}
	out := make([]string, 0, len(list))
	for i, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, d.errorf(fmt.Sprintf("%s/%d", path, i), "expected string")
		}
		out = append(out, s)
	}
	return out, nil
}

func (d *decoder) attributes(path string, raw any) (map[string]*Attribute, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, d.errorf(path, "expected a mapping of attribute names")
	}
	attrs := make(map[string]*Attribute, len(m))
	for name, spec := range m {
		attrPath := path + "/" + name
		attr := &Attribute{}
		if spec != nil {
			fields, ok := spec.(map[string]any)
			if !ok {
				return nil, d.errorf(attrPath, "expected a mapping")
			}
			if err := d.attribute(attr, attrPath, fields); err != nil {
				return nil, err
			}
		}
		attrs[strings.ToLower(name)] = attr
	}
	return attrs, nil
}

func (d *decoder) attribute(attr *Attribute, path string, fields map[string]any) error {
	for key, value := range fields {
		fieldPath := path + "/" + key
		if !attributeKeys[key] {
			return d.errorf(fieldPath, "unknown property %q", key)
		}
		if key == "enum" {
			enum, err := d.enum(fieldPath, value)
			if err != nil {
				return err
			}
			attr.Enum = enum
			continue
		}
		b, ok := value.(bool)
		if !ok {
			return d.errorf(fieldPath, "expected boolean")
		}
		switch key {
		case "boolean":
			attr.Boolean = b
		case "omit":
			attr.Omit = b
		case "list":
			attr.List = b
		case "deprecated":
			attr.Deprecated = b
		case "required":
			attr.Required = b
		}
	}
	return nil
}

func (d *decoder) enum(path string, raw any) ([]EnumValue, error) {
	list, ok := raw.([]any)
	if !ok {
		return nil, d.errorf(path, "expected a list")
	}
	enum := make([]EnumValue, 0, len(list))
	for i, item := range list {
		itemPath := fmt.Sprintf("%s/%d", path, i)
		switch v := item.(type) {
		case *regexp.Regexp:
			enum = append(enum, EnumValue{Pattern: v})
		case string:
			if len(v) >= 2 && strings.HasPrefix(v, "/") && strings.HasSuffix(v, "/") {
				re, err := regexp.Compile(v[1 : len(v)-1])
				if err != nil {
					return nil, d.errorf(itemPath, "invalid pattern: %v", err)
				}
				enum = append(enum, EnumValue{Pattern: re})
				continue
			}
			enum = append(enum, EnumValue{Literal: v})
		case int, float64, bool:
			enum = append(enum, EnumValue{Literal: fmt.Sprint(v)})
		default:
			return nil, d.errorf(itemPath, "expected string or /pattern/")
		}
	}
	return enum, nil
}

func (d *decoder) formAssociated(path string, raw any) (*FormAssociated, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, d.errorf(path, "expected a mapping")
	}
	fa := &FormAssociated{}
	for key, value := range m {
		b, ok := value.(bool)
		if !ok {
			return nil, d.errorf(path+"/"+key, "expected boolean")
		}
		switch key {
		case "disablable":
			fa.Disablable = b
		case "listed":
			fa.Listed = b
		default:
			return nil, d.errorf(path+"/"+key, "unknown property %q", key)
		}
	}
	return fa, nil
}

// property normalizes a constant or an expression into a Property.
func (d *decoder) property(path string, raw any) (Property, error) {
	switch v := raw.(type) {
	case bool:
		return Constant(v), nil
	case Property:
		return v, nil
	case func(Node) bool:
		return Property(v), nil
	case []any:
		return d.expression(path, v)
	}
	return nil, d.errorf(path, "expected boolean or predicate expression")
}

// expression compiles the declarative predicate forms:
//
//	[hasAttribute, name]
//	[isDescendant, tagName]
//	[matchAttribute, [key, "=" | "!=", value]]
func (d *decoder) expression(path string, expr []any) (Property, error) {
	if len(expr) != 2 {
		return nil, d.errorf(path, "predicate expression must be [name, argument]")
	}
	name, _ := expr[0].(string)
	switch name {
	case "hasAttribute":
		key, ok := expr[1].(string)
		if !ok {
			return nil, d.errorf(path+"/1", "expected attribute name")
		}
		return func(n Node) bool { return n.HasAttribute(key) }, nil
	case "isDescendant":
		tag, ok := expr[1].(string)
		if !ok {
			return nil, d.errorf(path+"/1", "expected tag name")
		}
		return func(n Node) bool { return n.HasAncestor(tag) }, nil
	case "matchAttribute":
		args, ok := expr[1].([]any)
		if !ok || len(args) != 3 {
			return nil, d.errorf(path+"/1", "expected [key, operator, value]")
		}
		key, _ := args[0].(string)
		op, _ := args[1].(string)
		value := fmt.Sprint(args[2])
		switch op {
		case "=":
			return func(n Node) bool {
				v, ok := n.AttributeValue(key)
				return ok && strings.EqualFold(v, value)
			}, nil
		case "!=":
			return func(n Node) bool {
				v, ok := n.AttributeValue(key)
				return !ok || !strings.EqualFold(v, value)
			}, nil
		}
		return nil, d.errorf(path+"/1/1", "unknown operator %q", op)
	}
	return nil, d.errorf(path+"/0", "unknown predicate %q", name)
}

func (d *decoder) aria(el *Element, path string, raw any) error {
	m, ok := raw.(map[string]any)
	if !ok {
		return d.errorf(path, "expected a mapping")
	}
	for key, value := range m {
		fieldPath := path + "/" + key
		switch key {
		case "implicitRole":
			fn, err := d.implicitRole(fieldPath, value)
			if err != nil {
				return err
			}
			el.Aria.ImplicitRole = fn
		case "naming":
			fn, err := d.naming(fieldPath, value)
			if err != nil {
				return err
			}
			el.Aria.Naming = fn
		default:
			return d.errorf(fieldPath, "unknown property %q", key)
		}
	}
	return nil
}

// conditional is one {when, value} branch of a context dependent aria
// declaration. A branch without when always matches.
type conditional[T any] struct {
	when  Property
	value T
}

func (d *decoder) branches(path, valueKey string, list []any) ([]conditional[string], error) {
	out := make([]conditional[string], 0, len(list))
	for i, item := range list {
		itemPath := fmt.Sprintf("%s/%d", path, i)
		m, ok := item.(map[string]any)
		if !ok {
			return nil, d.errorf(itemPath, "expected a mapping with %q", valueKey)
		}
		var branch conditional[string]
		for key, value := range m {
			switch key {
			case "when":
				p, err := d.property(itemPath+"/when", value)
				if err != nil {
					return nil, err
				}
				branch.when = p
			case valueKey:
				s, ok := value.(string)
				if !ok {
					return nil, d.errorf(itemPath+"/"+key, "expected string")
				}
				branch.value = s
			default:
				return nil, d.errorf(itemPath+"/"+key, "unknown property %q", key)
			}
		}
		out = append(out, branch)
	}
	return out, nil
}

func pick[T any](branches []conditional[T], n Node, fallback T) T {
	for _, b := range branches {
		if b.when == nil || b.when(n) {
			return b.value
		}
	}
	return fallback
}

func (d *decoder) implicitRole(path string, raw any) (func(Node) string, error) {
	switch v := raw.(type) {
	case nil:
		return func(Node) string { return "" }, nil
	case string:
		return func(Node) string { return v }, nil
	case func(Node) string:
		return v, nil
	case []any:
		branches, err := d.branches(path, "role", v)
		if err != nil {
			return nil, err
		}
		return func(n Node) string { return pick(branches, n, "") }, nil
	}
	return nil, d.errorf(path, "expected role name or list of conditional roles")
}

func parseNaming(s string) (Naming, bool) {
	switch s {
	case "allowed":
		return NamingAllowed, true
	case "prohibited":
		return NamingProhibited, true
	}
	return NamingAllowed, false
}

func (d *decoder) naming(path string, raw any) (func(Node) Naming, error) {
	switch v := raw.(type) {
	case string:
		naming, ok := parseNaming(v)
		if !ok {
			return nil, d.errorf(path, "expected allowed or prohibited")
		}
		return func(Node) Naming { return naming }, nil
	case Naming:
		return func(Node) Naming { return v }, nil
	case func(Node) Naming:
		return v, nil
	case []any:
		branches, err := d.branches(path, "naming", v)
		if err != nil {
			return nil, err
		}
		resolved := make([]conditional[Naming], len(branches))
		for i, b := range branches {
			naming, ok := parseNaming(b.value)
			if !ok {
				return nil, d.errorf(fmt.Sprintf("%s/%d/naming", path, i), "expected allowed or prohibited")
			}
			resolved[i] = conditional[Naming]{when: b.when, value: naming}
		}
		return func(n Node) Naming { return pick(resolved, n, NamingAllowed) }, nil
	}
	return nil, d.errorf(path, "expected allowed, prohibited or list of conditional values")
}
