package dom

import "strings"

// DynamicValue marks an attribute value produced by template
// interpolation. It has no literal value and can never be checked
// statically.
type DynamicValue struct {
	Expr string
}

func (d *DynamicValue) String() string {
	return d.Expr
}

// Attribute is a single attribute as written on an element.
type Attribute struct {
	Key string
	// Value is nil when the attribute was written without a value.
	Value *string
	// Dynamic is set when Value came from template interpolation.
	Dynamic *DynamicValue
	// Quote is the quote character used around the value, 0 when unquoted.
	Quote         rune
	KeyLocation   Location
	ValueLocation *Location
	// OriginalKey is the key this attribute was derived from by a hook,
	// e.g. "class" derived from ":class".
	OriginalKey string
}

// NewAttribute creates an attribute with a static value.
func NewAttribute(key, value string) *Attribute {
	return &Attribute{Key: key, Value: &value}
}

// IsDynamic returns true when the value cannot be verified statically.
func (a *Attribute) IsDynamic() bool {
	return a.Dynamic != nil
}

// HasValue returns true when the attribute was written with a value.
func (a *Attribute) HasValue() bool {
	return a.Value != nil || a.Dynamic != nil
}

// StaticValue returns the literal value. ok is false for attributes
// without a value and for dynamic values.
func (a *Attribute) StaticValue() (value string, ok bool) {
	if a.Dynamic != nil || a.Value == nil {
		return "", false
	}
	return *a.Value, true
}

// ValueString renders the value the way it would appear in a message.
func (a *Attribute) ValueString() string {
	switch {
	case a.Dynamic != nil:
		return a.Dynamic.String()
	case a.Value != nil:
		return *a.Value
	default:
		return ""
	}
}

func (a *Attribute) is(key string) bool {
	return strings.EqualFold(a.Key, key)
}
