// Package markup maps the generic structured values exchanged with the content service
// to and from XML documents.
//
// A Value is either a Scalar (text), an Object (ordered named fields plus an attribute map
// and optional raw content) or a List. Lists are the repeated-field representation: every
// item of a List stored under a field is written as a sibling element named after that field.
//
// Decoding is lossy in one documented way: a child element that occurs once under its parent
// decodes as a single value, two or more occurrences decode as a List. Callers that need list
// semantics on decode must use Value.Items, which views a single value as a one-item list.
// Two more edges are lossy: the content of an object that also has child elements is
// trimmed of leading and trailing whitespace, and an empty element (including an object with
// no fields, attributes or content) decodes as Scalar("").
//
// Field names that are empty or decimal numbers ("0", "-1.5", "1e3") repeat the parent
// element name. Any other field or attribute name must be a valid XML name; Encode fails
// with ErrInvalidName otherwise.
package markup

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

const (
	// AttributesKey is the reserved field name holding the element attributes.
	AttributesKey = "__attributes__"
	// ContentKey is the reserved field name holding raw content, written as a CDATA section.
	ContentKey = "__content__"
)

// Kind ...
type Kind int

// Value kinds.
const (
	KindScalar Kind = iota
	KindObject
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindObject:
		return "object"
	case KindList:
		return "list"
	default:
		return "unknown"
	}
}

// Value is a node of the structured value tree. The zero Value is an empty Scalar.
type Value struct {
	kind  Kind
	text  string
	obj   *Object
	items []Value
}

// Field is a named value inside an Object.
type Field struct {
	Name  string
	Value Value
}

// Object is an ordered set of fields with attributes and optional raw content.
type Object struct {
	Fields     []Field
	Attributes map[string]string
	Content    string
}

// Scalar returns a text value.
func Scalar(text string) Value {
	return Value{kind: KindScalar, text: text}
}

// Bool returns the scalar "true" or "false".
func Bool(b bool) Value {
	if b {
		return Scalar("true")
	}
	return Scalar("false")
}

// Int returns the decimal scalar of i.
func Int(i int64) Value {
	return Scalar(strconv.FormatInt(i, 10))
}

// List returns a repeated-field value.
func List(items ...Value) Value {
	return Value{kind: KindList, items: items}
}

// NewObject returns an object value holding the given fields in order.
// Reserved field names are routed to the attributes and content of the object.
func NewObject(fields ...Field) Value {
	o := &Object{}
	for _, f := range fields {
		o.Set(f.Name, f.Value)
	}
	return Value{kind: KindObject, obj: o}
}

// F is a shorthand for building a Field.
func F(name string, v Value) Field {
	return Field{Name: name, Value: v}
}

// S is a shorthand for building a scalar Field.
func S(name, text string) Field {
	return Field{Name: name, Value: Scalar(text)}
}

// Kind ...
func (v Value) Kind() Kind {
	return v.kind
}

// IsScalar ...
func (v Value) IsScalar() bool { return v.kind == KindScalar }

// IsObject ...
func (v Value) IsObject() bool { return v.kind == KindObject }

// IsList ...
func (v Value) IsList() bool { return v.kind == KindList }

// Text returns the text of a scalar, or the raw content of an object.
func (v Value) Text() string {
	switch v.kind {
	case KindScalar:
		return v.text
	case KindObject:
		return v.obj.Content
	default:
		return ""
	}
}

// IsZero reports whether v is an empty scalar, an object with nothing in it or an empty list.
func (v Value) IsZero() bool {
	switch v.kind {
	case KindObject:
		return v.obj == nil || (len(v.obj.Fields) == 0 && len(v.obj.Attributes) == 0 && v.obj.Content == "")
	case KindList:
		return len(v.items) == 0
	default:
		return v.text == ""
	}
}

// Object returns the underlying object, or nil when v is not an object.
func (v Value) Object() *Object {
	if v.kind != KindObject {
		return nil
	}
	return v.obj
}

// Items views v as a list: a List yields its items, any other value a single-item slice.
func (v Value) Items() []Value {
	if v.kind == KindList {
		return v.items
	}
	return []Value{v}
}

// Len returns the number of list items, the number of object fields or 1 for a scalar.
func (v Value) Len() int {
	switch v.kind {
	case KindList:
		return len(v.items)
	case KindObject:
		return len(v.obj.Fields)
	default:
		return 1
	}
}

// Field returns the named field of an object value.
func (v Value) Field(name string) (Value, bool) {
	if v.kind != KindObject {
		return Value{}, false
	}
	return v.obj.Get(name)
}

// String returns the text of the named field, or "" when it is missing.
func (v Value) String(name string) string {
	f, ok := v.Field(name)
	if !ok {
		return ""
	}
	return f.Text()
}

// Value wraps o into a Value. The object is shared, not copied.
func (o *Object) Value() Value {
	return Value{kind: KindObject, obj: o}
}

// Get returns the named field. The reserved names return the attributes (as an object of
// scalars) and the content (as a scalar).
func (o *Object) Get(name string) (Value, bool) {
	switch name {
	case AttributesKey:
		if len(o.Attributes) == 0 {
			return Value{}, false
		}
		attrs := &Object{}
		for _, k := range o.AttributeNames() {
			attrs.Fields = append(attrs.Fields, S(k, o.Attributes[k]))
		}
		return Value{kind: KindObject, obj: attrs}, true
	case ContentKey:
		if o.Content == "" {
			return Value{}, false
		}
		return Scalar(o.Content), true
	}

	for _, f := range o.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return Value{}, false
}

// Set replaces the named field, or appends it when it is not present yet.
func (o *Object) Set(name string, v Value) {
	switch name {
	case AttributesKey:
		if v.kind != KindObject {
			return
		}
		for _, f := range v.obj.Fields {
			o.SetAttr(f.Name, f.Value.Text())
		}
		return
	case ContentKey:
		o.Content = v.Text()
		return
	}

	for i, f := range o.Fields {
		if f.Name == name {
			o.Fields[i].Value = v
			return
		}
	}
	o.Fields = append(o.Fields, Field{Name: name, Value: v})
}

// Delete removes the named field.
func (o *Object) Delete(name string) {
	for i, f := range o.Fields {
		if f.Name == name {
			o.Fields = append(o.Fields[:i], o.Fields[i+1:]...)
			return
		}
	}
}

// Names returns the field names in their current order.
func (o *Object) Names() []string {
	names := make([]string, 0, len(o.Fields))
	for _, f := range o.Fields {
		names = append(names, f.Name)
	}
	return names
}

// Attr returns the named attribute.
func (o *Object) Attr(name string) string {
	return o.Attributes[name]
}

// SetAttr ...
func (o *Object) SetAttr(name, value string) {
	if o.Attributes == nil {
		o.Attributes = map[string]string{}
	}
	o.Attributes[name] = value
}

// SetContent sets the raw content, written as a CDATA section.
func (o *Object) SetContent(content string) {
	o.Content = content
}

// AttributeNames returns the attribute names sorted lexically.
func (o *Object) AttributeNames() []string {
	names := make([]string, 0, len(o.Attributes))
	for k := range o.Attributes {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// add appends a decoded child, turning a repeated name into a List.
func (o *Object) add(name string, v Value) {
	for i, f := range o.Fields {
		if f.Name != name {
			continue
		}
		if f.Value.kind == KindList {
			o.Fields[i].Value.items = append(o.Fields[i].Value.items, v)
		} else {
			o.Fields[i].Value = List(f.Value, v)
		}
		return
	}
	o.Fields = append(o.Fields, Field{Name: name, Value: v})
}

func (o *Object) clone() *Object {
	c := &Object{Content: o.Content}
	if o.Fields != nil {
		c.Fields = make([]Field, len(o.Fields))
		copy(c.Fields, o.Fields)
	}
	if o.Attributes != nil {
		c.Attributes = make(map[string]string, len(o.Attributes))
		for k, v := range o.Attributes {
			c.Attributes[k] = v
		}
	}
	return c
}

// numericName matches the decimal numeric strings used as list keys: optional sign, digits
// with an optional fraction and exponent. Hexadecimal, inf and nan are names.
var numericName = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// isElementName reports whether a field name is written as its own element. Empty and
// numeric names repeat the parent element instead.
func isElementName(name string) bool {
	name = strings.TrimSpace(name)
	return name != "" && !numericName.MatchString(name)
}

// isXMLName reports whether name matches the XML Name production.
func isXMLName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		if !isNameStartChar(r) && (i == 0 || !isNameChar(r)) {
			return false
		}
	}
	return true
}

func isNameStartChar(r rune) bool {
	switch {
	case r == ':' || r == '_' || ('A' <= r && r <= 'Z') || ('a' <= r && r <= 'z'):
		return true
	case 0xC0 <= r && r <= 0xD6, 0xD8 <= r && r <= 0xF6, 0xF8 <= r && r <= 0x2FF,
		0x370 <= r && r <= 0x37D, 0x37F <= r && r <= 0x1FFF, 0x200C <= r && r <= 0x200D,
		0x2070 <= r && r <= 0x218F, 0x2C00 <= r && r <= 0x2FEF, 0x3001 <= r && r <= 0xD7FF,
		0xF900 <= r && r <= 0xFDCF, 0xFDF0 <= r && r <= 0xFFFD, 0x10000 <= r && r <= 0xEFFFF:
		return true
	}
	return false
}

func isNameChar(r rune) bool {
	switch {
	case isNameStartChar(r):
		return true
	case r == '-' || r == '.' || ('0' <= r && r <= '9') || r == 0xB7,
		0x0300 <= r && r <= 0x036F, 0x203F <= r && r <= 0x2040:
		return true
	}
	return false
}
