package markup

import (
	"errors"
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

// MalformedMarkupError is returned when a document cannot be parsed. It is not retryable.
type MalformedMarkupError struct {
	Err error
}

func (e *MalformedMarkupError) Error() string {
	return fmt.Sprintf("malformed markup: %s", e.Err)
}

func (e *MalformedMarkupError) Unwrap() error {
	return e.Err
}

// Decode parses an XML document and returns the value of its root element.
func Decode(data []byte) (Value, error) {
	_, v, err := DecodeRoot(data)
	return v, err
}

// DecodeRoot parses an XML document and returns the root element name and value.
//
// An element holding only text decodes to a Scalar. An element with attributes or child
// elements decodes to an Object; text next to attributes becomes the object content.
// A child name repeated under the same parent decodes to a List in document order.
func DecodeRoot(data []byte) (string, Value, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return "", Value{}, &MalformedMarkupError{Err: err}
	}

	var root *etree.Element
	for _, tok := range doc.Child {
		switch t := tok.(type) {
		case *etree.Element:
			if root != nil {
				return "", Value{}, &MalformedMarkupError{Err: fmt.Errorf("second root element <%s>", t.Tag)}
			}
			root = t
		case *etree.CharData:
			if strings.TrimSpace(t.Data) != "" {
				return "", Value{}, &MalformedMarkupError{Err: errors.New("text outside of the root element")}
			}
		}
	}
	if root == nil {
		return "", Value{}, &MalformedMarkupError{Err: errors.New("no root element")}
	}

	return root.Tag, decodeElement(root), nil
}

func decodeElement(el *etree.Element) Value {
	obj := &Object{}
	for _, a := range el.Attr {
		if isNamespaceDeclaration(a) {
			continue
		}
		obj.SetAttr(a.Key, a.Value)
	}

	var text strings.Builder
	hasChildren := false

	for _, tok := range el.Child {
		switch t := tok.(type) {
		case *etree.Element:
			obj.add(t.Tag, decodeElement(t))
			hasChildren = true
		case *etree.CharData:
			text.WriteString(t.Data)
		}
	}

	return finishElement(obj, text.String(), hasChildren)
}

func finishElement(obj *Object, text string, hasChildren bool) Value {
	if !hasChildren && len(obj.Attributes) == 0 {
		return Scalar(text)
	}

	if hasChildren {
		text = strings.TrimSpace(text)
	}
	obj.Content = text

	return Value{kind: KindObject, obj: obj}
}

func isNamespaceDeclaration(a etree.Attr) bool {
	return (a.Space == "" && a.Key == "xmlns") || a.Space == "xmlns"
}
