package markup

import (
	"errors"
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

// Namespaces of the content service documents.
const (
	CloudNamespace = "http://cloud.firebrandtech.com/"
	ModelNamespace = "http://schemas.datacontract.org/2004/07/Cloud.Model"
)

const indentSpaces = 2

var (
	// ErrNestedList is returned when a List item is itself a List: a repeated element has no
	// name of its own to repeat under.
	ErrNestedList = errors.New("list nested directly in a list")
	// ErrInvalidName is returned when a field or attribute name is not a valid XML name.
	ErrInvalidName = errors.New("invalid XML name")
)

// Encode serializes v as an XML document whose root element is rootName. The root element
// declares rootNamespace as its default namespace unless it is empty. Fields are written in
// canonical order.
func Encode(v Value, rootName, rootNamespace string) ([]byte, error) {
	if !isElementName(rootName) {
		return nil, fmt.Errorf("invalid root element name: %q", rootName)
	}
	if !isXMLName(rootName) {
		return nil, fmt.Errorf("root element %q: %w", rootName, ErrInvalidName)
	}
	if v.kind == KindList {
		return nil, fmt.Errorf("encode %s: a document has a single root element", rootName)
	}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0"`)

	if err := element(&doc.Element, rootName, rootNamespace, Canonicalize(v)); err != nil {
		return nil, fmt.Errorf("encode %s: %w", rootName, err)
	}

	doc.Indent(indentSpaces)
	return doc.WriteToBytes()
}

// element appends v to parent as one element named name, or as one sibling per item when
// v is a List.
func element(parent *etree.Element, name, namespace string, v Value) error {
	switch v.kind {
	case KindList:
		for _, item := range v.items {
			if item.kind == KindList {
				return fmt.Errorf("%s: %w", name, ErrNestedList)
			}
			if err := element(parent, name, namespace, item); err != nil {
				return err
			}
		}
		return nil
	case KindObject:
		return object(parent.CreateElement(name), namespace, v.obj)
	default:
		el := parent.CreateElement(name)
		setNamespace(el, namespace)
		if v.text != "" {
			el.SetText(v.text)
		}
		return nil
	}
}

func object(el *etree.Element, namespace string, o *Object) error {
	setNamespace(el, namespace)
	for _, k := range o.AttributeNames() {
		if !isXMLName(k) {
			return fmt.Errorf("%s: attribute %q: %w", el.Tag, k, ErrInvalidName)
		}
		el.CreateAttr(k, o.Attributes[k])
	}

	if o.Content != "" {
		cdata(el, o.Content)
	}

	for _, f := range o.Fields {
		childName := f.Name
		if !isElementName(childName) {
			childName = el.FullTag()
		} else if !isXMLName(childName) {
			return fmt.Errorf("%s: field %q: %w", el.Tag, childName, ErrInvalidName)
		}
		if err := element(el, childName, "", f.Value); err != nil {
			return err
		}
	}
	return nil
}

func setNamespace(el *etree.Element, namespace string) {
	if namespace != "" {
		el.CreateAttr("xmlns", namespace)
	}
}

// cdata writes s as CDATA, splitting any "]]>" across two sections.
func cdata(el *etree.Element, s string) {
	parts := strings.Split(s, "]]>")
	for i, part := range parts {
		if i < len(parts)-1 {
			part += "]]"
		}
		if i > 0 {
			part = ">" + part
		}
		el.CreateCData(part)
	}
}
