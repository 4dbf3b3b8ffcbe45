package markup

import (
	"fmt"
	"sort"
	"strconv"
)

// FromInterface builds a Value from decoded JSON/YAML style data: maps become objects,
// slices become lists and scalars their text form. Map keys are taken in canonical order.
func FromInterface(in interface{}) (Value, error) {
	switch t := in.(type) {
	case nil:
		return Scalar(""), nil
	case Value:
		return t, nil
	case string:
		return Scalar(t), nil
	case bool:
		return Bool(t), nil
	case int:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case float64:
		return Scalar(strconv.FormatFloat(t, 'f', -1, 64)), nil
	case map[string]string:
		o := &Object{}
		for _, k := range sortedKeys(t) {
			o.Set(k, Scalar(t[k]))
		}
		return Value{kind: KindObject, obj: o}, nil
	case map[string]interface{}:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool { return CanonicalLess(keys[i], keys[j]) })

		o := &Object{}
		for _, k := range keys {
			v, err := FromInterface(t[k])
			if err != nil {
				return Value{}, fmt.Errorf("%s: %w", k, err)
			}
			o.Set(k, v)
		}
		return Value{kind: KindObject, obj: o}, nil
	case []interface{}:
		items := make([]Value, 0, len(t))
		for i, item := range t {
			v, err := FromInterface(item)
			if err != nil {
				return Value{}, fmt.Errorf("[%d]: %w", i, err)
			}
			items = append(items, v)
		}
		return List(items...), nil
	case []string:
		items := make([]Value, 0, len(t))
		for _, s := range t {
			items = append(items, Scalar(s))
		}
		return List(items...), nil
	default:
		return Value{}, fmt.Errorf("unsupported value type: %T", in)
	}
}

// ToInterface converts v into plain maps, slices and strings, e.g. for JSON output.
// Attributes and content are kept under the reserved field names.
func ToInterface(v Value) interface{} {
	switch v.kind {
	case KindList:
		out := make([]interface{}, 0, len(v.items))
		for _, item := range v.items {
			out = append(out, ToInterface(item))
		}
		return out
	case KindObject:
		out := make(map[string]interface{}, len(v.obj.Fields)+2)
		for _, f := range v.obj.Fields {
			out[f.Name] = ToInterface(f.Value)
		}
		if len(v.obj.Attributes) > 0 {
			attrs := make(map[string]interface{}, len(v.obj.Attributes))
			for k, a := range v.obj.Attributes {
				attrs[k] = a
			}
			out[AttributesKey] = attrs
		}
		if v.obj.Content != "" {
			out[ContentKey] = v.obj.Content
		}
		return out
	default:
		return v.text
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return CanonicalLess(keys[i], keys[j]) })
	return keys
}
