package markup

import "sort"

// Fields the service expects ahead of everything else, in this order.
var leadingKeys = []string{"id", "tag", "status-id", "status-tag"}

func keyRank(name string) int {
	for i, k := range leadingKeys {
		if name == k {
			return i
		}
	}
	return len(leadingKeys)
}

// CanonicalLess reports whether the field name a sorts before b: id, tag, status-id,
// status-tag, then byte-wise lexical order.
func CanonicalLess(a, b string) bool {
	ra, rb := keyRank(a), keyRank(b)
	if ra != rb {
		return ra < rb
	}
	return a < b
}

// Canonicalize returns a copy of v with the fields of every object reordered by
// CanonicalLess. It is idempotent and does not modify v.
func Canonicalize(v Value) Value {
	switch v.kind {
	case KindObject:
		o := v.obj.clone()
		for i := range o.Fields {
			o.Fields[i].Value = Canonicalize(o.Fields[i].Value)
		}
		sort.SliceStable(o.Fields, func(i, j int) bool {
			return CanonicalLess(o.Fields[i].Name, o.Fields[j].Name)
		})
		return Value{kind: KindObject, obj: o}
	case KindList:
		items := make([]Value, len(v.items))
		for i, item := range v.items {
			items[i] = Canonicalize(item)
		}
		return Value{kind: KindList, items: items}
	default:
		return v
	}
}
