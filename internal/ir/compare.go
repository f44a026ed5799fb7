package ir

import (
	"cmp"
	"fmt"
	"strings"
)

// typeRank orders values of different types: null < bool < int < string <
// array < object.
func typeRank(v Value) int {
	switch v.(type) {
	case nil, Null:
		return 0
	case Bool:
		return 1
	case Int:
		return 2
	case String:
		return 3
	case Array:
		return 4
	case Object:
		return 5
	default:
		return 6
	}
}

// Compare is a total order over Values.
//
// Values of different types order by type rank. Strings compare by UTF-16
// code units, arrays element-wise then by length, objects by their sorted
// key/value pairs. Compare(a, b) == 0 iff a and b are canonically equal.
func Compare(a, b Value) int {
	ra, rb := typeRank(a), typeRank(b)
	if ra != rb {
		return cmp.Compare(ra, rb)
	}

	switch av := a.(type) {
	case nil, Null:
		return 0
	case Bool:
		bv := b.(Bool)
		switch {
		case av == bv:
			return 0
		case !bool(av):
			return -1
		default:
			return 1
		}
	case Int:
		return cmp.Compare(av, b.(Int))
	case String:
		return compareUTF16(string(av), string(b.(String)))
	case Array:
		bv := b.(Array)
		for i := 0; i < len(av) && i < len(bv); i++ {
			if c := Compare(av[i], bv[i]); c != 0 {
				return c
			}
		}
		return cmp.Compare(len(av), len(bv))
	case Object:
		bv := b.(Object)
		ak, bk := av.SortedKeys(), bv.SortedKeys()
		for i := 0; i < len(ak) && i < len(bk); i++ {
			if c := compareUTF16(ak[i], bk[i]); c != 0 {
				return c
			}
			if c := Compare(av[ak[i]], bv[bk[i]]); c != 0 {
				return c
			}
		}
		return cmp.Compare(len(ak), len(bk))
	default:
		return 0
	}
}

// Equal reports whether a and b are canonically equal.
func Equal(a, b Value) bool {
	return Compare(a, b) == 0
}

// Field resolves a dotted path ("score", "meta.rank", "tags.0") inside v.
// An empty path returns v itself.
func Field(v Value, path string) (Value, error) {
	if path == "" {
		return v, nil
	}
	cur := v
	for _, part := range strings.Split(path, ".") {
		switch c := cur.(type) {
		case Object:
			next, ok := c[part]
			if !ok {
				return nil, fmt.Errorf("field %q: key %q not found", path, part)
			}
			cur = next
		case Array:
			var i int
			if _, err := fmt.Sscanf(part, "%d", &i); err != nil || i < 0 || i >= len(c) {
				return nil, fmt.Errorf("field %q: invalid index %q", path, part)
			}
			cur = c[i]
		default:
			return nil, fmt.Errorf("field %q: cannot descend into %s", path, TypeName(cur))
		}
	}
	return cur, nil
}

// FieldOrNull is like Field but yields Null for unresolvable paths, so a
// comparator built on it stays total.
func FieldOrNull(v Value, path string) Value {
	f, err := Field(v, path)
	if err != nil {
		return Null{}
	}
	return f
}

// ByField returns a comparator ordering values by the field at path.
func ByField(path string) func(a, b Value) int {
	return func(a, b Value) int {
		return Compare(FieldOrNull(a, path), FieldOrNull(b, path))
	}
}
