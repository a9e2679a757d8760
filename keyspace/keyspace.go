// Package keyspace converts locale trees between the nested representation
// and the flat dot-joined key representation.
//
// Nested:
//
//	{"nav": {"home": "Home"}}
//
// Flat:
//
//	{"nav.home": "Home"}
//
// Both sides are compared through a flat key map whose values are leaves
// (string, number, boolean or null).
package keyspace

import (
	"fmt"
	"strings"

	"github.com/minios-linux/locsync/tree"
)

// Style is the way a document expresses key hierarchy.
type Style string

const (
	StyleAuto   Style = "auto"
	StyleNested Style = "nested"
	StyleFlat   Style = "flat"
)

// ParseStyle validates a key style name. Empty means auto.
func ParseStyle(s string) (Style, error) {
	switch Style(strings.TrimSpace(s)) {
	case "", StyleAuto:
		return StyleAuto, nil
	case StyleNested:
		return StyleNested, nil
	case StyleFlat:
		return StyleFlat, nil
	}
	return "", fmt.Errorf("invalid key style %q (valid: auto, nested, flat)", s)
}

// LeafError reports a value that cannot be a flat-map leaf.
type LeafError struct {
	Path string
	Kind string
}

func (e *LeafError) Error() string {
	return fmt.Sprintf("key %q holds %s where a leaf value is expected", e.Path, e.Kind)
}

// DetectStyle guesses the key style of a decoded document.
// Dotted top-level keys without nested mappings mean flat; everything
// else, including mixed and empty documents, is treated as nested.
func DetectStyle(v any) Style {
	m, ok := tree.AsMap(v)
	if !ok {
		return StyleNested
	}
	hasDotKeys, hasNested := false, false
	m.Range(func(k string, val any) bool {
		if strings.Contains(k, ".") {
			hasDotKeys = true
		}
		if _, ok := tree.AsMap(val); ok {
			hasNested = true
		}
		return true
	})
	if hasDotKeys && !hasNested {
		return StyleFlat
	}
	return StyleNested
}

// Resolve returns the effective style: declared unless it is auto.
func Resolve(declared Style, v any) Style {
	if declared == StyleNested || declared == StyleFlat {
		return declared
	}
	return DetectStyle(v)
}

// Flatten walks nested mappings joining keys with '.'.
// Non-mapping values become leaves; empty mappings contribute nothing.
// A non-mapping root yields an empty map.
func Flatten(v any) (*tree.Map, error) {
	out := tree.NewMap()
	m, ok := tree.AsMap(v)
	if !ok {
		return out, nil
	}
	if err := flattenInto(out, m, ""); err != nil {
		return nil, err
	}
	return out, nil
}

func flattenInto(out *tree.Map, m *tree.Map, prefix string) error {
	var err error
	m.Range(func(k string, val any) bool {
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}
		if child, ok := tree.AsMap(val); ok {
			err = flattenInto(out, child, path)
			return err == nil
		}
		if err = checkLeaf(path, val); err != nil {
			return false
		}
		out.Set(path, val)
		return true
	})
	return err
}

// AsFlat returns a flat-style document as a flat key map. Nested mappings
// are not expanded in flat style and are rejected as leaves.
func AsFlat(v any) (*tree.Map, error) {
	out := tree.NewMap()
	m, ok := tree.AsMap(v)
	if !ok {
		return out, nil
	}
	var err error
	m.Range(func(k string, val any) bool {
		if err = checkLeaf(k, val); err != nil {
			return false
		}
		out.Set(k, val)
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ToFlat flattens v according to style (which must not be auto).
func ToFlat(v any, style Style) (*tree.Map, error) {
	if style == StyleFlat {
		return AsFlat(v)
	}
	return Flatten(v)
}

// FromFlat is the inverse of ToFlat.
func FromFlat(flat *tree.Map, style Style) *tree.Map {
	if style == StyleFlat {
		return tree.Clone(flat).(*tree.Map)
	}
	return Unflatten(flat)
}

func checkLeaf(path string, v any) error {
	switch v.(type) {
	case []any:
		return &LeafError{Path: path, Kind: "an array"}
	case *tree.Map:
		return &LeafError{Path: path, Kind: "a nested mapping"}
	}
	return nil
}

// Unflatten splits every key on '.' and materializes intermediate
// mappings on first use. When a later key needs a mapping where an
// earlier key left a leaf (e.g. "a" then "a.b"), the leaf is replaced.
func Unflatten(flat *tree.Map) *tree.Map {
	root := tree.NewMap()
	flat.Range(func(k string, v any) bool {
		parts := strings.Split(k, ".")
		cur := root
		for i, p := range parts {
			if i == len(parts)-1 {
				cur.Set(p, v)
				break
			}
			next, ok := cur.Get(p)
			child, isMap := tree.AsMap(next)
			if !ok || !isMap {
				child = tree.NewMap()
				cur.Set(p, child)
			}
			cur = child
		}
		return true
	})
	return root
}

// Filter returns a copy of flat without the ignored keys.
func Filter(flat *tree.Map, ignore map[string]bool) *tree.Map {
	out := tree.NewMap()
	flat.Range(func(k string, v any) bool {
		if !ignore[k] {
			out.Set(k, v)
		}
		return true
	})
	return out
}
