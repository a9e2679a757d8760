package keyspace

import (
	"errors"
	"reflect"
	"testing"

	"github.com/minios-linux/locsync/tree"
)

func obj(kv ...any) *tree.Map {
	m := tree.NewMap()
	for i := 0; i+1 < len(kv); i += 2 {
		m.Set(kv[i].(string), kv[i+1])
	}
	return m
}

func TestFlattenUnflattenRoundTrip(t *testing.T) {
	nested := obj(
		"app", obj("title", "Hello", "nav", obj("home", "Home", "about", "About")),
		"footer", "Bye",
	)

	flat, err := Flatten(nested)
	if err != nil {
		t.Fatalf("Flatten error: %v", err)
	}
	want := []string{"app.title", "app.nav.home", "app.nav.about", "footer"}
	if got := flat.Keys(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Flatten keys = %v, want %v", got, want)
	}

	back := Unflatten(flat)
	if !tree.Equal(back, nested) {
		t.Fatalf("Unflatten(Flatten(v)) != v")
	}
}

func TestFlattenEmptyMappingContributesNothing(t *testing.T) {
	flat, err := Flatten(obj("a", obj(), "b", "x"))
	if err != nil {
		t.Fatalf("Flatten error: %v", err)
	}
	if got := flat.Keys(); !reflect.DeepEqual(got, []string{"b"}) {
		t.Fatalf("keys = %v, want [b]", got)
	}
}

func TestFlattenRejectsArrayLeaf(t *testing.T) {
	_, err := Flatten(obj("a", obj("list", []any{"x"})))
	var le *LeafError
	if !errors.As(err, &le) {
		t.Fatalf("Flatten error = %v, want *LeafError", err)
	}
	if le.Path != "a.list" {
		t.Fatalf("LeafError.Path = %q, want a.list", le.Path)
	}
}

func TestAsFlatRejectsNesting(t *testing.T) {
	if _, err := AsFlat(obj("a.b", "x", "c", obj("d", "y"))); err == nil {
		t.Fatal("AsFlat expected error for nested mapping")
	}
	flat, err := AsFlat(obj("a.b", "x", "n", 1.0))
	if err != nil {
		t.Fatalf("AsFlat error: %v", err)
	}
	if flat.Len() != 2 {
		t.Fatalf("Len = %d, want 2", flat.Len())
	}
}

func TestUnflattenCollisionOverwritesLeaf(t *testing.T) {
	flat := obj("a", "leaf", "a.b", "inner")
	got := Unflatten(flat)
	want := obj("a", obj("b", "inner"))
	if !tree.Equal(got, want) {
		t.Fatalf("Unflatten collision: leaf should be replaced by mapping")
	}

	// The reverse order keeps the later leaf.
	got = Unflatten(obj("a.b", "inner", "a", "leaf"))
	if v, _ := got.Get("a"); v != "leaf" {
		t.Fatalf("a = %v, want leaf", v)
	}
}

func TestDetectStyle(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want Style
	}{
		{"flat", obj("a.b", "x", "c", "y"), StyleFlat},
		{"nested", obj("a", obj("b", "x")), StyleNested},
		{"mixed", obj("a.b", "x", "c", obj("d", "y")), StyleNested},
		{"empty", obj(), StyleNested},
		{"plain", obj("a", "x"), StyleNested},
		{"not a map", []any{"x"}, StyleNested},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DetectStyle(tc.in); got != tc.want {
				t.Fatalf("DetectStyle = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestParseStyle(t *testing.T) {
	if s, err := ParseStyle(""); err != nil || s != StyleAuto {
		t.Fatalf("ParseStyle(\"\") = %q, %v", s, err)
	}
	if _, err := ParseStyle("deep"); err == nil {
		t.Fatal("ParseStyle(deep) expected error")
	}
}
