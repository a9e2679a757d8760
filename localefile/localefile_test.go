package localefile

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
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

func mustDecode(t *testing.T, path, src string) *Document {
	t.Helper()
	doc, err := DecodeBytes(path, []byte(src))
	if err != nil {
		t.Fatalf("DecodeBytes(%s): %v", path, err)
	}
	return doc
}

func mustEncode(t *testing.T, doc *Document, v any) string {
	t.Helper()
	out, err := Encode(doc, v)
	if err != nil {
		t.Fatalf("Encode(%s): %v", doc.Path, err)
	}
	return string(out)
}

// ---------------------------------------------------------------------------
// Plain data
// ---------------------------------------------------------------------------

func TestJSON_PreservesOrderAndRendersTwoSpaces(t *testing.T) {
	doc := mustDecode(t, "en.json", `{"b": "x <b>y</b>", "a": {"c": 1, "d": [true, null]}}`)
	m, ok := tree.AsMap(doc.Value)
	if !ok {
		t.Fatalf("Value is %T, want *tree.Map", doc.Value)
	}
	if got := m.Keys(); !reflect.DeepEqual(got, []string{"b", "a"}) {
		t.Fatalf("keys = %v, want [b a]", got)
	}
	if doc.Encoding() != PlainData {
		t.Fatalf("Encoding = %q, want plain-data", doc.Encoding())
	}

	want := "{\n  \"b\": \"x <b>y</b>\",\n  \"a\": {\n    \"c\": 1,\n    \"d\": [\n      true,\n      null\n    ]\n  }\n}\n"
	if got := mustEncode(t, doc, doc.Value); got != want {
		t.Fatalf("Encode =\n%s\nwant\n%s", got, want)
	}
}

func TestJSON_SyntaxErrorHasPosition(t *testing.T) {
	_, err := DecodeBytes("de.json", []byte("{\n  \"a\": ,\n}"))
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("error = %v, want *DecodeError", err)
	}
	if de.Line != 2 {
		t.Fatalf("Line = %d, want 2", de.Line)
	}
	if !strings.HasPrefix(de.Error(), "de.json:2:") {
		t.Fatalf("Error() = %q", de.Error())
	}
}

func TestJSON_RejectsTrailingData(t *testing.T) {
	if _, err := DecodeBytes("de.json", []byte(`{"a": "x"} {"b": "y"}`)); err == nil {
		t.Fatal("expected error for trailing data")
	}
	if _, err := DecodeBytes("de.json", []byte("")); err == nil {
		t.Fatal("expected error for empty file")
	}
}

func TestDecode_UnsupportedExtension(t *testing.T) {
	_, err := DecodeBytes("strings.xml", []byte("<resources/>"))
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("error = %v, want *DecodeError", err)
	}
}

func TestDecode_MissingFileUnwrapsNotExist(t *testing.T) {
	_, err := Decode(filepath.Join(t.TempDir(), "nope.json"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("error = %v, want os.ErrNotExist in chain", err)
	}
}

func TestEncode_RejectsNonCanonicalValue(t *testing.T) {
	doc, _ := New("fr.json", WrapperNone)
	_, err := Encode(doc, obj("a", func() {}))
	var ee *EncodeError
	if !errors.As(err, &ee) {
		t.Fatalf("error = %v, want *EncodeError", err)
	}
}

// ---------------------------------------------------------------------------
// Structured text
// ---------------------------------------------------------------------------

func TestYAML_DecodeScalars(t *testing.T) {
	doc := mustDecode(t, "en.yml", "title: Hello\ncount: 3\nratio: 1.5\nenabled: true\nnothing: null\nquoted: \"42\"\n")
	m, _ := tree.AsMap(doc.Value)
	cases := map[string]any{
		"title":   "Hello",
		"count":   3.0,
		"ratio":   1.5,
		"enabled": true,
		"nothing": nil,
		"quoted":  "42",
	}
	for k, want := range cases {
		got, _ := m.Get(k)
		if !tree.Equal(got, want) {
			t.Fatalf("%s = %#v, want %#v", k, got, want)
		}
	}
	if doc.Encoding() != StructuredText {
		t.Fatalf("Encoding = %q", doc.Encoding())
	}
}

func TestYAML_EmptyFileIsNull(t *testing.T) {
	doc := mustDecode(t, "en.yaml", "")
	if doc.Value != nil {
		t.Fatalf("Value = %#v, want nil", doc.Value)
	}
}

func TestYAML_SyntaxErrorHasLine(t *testing.T) {
	_, err := DecodeBytes("en.yaml", []byte("a: b\nc: [unclosed\n"))
	var de *DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("error = %v, want *DecodeError", err)
	}
	if de.Line == 0 {
		t.Fatalf("Line = 0, want a line number (err %v)", de)
	}
}

func TestYAML_MergeKeepsComments(t *testing.T) {
	src := "# header\ngreeting: Hello # hi\nnav:\n  home: Home\n  old: Old\n"
	doc := mustDecode(t, "de.yaml", src)

	out := mustEncode(t, doc, obj(
		"greeting", "Hallo",
		"nav", obj("home", "Start", "about", "Über uns"),
	))

	for _, want := range []string{"# header", "greeting: Hallo # hi", "  home: Start", "  about: Über uns"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "old") {
		t.Fatalf("removed key still present:\n%s", out)
	}

	back := mustDecode(t, "de.yaml", out)
	if !tree.Equal(back.Value, obj("greeting", "Hallo", "nav", obj("home", "Start", "about", "Über uns"))) {
		t.Fatalf("round trip mismatch:\n%s", out)
	}
}

func TestYAML_FreshQuotesAmbiguousStrings(t *testing.T) {
	doc, _ := New("fr.yaml", WrapperNone)
	out := mustEncode(t, doc, obj("a", "", "b", "true", "c", "plain"))
	back := mustDecode(t, "fr.yaml", out)
	if !tree.Equal(back.Value, obj("a", "", "b", "true", "c", "plain")) {
		t.Fatalf("fresh YAML does not read back:\n%s", out)
	}
}

// ---------------------------------------------------------------------------
// Source literal
// ---------------------------------------------------------------------------

func TestModule_DecodeDefaultExport(t *testing.T) {
	src := `// generated
export default {
  title: 'Hello',
  "nav.home": "Home",
  count: -3,
  hex: 0x10,
  escaped: 'it\'s \u00e9',
  nested: { ok: true, nothing: null },
  list: ['a', 'b'],
};
`
	doc := mustDecode(t, "en.js", src)
	if doc.Wrapper != WrapperDefaultExport {
		t.Fatalf("Wrapper = %q, want default-export", doc.Wrapper)
	}
	want := obj(
		"title", "Hello",
		"nav.home", "Home",
		"count", -3.0,
		"hex", 16.0,
		"escaped", "it's é",
		"nested", obj("ok", true, "nothing", nil),
		"list", []any{"a", "b"},
	)
	if !tree.Equal(doc.Value, want) {
		t.Fatalf("Value mismatch")
	}
}

func TestModule_DecodeModuleExports(t *testing.T) {
	doc := mustDecode(t, "en.js", "'use strict';\nmodule.exports = { a: \"x\" };\n")
	if doc.Wrapper != WrapperModuleExports {
		t.Fatalf("Wrapper = %q, want module-exports", doc.Wrapper)
	}
}

func TestModule_DecodeTypeScriptAsConst(t *testing.T) {
	doc := mustDecode(t, "en.ts", "export default {\n  a: 'x',\n} as const;\n")
	if !tree.Equal(doc.Value, obj("a", "x")) {
		t.Fatalf("Value mismatch")
	}
}

func TestModule_RejectsDynamicConstructs(t *testing.T) {
	cases := []struct {
		name      string
		src       string
		construct string
	}{
		{"computed key", "export default { [key]: 'x' };\n", "computed key"},
		{"spread", "export default { ...base, a: 'x' };\n", "spread element"},
		{"template", "export default { a: `x` };\n", "template literal"},
		{"call", "export default { a: t('x') };\n", "function call"},
		{"function", "export default { a: () => 'x' };\n", "function"},
		{"not an object", "export default messages;\n", "identifier reference"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeBytes("en.js", []byte(tc.src))
			var de *DecodeError
			if !errors.As(err, &de) {
				t.Fatalf("error = %v, want *DecodeError", err)
			}
			if de.Construct != tc.construct {
				t.Fatalf("Construct = %q, want %q (err %v)", de.Construct, tc.construct, de)
			}
		})
	}
}

func TestModule_RejectsFileWithoutExport(t *testing.T) {
	_, err := DecodeBytes("en.js", []byte("const a = { x: 1 };\n"))
	if err == nil {
		t.Fatal("expected error for file without export")
	}
}

func TestModule_UnchangedValueKeepsSourceBytes(t *testing.T) {
	src := "// keep me\nexport default {\n  a: 'x', // trailing\n  b: { c: 'y' },\n};\nconsole.log('unrelated');\n"
	doc := mustDecode(t, "en.js", src)
	if got := mustEncode(t, doc, doc.Value); got != src {
		t.Fatalf("Encode changed unchanged document:\n%s", got)
	}
}

func TestModule_StructuralMerge(t *testing.T) {
	src := `// Site strings
export default {
  // page title
  title: 'Hello',
  removed: 'Bye',
  nav: {
    home: 'Home',
  },
};
`
	doc := mustDecode(t, "de.ts", src)
	out := mustEncode(t, doc, obj(
		"title", "Hallo",
		"nav", obj("home", "Start", "about", "Über uns"),
		"new-key", "x",
	))

	want := `// Site strings
export default {
  // page title
  title: 'Hallo',
  nav: {
    home: 'Start',
    about: 'Über uns',
  },
  'new-key': 'x',
};
`
	if out != want {
		t.Fatalf("merge =\n%s\nwant\n%s", out, want)
	}
}

func TestModule_InlineMerge(t *testing.T) {
	doc := mustDecode(t, "de.js", "module.exports = { a: \"1\", b: \"2\" };\n")
	out := mustEncode(t, doc, obj("a", "1", "c", "3"))
	want := "module.exports = { a: \"1\", c: \"3\", };\n"
	if out != want {
		t.Fatalf("merge = %q, want %q", out, want)
	}
}

func TestModule_FreshRendering(t *testing.T) {
	doc, err := New("locales/de.ts", WrapperModuleExports)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	out := mustEncode(t, doc, obj("a", "x", "b-c", 1.0, "n", obj("d", "it's")))
	want := "module.exports = {\n  a: \"x\",\n  \"b-c\": 1,\n  n: {\n    d: \"it's\"\n  }\n};\n"
	if out != want {
		t.Fatalf("fresh =\n%s\nwant\n%s", out, want)
	}

	doc, _ = New("fr.js", WrapperNone)
	if doc.Wrapper != WrapperDefaultExport {
		t.Fatalf("New wrapper = %q, want default-export", doc.Wrapper)
	}
}

func TestWrite_CreatesDirectories(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "nested", "fr.json")
	doc, _ := New(path, WrapperNone)
	if err := Write(path, doc, obj("a", "b")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	back, err := Decode(path)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !tree.Equal(back.Value, obj("a", "b")) {
		t.Fatalf("written value mismatch")
	}
}

func TestUnquoteJS(t *testing.T) {
	cases := map[string]string{
		`"plain"`:        "plain",
		`'a\nb'`:         "a\nb",
		`"\x41\u0042"`:   "AB",
		`"\u{1F600}"`:    "😀",
		`"\uD83D\uDE00"`: "😀",
		`'say \"hi\"'`:   `say "hi"`,
	}
	for in, want := range cases {
		got, err := unquoteJS(in)
		if err != nil {
			t.Fatalf("unquoteJS(%s): %v", in, err)
		}
		if got != want {
			t.Fatalf("unquoteJS(%s) = %q, want %q", in, got, want)
		}
	}
}
