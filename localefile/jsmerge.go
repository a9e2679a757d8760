package localefile

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/minios-linux/locsync/tree"
)

var identRe = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// literalStyle carries the formatting conventions detected in a file.
type literalStyle struct {
	quote byte
	unit  string
}

var defaultLiteralStyle = literalStyle{quote: '"', unit: "  "}

// edit replaces src[start:end] with text.
type edit struct {
	start, end uint32
	text       string
}

// encodeModule rewrites a source-literal file. With the original source
// available, only the properties that changed are touched; otherwise a
// fresh literal is emitted inside the document's wrapper.
func encodeModule(doc *Document, v any) ([]byte, error) {
	if len(doc.Source) > 0 {
		out, ok, err := mergeModule(doc, v)
		if err != nil {
			return nil, err
		}
		if ok {
			return out, nil
		}
	}
	return freshModule(doc.Wrapper, v, defaultLiteralStyle)
}

func freshModule(w Wrapper, v any, style literalStyle) ([]byte, error) {
	lit, err := renderLiteral(v, "", style)
	if err != nil {
		return nil, err
	}
	if w == WrapperModuleExports {
		return []byte("module.exports = " + lit + ";\n"), nil
	}
	return []byte("export default " + lit + ";\n"), nil
}

// mergeModule applies v to the exported object of doc.Source. ok is false
// when the source no longer has a recognizable export or the merged text
// does not read back as v, in which case the caller renders fresh.
func mergeModule(doc *Document, v any) ([]byte, bool, error) {
	want, isMap := tree.AsMap(v)
	if !isMap {
		return nil, false, nil
	}
	src := doc.Source
	t, err := parseModule(doc.Format, src)
	if err != nil {
		return nil, false, nil
	}
	defer t.Close()
	root := t.RootNode()
	if root.HasError() {
		return nil, false, nil
	}
	obj, _, derr := findExportedObject(doc.Path, root, src)
	if derr != nil {
		return nil, false, nil
	}

	style := detectLiteralStyle(obj, src)
	m := &merger{path: doc.Path, src: src, style: style}
	if err := m.object(obj, want); err != nil {
		return nil, false, err
	}
	out := applyEdits(src, m.edits)

	// The merge must read back as exactly the requested value.
	back, err := DecodeBytes(doc.Path, out)
	if err != nil || !tree.Equal(back.Value, v) {
		return nil, false, nil
	}
	return out, true, nil
}

type merger struct {
	path  string
	src   []byte
	style literalStyle
	edits []edit
}

type pairInfo struct {
	node  *sitter.Node
	key   string
	comma *sitter.Node // trailing comma, if any
	keep  bool
}

// object merges want into the object literal node obj.
func (m *merger) object(obj *sitter.Node, want *tree.Map) error {
	var pairs []*pairInfo
	for i := 0; i < int(obj.NamedChildCount()); i++ {
		c := obj.NamedChild(i)
		if c.Type() != "pair" {
			continue
		}
		key, derr := propertyKey(m.path, c.ChildByFieldName("key"), m.src)
		if derr != nil {
			return derr
		}
		p := &pairInfo{node: c, key: key}
		if next := c.NextSibling(); next != nil && next.Type() == "," {
			p.comma = next
		}
		pairs = append(pairs, p)
	}

	seen := make(map[string]bool, len(pairs))
	for _, p := range pairs {
		wv, ok := want.Get(p.key)
		if !ok || seen[p.key] {
			m.deletePair(p)
			continue
		}
		seen[p.key] = true
		p.keep = true
		if err := m.value(p.node, wv); err != nil {
			return err
		}
	}

	var added []string
	want.Range(func(k string, _ any) bool {
		if !seen[k] {
			added = append(added, k)
		}
		return true
	})
	if len(added) == 0 {
		return nil
	}

	var last *pairInfo
	for _, p := range pairs {
		if p.keep {
			last = p
		}
	}

	braceIndent := lineIndent(m.src, obj.StartByte())
	inner := braceIndent + m.style.unit
	if last != nil && onOwnLine(m.src, last.node.StartByte()) {
		inner = lineIndent(m.src, last.node.StartByte())
	}

	entries := make([]string, 0, len(added))
	for _, k := range added {
		wv, _ := want.Get(k)
		lit, err := renderLiteral(wv, inner, m.style)
		if err != nil {
			return err
		}
		entries = append(entries, m.key(k)+": "+lit)
	}

	singleLine := obj.StartPoint().Row == obj.EndPoint().Row
	switch {
	case last == nil:
		// Empty object, or every property was removed.
		text := "\n" + inner + strings.Join(entries, ",\n"+inner)
		if singleLine {
			text += "\n" + braceIndent
		}
		at := obj.StartByte() + 1
		m.edits = append(m.edits, edit{start: at, end: at, text: text})

	case singleLine:
		if last.comma != nil {
			at := last.comma.EndByte()
			m.edits = append(m.edits, edit{start: at, end: at, text: " " + strings.Join(entries, ", ") + ","})
		} else {
			at := last.node.EndByte()
			m.edits = append(m.edits, edit{start: at, end: at, text: ", " + strings.Join(entries, ", ")})
		}

	default:
		trailingComma := last.comma != nil
		after := last.node.EndByte()
		if trailingComma {
			after = last.comma.EndByte()
		} else {
			m.edits = append(m.edits, edit{start: after, end: after, text: ","})
		}
		// New lines go after anything else on the last property's line,
		// such as a trailing comment.
		at := endOfLine(m.src, after)
		text := "\n" + inner + strings.Join(entries, ",\n"+inner)
		if trailingComma {
			text += ","
		}
		m.edits = append(m.edits, edit{start: at, end: at, text: text})
	}
	return nil
}

// value updates the value of an existing pair.
func (m *merger) value(pair *sitter.Node, wv any) error {
	valNode := unwrapExpression(pair.ChildByFieldName("value"))
	if valNode == nil {
		return fmt.Errorf("property without a value")
	}
	if wantMap, ok := tree.AsMap(wv); ok && valNode.Type() == "object" {
		return m.object(valNode, wantMap)
	}
	if cur, derr := literalValue(m.path, valNode, m.src); derr == nil && tree.Equal(cur, wv) {
		return nil
	}
	lit, err := renderLiteral(wv, lineIndent(m.src, pair.StartByte()), m.style)
	if err != nil {
		return err
	}
	m.edits = append(m.edits, edit{start: valNode.StartByte(), end: valNode.EndByte(), text: lit})
	return nil
}

// deletePair removes a property together with its comma. A property on
// its own line takes the whole line with it.
func (m *merger) deletePair(p *pairInfo) {
	start, end := p.node.StartByte(), p.node.EndByte()
	if p.comma != nil {
		end = p.comma.EndByte()
	}
	src := m.src

	lineStart := start
	for lineStart > 0 && (src[lineStart-1] == ' ' || src[lineStart-1] == '\t') {
		lineStart--
	}
	stop := end
	for int(stop) < len(src) && (src[stop] == ' ' || src[stop] == '\t') {
		stop++
	}
	ownLine := (lineStart == 0 || src[lineStart-1] == '\n') &&
		(int(stop) == len(src) || src[stop] == '\n' || src[stop] == '\r')
	if ownLine {
		if int(stop) < len(src) && src[stop] == '\r' {
			stop++
		}
		if int(stop) < len(src) && src[stop] == '\n' {
			stop++
		}
		m.edits = append(m.edits, edit{start: lineStart, end: stop})
		return
	}

	if p.comma == nil {
		// Last inline property: drop the whitespace before it and leave
		// the preceding comma as a trailing one.
		if prev := p.node.PrevSibling(); prev != nil && prev.Type() == "," {
			start = prev.EndByte()
		}
		m.edits = append(m.edits, edit{start: start, end: end})
		return
	}
	m.edits = append(m.edits, edit{start: start, end: stop})
}

func (m *merger) key(k string) string {
	if identRe.MatchString(k) {
		return k
	}
	return quoteJS(k, m.style.quote)
}

// applyEdits rewrites src. Overlapping edits are merged into one.
func applyEdits(src []byte, edits []edit) []byte {
	sort.SliceStable(edits, func(i, j int) bool { return edits[i].start < edits[j].start })
	var merged []edit
	for _, e := range edits {
		if n := len(merged); n > 0 && e.start < merged[n-1].end {
			last := &merged[n-1]
			if e.end > last.end {
				last.end = e.end
			}
			last.text += e.text
			continue
		}
		merged = append(merged, e)
	}

	var b strings.Builder
	var pos uint32
	for _, e := range merged {
		b.Write(src[pos:e.start])
		b.WriteString(e.text)
		pos = e.end
	}
	b.Write(src[pos:])
	return []byte(b.String())
}

// ---------------------------------------------------------------------------
// Rendering
// ---------------------------------------------------------------------------

// renderLiteral renders v as a JS literal whose nested lines start with
// indent plus one indentation unit.
func renderLiteral(v any, indent string, style literalStyle) (string, error) {
	inner := indent + style.unit
	switch t := v.(type) {
	case nil:
		return "null", nil
	case bool:
		if t {
			return "true", nil
		}
		return "false", nil
	case string:
		return quoteJS(t, style.quote), nil
	case []any:
		if len(t) == 0 {
			return "[]", nil
		}
		var b strings.Builder
		b.WriteString("[\n")
		for i, it := range t {
			lit, err := renderLiteral(it, inner, style)
			if err != nil {
				return "", err
			}
			b.WriteString(inner + lit)
			if i < len(t)-1 {
				b.WriteByte(',')
			}
			b.WriteByte('\n')
		}
		b.WriteString(indent + "]")
		return b.String(), nil
	case *tree.Map:
		if t.Len() == 0 {
			return "{}", nil
		}
		var b strings.Builder
		b.WriteString("{\n")
		i := 0
		var err error
		t.Range(func(k string, it any) bool {
			var lit string
			if lit, err = renderLiteral(it, inner, style); err != nil {
				return false
			}
			key := k
			if !identRe.MatchString(k) {
				key = quoteJS(k, style.quote)
			}
			b.WriteString(inner + key + ": " + lit)
			if i < t.Len()-1 {
				b.WriteByte(',')
			}
			b.WriteByte('\n')
			i++
			return true
		})
		if err != nil {
			return "", err
		}
		b.WriteString(indent + "}")
		return b.String(), nil
	}
	f, ok := tree.Number(v)
	if !ok {
		return "", fmt.Errorf("unsupported value %s", tree.TypeName(v))
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", fmt.Errorf("number %v has no literal representation", f)
	}
	if f < 0 {
		return "-" + formatJSNumber(-f), nil
	}
	return formatJSNumber(f), nil
}

// quoteJS renders s as a string literal using quote q.
func quoteJS(s string, q byte) string {
	var b strings.Builder
	b.WriteByte(q)
	for _, r := range s {
		switch {
		case r == rune(q) || r == '\\':
			b.WriteByte('\\')
			b.WriteRune(r)
		case r == '\n':
			b.WriteString(`\n`)
		case r == '\r':
			b.WriteString(`\r`)
		case r == '\t':
			b.WriteString(`\t`)
		case r == 0x2028 || r == 0x2029 || r < 0x20:
			fmt.Fprintf(&b, `\u%04x`, r)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte(q)
	return b.String()
}

// detectLiteralStyle picks the quote character of the first string in
// the exported object and the indentation of its first property.
func detectLiteralStyle(obj *sitter.Node, src []byte) literalStyle {
	style := defaultLiteralStyle
	iter := sitter.NewIterator(obj, sitter.DFSMode)
	for {
		n, err := iter.Next()
		if err != nil || n == nil {
			break
		}
		if n.Type() == "string" {
			if c := src[n.StartByte()]; c == '\'' || c == '"' {
				style.quote = c
			}
			break
		}
	}
	for i := 0; i < int(obj.NamedChildCount()); i++ {
		c := obj.NamedChild(i)
		if c.Type() != "pair" || !onOwnLine(src, c.StartByte()) {
			continue
		}
		base := lineIndent(src, obj.StartByte())
		if ind := lineIndent(src, c.StartByte()); strings.HasPrefix(ind, base) && len(ind) > len(base) {
			style.unit = ind[len(base):]
		}
		break
	}
	return style
}

// lineIndent returns the leading whitespace of the line containing pos.
func lineIndent(src []byte, pos uint32) string {
	start := int(pos)
	for start > 0 && src[start-1] != '\n' {
		start--
	}
	end := start
	for end < len(src) && (src[end] == ' ' || src[end] == '\t') {
		end++
	}
	return string(src[start:end])
}

// endOfLine returns the offset of the line break at or after pos.
func endOfLine(src []byte, pos uint32) uint32 {
	i := int(pos)
	for i < len(src) && src[i] != '\n' {
		i++
	}
	if i > int(pos) && src[i-1] == '\r' {
		i--
	}
	return uint32(i)
}

// onOwnLine reports whether only whitespace precedes pos on its line.
func onOwnLine(src []byte, pos uint32) bool {
	for i := int(pos) - 1; i >= 0; i-- {
		switch src[i] {
		case '\n':
			return true
		case ' ', '\t':
			continue
		default:
			return false
		}
	}
	return true
}
