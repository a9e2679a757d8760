package localefile

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/minios-linux/locsync/tree"
)

// ---------------------------------------------------------------------------
// Parsing
// ---------------------------------------------------------------------------

// parseModule builds a syntax tree for a JS or TS source file.
func parseModule(format Format, src []byte) (*sitter.Tree, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	if format == FormatTS {
		parser.SetLanguage(typescript.GetLanguage())
	} else {
		parser.SetLanguage(javascript.GetLanguage())
	}
	t, err := parser.ParseCtx(context.Background(), nil, src)
	if err != nil {
		return nil, fmt.Errorf("parsing failed: %w", err)
	}
	return t, nil
}

// moduleError builds a DecodeError positioned at n.
func moduleError(path string, n *sitter.Node, construct, format string, args ...any) *DecodeError {
	de := &DecodeError{Path: path, Construct: construct, Err: fmt.Errorf(format, args...)}
	if n != nil {
		p := n.StartPoint()
		de.Line, de.Column = int(p.Row)+1, int(p.Column)+1
	}
	return de
}

// firstSyntaxError returns the first ERROR or MISSING node below n.
func firstSyntaxError(n *sitter.Node) *sitter.Node {
	iter := sitter.NewIterator(n, sitter.DFSMode)
	for {
		c, err := iter.Next()
		if err != nil || c == nil {
			return n
		}
		if c.IsError() || c.IsMissing() {
			return c
		}
	}
}

func decodeModule(path string, format Format, src []byte) (any, Wrapper, error) {
	t, err := parseModule(format, src)
	if err != nil {
		return nil, WrapperNone, &DecodeError{Path: path, Err: err}
	}
	defer t.Close()

	root := t.RootNode()
	if root.HasError() {
		bad := firstSyntaxError(root)
		return nil, WrapperNone, moduleError(path, bad, "syntax error", "syntax error near %q", snippet(bad, src))
	}
	obj, wrapper, derr := findExportedObject(path, root, src)
	if derr != nil {
		return nil, WrapperNone, derr
	}
	v, derr := literalValue(path, obj, src)
	if derr != nil {
		return nil, WrapperNone, derr
	}
	return v, wrapper, nil
}

// findExportedObject locates the object literal bound by
// `export default` or `module.exports =`.
func findExportedObject(path string, root *sitter.Node, src []byte) (*sitter.Node, Wrapper, *DecodeError) {
	for i := 0; i < int(root.NamedChildCount()); i++ {
		stmt := root.NamedChild(i)
		switch stmt.Type() {
		case "export_statement":
			if !hasChildType(stmt, "default") {
				continue
			}
			value := stmt.ChildByFieldName("value")
			if value == nil {
				value = stmt.ChildByFieldName("declaration")
			}
			if value == nil {
				return nil, WrapperNone, moduleError(path, stmt, "export", "export default without a value")
			}
			value = unwrapExpression(value)
			if value.Type() != "object" {
				return nil, WrapperNone, moduleError(path, value, constructName(value.Type()),
					"export default must be an object literal, found %s", constructName(value.Type()))
			}
			return value, WrapperDefaultExport, nil

		case "expression_statement":
			expr := firstNamed(stmt)
			if expr == nil || expr.Type() != "assignment_expression" {
				continue
			}
			if !isModuleExports(expr.ChildByFieldName("left"), src) {
				continue
			}
			right := unwrapExpression(expr.ChildByFieldName("right"))
			if right == nil || right.Type() != "object" {
				found := "nothing"
				if right != nil {
					found = constructName(right.Type())
				}
				return nil, WrapperNone, moduleError(path, right, found,
					"module.exports must be an object literal, found %s", found)
			}
			return right, WrapperModuleExports, nil
		}
	}
	return nil, WrapperNone, &DecodeError{Path: path, Construct: "module",
		Err: fmt.Errorf("expected `export default { ... }` or `module.exports = { ... }`")}
}

func isModuleExports(n *sitter.Node, src []byte) bool {
	if n == nil || n.Type() != "member_expression" {
		return false
	}
	obj, prop := n.ChildByFieldName("object"), n.ChildByFieldName("property")
	return obj != nil && prop != nil &&
		obj.Content(src) == "module" && prop.Content(src) == "exports"
}

func hasChildType(n *sitter.Node, typ string) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		if c := n.Child(i); c != nil && c.Type() == typ {
			return true
		}
	}
	return false
}

// firstNamed returns the first named child that is not a comment.
func firstNamed(n *sitter.Node) *sitter.Node {
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if c := n.NamedChild(i); c.Type() != "comment" {
			return c
		}
	}
	return nil
}

// unwrapExpression strips parentheses and TypeScript type assertions
// (`as const`, `satisfies T`, `x!`).
func unwrapExpression(n *sitter.Node) *sitter.Node {
	for n != nil {
		switch n.Type() {
		case "parenthesized_expression", "as_expression", "satisfies_expression", "non_null_expression":
			n = firstNamed(n)
		default:
			return n
		}
	}
	return n
}

// ---------------------------------------------------------------------------
// Literal decoding
// ---------------------------------------------------------------------------

func literalValue(path string, n *sitter.Node, src []byte) (any, *DecodeError) {
	n = unwrapExpression(n)
	switch n.Type() {
	case "object":
		m := tree.NewMap()
		for i := 0; i < int(n.NamedChildCount()); i++ {
			c := n.NamedChild(i)
			switch c.Type() {
			case "comment":
				continue
			case "pair":
				key, err := propertyKey(path, c.ChildByFieldName("key"), src)
				if err != nil {
					return nil, err
				}
				v, err := literalValue(path, c.ChildByFieldName("value"), src)
				if err != nil {
					return nil, err
				}
				m.Set(key, v)
			default:
				return nil, unsupported(path, c)
			}
		}
		return m, nil

	case "array":
		arr := []any{}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			c := n.NamedChild(i)
			if c.Type() == "comment" {
				continue
			}
			v, err := literalValue(path, c, src)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		return arr, nil

	case "string":
		s, err := unquoteJS(n.Content(src))
		if err != nil {
			return nil, moduleError(path, n, "string", "%v", err)
		}
		return s, nil

	case "number":
		f, err := parseJSNumber(n.Content(src))
		if err != nil {
			return nil, moduleError(path, n, "number", "%v", err)
		}
		return f, nil

	case "true":
		return true, nil
	case "false":
		return false, nil
	case "null":
		return nil, nil

	case "unary_expression":
		op := n.ChildByFieldName("operator")
		arg := unwrapExpression(n.ChildByFieldName("argument"))
		if op != nil && op.Content(src) == "-" && arg != nil && arg.Type() == "number" {
			f, err := parseJSNumber(arg.Content(src))
			if err != nil {
				return nil, moduleError(path, arg, "number", "%v", err)
			}
			return -f, nil
		}
		return nil, unsupported(path, n)
	}
	return nil, unsupported(path, n)
}

func propertyKey(path string, k *sitter.Node, src []byte) (string, *DecodeError) {
	if k == nil {
		return "", moduleError(path, nil, "property", "property without a key")
	}
	switch k.Type() {
	case "property_identifier", "identifier":
		return k.Content(src), nil
	case "string":
		s, err := unquoteJS(k.Content(src))
		if err != nil {
			return "", moduleError(path, k, "string", "%v", err)
		}
		return s, nil
	case "number":
		f, err := parseJSNumber(k.Content(src))
		if err != nil {
			return "", moduleError(path, k, "number", "%v", err)
		}
		return formatJSNumber(f), nil
	}
	return "", unsupported(path, k)
}

func unsupported(path string, n *sitter.Node) *DecodeError {
	name := constructName(n.Type())
	return moduleError(path, n, name, "unsupported %s; only static literals are allowed", name)
}

// constructName turns a grammar node type into a readable name.
func constructName(typ string) string {
	switch typ {
	case "computed_property_name":
		return "computed key"
	case "spread_element":
		return "spread element"
	case "shorthand_property_identifier":
		return "shorthand property"
	case "method_definition":
		return "method"
	case "template_string":
		return "template literal"
	case "arrow_function", "function", "function_expression", "function_declaration", "generator_function":
		return "function"
	case "call_expression", "new_expression":
		return "function call"
	case "identifier":
		return "identifier reference"
	case "member_expression", "subscript_expression":
		return "member access"
	case "binary_expression":
		return "binary expression"
	case "unary_expression":
		return "unary expression"
	case "class", "class_declaration":
		return "class"
	}
	return strings.ReplaceAll(typ, "_", " ")
}

func snippet(n *sitter.Node, src []byte) string {
	s := n.Content(src)
	if len(s) > 20 {
		s = s[:20]
	}
	if s == "" {
		s = n.Type()
	}
	return s
}

// ---------------------------------------------------------------------------
// Scalars
// ---------------------------------------------------------------------------

// unquoteJS decodes a single- or double-quoted JS string literal.
func unquoteJS(raw string) (string, error) {
	if len(raw) < 2 || (raw[0] != '"' && raw[0] != '\'') || raw[len(raw)-1] != raw[0] {
		return "", fmt.Errorf("malformed string literal %s", raw)
	}
	body := raw[1 : len(raw)-1]
	if !strings.Contains(body, `\`) {
		return body, nil
	}

	var b strings.Builder
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(body) {
			return "", fmt.Errorf("trailing backslash in %s", raw)
		}
		switch e := body[i]; e {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'v':
			b.WriteByte('\v')
		case '0':
			b.WriteByte(0)
		case '\r':
			// Line continuation, possibly CRLF.
			if i+1 < len(body) && body[i+1] == '\n' {
				i++
			}
		case '\n':
		case 'x':
			if i+2 >= len(body) {
				return "", fmt.Errorf("short \\x escape in %s", raw)
			}
			n, err := strconv.ParseUint(body[i+1:i+3], 16, 8)
			if err != nil {
				return "", fmt.Errorf("bad \\x escape in %s", raw)
			}
			b.WriteRune(rune(n))
			i += 2
		case 'u':
			r, width, err := readUnicodeEscape(body[i+1:])
			if err != nil {
				return "", fmt.Errorf("%v in %s", err, raw)
			}
			i += width
			if utf16.IsSurrogate(r) && strings.HasPrefix(body[i+1:], `\u`) {
				if r2, w2, err := readUnicodeEscape(body[i+3:]); err == nil {
					if combined := utf16.DecodeRune(r, r2); combined != utf8.RuneError {
						r = combined
						i += 2 + w2
					}
				}
			}
			b.WriteRune(r)
		default:
			b.WriteByte(e)
		}
	}
	return b.String(), nil
}

// readUnicodeEscape reads the part after `\u`: either XXXX or {X...}.
func readUnicodeEscape(s string) (rune, int, error) {
	if strings.HasPrefix(s, "{") {
		end := strings.IndexByte(s, '}')
		if end < 2 {
			return 0, 0, fmt.Errorf("bad \\u{} escape")
		}
		n, err := strconv.ParseUint(s[1:end], 16, 32)
		if err != nil || n > utf8.MaxRune {
			return 0, 0, fmt.Errorf("bad \\u{} escape")
		}
		return rune(n), end + 1, nil
	}
	if len(s) < 4 {
		return 0, 0, fmt.Errorf("short \\u escape")
	}
	n, err := strconv.ParseUint(s[:4], 16, 16)
	if err != nil {
		return 0, 0, fmt.Errorf("bad \\u escape")
	}
	return rune(n), 4, nil
}

// parseJSNumber handles decimal, hex, octal and binary literals with
// optional numeric separators.
func parseJSNumber(s string) (float64, error) {
	s = strings.ReplaceAll(s, "_", "")
	if strings.HasSuffix(s, "n") {
		return 0, fmt.Errorf("bigint literal %s is not supported", s)
	}
	if len(s) > 2 && s[0] == '0' {
		base := 0
		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			n, err := strconv.ParseUint(s[2:], base, 64)
			if err != nil {
				return 0, fmt.Errorf("bad number literal %s", s)
			}
			return float64(n), nil
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("bad number literal %s", s)
	}
	return f, nil
}

// formatJSNumber renders f the way JavaScript's String(f) does for the
// values locale files hold.
func formatJSNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
