package localefile

import (
	"bytes"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/minios-linux/locsync/tree"
)

var yamlLineRe = regexp.MustCompile(`line (\d+)`)

// ---------------------------------------------------------------------------
// Decoding
// ---------------------------------------------------------------------------

func decodeYAML(path string, data []byte) (any, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		de := &DecodeError{Path: path, Err: err}
		if m := yamlLineRe.FindStringSubmatch(err.Error()); m != nil {
			de.Line, _ = strconv.Atoi(m[1])
		}
		return nil, de
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		// Empty file.
		return nil, nil
	}
	v, err := yamlValue(doc.Content[0])
	if err != nil {
		return nil, &DecodeError{Path: path, Line: err.line, Column: err.col, Err: err}
	}
	return v, nil
}

type yamlNodeError struct {
	line, col int
	msg       string
}

func (e *yamlNodeError) Error() string { return e.msg }

func nodeErr(n *yaml.Node, format string, args ...any) *yamlNodeError {
	return &yamlNodeError{line: n.Line, col: n.Column, msg: fmt.Sprintf(format, args...)}
}

func yamlValue(n *yaml.Node) (any, *yamlNodeError) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return yamlValue(n.Content[0])
	case yaml.AliasNode:
		return yamlValue(n.Alias)
	case yaml.MappingNode:
		m := tree.NewMap()
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]
			if k.Kind != yaml.ScalarNode {
				return nil, nodeErr(k, "mapping keys must be scalars")
			}
			if k.Tag == "!!merge" {
				return nil, nodeErr(k, "merge keys are not supported")
			}
			val, err := yamlValue(v)
			if err != nil {
				return nil, err
			}
			m.Set(k.Value, val)
		}
		return m, nil
	case yaml.SequenceNode:
		arr := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			val, err := yamlValue(c)
			if err != nil {
				return nil, err
			}
			arr = append(arr, val)
		}
		return arr, nil
	case yaml.ScalarNode:
		return yamlScalar(n)
	}
	return nil, nodeErr(n, "unsupported YAML node kind %d", n.Kind)
}

func yamlScalar(n *yaml.Node) (any, *yamlNodeError) {
	switch n.ShortTag() {
	case "!!null":
		return nil, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, nodeErr(n, "%v", err)
		}
		return b, nil
	case "!!int", "!!float":
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, nodeErr(n, "%v", err)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, nodeErr(n, "non-finite number %q", n.Value)
		}
		return f, nil
	}
	// Strings, timestamps, binary and custom tags keep their text.
	return n.Value, nil
}

// ---------------------------------------------------------------------------
// Encoding
// ---------------------------------------------------------------------------

// encodeYAML merges v into the node tree parsed from source so comments,
// key order and scalar styles survive. Without source the value is
// rendered fresh.
func encodeYAML(source []byte, v any) ([]byte, error) {
	var doc yaml.Node
	indent := 2
	if len(source) > 0 {
		if err := yaml.Unmarshal(source, &doc); err != nil {
			return nil, fmt.Errorf("re-parsing original YAML: %w", err)
		}
		indent = detectYAMLIndent(source)
	}
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 {
		doc.Content[0] = mergeYAMLNode(doc.Content[0], v)
	} else {
		doc = yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{yamlNode(v)}}
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(indent)
	if err := enc.Encode(&doc); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// mergeYAMLNode returns n updated to hold v. Unchanged scalars are left
// byte-for-byte alone; mappings are merged key by key.
func mergeYAMLNode(n *yaml.Node, v any) *yaml.Node {
	if n.Kind == yaml.AliasNode {
		if cur, err := yamlValue(n); err == nil && tree.Equal(cur, v) {
			return n
		}
		return withComments(yamlNode(v), n)
	}

	want, isMap := tree.AsMap(v)
	if !isMap || n.Kind != yaml.MappingNode {
		if cur, err := yamlValue(n); err == nil && tree.Equal(cur, v) {
			return n
		}
		if n.Kind == yaml.ScalarNode {
			if _, isScalar := v.(string); isScalar {
				return setYAMLString(n, v.(string))
			}
		}
		return withComments(yamlNode(v), n)
	}

	seen := make(map[string]bool, want.Len())
	content := make([]*yaml.Node, 0, len(n.Content))
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, val := n.Content[i], n.Content[i+1]
		wv, ok := want.Get(k.Value)
		if !ok || seen[k.Value] {
			continue
		}
		seen[k.Value] = true
		content = append(content, k, mergeYAMLNode(val, wv))
	}
	want.Range(func(k string, wv any) bool {
		if !seen[k] {
			content = append(content, yamlKey(k), yamlNode(wv))
		}
		return true
	})
	n.Content = content
	return n
}

// setYAMLString replaces a scalar's value, keeping its quoting style.
func setYAMLString(n *yaml.Node, s string) *yaml.Node {
	n.Tag = "!!str"
	n.Value = s
	switch {
	case s == "":
		n.Style = yaml.DoubleQuotedStyle
	case n.Style == yaml.LiteralStyle || n.Style == yaml.FoldedStyle:
		if !strings.Contains(s, "\n") {
			n.Style = 0
		}
	}
	return n
}

func withComments(fresh, old *yaml.Node) *yaml.Node {
	fresh.HeadComment = old.HeadComment
	fresh.LineComment = old.LineComment
	fresh.FootComment = old.FootComment
	return fresh
}

func yamlKey(k string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}
}

// yamlNode builds a fresh node tree for a canonical value.
func yamlNode(v any) *yaml.Node {
	switch t := v.(type) {
	case nil:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	case bool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(t)}
	case string:
		n := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: t}
		if t == "" {
			n.Style = yaml.DoubleQuotedStyle
		}
		return n
	case []any:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, it := range t {
			n.Content = append(n.Content, yamlNode(it))
		}
		return n
	case *tree.Map:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		t.Range(func(k string, it any) bool {
			n.Content = append(n.Content, yamlKey(k), yamlNode(it))
			return true
		})
		return n
	}
	f, _ := tree.Number(v)
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatFloat(f, 'f', -1, 64)}
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: strconv.FormatFloat(f, 'g', -1, 64)}
}

// detectYAMLIndent returns the indentation width of the first indented
// mapping line, or 2.
func detectYAMLIndent(source []byte) int {
	for _, line := range strings.Split(string(source), "\n") {
		trimmed := strings.TrimLeft(line, " ")
		if trimmed == "" || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "- ") {
			continue
		}
		if n := len(line) - len(trimmed); n > 0 {
			if n > 8 {
				return 2
			}
			return n
		}
	}
	return 2
}
