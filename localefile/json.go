package localefile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/minios-linux/locsync/tree"
)

// decodeJSON parses data token by token so object key order survives.
func decodeJSON(path string, data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	v, err := readJSONValue(dec)
	if err == nil {
		if _, extra := dec.Token(); extra != io.EOF {
			err = fmt.Errorf("unexpected data after top-level value")
			if extra != nil {
				err = extra
			}
		}
	}
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = fmt.Errorf("unexpected end of JSON input")
		}
		de := &DecodeError{Path: path, Err: err}
		var se *json.SyntaxError
		if errors.As(err, &se) {
			de.Line, de.Column = position(data, se.Offset)
		} else {
			de.Line, de.Column = position(data, dec.InputOffset())
		}
		return nil, de
	}
	return v, nil
}

func readJSONValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			m := tree.NewMap()
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := kt.(string)
				if !ok {
					return nil, fmt.Errorf("expected string key, got %T", kt)
				}
				v, err := readJSONValue(dec)
				if err != nil {
					return nil, err
				}
				m.Set(key, v)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return m, nil
		case '[':
			arr := []any{}
			for dec.More() {
				v, err := readJSONValue(dec)
				if err != nil {
					return nil, err
				}
				arr = append(arr, v)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return arr, nil
		}
		return nil, fmt.Errorf("unexpected %q", t)
	case string, float64, bool, nil:
		return t, nil
	}
	return nil, fmt.Errorf("unexpected token %v", tok)
}

// encodeJSON renders v with two-space indentation and a trailing newline.
// HTML characters are not escaped; locale strings carry markup.
func encodeJSON(v any) ([]byte, error) {
	var b bytes.Buffer
	if err := writeJSON(&b, v, ""); err != nil {
		return nil, err
	}
	b.WriteByte('\n')
	return b.Bytes(), nil
}

func writeJSON(b *bytes.Buffer, v any, indent string) error {
	inner := indent + "  "
	switch t := v.(type) {
	case *tree.Map:
		if t.Len() == 0 {
			b.WriteString("{}")
			return nil
		}
		b.WriteString("{\n")
		i := 0
		var err error
		t.Range(func(k string, val any) bool {
			b.WriteString(inner)
			b.WriteString(jsonScalar(k))
			b.WriteString(": ")
			if err = writeJSON(b, val, inner); err != nil {
				return false
			}
			if i < t.Len()-1 {
				b.WriteByte(',')
			}
			b.WriteByte('\n')
			i++
			return true
		})
		if err != nil {
			return err
		}
		b.WriteString(indent)
		b.WriteByte('}')
	case []any:
		if len(t) == 0 {
			b.WriteString("[]")
			return nil
		}
		b.WriteString("[\n")
		for i, it := range t {
			b.WriteString(inner)
			if err := writeJSON(b, it, inner); err != nil {
				return err
			}
			if i < len(t)-1 {
				b.WriteByte(',')
			}
			b.WriteByte('\n')
		}
		b.WriteString(indent)
		b.WriteByte(']')
	default:
		if f, ok := tree.Number(v); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
			return fmt.Errorf("number %v has no JSON representation", f)
		}
		b.WriteString(jsonScalar(v))
	}
	return nil
}

// jsonScalar encodes a leaf without HTML escaping.
func jsonScalar(v any) string {
	var b strings.Builder
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "null"
	}
	return strings.TrimSuffix(b.String(), "\n")
}
