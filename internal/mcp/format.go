package mcp

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

const indentUnit = "  "

// object is a decoded JSON object that remembers the order keys first
// appeared in. A repeated key keeps its first position and its last value.
type object struct {
	keys []string
	vals map[string]any
}

func (o *object) set(key string, v any) {
	if _, ok := o.vals[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.vals[key] = v
}

// formatJSON parses raw and writes the value back out with a two-space
// indent, the way JSON.stringify(value, null, 2) does: numbers in
// ECMAScript form, escapes decoded, the last of any duplicate keys kept.
func formatJSON(raw json.RawMessage) (string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	v, err := decodeValue(dec)
	if err != nil {
		return "", fmt.Errorf("format response: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return "", errors.New("format response: unexpected data after top-level value")
	}

	var sb strings.Builder
	writeValue(&sb, v, "")
	return sb.String(), nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}

	switch tok {
	case json.Delim('{'):
		obj := &object{vals: map[string]any{}}
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			key, ok := keyTok.(string)
			if !ok {
				return nil, fmt.Errorf("object key is %T", keyTok)
			}
			v, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			obj.set(key, v)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return obj, nil

	case json.Delim('['):
		arr := []any{}
		for dec.More() {
			v, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return arr, nil

	case json.Delim('}'), json.Delim(']'):
		return nil, fmt.Errorf("unexpected %v", tok)
	}
	return tok, nil
}

func writeValue(sb *strings.Builder, v any, indent string) {
	switch v := v.(type) {
	case nil:
		sb.WriteString("null")
	case bool:
		sb.WriteString(strconv.FormatBool(v))
	case json.Number:
		sb.WriteString(formatNumber(v))
	case string:
		writeString(sb, v)

	case []any:
		if len(v) == 0 {
			sb.WriteString("[]")
			return
		}
		inner := indent + indentUnit
		sb.WriteString("[\n")
		for i, elem := range v {
			if i > 0 {
				sb.WriteString(",\n")
			}
			sb.WriteString(inner)
			writeValue(sb, elem, inner)
		}
		sb.WriteString("\n" + indent + "]")

	case *object:
		if len(v.keys) == 0 {
			sb.WriteString("{}")
			return
		}
		inner := indent + indentUnit
		sb.WriteString("{\n")
		for i, key := range v.keys {
			if i > 0 {
				sb.WriteString(",\n")
			}
			sb.WriteString(inner)
			writeString(sb, key)
			sb.WriteString(": ")
			writeValue(sb, v.vals[key], inner)
		}
		sb.WriteString("\n" + indent + "}")
	}
}

// formatNumber renders a JSON number literal as an IEEE double printed by
// the ECMAScript Number::toString algorithm. Values that overflow a double
// become null.
func formatNumber(num json.Number) string {
	f, err := strconv.ParseFloat(string(num), 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return string(num)
	}
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return "null"
	}
	if f == 0 {
		return "0"
	}

	sign := ""
	if f < 0 {
		sign = "-"
		f = -f
	}

	// Shortest round-trip digits d1.d2...dk and exponent e, so f = 0.d1...dk * 10^n with n = e+1
	mantissa, exp, _ := strings.Cut(strconv.FormatFloat(f, 'e', -1, 64), "e")
	digits := strings.Replace(mantissa, ".", "", 1)
	e, _ := strconv.Atoi(exp)
	k, n := len(digits), e+1

	var out string
	switch {
	case k <= n && n <= 21:
		out = digits + strings.Repeat("0", n-k)
	case 0 < n && n <= 21:
		out = digits[:n] + "." + digits[n:]
	case -6 < n && n <= 0:
		out = "0." + strings.Repeat("0", -n) + digits
	default:
		out = digits[:1]
		if k > 1 {
			out += "." + digits[1:]
		}
		if n-1 >= 0 {
			out += "e+" + strconv.Itoa(n-1)
		} else {
			out += "e-" + strconv.Itoa(1-n)
		}
	}
	return sign + out
}

// writeString quotes s with the minimal JSON escapes: quote, backslash and
// control characters. Everything else, HTML characters included, is written as is.
func writeString(sb *strings.Builder, s string) {
	const hex = "0123456789abcdef"

	sb.WriteByte('"')
	for i := 0; i < len(s); {
		c := s[i]
		if c >= utf8.RuneSelf {
			r, size := utf8.DecodeRuneInString(s[i:])
			sb.WriteRune(r)
			i += size
			continue
		}
		switch c {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\b':
			sb.WriteString(`\b`)
		case '\f':
			sb.WriteString(`\f`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			if c < 0x20 {
				sb.WriteString(`\u00`)
				sb.WriteByte(hex[c>>4])
				sb.WriteByte(hex[c&0xf])
			} else {
				sb.WriteByte(c)
			}
		}
		i++
	}
	sb.WriteByte('"')
}
