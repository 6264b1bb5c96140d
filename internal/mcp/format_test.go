package mcp

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"key order and nesting", " {\"b\":1,\"a\":[1e3,{\"x\":null}]}\n", "{\n  \"b\": 1,\n  \"a\": [\n    1000,\n    {\n      \"x\": null\n    }\n  ]\n}"},
		{"empty containers", `{"a":{},"b":[],"c":[{}]}`, "{\n  \"a\": {},\n  \"b\": [],\n  \"c\": [\n    {}\n  ]\n}"},
		{"duplicate key keeps first position and last value", `{"a":1,"b":2,"a":3}`, "{\n  \"a\": 3,\n  \"b\": 2\n}"},
		{"escapes decoded", `"caf\u00e9 \u003cb\u003e"`, `"café <b>"`},
		{"html characters", `"<ok> & fine"`, `"<ok> & fine"`},
		{"control characters", `"a\tb\nc\u0001\u001f\"\\\/"`, `"a\tb\nc\u0001\u001f\"\\/"`},
		{"line separator", `"\u2028"`, "\"\u2028\""},
		{"scalars", `[true,false,null,"s"]`, "[\n  true,\n  false,\n  null,\n  \"s\"\n]"},
		{"empty top-level object", `{}`, `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := formatJSON(json.RawMessage(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatJSON_Invalid(t *testing.T) {
	for _, in := range []string{``, `   `, `{"a":`, `[1,]`, `{} x`, `{}{}`, `<html>`} {
		t.Run(in, func(t *testing.T) {
			_, err := formatJSON(json.RawMessage(in))
			assert.Error(t, err)
		})
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "0"},
		{"-0", "0"},
		{"0.0", "0"},
		{"100.0", "100"},
		{"1234.50", "1234.5"},
		{"-2.50", "-2.5"},
		{"1e3", "1000"},
		{"1E+2", "100"},
		{"0.1", "0.1"},
		{"0.000001", "0.000001"},
		{"1e-7", "1e-7"},
		{"1.5e-7", "1.5e-7"},
		{"123456789012345678901", "123456789012345680000"},
		{"1e21", "1e+21"},
		{"1.23e22", "1.23e+22"},
		{"-1e21", "-1e+21"},
		{"9007199254740993", "9007199254740992"},
		{"0.30000000000000004", "0.30000000000000004"},
		{"1e400", "null"},
		{"1e-400", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, formatNumber(json.Number(tt.in)))
		})
	}
}
