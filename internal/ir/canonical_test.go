package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"string", String("hello"), `"hello"`},
		{"int", Int(-42), `-42`},
		{"bool", Bool(true), `true`},
		{"empty array", Array{}, `[]`},
		{"empty object", Object{}, `{}`},
		{"sorted keys", Object{"b": Int(2), "a": Int(1)}, `{"a":1,"b":2}`},
		{"nested", Object{"x": Array{Object{"k": String("v")}}}, `{"x":[{"k":"v"}]}`},
		{"plain go values", map[string]any{"n": 1, "s": "t"}, `{"n":1,"s":"t"}`},
		{"no html escape", String("<a & b>"), `"<a & b>"`},
		{"line separator literal", String("a\u2028b"), "\"a\u2028b\""},
		{"escapes", String("q\"b\\n\n\x01"), `"q\"b\\n\n\u0001"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(got))
		})
	}
}

func TestMarshalCanonicalRejects(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  string
	}{
		{"nil", nil, "null"},
		{"float64", 3.14, "float"},
		{"float32", float32(1), "float"},
		{"nested float", map[string]any{"a": []any{1.5}}, "float"},
		{"struct", struct{}{}, "unsupported"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := MarshalCanonical(tt.input)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestMarshalCanonicalNFC(t *testing.T) {
	composed, err := MarshalCanonical(Object{"caf\u00e9": String("caf\u00e9")})
	require.NoError(t, err)
	decomposed, err := MarshalCanonical(Object{"cafe\u0301": String("cafe\u0301")})
	require.NoError(t, err)

	assert.Equal(t, composed, decomposed)
}
