package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"facturas/internal/parser"
)

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare object", `{"a":1}`, `{"a":1}`},
		{"surrounding prose", "Claro, aquí está:\n{\"a\":1}\nSaludos", `{"a":1}`},
		{"code fence", "```json\n{\"a\":{\"b\":2}}\n```", `{"a":{"b":2}}`},
		{"braces in strings", `{"s":"} {","t":"\"}"}`, `{"s":"} {","t":"\"}"}`},
		{"first of two objects", `{"a":1} y {"b":2}`, `{"a":1}`},
		{"unclosed then closed", `{ roto {"a":1}`, `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parser.ExtractJSONObject(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractJSONObject_None(t *testing.T) {
	for _, in := range []string{"", "no hay datos", "[1,2,3]", "{ sin cerrar"} {
		_, err := parser.ExtractJSONObject(in)
		assert.ErrorIs(t, err, parser.ErrNoJSON, in)
	}
}

func TestDecodeObject(t *testing.T) {
	obj, raw, err := parser.DecodeObject("Resultado: {\"proveedor\": \"CFE\", \"monto\": 350}")
	require.NoError(t, err)
	assert.Equal(t, `{"proveedor": "CFE", "monto": 350}`, raw)
	assert.Equal(t, "CFE", obj["proveedor"])
	assert.Equal(t, 350.0, obj["monto"])
}

func TestDecodeObject_InvalidJSON(t *testing.T) {
	_, raw, err := parser.DecodeObject(`{proveedor: CFE}`)
	assert.ErrorIs(t, err, parser.ErrInvalidJSON)
	assert.Equal(t, `{proveedor: CFE}`, raw)
}
