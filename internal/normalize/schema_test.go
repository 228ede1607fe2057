package normalize_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"facturas/internal/domain"
	"facturas/internal/normalize"
)

func TestFromJSON_Valid(t *testing.T) {
	data, err := normalize.FromJSON([]byte(`{"proveedor": "Telmex", "monto": "499", "moneda": null, "items": null}`))

	require.NoError(t, err)
	assert.Equal(t, ptr("Telmex"), data.Provider)
	assert.Equal(t, fptr(499), data.TotalAmount)
	assert.Nil(t, data.Currency)
	assert.Empty(t, data.Items)
}

func TestFromJSON_RejectsWrongShapes(t *testing.T) {
	cases := []string{
		`[]`,
		`"text"`,
		`{"monto": {"value": 1}}`,
		`{"items": "none"}`,
		`{"items": [1, 2]}`,
		`{"proveedor": true}`,
		`{not json`,
	}
	for _, c := range cases {
		_, err := normalize.FromJSON([]byte(c))
		assert.ErrorIs(t, err, domain.ErrInvalidInvoiceData, c)
	}
}

func TestValidate_UnknownKeysAllowed(t *testing.T) {
	assert.NoError(t, normalize.Validate([]byte(`{"notas": "x"}`)))
}
