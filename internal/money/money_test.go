package money_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"facturas/internal/money"
)

func TestFormatter_Format(t *testing.T) {
	f := money.NewFormatter("en-US")

	got := f.Format(1234.5, "MXN")

	assert.True(t, strings.HasPrefix(got, "MXN "), got)
	assert.Contains(t, got, "1,234.50")
}

func TestFormatter_UnknownCurrencyHasNoPrefix(t *testing.T) {
	f := money.NewFormatter("en-US")

	got := f.Format(10, "pesos")

	assert.Equal(t, "10.00", got)
}

func TestFormatter_BadLocaleFallsBack(t *testing.T) {
	f := money.NewFormatter("not a locale!!")

	assert.NotEmpty(t, f.Format(1, "USD"))
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 1.01, money.Round2(1.005))
	assert.Equal(t, 0.3, money.Round2(0.1+0.2))
	assert.Equal(t, 160.0, money.Round2(159.999))
}
