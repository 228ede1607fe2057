package handler_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"facturas/internal/domain"
	"facturas/internal/handler"
	"facturas/internal/service"
	"facturas/mocks"
)

func TestCalculatorHandler_Preview(t *testing.T) {
	calc := new(mocks.MockCalculatorService)
	h := handler.NewCalculatorHandler(calc)

	calc.On("Compute", mock.MatchedBy(func(in service.CalculatorInput) bool {
		return len(in.Items) == 1 && in.Items[0].Quantity == 2 && in.TaxRate == nil
	})).Return(&service.CalculatorTotals{Subtotal: 1000, Taxes: 160, Total: 1160, TaxRate: 16, Currency: domain.CurrencyMXN}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(http.MethodPost, "/api/v1/calculator/preview", map[string]any{
		"items": []map[string]any{{"descripcion": "Widget", "cantidad": 2, "precioUnitario": 500}},
	})

	h.Preview(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":1160`)
}

func TestCalculatorHandler_Preview_Invalid(t *testing.T) {
	calc := new(mocks.MockCalculatorService)
	h := handler.NewCalculatorHandler(calc)
	calc.On("Compute", mock.Anything).Return(nil, domain.ErrInvalidTaxRate)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(http.MethodPost, "/api/v1/calculator/preview", map[string]any{"tasaImpuesto": 150})

	h.Preview(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_TAX_RATE", decodeResponse(t, w).Error.Code)
}

func TestCalculatorHandler_Save(t *testing.T) {
	calc := new(mocks.MockCalculatorService)
	h := handler.NewCalculatorHandler(calc)
	userID := uuid.New()

	calc.On("Save", mock.Anything, userID, mock.MatchedBy(func(in service.CalculatorInput) bool {
		return in.Provider == "Papelería"
	})).Return(&domain.Invoice{ID: uuid.New(), Status: domain.InvoiceStatusProcessed}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(http.MethodPost, "/api/v1/calculator/invoices", map[string]any{
		"proveedor": "Papelería",
		"items":     []map[string]any{{"descripcion": "Hojas", "cantidad": 1, "precioUnitario": 10}},
	})
	setUserContext(c, userID)

	h.Save(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	calc.AssertExpectations(t)
}

func TestCalculatorHandler_Save_ProviderRequired(t *testing.T) {
	calc := new(mocks.MockCalculatorService)
	h := handler.NewCalculatorHandler(calc)
	calc.On("Save", mock.Anything, mock.Anything, mock.Anything).Return(nil, domain.ErrProviderRequired)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(http.MethodPost, "/api/v1/calculator/invoices", map[string]any{})
	setUserContext(c, uuid.New())

	h.Save(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "PROVIDER_REQUIRED", decodeResponse(t, w).Error.Code)
}
