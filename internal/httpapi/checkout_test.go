package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smpos/backend/internal/domain"
	"smpos/backend/internal/store/memory"
)

func decodeView(t *testing.T, body []byte) domain.CheckoutView {
	t.Helper()
	var view domain.CheckoutView
	require.NoError(t, json.Unmarshal(body, &view))
	return view
}

func TestCheckoutFlow(t *testing.T) {
	api := newTestAPI(t)
	token := loginAs(t, api, "cashier", "cashier123")
	base := "/api/v1/checkout/till-1"

	rec := doJSON(t, api, http.MethodGet, base, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.CheckoutEmpty, decodeView(t, rec.Body.Bytes()).State)

	rec = doJSON(t, api, http.MethodPost, base+"/invoice", token, domain.GenerateInvoiceRequest{})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	for i := 0; i < 2; i++ {
		rec = doJSON(t, api, http.MethodPost, base+"/lines", token, domain.AddLineRequest{ProductID: "101"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
	rec = doJSON(t, api, http.MethodPost, base+"/lines", token, domain.AddLineRequest{Query: "copper"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doJSON(t, api, http.MethodPatch, base+"/lines/1", token, domain.EditLineRequest{Field: "quantity", Value: "500"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	view := decodeView(t, rec.Body.Bytes())
	require.Len(t, view.Lines, 2)
	assert.Equal(t, "190", view.Lines[0].LineTotal.String())
	assert.Equal(t, "490", view.Lines[1].LineTotal.String())
	assert.Equal(t, "680", view.Summary.TotalPrice.String())
	assert.Equal(t, domain.CheckoutPopulated, view.State)

	rec = doJSON(t, api, http.MethodPost, base+"/invoice", token, domain.GenerateInvoiceRequest{CustomerName: "Ravi"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var generated struct {
		Invoice domain.InvoiceDocument `json:"invoice"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &generated))
	assert.Regexp(t, `^\d{6}-001$`, generated.Invoice.Number)
	assert.Equal(t, "Ravi", generated.Invoice.CustomerName)
	assert.Equal(t, "Six Hundred Eighty rupees only", generated.Invoice.FinalPriceWords)

	// Generating again keeps the number.
	rec = doJSON(t, api, http.MethodPost, base+"/invoice", token, domain.GenerateInvoiceRequest{})
	require.Equal(t, http.StatusOK, rec.Code)
	var again struct {
		Invoice domain.InvoiceDocument `json:"invoice"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &again))
	assert.Equal(t, generated.Invoice.Number, again.Invoice.Number)
	assert.Equal(t, "Ravi", again.Invoice.CustomerName)

	rec = doJSON(t, api, http.MethodPost, base+"/lines", token, domain.AddLineRequest{ProductID: "110"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, api, http.MethodGet, base+"/invoice.html", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), generated.Invoice.Number)
	assert.Contains(t, rec.Body.String(), testShop.Name)

	rec = doJSON(t, api, http.MethodGet, base+"/invoice/escpos", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var receipt domain.ReceiptResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &receipt))
	assert.Equal(t, generated.Invoice.Number, receipt.InvoiceNumber)
	assert.NotEmpty(t, receipt.EscposBase64)

	rec = doJSON(t, api, http.MethodDelete, base, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.CheckoutEmpty, decodeView(t, rec.Body.Bytes()).State)

	rec = doJSON(t, api, http.MethodGet, base+"/invoice.html", token, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// The next invoice of the day continues the sequence.
	doJSON(t, api, http.MethodPost, base+"/lines", token, domain.AddLineRequest{ProductID: "101"})
	rec = doJSON(t, api, http.MethodPost, base+"/invoice", token, domain.GenerateInvoiceRequest{})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &generated))
	assert.Regexp(t, `^\d{6}-002$`, generated.Invoice.Number)
}

func TestCheckoutLineErrors(t *testing.T) {
	api := newTestAPI(t)
	token := loginAs(t, api, "cashier", "cashier123")
	base := "/api/v1/checkout/till-2"

	rec := doJSON(t, api, http.MethodPost, base+"/lines", token, domain.AddLineRequest{Query: "pvc"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	var ambiguous struct {
		Candidates []domain.Product `json:"candidates"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ambiguous))
	assert.Len(t, ambiguous.Candidates, 2)

	rec = doJSON(t, api, http.MethodPost, base+"/lines", token, domain.AddLineRequest{Query: "no such thing"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, api, http.MethodPost, base+"/lines", token, domain.AddLineRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, api, http.MethodPatch, base+"/lines/0", token, domain.EditLineRequest{Field: "quantity", Value: "2"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, api, http.MethodDelete, base+"/lines/x", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	doJSON(t, api, http.MethodPost, base+"/lines", token, domain.AddLineRequest{ProductID: "101"})
	rec = doJSON(t, api, http.MethodPatch, base+"/lines/0", token, domain.EditLineRequest{Field: "quantity", Value: "1.5"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, api, http.MethodDelete, base+"/lines/0", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeView(t, rec.Body.Bytes()).Lines)
}

func TestCheckoutRejectsMalformedTerminal(t *testing.T) {
	api := newTestAPI(t)
	token := loginAs(t, api, "cashier", "cashier123")

	for _, path := range []string{
		"/api/v1/checkout/-till",
		"/api/v1/checkout/" + strings.Repeat("t", 40),
	} {
		rec := doJSON(t, api, http.MethodGet, path, token, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)

		rec = doJSON(t, api, http.MethodPost, path+"/lines", token, domain.AddLineRequest{ProductID: "101"})
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
	}
}

type unavailableKV struct{}

func (unavailableKV) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("disk unplugged")
}

func (unavailableKV) Set(context.Context, string, string) error {
	return errors.New("disk unplugged")
}

func TestInvoiceStorageOutageReturns503(t *testing.T) {
	api := newTestAPIWithKV(t, memory.NewSeeded(), unavailableKV{})
	token := loginAs(t, api, "cashier", "cashier123")
	base := "/api/v1/checkout/till-3"

	doJSON(t, api, http.MethodPost, base+"/lines", token, domain.AddLineRequest{ProductID: "101"})
	rec := doJSON(t, api, http.MethodPost, base+"/invoice", token, domain.GenerateInvoiceRequest{})
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "failed to generate invoice number", body["error"])

	// The cart survives the failure.
	rec = doJSON(t, api, http.MethodGet, base, token, nil)
	assert.Equal(t, domain.CheckoutPopulated, decodeView(t, rec.Body.Bytes()).State)
}
