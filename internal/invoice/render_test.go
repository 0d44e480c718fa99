package invoice

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smpos/backend/internal/domain"
)

var testShop = domain.ShopDetails{
	Name:    "SM Electricals & Plumbings",
	Address: "Arni Rd, Vellore",
	Phone:   "+91 90000 00000",
}

func TestRenderHTML(t *testing.T) {
	lines := scenarioLines()
	lines[0].Name = "<b>Bulb</b>"
	doc, err := NewBuilder().Build(lines, "", "020124-001", time.Date(2024, time.January, 2, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	html, err := RenderHTML(testShop, doc)
	require.NoError(t, err)

	assert.Contains(t, html, "SM Electricals &amp; Plumbings")
	assert.Contains(t, html, "020124-001")
	assert.Contains(t, html, "02/01/2024")
	assert.Contains(t, html, CustomerPlaceholder)
	assert.Contains(t, html, "&lt;b&gt;Bulb&lt;/b&gt;")
	assert.Contains(t, html, "0.5 kg")
	assert.Contains(t, html, "Total Price: &#8377;235.00")
	assert.Contains(t, html, "Final Price: &#8377;235<")
	assert.Contains(t, html, "Two Hundred Thirty-Five rupees only")
}

func TestRenderReceipt(t *testing.T) {
	doc, err := NewBuilder().Build(scenarioLines(), "Ravi", "020124-003", time.Date(2024, time.January, 2, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	receipt := RenderReceipt(testShop, doc)
	assert.Equal(t, "020124-003", receipt.InvoiceNumber)
	assert.Equal(t, "receipt-020124-003.bin", receipt.FileName)
	assert.True(t, strings.HasPrefix(receipt.PreviewText, testShop.Name))
	assert.Contains(t, receipt.PreviewText, "Customer: Ravi")
	assert.Contains(t, receipt.PreviewText, "0.5 kg x 300.00 -10%")

	raw, err := base64.StdEncoding.DecodeString(receipt.EscposBase64)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x1b, 0x40}, raw[:2])
	assert.Equal(t, []byte{0x1d, 0x56, 0x41, 0x10}, raw[len(raw)-4:])
}

func TestPadBetween(t *testing.T) {
	assert.Len(t, padBetween("Total", "235.00"), receiptWidth)
	assert.Equal(t, strings.Repeat("x", 40)+" 1", padBetween(strings.Repeat("x", 40), "1"))
}
