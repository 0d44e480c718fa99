package invoice

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html/template"
	"strings"

	"github.com/shopspring/decimal"

	"smpos/backend/internal/domain"
)

const dateLayout = "02/01/2006"

// invoiceHTMLTmpl renders the printable A4 invoice. html/template escapes
// product and customer names.
var invoiceHTMLTmpl = template.Must(template.New("invoice").Funcs(template.FuncMap{
	"money": func(v decimal.Decimal) string { return v.StringFixed(2) },
	"whole": func(v decimal.Decimal) string { return v.StringFixed(0) },
}).Parse(`<!doctype html>
<html>
<head>
  <meta charset="utf-8" />
  <title>Invoice {{.Doc.Number}}</title>
  <style>
    body { font-family: sans-serif; margin: 24px; }
    .header { display: flex; justify-content: space-between; }
    .details { text-align: right; }
    table { width: 100%; border-collapse: collapse; margin-top: 10px; font-size: 14px; }
    th, td { border: 1px solid #000; padding: 6px; text-align: left; }
    th { background-color: #f2f2f2; }
    .summary { display: flex; justify-content: space-between; margin-top: 20px; font-weight: bold; }
    .right { text-align: right; }
  </style>
</head>
<body>
  <h2>Invoice</h2>
  <div class="header">
    <div>
      <div><strong>{{.Shop.Name}}</strong></div>
      {{if .Shop.Address}}<div>{{.Shop.Address}}</div>{{end}}
      {{if .Shop.Phone}}<div><strong>Phone:</strong> {{.Shop.Phone}}</div>{{end}}
    </div>
    <div class="details">
      <p><strong>Invoice No:</strong> {{.Doc.Number}}</p>
      <p><strong>Date:</strong> {{.Date}}</p>
      <p><strong>Customer Name:</strong> {{.Doc.CustomerName}}</p>
    </div>
  </div>
  <table>
    <thead><tr><th>S.No</th><th>Item Description</th><th>Qty.</th><th>Price</th><th>Discount</th><th>Amount</th></tr></thead>
    <tbody>{{range .Doc.Lines}}<tr><td style="text-align:center;">{{.SerialNo}}</td><td>{{.Name}}</td><td style="text-align:center;">{{.DisplayQuantity}}</td><td>&#8377;{{money .UnitPrice}}</td><td>{{.DiscountPercent}}%</td><td>&#8377;{{money .LineTotal}}</td></tr>{{end}}</tbody>
  </table>
  <div class="summary">
    <div>
      <p>Total Products: {{.Doc.Summary.TotalLines}}</p>
      <p>Total Quantity: {{.Doc.Summary.TotalQuantity}}</p>
      <p>Final Price in Words: {{.Doc.FinalPriceWords}}</p>
    </div>
    <div class="right">
      <p>Total Price: &#8377;{{money .Doc.Summary.TotalPrice}}</p>
      <p>Final Price: &#8377;{{whole .Doc.FinalPrice}}</p>
    </div>
  </div>
</body>
</html>
`))

type htmlView struct {
	Shop domain.ShopDetails
	Doc  domain.InvoiceDocument
	Date string
}

// RenderHTML renders doc as a standalone printable page.
func RenderHTML(shop domain.ShopDetails, doc domain.InvoiceDocument) (string, error) {
	var buf bytes.Buffer
	err := invoiceHTMLTmpl.Execute(&buf, htmlView{
		Shop: shop,
		Doc:  doc,
		Date: doc.IssueDate.Format(dateLayout),
	})
	if err != nil {
		return "", fmt.Errorf("render invoice %s: %w", doc.Number, err)
	}
	return buf.String(), nil
}

const receiptWidth = 32

// RenderReceipt lays doc out for a 58mm thermal printer and wraps it in
// ESC/POS init and cut commands.
func RenderReceipt(shop domain.ShopDetails, doc domain.InvoiceDocument) domain.ReceiptResponse {
	rule := strings.Repeat("=", receiptWidth)
	thin := strings.Repeat("-", receiptWidth)

	lines := []string{shop.Name}
	if shop.Address != "" {
		lines = append(lines, shop.Address)
	}
	if shop.Phone != "" {
		lines = append(lines, "Ph: "+shop.Phone)
	}
	lines = append(lines,
		rule,
		"Invoice : "+doc.Number,
		"Date    : "+doc.IssueDate.Format(dateLayout),
		"Customer: "+doc.CustomerName,
		thin,
	)
	for _, item := range doc.Lines {
		lines = append(lines, fmt.Sprintf("%d. %s", item.SerialNo, item.Name))
		detail := fmt.Sprintf("  %s x %s", item.DisplayQuantity, item.UnitPrice.StringFixed(2))
		if item.DiscountPercent.IsPositive() {
			detail += fmt.Sprintf(" -%s%%", item.DiscountPercent)
		}
		lines = append(lines, padBetween(detail, item.LineTotal.StringFixed(2)))
	}
	lines = append(lines,
		thin,
		padBetween("Items", fmt.Sprintf("%d", doc.Summary.TotalLines)),
		padBetween("Quantity", doc.Summary.TotalQuantity.String()),
		padBetween("Total", doc.Summary.TotalPrice.StringFixed(2)),
		padBetween("Final", doc.FinalPrice.StringFixed(0)),
		doc.FinalPriceWords,
		rule,
		"Thank you",
		"",
	)

	escpos := []byte{0x1b, 0x40}
	for _, line := range lines {
		escpos = append(escpos, []byte(line)...)
		escpos = append(escpos, '\n')
	}
	escpos = append(escpos, []byte{0x1d, 0x56, 0x41, 0x10}...)

	return domain.ReceiptResponse{
		InvoiceNumber: doc.Number,
		EscposBase64:  base64.StdEncoding.EncodeToString(escpos),
		PreviewText:   strings.Join(lines, "\n"),
		FileName:      fmt.Sprintf("receipt-%s.bin", doc.Number),
	}
}

func padBetween(left string, right string) string {
	gap := receiptWidth - len(left) - len(right)
	if gap < 1 {
		gap = 1
	}
	return left + strings.Repeat(" ", gap) + right
}
