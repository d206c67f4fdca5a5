package invoice

import (
	"bytes"
	"html/template"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sunbike-erp/sunbike-erp/internal/branches"
	"github.com/sunbike-erp/sunbike-erp/internal/customers"
	"github.com/sunbike-erp/sunbike-erp/internal/vehicles"
	"github.com/sunbike-erp/sunbike-erp/internal/workorders"
)

// maxNoteLen caps the recommendations line printed on the invoice.
const maxNoteLen = 90

// Data bundles everything the invoice template needs.
type Data struct {
	Order    *workorders.Detail
	Branch   *branches.Branch
	Customer *customers.Customer
	Vehicle  *vehicles.Vehicle
	IssuedAt time.Time
}

// Builder renders the invoice HTML handed to the PDF service.
type Builder struct {
	tmpl    *template.Template
	printer *message.Printer
}

// NewBuilder constructs a builder.
func NewBuilder() *Builder {
	b := &Builder{printer: message.NewPrinter(language.Korean)}
	b.tmpl = template.Must(template.New("invoice").Funcs(template.FuncMap{
		"money": b.money,
		"qty":   formatQty,
	}).Parse(invoiceTemplate))
	return b
}

func (b *Builder) money(v int64) string {
	return b.printer.Sprintf("%d", v)
}

func formatQty(q float64) string {
	p := message.NewPrinter(language.Korean)
	if q == float64(int64(q)) {
		return p.Sprintf("%d", int64(q))
	}
	return p.Sprintf("%.2f", q)
}

// Notes returns the recommendations trimmed for the invoice footer.
func (d Data) Notes() string {
	notes := d.Order.Recommendations
	if len([]rune(notes)) > maxNoteLen {
		return string([]rune(notes)[:maxNoteLen])
	}
	return notes
}

// Build renders the invoice HTML for a work order.
func (b *Builder) Build(data Data) (string, error) {
	var buf bytes.Buffer
	if err := b.tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const invoiceTemplate = `<!DOCTYPE html>
<html lang="ko">
<head>
<meta charset="utf-8">
<style>
  body { font-family: 'Malgun Gothic', 'Apple SD Gothic Neo', sans-serif; font-size: 12px; color: #222; }
  h1 { font-size: 20px; margin-bottom: 2px; }
  .issued { color: #666; margin-bottom: 16px; }
  table { width: 100%; border-collapse: collapse; margin-bottom: 14px; }
  th, td { border: 1px solid #bbb; padding: 5px 8px; text-align: left; }
  th { background: #f2f2f2; }
  td.num, th.num { text-align: right; }
  .info td { border: none; padding: 2px 8px; }
  .totals { width: 45%; margin-left: auto; }
  .totals .grand td { font-weight: bold; background: #f7f7f7; }
  .notes { margin-top: 10px; color: #444; }
</style>
</head>
<body>
<h1>정비 명세서 (Service Invoice)</h1>
<div class="issued">발행일시: {{.IssuedAt.Format "2006-01-02 15:04"}}</div>

<table class="info">
  <tr><td>주문번호</td><td>{{.Order.OrderNo}}</td><td>지점</td><td>{{.Branch.Name}}</td></tr>
  <tr><td>고객</td><td>{{.Customer.Name}} / {{.Customer.Phone}}</td><td>차량</td><td>{{.Vehicle.Model}} ({{.Vehicle.Ident}})</td></tr>
  <tr><td>입고 주행거리</td><td>{{if .Order.OdometerIn}}{{.Order.OdometerIn}} km{{else}}-{{end}}</td><td>상태</td><td>{{.Order.Status}}</td></tr>
</table>

<h3>부품 (Parts)</h3>
<table>
  <tr><th>품명</th><th class="num">수량</th><th class="num">단가</th><th class="num">금액</th></tr>
  {{range .Order.Parts}}
  <tr><td>{{.PartName}}</td><td class="num">{{qty .Qty}}</td><td class="num">{{money .UnitPrice}}</td><td class="num">{{money .LineTotal}}</td></tr>
  {{else}}
  <tr><td colspan="4">없음</td></tr>
  {{end}}
</table>

<h3>공임 (Labor)</h3>
<table>
  <tr><th>작업명</th><th class="num">소요시간(분)</th><th class="num">공임</th></tr>
  {{range .Order.Labor}}
  <tr><td>{{.LaborName}}</td><td class="num">{{if .Minutes}}{{.Minutes}}{{else}}-{{end}}</td><td class="num">{{money .Price}}</td></tr>
  {{else}}
  <tr><td colspan="3">없음</td></tr>
  {{end}}
</table>

<table class="totals">
  <tr><td>부품 합계</td><td class="num">{{money .Order.SubtotalParts}}</td></tr>
  <tr><td>공임 합계</td><td class="num">{{money .Order.SubtotalLabor}}</td></tr>
  <tr><td>할인</td><td class="num">-{{money .Order.DiscountAmount}}</td></tr>
  <tr><td>부가세</td><td class="num">{{money .Order.TaxAmount}}</td></tr>
  <tr class="grand"><td>총 금액</td><td class="num">{{money .Order.TotalAmount}}</td></tr>
</table>

{{with .Notes}}<div class="notes">권장사항: {{.}}</div>{{end}}
</body>
</html>`
