package email

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/shopspring/decimal"
)

// OrderLine is one row of the order confirmation table.
type OrderLine struct {
	ProductID string
	Count     int
}

// OrderCreatedData feeds the confirmation mail.
type OrderCreatedData struct {
	BuyerName    string
	OrderID      string
	Total        decimal.Decimal
	IsPaidBefore bool
	Lines        []OrderLine
}

type StatusChangedData struct {
	BuyerName string
	OrderID   string
	From      string
	To        string
}

type ReturnData struct {
	BuyerName string
	OrderID   string
	Reason    string
	// Decision is empty for the acknowledgement sent on request.
	Decision string
}

const layout = `{{define "layout"}}<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
	<div style="background: #4f46e5; padding: 30px; border-radius: 10px 10px 0 0;">
		<h1 style="color: white; margin: 0; font-size: 24px;">{{template "title" .}}</h1>
	</div>
	<div style="background: #fff; padding: 30px; border: 1px solid #eee; border-top: none; border-radius: 0 0 10px 10px;">
		<p style="margin-top: 0;">Hi {{if .BuyerName}}{{.BuyerName}}{{else}}there{{end}},</p>
		<div style="background: #f8f9fa; padding: 15px; border-radius: 5px; margin: 20px 0;">
			<p style="margin: 0; font-size: 14px; color: #666;">Order number</p>
			<p style="margin: 5px 0 0 0; font-size: 18px; font-weight: bold; font-family: monospace;">{{.OrderID}}</p>
		</div>
		{{template "content" .}}
		<hr style="border: none; border-top: 1px solid #eee; margin: 30px 0;">
		<p style="font-size: 12px; color: #999; margin-bottom: 0;">This is an automated message. Please contact support if you have any questions.</p>
	</div>
</body>
</html>{{end}}`

var (
	orderCreatedTmpl = mustParse(`
{{define "title"}}Thank you for your order{{end}}
{{define "content"}}
		<table style="width: 100%; border-collapse: collapse; margin: 20px 0;">
			<thead>
				<tr style="background: #f8f9fa;">
					<th style="padding: 12px; text-align: left;">Product</th>
					<th style="padding: 12px; text-align: center;">Quantity</th>
				</tr>
			</thead>
			<tbody>
			{{range .Lines}}
				<tr>
					<td style="padding: 12px; border-bottom: 1px solid #eee;">{{.ProductID}}</td>
					<td style="padding: 12px; border-bottom: 1px solid #eee; text-align: center;">{{.Count}}</td>
				</tr>
			{{end}}
			</tbody>
		</table>
		<div style="text-align: right; padding: 20px; background: #f8f9fa; border-radius: 5px;">
			<span style="font-size: 14px; color: #666;">Total</span>
			<span style="font-size: 24px; font-weight: bold; color: #4f46e5; margin-left: 10px;">{{money .Total}}</span>
		</div>
		<p>{{if .IsPaidBefore}}Your payment has been received.{{else}}Payment will be collected on delivery.{{end}}</p>
{{end}}`)

	statusChangedTmpl = mustParse(`
{{define "title"}}Your order is {{.To}}{{end}}
{{define "content"}}
		<p>Your order moved from <strong>{{.From}}</strong> to <strong>{{.To}}</strong>.</p>
{{end}}`)

	returnTmpl = mustParse(`
{{define "title"}}{{if .Decision}}Return {{.Decision}}{{else}}Return request received{{end}}{{end}}
{{define "content"}}
		{{if .Decision}}<p>Your return request was <strong>{{.Decision}}</strong>.</p>{{else}}<p>We received your return request. The store will review it shortly.</p>{{end}}
		{{if .Reason}}<p style="color: #666;">Reason: {{.Reason}}</p>{{end}}
{{end}}`)
)

var funcs = template.FuncMap{
	"money": func(d decimal.Decimal) string { return d.StringFixed(2) },
}

func mustParse(body string) *template.Template {
	return template.Must(template.Must(template.New("mail").Funcs(funcs).Parse(layout)).Parse(body))
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func shortID(orderID string) string {
	if len(orderID) > 8 {
		return orderID[:8]
	}
	return orderID
}

func OrderCreated(d OrderCreatedData) (subject, body string, err error) {
	body, err = render(orderCreatedTmpl, d)
	return fmt.Sprintf("Order confirmation (%s)", shortID(d.OrderID)), body, err
}

func StatusChanged(d StatusChangedData) (subject, body string, err error) {
	body, err = render(statusChangedTmpl, d)
	return fmt.Sprintf("Order %s is now %s", shortID(d.OrderID), d.To), body, err
}

func Return(d ReturnData) (subject, body string, err error) {
	body, err = render(returnTmpl, d)
	if d.Decision == "" {
		return fmt.Sprintf("Return request received (%s)", shortID(d.OrderID)), body, err
	}
	return fmt.Sprintf("Return %s (%s)", d.Decision, shortID(d.OrderID)), body, err
}
