package models

import (
	"bytes"
	"context"
	"net/url"
	"strings"
	"text/template"
	"time"

	"github.com/rskenterprises/billing_backend/config"
	"github.com/rskenterprises/billing_backend/utils"
	"github.com/shopspring/decimal"
)

const (
	ShareStyleProfessional = "professional"
	ShareStyleSimple       = "simple"
)

var shareFuncs = template.FuncMap{
	"money": utils.FormatCurrency,
	"num":   func(d decimal.Decimal) string { return d.String() },
	"date":  displayDate,
	"positive": func(d decimal.Decimal) bool {
		return d.IsPositive()
	},
	"orNA": func(s string) string {
		if strings.TrimSpace(s) == "" {
			return "N/A"
		}
		return s
	},
}

const professionalTemplate = `📋 *TAX INVOICE - {{.Settings.CompanyName}}*

┌──────────────────────────────
│ *Invoice Details*
├──────────────────────────────
│ 📄 Invoice No: {{.Invoice.InvoiceNumber}}
│ 📅 Invoice Date: {{date .Invoice.Date}}
│ 📦 Supply Date: {{date .Invoice.SupplyDate}}
│ 🚚 Transport: {{orNA .Invoice.TransportMode}}{{if .Invoice.VehicleNumber}} ({{.Invoice.VehicleNumber}}){{end}}
└──────────────────────────────

┌──────────────────────────────
│ *Bill To*
├──────────────────────────────
│ 👤 {{.Invoice.CustomerName}}
│ 📞 {{.Invoice.CustomerPhone}}
│ 📍 {{.Invoice.CustomerAddress}}
│ 🏢 {{.Invoice.State}} (Code: {{.Invoice.StateCode}})
│ 🆔 GSTIN: {{orNA .Invoice.CustomerGSTIN}}
└──────────────────────────────

┌──────────────────────────────
│ *Product Details*
├──────────────────────────────
{{range .Invoice.LineItems}}│ ▫️ {{.Description}}
│   HSN: {{orNA .HSNCode}} | Qty: {{num .Qty}} | Rate: ₹{{money .Rate}}
│   Amount: ₹{{money .Amount}}
├──────────────────────────────
{{end}}
┌──────────────────────────────
│ *Tax Calculation*
├──────────────────────────────
│ Sub Total:        ₹{{money .Invoice.SubTotal}}
{{- if positive .Invoice.CGSTRate}}
│ CGST ({{num .Invoice.CGSTRate}}%):     ₹{{money .Invoice.CGSTAmount}}{{end}}
{{- if positive .Invoice.SGSTRate}}
│ SGST ({{num .Invoice.SGSTRate}}%):     ₹{{money .Invoice.SGSTAmount}}{{end}}
{{- if positive .Invoice.IGSTRate}}
│ IGST ({{num .Invoice.IGSTRate}}%):     ₹{{money .Invoice.IGSTAmount}}{{end}}
│ Total Tax:        ₹{{money .Invoice.TotalTaxAmount}}
│ Round Off:        ₹{{money .Invoice.RoundOff}}
│ ─────────────────────────────
│ *Grand Total:     ₹{{money .Invoice.GrandTotal}}*
└──────────────────────────────

💬 *Amount in Words:* {{.Invoice.AmountInWords}}

🏦 *Bank Details*
• Account Name: {{.Settings.BankDetails.AccountName}}
• Bank: {{.Settings.BankDetails.BankName}}
• A/C No: {{.Settings.BankDetails.AccountNumber}}
• IFSC: {{.Settings.BankDetails.IFSC}}

📞 Contact: {{.Settings.Phone}}
📍 Address: {{.Settings.Address}}

Thank you for your business! 🙏`

const simpleTemplate = `*Invoice #{{.Invoice.InvoiceNumber}}*

*Customer:* {{.Invoice.CustomerName}}
*Date:* {{date .Invoice.Date}}
*Phone:* {{.Invoice.CustomerPhone}}

*Products:*
{{range $i, $p := .Invoice.LineItems}}{{if $i}}
{{end}}• {{$p.Description}} - {{num $p.Qty}} x ₹{{money $p.Rate}} = ₹{{money $p.Amount}}{{end}}

*Total: ₹{{money .Invoice.GrandTotal}}*

*{{.Settings.CompanyName}}*
{{.Settings.Address}}
Phone: {{.Settings.Phone}}

Thank you!`

var (
	professionalTmpl = template.Must(template.New("professional").Funcs(shareFuncs).Parse(professionalTemplate))
	simpleTmpl       = template.Must(template.New("simple").Funcs(shareFuncs).Parse(simpleTemplate))
)

// displayDate renders YYYY-MM-DD the way en-IN locales do, e.g. 5/4/2024.
func displayDate(s string) string {
	t, err := time.Parse(utils.DateLayout, s)
	if err != nil {
		return s
	}
	return t.Format("2/1/2006")
}

type shareView struct {
	Invoice  Invoice
	Settings Settings
}

func render(tmpl *template.Template, inv Invoice, settings Settings) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, shareView{Invoice: inv, Settings: settings}); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func ProfessionalMessage(inv Invoice, settings Settings) (string, error) {
	return render(professionalTmpl, inv, settings)
}

func SimpleMessage(inv Invoice, settings Settings) (string, error) {
	return render(simpleTmpl, inv, settings)
}

// WhatsAppLink builds the wa.me deep link for an Indian mobile number.
// Spaces are sent as %20 like encodeURIComponent does, not as '+'.
func WhatsAppLink(phone, message string) string {
	number := "91" + phone
	if n, err := utils.WhatsAppNumber(phone); err == nil {
		number = n
	}
	return "https://wa.me/" + number + "?text=" + strings.ReplaceAll(url.QueryEscape(message), "+", "%20")
}

type ShareResult struct {
	Style   string `json:"style"`
	Message string `json:"message"`
	Link    string `json:"link"`
}

// Share renders invoice id in style (professional unless "simple") with the
// current settings, and the link that opens it in WhatsApp.
func (s *InvoiceService) Share(ctx context.Context, id, style string) (*ShareResult, error) {
	inv, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	settings, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	var msg string
	switch style {
	case ShareStyleSimple:
		msg, err = SimpleMessage(*inv, settings)
	case ShareStyleProfessional, "":
		style = ShareStyleProfessional
		msg, err = ProfessionalMessage(*inv, settings)
	default:
		return nil, utils.NewValidationError("style", "Unknown share style: "+style)
	}
	if err != nil {
		config.LogError(s.deps.Logger, "InvoiceService", "Share", "render message", id, err)
		return nil, err
	}
	return &ShareResult{Style: style, Message: msg, Link: WhatsAppLink(inv.CustomerPhone, msg)}, nil
}
