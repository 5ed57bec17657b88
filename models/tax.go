package models

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/rskenterprises/billing_backend/utils"
	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)

	DefaultCGSTRate = decimal.NewFromInt(9)
	DefaultSGSTRate = decimal.NewFromInt(9)
	DefaultIGSTRate = decimal.Zero
)

// NumericText is a number typed by a user. It decodes from a JSON string or
// number; anything unparseable counts as zero.
type NumericText string

func (n *NumericText) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*n = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = NumericText(s)
		return nil
	}
	*n = NumericText(string(b))
	return nil
}

func (n NumericText) Decimal() decimal.Decimal {
	return utils.ParseAmount(string(n))
}

// DecimalOr returns def when the text is blank, so an explicit "0" stays zero.
func (n NumericText) DecimalOr(def decimal.Decimal) decimal.Decimal {
	if strings.TrimSpace(string(n)) == "" {
		return def
	}
	return n.Decimal()
}

type LineItem struct {
	Description  string          `json:"description"`
	HSNCode      string          `json:"hsnCode"`
	Qty          decimal.Decimal `json:"qty"`
	Rate         decimal.Decimal `json:"rate"`
	Amount       decimal.Decimal `json:"amount"`
	TaxableValue decimal.Decimal `json:"taxableValue"`
}

type LineItemInput struct {
	Description string      `json:"description"`
	HSNCode     string      `json:"hsnCode"`
	Qty         NumericText `json:"qty"`
	Rate        NumericText `json:"rate"`
}

type Totals struct {
	SubTotal       decimal.Decimal `json:"subTotal"`
	CGSTAmount     decimal.Decimal `json:"cgstAmount"`
	SGSTAmount     decimal.Decimal `json:"sgstAmount"`
	IGSTAmount     decimal.Decimal `json:"igstAmount"`
	TotalTaxAmount decimal.Decimal `json:"totalTaxAmount"`
	PreRound       decimal.Decimal `json:"preRoundTotal"`
	RoundOff       decimal.Decimal `json:"roundOff"`
	GrandTotal     decimal.Decimal `json:"grandTotal"`
	AmountInWords  string          `json:"amountInWords"`
}

// ComputeLine is qty * rate at full precision.
func ComputeLine(qty, rate decimal.Decimal) decimal.Decimal {
	return qty.Mul(rate)
}

// BuildLineItems coerces raw quantities and rates and prices every line.
// Blank rows (no description and zero amount) are dropped.
func BuildLineItems(raw []LineItemInput) []LineItem {
	items := make([]LineItem, 0, len(raw))
	for _, in := range raw {
		qty := in.Qty.Decimal()
		rate := in.Rate.Decimal()
		amount := ComputeLine(qty, rate)
		desc := strings.TrimSpace(in.Description)
		if desc == "" && amount.IsZero() {
			continue
		}
		items = append(items, LineItem{
			Description:  desc,
			HSNCode:      strings.TrimSpace(in.HSNCode),
			Qty:          qty,
			Rate:         rate,
			Amount:       amount,
			TaxableValue: amount,
		})
	}
	return items
}

// ComputeTotals applies the GST rates (percentages) to the summed line amounts
// and rounds the grand total to whole rupees, half away from zero.
func ComputeTotals(lines []LineItem, cgstRate, sgstRate, igstRate decimal.Decimal) Totals {
	subTotal := decimal.Zero
	for _, l := range lines {
		subTotal = subTotal.Add(l.Amount)
	}

	cgst := subTotal.Mul(cgstRate).Div(hundred)
	sgst := subTotal.Mul(sgstRate).Div(hundred)
	igst := subTotal.Mul(igstRate).Div(hundred)
	totalTax := cgst.Add(sgst).Add(igst)

	preRound := subTotal.Add(totalTax)
	grandTotal := preRound.Round(0)

	return Totals{
		SubTotal:       subTotal,
		CGSTAmount:     cgst,
		SGSTAmount:     sgst,
		IGSTAmount:     igst,
		TotalTaxAmount: totalTax,
		PreRound:       preRound,
		RoundOff:       grandTotal.Sub(preRound),
		GrandTotal:     grandTotal,
		AmountInWords:  utils.NumberToWords(grandTotal),
	}
}
