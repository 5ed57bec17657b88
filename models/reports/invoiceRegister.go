package reports

import (
	"fmt"
	"time"

	"github.com/rskenterprises/billing_backend/models"
	"github.com/rskenterprises/billing_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const registerSheet = "Invoices"

var registerHeaders = []string{
	"Invoice No", "Date", "Customer", "Phone", "GSTIN",
	"Taxable", "CGST", "SGST", "IGST", "Round Off", "Grand Total",
}

// InvoiceRegister lays invoices out one per row with a totals row at the end.
func InvoiceRegister(invoices []models.Invoice, title string) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", registerSheet); err != nil {
		return nil, err
	}

	row := 1
	if title != "" {
		if err := f.SetCellValue(registerSheet, "A1", title); err != nil {
			return nil, err
		}
		row = 3
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	for i, h := range registerHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		if err := f.SetCellValue(registerSheet, cell, h); err != nil {
			return nil, err
		}
	}
	first, _ := excelize.CoordinatesToCellName(1, row)
	last, _ := excelize.CoordinatesToCellName(len(registerHeaders), row)
	if err := f.SetCellStyle(registerSheet, first, last, headerStyle); err != nil {
		return nil, err
	}

	var sum models.Totals
	for _, inv := range invoices {
		row++
		values := []any{
			inv.InvoiceNumber,
			inv.Date,
			inv.CustomerName,
			inv.CustomerPhone,
			inv.CustomerGSTIN,
			money(inv.SubTotal),
			money(inv.CGSTAmount),
			money(inv.SGSTAmount),
			money(inv.IGSTAmount),
			money(inv.RoundOff),
			money(inv.GrandTotal),
		}
		if err := setRow(f, row, values); err != nil {
			return nil, err
		}
		sum.SubTotal = sum.SubTotal.Add(inv.SubTotal)
		sum.CGSTAmount = sum.CGSTAmount.Add(inv.CGSTAmount)
		sum.SGSTAmount = sum.SGSTAmount.Add(inv.SGSTAmount)
		sum.IGSTAmount = sum.IGSTAmount.Add(inv.IGSTAmount)
		sum.RoundOff = sum.RoundOff.Add(inv.RoundOff)
		sum.GrandTotal = sum.GrandTotal.Add(inv.GrandTotal)
	}

	row++
	totals := []any{
		"Total", fmt.Sprintf("%d invoices", len(invoices)), "", "", "",
		money(sum.SubTotal),
		money(sum.CGSTAmount),
		money(sum.SGSTAmount),
		money(sum.IGSTAmount),
		money(sum.RoundOff),
		money(sum.GrandTotal),
	}
	if err := setRow(f, row, totals); err != nil {
		return nil, err
	}
	first, _ = excelize.CoordinatesToCellName(1, row)
	last, _ = excelize.CoordinatesToCellName(len(registerHeaders), row)
	if err := f.SetCellStyle(registerSheet, first, last, headerStyle); err != nil {
		return nil, err
	}
	return f, nil
}

func setRow(f *excelize.File, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(registerSheet, cell, &values)
}

// RegisterTitle names the period a register covers. An open range is
// labelled with the financial year containing now.
func RegisterTitle(from, to string, now time.Time) string {
	switch {
	case from != "" && to != "":
		return fmt.Sprintf("Invoice register %s to %s", from, to)
	case from != "":
		return "Invoice register from " + from
	case to != "":
		return "Invoice register up to " + to
	default:
		return "Invoice register FY " + utils.FinancialYearLabel(now)
	}
}

// money keeps two decimals as a number so the sheet can sum it.
func money(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}
