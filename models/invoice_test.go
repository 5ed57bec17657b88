package models

import (
	"context"
	"errors"
	"testing"

	"github.com/rskenterprises/billing_backend/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvoiceService_CreatePricesAndRemembers(t *testing.T) {
	ctx := context.Background()
	svc := newTestServices(t)

	in := sampleInvoice(" 001 ", "2024-04-05")
	in.VehicleNumber = "tn39 ab 1234"
	in.LineItems = append(in.LineItems, LineItemInput{})

	inv, err := svc.Invoices.Create(ctx, in)
	require.NoError(t, err)
	assert.NotEmpty(t, inv.ID)
	assert.Equal(t, "001", inv.InvoiceNumber)
	assert.Equal(t, "TN39 AB 1234", inv.VehicleNumber)
	require.Len(t, inv.LineItems, 1)
	assertDecimal(t, "9", inv.CGSTRate)
	assertDecimal(t, "355", inv.GrandTotal)
	assertDecimal(t, "-0.18", inv.RoundOff)
	assert.Equal(t, "Three Hundred and Fifty Five Rupees Only", inv.AmountInWords)

	c, err := svc.Customers.GetByPhone(ctx, "9876543210")
	require.NoError(t, err)
	assert.Equal(t, "Ravi Textiles", c.Name)
	assert.Equal(t, "33", c.StateCode)

	item, err := svc.Catalog.Lookup(ctx, "Cotton Yarn")
	require.NoError(t, err)
	assert.Equal(t, "5205", item.HSNCode)
}

func TestInvoiceService_CreateValidates(t *testing.T) {
	ctx := context.Background()
	svc := newTestServices(t)

	cases := []struct {
		mutate func(*InvoiceInput)
		want   string
	}{
		{func(in *InvoiceInput) { in.InvoiceNumber = "" }, "Please enter invoice number."},
		{func(in *InvoiceInput) { in.Date = "05/04/2024" }, "Please enter a valid invoice date."},
		{func(in *InvoiceInput) { in.CustomerName = "" }, "Please enter customer name."},
		{func(in *InvoiceInput) { in.CustomerPhone = "123" }, "Please enter a valid 10-digit phone number."},
		{func(in *InvoiceInput) { in.LineItems = []LineItemInput{{}} }, "Please add at least one product."},
	}
	for _, tc := range cases {
		in := sampleInvoice("001", "2024-04-05")
		tc.mutate(&in)
		_, err := svc.Invoices.Create(ctx, in)
		require.Error(t, err)
		assert.True(t, errors.Is(err, utils.ErrValidation))
		assert.Equal(t, tc.want, err.Error())
	}
}

func TestInvoiceService_WalkInCustomerIsNotRemembered(t *testing.T) {
	ctx := context.Background()
	svc := newTestServices(t)

	in := sampleInvoice("001", "2024-04-05")
	in.CustomerPhone = ""
	_, err := svc.Invoices.Create(ctx, in)
	require.NoError(t, err)

	customers, err := svc.Customers.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, customers)
}

func TestInvoiceService_DuplicateNumbers(t *testing.T) {
	ctx := context.Background()

	lenient := newTestServices(t)
	_, err := lenient.Invoices.Create(ctx, sampleInvoice("001", "2024-04-05"))
	require.NoError(t, err)
	_, err = lenient.Invoices.Create(ctx, sampleInvoice("001", "2024-04-06"))
	require.NoError(t, err, "numbers are advisory by default")

	strict := newTestServices(t, func(d *Deps) { d.StrictInvoiceNumbers = true })
	first, err := strict.Invoices.Create(ctx, sampleInvoice("001", "2024-04-05"))
	require.NoError(t, err)
	_, err = strict.Invoices.Create(ctx, sampleInvoice("001", "2024-04-06"))
	assert.True(t, errors.Is(err, utils.ErrDuplicate))
	assert.Equal(t, "Invoice number already exists.", err.Error())

	// Re-saving an invoice under its own number is not a clash.
	_, err = strict.Invoices.Update(ctx, first.ID, sampleInvoice("001", "2024-04-07"))
	require.NoError(t, err)
}

func TestInvoiceService_UpdateAndLoadForEdit(t *testing.T) {
	ctx := context.Background()
	svc := newTestServices(t)

	created, err := svc.Invoices.Create(ctx, sampleInvoice("001", "2024-04-05"))
	require.NoError(t, err)

	in := sampleInvoice("002", "2024-04-05")
	in.LineItems[0].Qty = "4"
	updated, err := svc.Invoices.Update(ctx, created.ID, in)
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "002", updated.InvoiceNumber)
	assertDecimal(t, "602", updated.SubTotal)
	assertDecimal(t, "710", updated.GrandTotal)

	byNumber, err := svc.Invoices.LoadForEdit(ctx, "002")
	require.NoError(t, err)
	assert.Equal(t, created.ID, byNumber.ID)

	byID, err := svc.Invoices.LoadForEdit(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "002", byID.InvoiceNumber)

	_, err = svc.Invoices.LoadForEdit(ctx, "404")
	assert.True(t, utils.IsNotFound(err))
	assert.Equal(t, "Invoice not found.", err.Error())

	_, err = svc.Invoices.Update(ctx, "missing", in)
	assert.True(t, utils.IsNotFound(err))
}

func TestInvoiceService_ListFilters(t *testing.T) {
	ctx := context.Background()
	svc := newTestServices(t)

	for _, in := range []InvoiceInput{
		sampleInvoice("001", "2024-04-05"),
		sampleInvoice("002", "2024-05-10"),
		sampleInvoice("003", "2024-06-01"),
	} {
		_, err := svc.Invoices.Create(ctx, in)
		require.NoError(t, err)
	}
	other := sampleInvoice("004", "2024-06-02")
	other.CustomerName = "Kumar Mills"
	other.CustomerPhone = "9000000002"
	_, err := svc.Invoices.Create(ctx, other)
	require.NoError(t, err)

	all, err := svc.Invoices.List(ctx, InvoiceFilter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "004", all[0].InvoiceNumber)

	inRange, err := svc.Invoices.ByDateRange(ctx, "2024-05-01", "2024-06-01")
	require.NoError(t, err)
	require.Len(t, inRange, 2)
	assert.Equal(t, "003", inRange[0].InvoiceNumber)
	assert.Equal(t, "002", inRange[1].InvoiceNumber)

	found, err := svc.Invoices.List(ctx, InvoiceFilter{Search: "kumar"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "004", found[0].InvoiceNumber)

	mine, err := svc.Invoices.ByCustomer(ctx, "9876543210")
	require.NoError(t, err)
	assert.Len(t, mine, 3)
}

func TestInvoiceService_PreviewAndDelete(t *testing.T) {
	ctx := context.Background()
	svc := newTestServices(t)

	totals, err := svc.Invoices.PreviewTotals(InvoiceInput{
		LineItems: []LineItemInput{{Description: "Fabric", Qty: "10", Rate: "100"}},
		CGSTRate:  "0",
		SGSTRate:  "0",
		IGSTRate:  "18",
	})
	require.NoError(t, err)
	assertDecimal(t, "1180", totals.GrandTotal)

	all, err := svc.Invoices.List(ctx, InvoiceFilter{})
	require.NoError(t, err)
	assert.Empty(t, all, "preview must not store anything")

	inv, err := svc.Invoices.Create(ctx, sampleInvoice("001", "2024-04-05"))
	require.NoError(t, err)
	entry, err := svc.Invoices.Delete(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, EntityInvoice, entry.Type)
	assert.Equal(t, "001", entry.Data["invoiceNumber"])

	_, err = svc.Invoices.Get(ctx, inv.ID)
	assert.True(t, utils.IsNotFound(err))
}
