package models

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rskenterprises/billing_backend/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWhatsAppLink(t *testing.T) {
	link := WhatsAppLink("9876543210", "Invoice #001 & total: ₹355+tax")
	assert.True(t, strings.HasPrefix(link, "https://wa.me/919876543210?text="))
	assert.Contains(t, link, "Invoice%20%23001%20%26%20total")
	assert.Contains(t, link, "%2Btax")
	assert.NotContains(t, link, "+")
}

func TestInvoiceService_Share(t *testing.T) {
	ctx := context.Background()
	svc := newTestServices(t)

	inv, err := svc.Invoices.Create(ctx, sampleInvoice("001", "2024-04-05"))
	require.NoError(t, err)

	simple, err := svc.Invoices.Share(ctx, inv.ID, ShareStyleSimple)
	require.NoError(t, err)
	assert.Equal(t, ShareStyleSimple, simple.Style)
	assert.True(t, strings.HasPrefix(simple.Message, "*Invoice #001*"))
	assert.Contains(t, simple.Message, "*Date:* 5/4/2024")
	assert.Contains(t, simple.Message, "• Cotton Yarn - 2 x ₹150.50 = ₹301.00")
	assert.Contains(t, simple.Message, "*Total: ₹355.00*")
	assert.Contains(t, simple.Message, "*RSK ENTERPRISES*")
	assert.True(t, strings.HasPrefix(simple.Link, "https://wa.me/919876543210?text="))

	pro, err := svc.Invoices.Share(ctx, inv.ID, "")
	require.NoError(t, err)
	assert.Equal(t, ShareStyleProfessional, pro.Style)
	assert.Contains(t, pro.Message, "*TAX INVOICE - RSK ENTERPRISES*")
	assert.Contains(t, pro.Message, "CGST (9%):     ₹27.09")
	assert.NotContains(t, pro.Message, "IGST")
	assert.Contains(t, pro.Message, "Round Off:        ₹-0.18")
	assert.Contains(t, pro.Message, "Three Hundred and Fifty Five Rupees Only")
	assert.Contains(t, pro.Message, "Transport: N/A")
	assert.Contains(t, pro.Message, "GSTIN: N/A")

	_, err = svc.Invoices.Share(ctx, inv.ID, "fancy")
	assert.True(t, errors.Is(err, utils.ErrValidation))

	_, err = svc.Invoices.Share(ctx, "missing", ShareStyleSimple)
	assert.True(t, utils.IsNotFound(err))
}
