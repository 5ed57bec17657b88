package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rskenterprises/billing_backend/models"
	"github.com/rskenterprises/billing_backend/models/reports"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// listInvoices filters by ?search=, ?from= and ?to=, or returns one
// customer's history with ?phone=.
func (h *Handler) listInvoices(c *gin.Context) {
	ctx := c.Request.Context()
	var (
		invoices []models.Invoice
		err      error
	)
	if phone := c.Query("phone"); phone != "" {
		invoices, err = h.services.Invoices.ByCustomer(ctx, phone)
	} else {
		var filter models.InvoiceFilter
		if err := c.ShouldBindQuery(&filter); err != nil {
			h.badRequest(c, err)
			return
		}
		invoices, err = h.services.Invoices.List(ctx, filter)
	}
	if err != nil {
		h.fail(c, "listInvoices", err)
		return
	}
	c.JSON(http.StatusOK, invoices)
}

// getInvoice accepts either an invoice number or an id.
func (h *Handler) getInvoice(c *gin.Context) {
	inv, err := h.services.Invoices.LoadForEdit(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "getInvoice", err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

func (h *Handler) createInvoice(c *gin.Context) {
	var input models.InvoiceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.badRequest(c, err)
		return
	}
	inv, err := h.services.Invoices.Create(c.Request.Context(), input)
	if err != nil {
		h.fail(c, "createInvoice", err)
		return
	}
	c.JSON(http.StatusCreated, inv)
}

func (h *Handler) updateInvoice(c *gin.Context) {
	var input models.InvoiceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.badRequest(c, err)
		return
	}
	inv, err := h.services.Invoices.Update(c.Request.Context(), c.Param("id"), input)
	if err != nil {
		h.fail(c, "updateInvoice", err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

func (h *Handler) deleteInvoice(c *gin.Context) {
	entry, err := h.services.Invoices.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "deleteInvoice", err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (h *Handler) previewInvoice(c *gin.Context) {
	var input models.InvoiceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.badRequest(c, err)
		return
	}
	totals, err := h.services.Invoices.PreviewTotals(input)
	if err != nil {
		h.fail(c, "previewInvoice", err)
		return
	}
	c.JSON(http.StatusOK, totals)
}

func (h *Handler) suggestInvoiceNumber(c *gin.Context) {
	suggestion, err := h.services.Invoices.SuggestNextNumber(c.Request.Context())
	if err != nil {
		h.fail(c, "suggestInvoiceNumber", err)
		return
	}
	c.JSON(http.StatusOK, suggestion)
}

func (h *Handler) defaultInvoiceNumber(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"invoiceNumber": h.services.Invoices.DefaultNextNumber(c.Request.Context())})
}

func (h *Handler) shareInvoice(c *gin.Context) {
	res, err := h.services.Invoices.Share(c.Request.Context(), c.Param("id"), c.Query("style"))
	if err != nil {
		h.fail(c, "shareInvoice", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// invoiceRegister streams the invoices between ?from= and ?to= as a workbook.
func (h *Handler) invoiceRegister(c *gin.Context) {
	var filter models.InvoiceFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.badRequest(c, err)
		return
	}
	invoices, err := h.services.Invoices.List(c.Request.Context(), filter)
	if err != nil {
		h.fail(c, "invoiceRegister", err)
		return
	}
	f, err := reports.InvoiceRegister(invoices, reports.RegisterTitle(filter.From, filter.To, time.Now()))
	if err != nil {
		h.fail(c, "invoiceRegister", err)
		return
	}
	defer f.Close()

	c.Header("Content-Disposition", `attachment; filename="invoices.xlsx"`)
	c.Header("Content-Type", xlsxContentType)
	c.Status(http.StatusOK)
	if err := f.Write(c.Writer); err != nil {
		_ = c.Error(err)
	}
}
