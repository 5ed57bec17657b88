// Package handlers exposes the billing services over a JSON REST API.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rskenterprises/billing_backend/config"
	"github.com/rskenterprises/billing_backend/models"
	"github.com/rskenterprises/billing_backend/utils"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	services *models.Services
	logger   *logrus.Logger
}

func New(services *models.Services, logger *logrus.Logger) *Handler {
	return &Handler{services: services, logger: logger}
}

// Register mounts every route on r. Middleware is the caller's business.
func (h *Handler) Register(r gin.IRouter) {
	customers := r.Group("/customers")
	customers.GET("", h.listCustomers)
	customers.POST("", h.saveCustomer)
	customers.POST("/cleanup-duplicates", h.cleanupDuplicates)
	customers.GET("/:phone", h.getCustomer)
	customers.DELETE("/:phone", h.deleteCustomer)

	shortcuts := r.Group("/shortcuts")
	shortcuts.GET("", h.listShortcuts)
	shortcuts.POST("", h.createShortcut)
	shortcuts.GET("/expand/:token", h.expandShortcut)
	shortcuts.PUT("/:id", h.updateShortcut)
	shortcuts.DELETE("/:id", h.deleteShortcut)

	r.GET("/products", h.listProducts)

	invoices := r.Group("/invoices")
	invoices.GET("", h.listInvoices)
	invoices.POST("", h.createInvoice)
	invoices.POST("/preview", h.previewInvoice)
	invoices.GET("/number/suggestion", h.suggestInvoiceNumber)
	invoices.GET("/number/default", h.defaultInvoiceNumber)
	invoices.GET("/:id", h.getInvoice)
	invoices.PUT("/:id", h.updateInvoice)
	invoices.DELETE("/:id", h.deleteInvoice)
	invoices.GET("/:id/share", h.shareInvoice)

	bin := r.Group("/recycle-bin")
	bin.GET("", h.listRecycleBin)
	bin.DELETE("", h.emptyRecycleBin)
	bin.POST("/:originalId/restore", h.restoreItem)
	bin.DELETE("/:originalId", h.purgeItem)

	r.GET("/settings", h.getSettings)
	r.PUT("/settings", h.saveSettings)

	r.GET("/backup", h.exportBackup)
	r.POST("/backup", h.importBackup)

	r.GET("/reports/invoices.xlsx", h.invoiceRegister)
}

type confirmation struct {
	Confirm string `json:"confirm" form:"confirm"`
}

// confirmed accepts the token from the query string or a JSON body.
func confirmed(c *gin.Context, token string) bool {
	var in confirmation
	_ = c.ShouldBindQuery(&in)
	if in.Confirm == "" && c.Request.ContentLength > 0 {
		_ = c.ShouldBindJSON(&in)
	}
	return utils.IsConfirmed(in.Confirm, token)
}

func statusFor(err error) int {
	switch utils.ErrorKind(err) {
	case "validation":
		return http.StatusBadRequest
	case "not_found":
		return http.StatusNotFound
	case "duplicate":
		return http.StatusConflict
	case "persistence":
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err as {"error": msg}. Unclassified errors are logged and
// hidden from the caller.
func (h *Handler) fail(c *gin.Context, funcName string, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		config.LogError(h.logger, "handlers", funcName, c.FullPath(), nil, err)
		msg = "internal error"
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

func (h *Handler) badRequest(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
}
