package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rskenterprises/billing_backend/models"
)

func (h *Handler) listCustomers(c *gin.Context) {
	customers, err := h.services.Customers.List(c.Request.Context(), c.Query("search"))
	if err != nil {
		h.fail(c, "listCustomers", err)
		return
	}
	c.JSON(http.StatusOK, customers)
}

func (h *Handler) getCustomer(c *gin.Context) {
	customer, err := h.services.Customers.GetByPhone(c.Request.Context(), c.Param("phone"))
	if err != nil {
		h.fail(c, "getCustomer", err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

// saveCustomer creates a customer, or updates the one with the same phone
// when called with ?edit=true.
func (h *Handler) saveCustomer(c *gin.Context) {
	var input models.NewCustomer
	if err := c.ShouldBindJSON(&input); err != nil {
		h.badRequest(c, err)
		return
	}
	editing := c.Query("edit") == "true"
	customer, err := h.services.Customers.Save(c.Request.Context(), input, editing)
	if err != nil {
		h.fail(c, "saveCustomer", err)
		return
	}
	status := http.StatusCreated
	if editing {
		status = http.StatusOK
	}
	c.JSON(status, customer)
}

func (h *Handler) deleteCustomer(c *gin.Context) {
	entry, err := h.services.Customers.Delete(c.Request.Context(), c.Param("phone"))
	if err != nil {
		h.fail(c, "deleteCustomer", err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (h *Handler) cleanupDuplicates(c *gin.Context) {
	removed, err := h.services.Customers.CleanupDuplicates(c.Request.Context())
	if err != nil {
		h.fail(c, "cleanupDuplicates", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}
