package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rskenterprises/billing_backend/models"
)

func (h *Handler) listShortcuts(c *gin.Context) {
	shortcuts, err := h.services.Shortcuts.List(c.Request.Context())
	if err != nil {
		h.fail(c, "listShortcuts", err)
		return
	}
	c.JSON(http.StatusOK, shortcuts)
}

func (h *Handler) createShortcut(c *gin.Context) {
	h.saveShortcut(c, "", http.StatusCreated)
}

func (h *Handler) updateShortcut(c *gin.Context) {
	h.saveShortcut(c, c.Param("id"), http.StatusOK)
}

func (h *Handler) saveShortcut(c *gin.Context, id string, status int) {
	var input models.NewShortcut
	if err := c.ShouldBindJSON(&input); err != nil {
		h.badRequest(c, err)
		return
	}
	shortcut, err := h.services.Shortcuts.Save(c.Request.Context(), input, id)
	if err != nil {
		h.fail(c, "saveShortcut", err)
		return
	}
	c.JSON(status, shortcut)
}

func (h *Handler) deleteShortcut(c *gin.Context) {
	entry, err := h.services.Shortcuts.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "deleteShortcut", err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (h *Handler) expandShortcut(c *gin.Context) {
	token := c.Param("token")
	description, ok, err := h.services.Shortcuts.Expand(c.Request.Context(), token)
	if err != nil {
		h.fail(c, "expandShortcut", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"shortcut": token, "description": description, "matched": ok})
}

func (h *Handler) listProducts(c *gin.Context) {
	products, err := h.services.Catalog.List(c.Request.Context())
	if err != nil {
		h.fail(c, "listProducts", err)
		return
	}
	c.JSON(http.StatusOK, products)
}
