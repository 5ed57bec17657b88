package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rskenterprises/billing_backend/models"
)

func (h *Handler) listRecycleBin(c *gin.Context) {
	entries, err := h.services.RecycleBin.List(c.Request.Context())
	if err != nil {
		h.fail(c, "listRecycleBin", err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (h *Handler) restoreItem(c *gin.Context) {
	if !confirmed(c, models.ConfirmRestore) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Type RESTORE to confirm."})
		return
	}
	newID, err := h.services.RecycleBin.Restore(c.Request.Context(), c.Param("originalId"), models.EntityType(c.Query("type")))
	if err != nil {
		h.fail(c, "restoreItem", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": newID})
}

func (h *Handler) purgeItem(c *gin.Context) {
	if !confirmed(c, models.ConfirmDelete) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Type DELETE to confirm."})
		return
	}
	if err := h.services.RecycleBin.Purge(c.Request.Context(), c.Param("originalId")); err != nil {
		h.fail(c, "purgeItem", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) emptyRecycleBin(c *gin.Context) {
	if !confirmed(c, models.ConfirmDelete) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Type DELETE to confirm."})
		return
	}
	removed, err := h.services.RecycleBin.Empty(c.Request.Context())
	if err != nil {
		h.fail(c, "emptyRecycleBin", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}
