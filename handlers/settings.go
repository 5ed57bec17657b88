package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rskenterprises/billing_backend/models"
)

func (h *Handler) getSettings(c *gin.Context) {
	settings, err := h.services.Settings.Get(c.Request.Context())
	if err != nil {
		h.fail(c, "getSettings", err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

func (h *Handler) saveSettings(c *gin.Context) {
	var input models.Settings
	if err := c.ShouldBindJSON(&input); err != nil {
		h.badRequest(c, err)
		return
	}
	settings, err := h.services.Settings.Save(c.Request.Context(), input)
	if err != nil {
		h.fail(c, "saveSettings", err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

// exportBackup returns the backup document, or with ?upload=true stores it
// in the bucket and returns its location.
func (h *Handler) exportBackup(c *gin.Context) {
	ctx := c.Request.Context()
	backup, err := h.services.Backup.Export(ctx)
	if err != nil {
		h.fail(c, "exportBackup", err)
		return
	}
	if c.Query("upload") != "true" {
		c.JSON(http.StatusOK, backup)
		return
	}
	location, err := h.services.Backup.Upload(ctx, backup)
	if err != nil {
		h.fail(c, "exportBackup", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"location": location})
}

func (h *Handler) importBackup(c *gin.Context) {
	var backup models.Backup
	if err := c.ShouldBindJSON(&backup); err != nil {
		h.badRequest(c, err)
		return
	}
	res, err := h.services.Backup.Import(c.Request.Context(), &backup)
	if err != nil {
		_ = c.Error(err)
		c.AbortWithStatusJSON(statusFor(err), gin.H{"error": err.Error(), "imported": res})
		return
	}
	c.JSON(http.StatusOK, res)
}
