package handlers

import (
	"net/http"

	"slotchain/middleware"
	"slotchain/models"
	"slotchain/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SaveAvailabilityHandler creates or replaces a creator's schedule.
func (hb *HandlerBundle) SaveAvailabilityHandler(c *gin.Context) {
	var req models.UpsertAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, utils.KindValidation, "Invalid availability payload", err.Error())
		return
	}

	doc, err := hb.Availability.UpsertAvailability(c.Request.Context(), c.Param("walletAddress"), req)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": doc})
}

// GetAvailabilityHandler returns the stored schedule, or data:null.
func (hb *HandlerBundle) GetAvailabilityHandler(c *gin.Context) {
	doc, err := hb.Availability.GetAvailability(c.Request.Context(), c.Param("walletAddress"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": doc})
}

// GetAvailableSlotsHandler lists the planned slots for ?date=YYYY-MM-DD.
func (hb *HandlerBundle) GetAvailableSlotsHandler(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		utils.JSONError(c, http.StatusBadRequest, utils.KindValidation, "date query parameter is required", "")
		return
	}

	slots, err := hb.Availability.GetAvailableSlots(c.Request.Context(), c.Param("walletAddress"), date)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	middleware.RequestLogger(c).Debug("Planned slots", zap.String("date", date), zap.Int("count", len(slots)))
	c.JSON(http.StatusOK, gin.H{"success": true, "data": slots})
}
