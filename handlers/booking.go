package handlers

import (
	"net/http"

	"slotchain/middleware"
	"slotchain/models"
	"slotchain/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BookSlotHandler runs the booking saga for a single slot.
func (hb *HandlerBundle) BookSlotHandler(c *gin.Context) {
	var req models.BookSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, utils.KindValidation, "Invalid booking payload", err.Error())
		return
	}

	conf, err := hb.Booking.BookSlot(c.Request.Context(), req)
	if err != nil {
		middleware.RequestLogger(c).Info("Booking rejected",
			zap.String("creator", req.CreatorAddress),
			zap.String("slotId", req.SlotID),
			zap.String("kind", string(utils.ErrorKindOf(err))))
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": conf})
}
