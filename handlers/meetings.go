package handlers

import (
	"net/http"

	"slotchain/models"
	"slotchain/utils"

	"github.com/gin-gonic/gin"
)

// RequestNonceHandler issues a challenge for the caller to sign.
func (hb *HandlerBundle) RequestNonceHandler(c *gin.Context) {
	var req models.NonceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, utils.KindValidation, "walletAddress and tokenId are required", err.Error())
		return
	}

	resp, err := hb.Meetings.GenerateNonce(c.Request.Context(), req.WalletAddress, req.TokenID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AccessMeetingHandler exchanges a signed nonce for the join link.
func (hb *HandlerBundle) AccessMeetingHandler(c *gin.Context) {
	var req models.AccessMeetingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, utils.KindValidation, "walletAddress, tokenId and signature are required", err.Error())
		return
	}

	access, err := hb.Meetings.GetMeetingAccess(c.Request.Context(), req.WalletAddress, req.TokenID, req.Signature)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, access)
}
