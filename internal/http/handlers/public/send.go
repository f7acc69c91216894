package public

import (
	"github.com/giftledger/internal/http/response"

	"github.com/gin-gonic/gin"
)

// CreateSendRequest 发起转赠请求
type CreateSendRequest struct {
	PurchaseID uint `json:"purchase_id" binding:"required"`
}

// CreateSend 为已支付的礼物生成领取链接
func (h *Handler) CreateSend(c *gin.Context) {
	userID, ok := getTelegramID(c)
	if !ok {
		return
	}
	var req CreateSendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	preview, err := h.ClaimService.Issue(userID, req.PurchaseID)
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	response.Success(c, preview)
}

// CancelSend 撤回待领取的转赠
func (h *Handler) CancelSend(c *gin.Context) {
	userID, ok := getTelegramID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	send, err := h.LedgerService.CancelSend(userID, id)
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	response.Success(c, send)
}
