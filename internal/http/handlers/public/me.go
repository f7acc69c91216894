package public

import (
	"github.com/giftledger/internal/http/response"

	"github.com/gin-gonic/gin"
)

// GetProfile 当前用户资料
func (h *Handler) GetProfile(c *gin.Context) {
	userID, ok := getTelegramID(c)
	if !ok {
		return
	}
	user, err := h.UserAuthService.GetUser(userID)
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	response.Success(c, user)
}

// ListAvailableGifts 可转赠的礼物
func (h *Handler) ListAvailableGifts(c *gin.Context) {
	userID, ok := getTelegramID(c)
	if !ok {
		return
	}
	items, err := h.LedgerQueryService.AvailableToSend(userID)
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	response.Success(c, items)
}

// ListReceivedGifts 已收到的礼物
func (h *Handler) ListReceivedGifts(c *gin.Context) {
	userID, ok := getTelegramID(c)
	if !ok {
		return
	}
	items, err := h.LedgerQueryService.ReceivedByUser(userID)
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	response.Success(c, items)
}

// ListMyTransactions 最近交易记录
func (h *Handler) ListMyTransactions(c *gin.Context) {
	userID, ok := getTelegramID(c)
	if !ok {
		return
	}
	items, err := h.LedgerQueryService.RecentForUser(userID)
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	response.Success(c, items)
}
