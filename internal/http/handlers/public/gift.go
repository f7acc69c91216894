package public

import (
	"github.com/giftledger/internal/http/response"

	"github.com/gin-gonic/gin"
)

// ListGifts 礼物目录
func (h *Handler) ListGifts(c *gin.Context) {
	gifts, err := h.CatalogService.List(c.Request.Context())
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	response.Success(c, gifts)
}

// GetGift 礼物详情
func (h *Handler) GetGift(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	gift, err := h.CatalogService.Get(id)
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	response.Success(c, gift)
}

// RecentForGift 礼物最近的成交动态
func (h *Handler) RecentForGift(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if _, err := h.CatalogService.Get(id); err != nil {
		respondLedgerError(c, err)
		return
	}
	items, err := h.LedgerQueryService.RecentForGift(id)
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	response.Success(c, items)
}
