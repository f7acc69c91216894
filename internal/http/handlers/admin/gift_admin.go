package admin

import (
	"github.com/giftledger/internal/constants"
	handlershared "github.com/giftledger/internal/http/handlers/shared"
	"github.com/giftledger/internal/http/response"
	"github.com/giftledger/internal/service"

	"github.com/gin-gonic/gin"
)

// GiftRequest 礼物定义请求
type GiftRequest struct {
	Name         string `json:"name" binding:"required"`
	Price        string `json:"price" binding:"required"`
	Asset        string `json:"asset" binding:"required"`
	TotalInStock int    `json:"total_in_stock"`
}

func (r GiftRequest) toInput() service.GiftInput {
	return service.GiftInput{
		Name:         r.Name,
		Price:        r.Price,
		Asset:        r.Asset,
		TotalInStock: r.TotalInStock,
	}
}

// ListGifts 礼物列表（含已售数量）
func (h *Handler) ListGifts(c *gin.Context) {
	gifts, err := h.CatalogService.List(c.Request.Context())
	if err != nil {
		respondGiftError(c, err)
		return
	}
	response.Success(c, gifts)
}

// CreateGift 新增礼物定义
func (h *Handler) CreateGift(c *gin.Context) {
	var req GiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	gift, err := h.CatalogService.Create(c.Request.Context(), req.toInput())
	if err != nil {
		respondGiftError(c, err)
		return
	}
	adminID, _ := c.Get(constants.ContextKeyAdminID)
	requestLog(c).Infow("admin_gift_created", "admin_id", adminID, "gift_id", gift.ID, "name", gift.Name)
	response.Success(c, gift)
}

// UpdateGift 更新礼物定义
func (h *Handler) UpdateGift(c *gin.Context) {
	id, ok := handlershared.ParseUintParam(c, "id")
	if !ok {
		return
	}
	var req GiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	gift, err := h.CatalogService.Update(c.Request.Context(), id, req.toInput())
	if err != nil {
		respondGiftError(c, err)
		return
	}
	adminID, _ := c.Get(constants.ContextKeyAdminID)
	requestLog(c).Infow("admin_gift_updated", "admin_id", adminID, "gift_id", gift.ID)
	response.Success(c, gift)
}
