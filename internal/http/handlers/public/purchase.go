package public

import (
	"errors"
	"strings"

	"github.com/giftledger/internal/http/response"
	"github.com/giftledger/internal/i18n"
	"github.com/giftledger/internal/models"
	"github.com/giftledger/internal/service"

	"github.com/gin-gonic/gin"
)

// CreatePurchaseRequest 创建购买请求
type CreatePurchaseRequest struct {
	GiftID uint `json:"gift_id" binding:"required"`
}

// PurchaseView 购买记录及支付链接
type PurchaseView struct {
	*models.GiftTransaction
	SuccessID string `json:"success_id,omitempty"`
	Retryable bool   `json:"retryable"`
}

func buildPurchaseView(purchase *models.GiftTransaction, retryable bool) PurchaseView {
	view := PurchaseView{GiftTransaction: purchase, Retryable: retryable}
	if purchase.ExternalSuccessID != nil {
		view.SuccessID = *purchase.ExternalSuccessID
	}
	return view
}

// CreatePurchase 创建购买并开具发票
func (h *Handler) CreatePurchase(c *gin.Context) {
	userID, ok := getTelegramID(c)
	if !ok {
		return
	}
	var req CreatePurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	purchase, err := h.PaymentService.Purchase(c.Request.Context(), userID, req.GiftID)
	h.respondPurchase(c, purchase, err)
}

// RetryInvoice 网关不可用后重新请求发票
func (h *Handler) RetryInvoice(c *gin.Context) {
	userID, ok := getTelegramID(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	purchase, err := h.PaymentService.RetryInvoice(c.Request.Context(), userID, id)
	h.respondPurchase(c, purchase, err)
}

func (h *Handler) respondPurchase(c *gin.Context, purchase *models.GiftTransaction, err error) {
	if err == nil {
		response.Success(c, buildPurchaseView(purchase, false))
		return
	}
	if errors.Is(err, service.ErrGatewayUnavailable) && purchase != nil {
		// 购买记录已创建，客户端可凭 id 重试开票
		requestLog(c).Warnw("purchase_invoice_gateway_unavailable", "purchase_id", purchase.ID, "error", err)
		msg := i18n.T(i18n.ResolveLocale(c), "error.gateway_unavailable")
		response.ErrorWithData(c, response.CodeBadGateway, msg, buildPurchaseView(purchase, true))
		return
	}
	respondLedgerError(c, err)
}

// GetPurchaseBySuccessID 支付完成回跳页查询
func (h *Handler) GetPurchaseBySuccessID(c *gin.Context) {
	successID := strings.TrimSpace(c.Param("success_id"))
	if successID == "" {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	purchase, err := h.LedgerQueryService.GetPurchaseBySuccessID(successID)
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	response.Success(c, buildPurchaseView(purchase, false))
}
