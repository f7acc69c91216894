package public

import (
	"errors"
	"io"
	"net/http"

	"github.com/giftledger/internal/http/response"
	"github.com/giftledger/internal/payment/cryptopay"
	"github.com/giftledger/internal/service"

	"github.com/gin-gonic/gin"
)

// 网关回调体上限
const webhookMaxBodyBytes = 1 << 20

// CryptoPayWebhook Crypto Pay 支付回调
func (h *Handler) CryptoPayWebhook(c *gin.Context) {
	log := requestLog(c)
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, webhookMaxBodyBytes))
	if err != nil {
		log.Warnw("cryptopay_webhook_body_read_failed", "error", err)
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	log.Infow("cryptopay_webhook_received", "client_ip", c.ClientIP(), "body_size", len(body))

	result, err := h.PaymentService.HandleWebhook(service.WebhookCallbackInput{
		PathToken: c.Param("token"),
		Signature: c.GetHeader(cryptopay.SignatureHeader),
		Body:      body,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrWebhookUnauthorized):
			respondError(c, response.CodeForbidden, "error.webhook_unauthorized", nil)
		case errors.Is(err, service.ErrWebhookPayloadInvalid):
			respondError(c, response.CodeBadRequest, "error.webhook_payload_invalid", nil)
		default:
			respondError(c, response.CodeInternal, "error.internal_error", err)
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "result": result.Result})
}
