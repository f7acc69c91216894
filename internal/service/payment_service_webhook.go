package service

import (
	"errors"
	"fmt"

	"github.com/giftledger/internal/metrics"
	"github.com/giftledger/internal/models"
	"github.com/giftledger/internal/payment/cryptopay"
)

// 回调处理结果
const (
	WebhookResultConfirmed  = "confirmed"
	WebhookResultDuplicate  = "duplicate"
	WebhookResultIgnored    = "ignored"
	WebhookResultOutOfStock = "out_of_stock"
	WebhookResultUnknown    = "unknown_invoice"
)

// WebhookCallbackInput 网关回调输入
type WebhookCallbackInput struct {
	PathToken string
	Signature string
	Body      []byte
}

// WebhookResult 回调处理结果
type WebhookResult struct {
	Result      string
	UpdateID    int64
	InvoiceID   int64
	Transaction *models.GiftTransaction
}

// VerifyInboundEvent 校验回调来源：路径令牌与请求体签名都必须匹配
func (s *PaymentService) VerifyInboundEvent(input WebhookCallbackInput) error {
	if err := cryptopay.VerifyPathToken(input.PathToken, s.webhookToken); err != nil {
		return fmt.Errorf("%w: %v", ErrWebhookUnauthorized, err)
	}
	if err := cryptopay.VerifySignature(input.Body, input.Signature, s.apiToken); err != nil {
		return fmt.Errorf("%w: %v", ErrWebhookUnauthorized, err)
	}
	return nil
}

// HandleWebhook 处理 Crypto Pay 回调
// 未通过校验的请求不会触达账本；未知发票与库存不足只记录并确认收到，避免网关无限重试。
func (s *PaymentService) HandleWebhook(input WebhookCallbackInput) (*WebhookResult, error) {
	log := paymentLogger("provider", "cryptopay", "body_size", len(input.Body))

	if err := s.VerifyInboundEvent(input); err != nil {
		log.Warnw("payment_webhook_unauthorized", "error", err)
		metrics.ObserveWebhook("unauthorized")
		return nil, err
	}

	update, err := cryptopay.ParseUpdate(input.Body)
	if err != nil {
		log.Warnw("payment_webhook_payload_invalid", "error", err)
		metrics.ObserveWebhook("invalid")
		return nil, fmt.Errorf("%w: %v", ErrWebhookPayloadInvalid, err)
	}
	result := &WebhookResult{UpdateID: update.UpdateID, InvoiceID: update.Payload.InvoiceID}
	log = log.With("update_id", update.UpdateID, "update_type", update.UpdateType, "invoice_id", update.Payload.InvoiceID)

	if update.UpdateType != cryptopay.UpdateInvoicePaid {
		log.Infow("payment_webhook_ignored")
		metrics.ObserveWebhook(WebhookResultIgnored)
		result.Result = WebhookResultIgnored
		return result, nil
	}

	wasConfirmed := false
	if current, lookupErr := s.txnRepo.GetByInvoiceID(update.Payload.InvoiceID); lookupErr == nil && current != nil {
		wasConfirmed = !current.IsPending()
	}

	txn, err := s.OnPaidEvent(update.Payload.InvoiceID)
	result.Transaction = txn
	switch {
	case err == nil && wasConfirmed:
		result.Result = WebhookResultDuplicate
	case err == nil:
		result.Result = WebhookResultConfirmed
	case errors.Is(err, ErrTransactionNotFound):
		log.Warnw("payment_webhook_unknown_invoice")
		result.Result = WebhookResultUnknown
	case errors.Is(err, ErrOutOfStock):
		log.Warnw("payment_webhook_out_of_stock")
		result.Result = WebhookResultOutOfStock
	case errors.Is(err, ErrInvalidTransition):
		log.Warnw("payment_webhook_terminal_failed")
		result.Result = WebhookResultDuplicate
	default:
		log.Errorw("payment_webhook_confirm_failed", "error", err)
		metrics.ObserveWebhook("error")
		return nil, err
	}
	log.Infow("payment_webhook_processed", "result", result.Result)
	metrics.ObserveWebhook(result.Result)
	return result, nil
}
