package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/giftledger/internal/logger"
	"github.com/giftledger/internal/metrics"
	"github.com/giftledger/internal/models"
	"github.com/giftledger/internal/payment/cryptopay"
	"github.com/giftledger/internal/repository"

	"go.uber.org/zap"
)

const defaultGatewayTimeout = 10 * time.Second

// InvoiceGateway 支付网关发票接口
type InvoiceGateway interface {
	CreateInvoice(ctx context.Context, input cryptopay.InvoiceInput) (*cryptopay.Invoice, error)
}

// PaymentService 支付桥接服务：为购买记录开具发票并处理网关回调
type PaymentService struct {
	ledger       *LedgerService
	txnRepo      repository.GiftTransactionRepository
	gateway      InvoiceGateway
	apiToken     string
	webhookToken string
	timeout      time.Duration
}

// PaymentServiceOptions 支付桥接配置
type PaymentServiceOptions struct {
	APIToken     string
	WebhookToken string
	Timeout      time.Duration
}

// NewPaymentService 创建支付桥接服务
func NewPaymentService(ledger *LedgerService, txnRepo repository.GiftTransactionRepository, gateway InvoiceGateway, opts PaymentServiceOptions) *PaymentService {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultGatewayTimeout
	}
	return &PaymentService{
		ledger:       ledger,
		txnRepo:      txnRepo,
		gateway:      gateway,
		apiToken:     opts.APIToken,
		webhookToken: opts.WebhookToken,
		timeout:      opts.Timeout,
	}
}

func paymentLogger(kv ...interface{}) *zap.SugaredLogger {
	if len(kv) == 0 {
		return logger.S()
	}
	return logger.SW(kv...)
}

// Purchase 创建购买意向并立即请求发票
// 网关不可用时返回仍为 pending 的购买记录与 ErrGatewayUnavailable，可稍后重试开票。
func (s *PaymentService) Purchase(ctx context.Context, userID int64, giftID uint) (*models.GiftTransaction, error) {
	purchase, err := s.ledger.CreatePurchaseIntent(userID, giftID)
	if err != nil {
		return nil, err
	}
	return s.RequestInvoice(ctx, purchase)
}

// RetryInvoice 为用户自己的待支付购买记录重新请求发票
func (s *PaymentService) RetryInvoice(ctx context.Context, userID int64, purchaseID uint) (*models.GiftTransaction, error) {
	purchase, err := s.txnRepo.GetByID(purchaseID)
	if err != nil {
		paymentLogger("purchase_id", purchaseID).Errorw("payment_retry_purchase_fetch_failed", "error", err)
		return nil, ErrLedgerWriteFailed
	}
	if purchase == nil || !purchase.IsPurchase() {
		return nil, ErrTransactionNotFound
	}
	if purchase.FromUserID != userID {
		return nil, ErrForbidden
	}
	return s.RequestInvoice(ctx, purchase)
}

// RequestInvoice 为待支付购买记录开具发票，已开过发票时直接返回原链接
func (s *PaymentService) RequestInvoice(ctx context.Context, purchase *models.GiftTransaction) (*models.GiftTransaction, error) {
	if purchase == nil || !purchase.IsPurchase() {
		return nil, ErrTransactionNotFound
	}
	log := paymentLogger("purchase_id", purchase.ID, "gift_id", purchase.GiftID, "user_id", purchase.FromUserID)
	if !purchase.IsPending() {
		return purchase, ErrInvalidTransition
	}
	if purchase.ExternalInvoiceID != nil {
		return purchase, nil
	}
	if s.gateway == nil {
		log.Errorw("payment_gateway_not_configured")
		return purchase, ErrGatewayUnavailable
	}

	if ctx == nil {
		ctx = context.Background()
	}
	reqCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	successID := ""
	if purchase.ExternalSuccessID != nil {
		successID = *purchase.ExternalSuccessID
	}
	input := cryptopay.InvoiceInput{
		Amount:      purchase.Amount.String(),
		Asset:       purchase.Asset,
		Description: invoiceDescription(purchase),
		Payload:     strconv.FormatUint(uint64(purchase.ID), 10),
		SuccessID:   successID,
	}
	started := time.Now()
	invoice, err := s.gateway.CreateInvoice(reqCtx, input)
	if err != nil {
		metrics.ObserveGateway("create_invoice", "error", time.Since(started).Seconds())
		log.Warnw("payment_gateway_create_invoice_failed", "error", err)
		return purchase, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	metrics.ObserveGateway("create_invoice", "ok", time.Since(started).Seconds())
	if invoice == nil || invoice.InvoiceID == 0 || invoice.PayURL() == "" {
		log.Warnw("payment_gateway_invoice_incomplete")
		return purchase, ErrGatewayUnavailable
	}

	affected, err := s.txnRepo.AttachInvoice(purchase.ID, invoice.InvoiceID, invoice.PayURL())
	if err != nil {
		log.Errorw("payment_attach_invoice_failed", "invoice_id", invoice.InvoiceID, "error", err)
		return purchase, ErrLedgerWriteFailed
	}
	current, err := s.txnRepo.GetByID(purchase.ID)
	if err != nil || current == nil {
		log.Errorw("payment_attach_invoice_reload_failed", "error", err)
		return purchase, ErrLedgerWriteFailed
	}
	if affected == 0 {
		if current.ExternalInvoiceID != nil && current.IsPending() {
			// 并发重试已写入另一张发票，以落库的为准
			log.Warnw("payment_invoice_already_attached", "orphan_invoice_id", invoice.InvoiceID, "invoice_id", *current.ExternalInvoiceID)
			return current, nil
		}
		return current, ErrInvalidTransition
	}
	log.Infow("payment_invoice_created", "invoice_id", invoice.InvoiceID)
	return current, nil
}

// OnPaidEvent 网关确认已支付，交给账本确认购买
func (s *PaymentService) OnPaidEvent(invoiceID int64) (*models.GiftTransaction, error) {
	return s.ledger.ConfirmPurchase(invoiceID)
}

func invoiceDescription(purchase *models.GiftTransaction) string {
	if purchase.Gift != nil && purchase.Gift.Name != "" {
		return fmt.Sprintf("Purchasing a %s gift", purchase.Gift.Name)
	}
	return "Purchasing a gift"
}
