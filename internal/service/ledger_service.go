package service

import (
	"context"
	"errors"
	"time"

	"github.com/giftledger/internal/constants"
	"github.com/giftledger/internal/logger"
	"github.com/giftledger/internal/metrics"
	"github.com/giftledger/internal/models"
	"github.com/giftledger/internal/queue"
	"github.com/giftledger/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// errConfirmRaced 确认过程中记录已被其它请求迁移，回滚本次库存占用
var errConfirmRaced = errors.New("purchase confirmation raced")

// LedgerService 礼物账本服务，持有全部状态迁移逻辑
type LedgerService struct {
	txnRepo     repository.GiftTransactionRepository
	catalog     *CatalogService
	notifier    *NotificationService
	queueClient *queue.Client
	claimTTL    time.Duration
	now         func() time.Time
}

// NewLedgerService 创建账本服务
func NewLedgerService(
	txnRepo repository.GiftTransactionRepository,
	catalog *CatalogService,
	notifier *NotificationService,
	queueClient *queue.Client,
	claimTTL time.Duration,
) *LedgerService {
	if claimTTL <= 0 {
		claimTTL = 24 * time.Hour
	}
	return &LedgerService{
		txnRepo:     txnRepo,
		catalog:     catalog,
		notifier:    notifier,
		queueClient: queueClient,
		claimTTL:    claimTTL,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func ledgerLogger(kv ...interface{}) *zap.SugaredLogger {
	if len(kv) == 0 {
		return logger.S()
	}
	return logger.SW(kv...)
}

// CreatePurchaseIntent 创建待支付的购买记录（不占用库存）
func (s *LedgerService) CreatePurchaseIntent(userID int64, giftID uint) (*models.GiftTransaction, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	log := ledgerLogger("user_id", userID, "gift_id", giftID)

	gift, err := s.catalog.Get(giftID)
	if err != nil {
		return nil, err
	}
	// 仅做提前拒绝，权威校验在确认支付时
	if gift.SoldOut() {
		log.Infow("ledger_purchase_intent_sold_out")
		return nil, ErrOutOfStock
	}

	purchase := models.NewPurchaseTransaction(userID, gift, uuid.NewString())
	if err := s.txnRepo.Create(purchase); err != nil {
		log.Errorw("ledger_purchase_intent_create_failed", "error", err)
		return nil, ErrLedgerWriteFailed
	}
	purchase.Gift = gift
	metrics.ObserveTransaction(constants.TransactionKindPurchase, constants.TransactionStatusPending)
	log.Infow("ledger_purchase_intent_created", "transaction_id", purchase.ID)
	return purchase, nil
}

// ConfirmPurchase 按网关发票 ID 确认购买
// 重复确认已成功的记录直接返回，不会重复扣减库存；
// 库存不足时记录转为 failed 并返回 ErrOutOfStock。
func (s *LedgerService) ConfirmPurchase(invoiceID int64) (*models.GiftTransaction, error) {
	log := ledgerLogger("external_invoice_id", invoiceID)
	if invoiceID == 0 {
		return nil, ErrTransactionNotFound
	}

	var (
		purchase   *models.GiftTransaction
		confirmed  bool
		outOfStock bool
	)
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		repo := s.txnRepo.WithTx(tx)
		current, err := repo.GetByInvoiceID(invoiceID)
		if err != nil {
			return err
		}
		if current == nil {
			return ErrTransactionNotFound
		}
		purchase = current
		switch current.Status {
		case constants.TransactionStatusSuccess:
			return nil
		case constants.TransactionStatusFailed:
			return ErrInvalidTransition
		}

		if err := s.catalog.ReserveOneUnit(tx, current.GiftID); err != nil {
			if !errors.Is(err, ErrOutOfStock) && !errors.Is(err, ErrGiftNotFound) {
				return err
			}
			affected, err := repo.TransitionFromPending(current.ID, constants.TransactionStatusFailed, nil)
			if err != nil {
				return err
			}
			if affected == 0 {
				return errConfirmRaced
			}
			outOfStock = true
			return nil
		}

		affected, err := repo.TransitionFromPending(current.ID, constants.TransactionStatusSuccess, nil)
		if err != nil {
			return err
		}
		if affected == 0 {
			return errConfirmRaced
		}
		confirmed = true
		return nil
	})

	switch {
	case err == nil:
	case errors.Is(err, errConfirmRaced):
		// 并发确认：以最终落库状态为准
		return s.reloadConfirmed(purchase.ID, log)
	case errors.Is(err, ErrTransactionNotFound):
		log.Warnw("ledger_confirm_purchase_not_found")
		return nil, err
	case errors.Is(err, ErrInvalidTransition):
		log.Warnw("ledger_confirm_purchase_terminal_failed", "transaction_id", purchase.ID)
		return purchase, err
	default:
		log.Errorw("ledger_confirm_purchase_failed", "error", err)
		return nil, ErrLedgerWriteFailed
	}

	if !confirmed && !outOfStock {
		// 幂等处理：重复回调不再扣减库存
		log.Infow("ledger_confirm_purchase_idempotent", "transaction_id", purchase.ID)
		return purchase, nil
	}

	updated, err := s.txnRepo.GetByID(purchase.ID)
	if err != nil || updated == nil {
		log.Errorw("ledger_confirm_purchase_reload_failed", "transaction_id", purchase.ID, "error", err)
		return nil, ErrLedgerWriteFailed
	}

	if outOfStock {
		metrics.ObserveTransaction(constants.TransactionKindPurchase, constants.TransactionStatusFailed)
		log.Warnw("ledger_confirm_purchase_out_of_stock", "transaction_id", updated.ID, "gift_id", updated.GiftID)
		return updated, ErrOutOfStock
	}

	metrics.ObserveTransaction(constants.TransactionKindPurchase, constants.TransactionStatusSuccess)
	log.Infow("ledger_purchase_confirmed", "transaction_id", updated.ID, "gift_id", updated.GiftID, "user_id", updated.FromUserID)
	s.catalog.InvalidateCache(context.Background())
	s.notifier.NotifyPurchaseConfirmed(updated)
	return updated, nil
}

func (s *LedgerService) reloadConfirmed(id uint, log *zap.SugaredLogger) (*models.GiftTransaction, error) {
	current, err := s.txnRepo.GetByID(id)
	if err != nil || current == nil {
		log.Errorw("ledger_confirm_purchase_reload_failed", "transaction_id", id, "error", err)
		return nil, ErrLedgerWriteFailed
	}
	if current.Status == constants.TransactionStatusSuccess {
		log.Infow("ledger_confirm_purchase_idempotent", "transaction_id", id)
		return current, nil
	}
	log.Warnw("ledger_confirm_purchase_terminal_failed", "transaction_id", id, "status", current.Status)
	return current, ErrInvalidTransition
}

// CreateSendIntent 为已支付成功的购买记录创建待领取的转赠
func (s *LedgerService) CreateSendIntent(senderID int64, purchaseID uint) (*models.GiftTransaction, error) {
	log := ledgerLogger("sender_id", senderID, "purchase_id", purchaseID)

	purchase, err := s.txnRepo.GetByID(purchaseID)
	if err != nil {
		log.Errorw("ledger_send_intent_purchase_fetch_failed", "error", err)
		return nil, ErrLedgerWriteFailed
	}
	if purchase == nil || !purchase.IsPurchase() {
		return nil, ErrTransactionNotFound
	}
	if purchase.FromUserID != senderID || purchase.Status != constants.TransactionStatusSuccess {
		log.Warnw("ledger_send_intent_forbidden", "owner_id", purchase.FromUserID, "status", purchase.Status)
		return nil, ErrForbidden
	}
	if err := s.ensureForwardable(purchase.ID, log); err != nil {
		return nil, err
	}

	token, err := newClaimToken()
	if err != nil {
		log.Errorw("ledger_send_intent_token_failed", "error", err)
		return nil, ErrLedgerWriteFailed
	}
	send := models.NewSendTransaction(senderID, purchase, token, s.now().Add(s.claimTTL))
	if err := s.txnRepo.Create(send); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// 并发创建：唯一占位已被其它请求写入
			if guardErr := s.ensureForwardable(purchase.ID, log); guardErr != nil {
				return nil, guardErr
			}
		}
		log.Errorw("ledger_send_intent_create_failed", "error", err)
		return nil, ErrLedgerWriteFailed
	}
	send.Gift = purchase.Gift

	if err := s.queueClient.EnqueueGiftSendExpire(queue.GiftSendExpirePayload{SendID: send.ID}, s.claimTTL); err != nil {
		log.Warnw("ledger_send_expire_enqueue_failed", "send_id", send.ID, "error", err)
	}
	metrics.ObserveTransaction(constants.TransactionKindSend, constants.TransactionStatusPending)
	log.Infow("ledger_send_intent_created", "send_id", send.ID, "expires_at", send.ExpiresAt)
	return send, nil
}

// ensureForwardable 校验购买记录上没有待领取或已领取的转赠，过期的待领取转赠会先被置为失败
func (s *LedgerService) ensureForwardable(purchaseID uint, log *zap.SugaredLogger) error {
	existing, err := s.txnRepo.GetActiveSendByPurchase(purchaseID)
	if err != nil {
		log.Errorw("ledger_send_intent_existing_fetch_failed", "error", err)
		return ErrLedgerWriteFailed
	}
	if existing == nil {
		return nil
	}
	if existing.Status == constants.TransactionStatusSuccess {
		return ErrAlreadySent
	}
	if existing.Expired(s.now()) {
		if _, err := s.expire(existing, log); err != nil {
			return err
		}
		// 过期处理后可能被并发领取，再确认一次
		return s.ensureForwardable(purchaseID, log)
	}
	return ErrAlreadyInitiated
}

// Claim 领取转赠：只有一个请求能把待领取记录迁移为成功
func (s *LedgerService) Claim(receiverID int64, claimToken string) (*models.GiftTransaction, error) {
	if receiverID == 0 {
		return nil, ErrInvalidInput
	}
	log := ledgerLogger("receiver_id", receiverID)

	send, err := s.txnRepo.GetByClaimToken(claimToken)
	if err != nil {
		log.Errorw("ledger_claim_fetch_failed", "error", err)
		return nil, ErrLedgerWriteFailed
	}
	if send == nil {
		return nil, ErrClaimNotFound
	}
	log = log.With("send_id", send.ID, "sender_id", send.FromUserID)

	switch send.Status {
	case constants.TransactionStatusSuccess:
		return s.claimedResult(send, receiverID, log)
	case constants.TransactionStatusFailed:
		return nil, ErrAlreadyProcessed
	}
	now := s.now()
	if send.Expired(now) {
		if _, err := s.expire(send, log); err != nil {
			return nil, err
		}
		return nil, ErrAlreadyProcessed
	}
	if send.FromUserID == receiverID {
		log.Warnw("ledger_claim_self_gift")
		return nil, ErrSelfGift
	}

	affected, err := s.txnRepo.ClaimSend(send.ID, receiverID, now)
	if err != nil {
		log.Errorw("ledger_claim_update_failed", "error", err)
		return nil, ErrLedgerWriteFailed
	}
	current, err := s.txnRepo.GetByID(send.ID)
	if err != nil || current == nil {
		log.Errorw("ledger_claim_reload_failed", "error", err)
		return nil, ErrLedgerWriteFailed
	}
	if affected == 0 {
		if current.Status == constants.TransactionStatusSuccess {
			return s.claimedResult(current, receiverID, log)
		}
		return nil, ErrAlreadyProcessed
	}

	metrics.ObserveTransaction(constants.TransactionKindSend, constants.TransactionStatusSuccess)
	log.Infow("ledger_send_claimed")
	s.notifier.NotifyClaimSucceeded(current)
	return current, nil
}

func (s *LedgerService) claimedResult(send *models.GiftTransaction, receiverID int64, log *zap.SugaredLogger) (*models.GiftTransaction, error) {
	if send.ToUserID != nil && *send.ToUserID == receiverID {
		// 幂等处理：同一接收人重复领取视为成功
		log.Infow("ledger_claim_idempotent")
		return send, nil
	}
	return nil, ErrAlreadyProcessed
}

// CancelSend 赠送者撤回仍待领取的转赠
func (s *LedgerService) CancelSend(senderID int64, sendID uint) (*models.GiftTransaction, error) {
	log := ledgerLogger("sender_id", senderID, "send_id", sendID)
	send, err := s.txnRepo.GetByID(sendID)
	if err != nil {
		log.Errorw("ledger_cancel_send_fetch_failed", "error", err)
		return nil, ErrLedgerWriteFailed
	}
	if send == nil || !send.IsSend() {
		return nil, ErrTransactionNotFound
	}
	if send.FromUserID != senderID {
		return nil, ErrForbidden
	}
	if send.IsTerminal() {
		return nil, ErrInvalidTransition
	}
	affected, err := s.txnRepo.FailSend(send.ID)
	if err != nil {
		log.Errorw("ledger_cancel_send_update_failed", "error", err)
		return nil, ErrLedgerWriteFailed
	}
	if affected == 0 {
		return nil, ErrInvalidTransition
	}
	metrics.ObserveTransaction(constants.TransactionKindSend, constants.TransactionStatusFailed)
	log.Infow("ledger_send_canceled")
	return s.txnRepo.GetByID(send.ID)
}

// ExpireSend 到期任务入口：仅处理已过期且仍待领取的转赠
func (s *LedgerService) ExpireSend(sendID uint) (bool, error) {
	log := ledgerLogger("send_id", sendID)
	send, err := s.txnRepo.GetByID(sendID)
	if err != nil {
		return false, err
	}
	if send == nil || !send.Expired(s.now()) {
		return false, nil
	}
	return s.expire(send, log)
}

// ExpireOverdueSends 批量处理过期转赠，返回处理数量
func (s *LedgerService) ExpireOverdueSends(limit int) (int, error) {
	sends, err := s.txnRepo.ListExpiredPendingSends(s.now(), limit)
	if err != nil {
		return 0, err
	}
	expired := 0
	for i := range sends {
		send := sends[i]
		ok, err := s.expire(&send, ledgerLogger("send_id", send.ID))
		if err != nil {
			return expired, err
		}
		if ok {
			expired++
		}
	}
	return expired, nil
}

func (s *LedgerService) expire(send *models.GiftTransaction, log *zap.SugaredLogger) (bool, error) {
	affected, err := s.txnRepo.FailSend(send.ID)
	if err != nil {
		log.Errorw("ledger_send_expire_failed", "error", err)
		return false, ErrLedgerWriteFailed
	}
	if affected == 0 {
		return false, nil
	}
	metrics.ObserveTransaction(constants.TransactionKindSend, constants.TransactionStatusFailed)
	log.Infow("ledger_send_expired", "purchase_id", send.ReferenceID)
	return true, nil
}
