package service

import (
	"github.com/giftledger/internal/constants"
	"github.com/giftledger/internal/models"
	"github.com/giftledger/internal/repository"
)

const (
	defaultRecentForGiftLimit = 10
	defaultRecentForUserLimit = 20
)

// LedgerQueryService 账本只读投影
type LedgerQueryService struct {
	txnRepo         repository.GiftTransactionRepository
	userRepo        repository.UserRepository
	recentGiftLimit int
	recentUserLimit int
}

// NewLedgerQueryService 创建账本查询服务
func NewLedgerQueryService(txnRepo repository.GiftTransactionRepository, userRepo repository.UserRepository, recentGiftLimit, recentUserLimit int) *LedgerQueryService {
	if recentGiftLimit <= 0 {
		recentGiftLimit = defaultRecentForGiftLimit
	}
	if recentUserLimit <= 0 {
		recentUserLimit = defaultRecentForUserLimit
	}
	return &LedgerQueryService{
		txnRepo:         txnRepo,
		userRepo:        userRepo,
		recentGiftLimit: recentGiftLimit,
		recentUserLimit: recentUserLimit,
	}
}

// TransactionView 交易及参与方展示信息
type TransactionView struct {
	models.GiftTransaction
	FromUser *models.User `json:"from_user,omitempty"`
	ToUser   *models.User `json:"to_user,omitempty"`
}

// AvailableToSend 用户可转赠的购买记录
func (s *LedgerQueryService) AvailableToSend(userID int64) ([]models.GiftTransaction, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	return s.txnRepo.ListAvailableToSend(userID)
}

// ReceivedByUser 用户已领取的礼物
func (s *LedgerQueryService) ReceivedByUser(userID int64) ([]TransactionView, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	txns, err := s.txnRepo.ListReceivedByUser(userID)
	if err != nil {
		return nil, err
	}
	return s.attachUsers(txns)
}

// RecentForGift 指定礼物最近的成功交易
func (s *LedgerQueryService) RecentForGift(giftID uint) ([]TransactionView, error) {
	txns, err := s.txnRepo.ListRecentForGift(giftID, s.recentGiftLimit)
	if err != nil {
		return nil, err
	}
	return s.attachUsers(txns)
}

// RecentForUser 用户参与的最近交易（含待处理与失败）
func (s *LedgerQueryService) RecentForUser(userID int64) ([]TransactionView, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	txns, err := s.txnRepo.ListRecentForUser(userID, s.recentUserLimit)
	if err != nil {
		return nil, err
	}
	return s.attachUsers(txns)
}

// GetPurchaseBySuccessID 支付成功回跳时查询购买记录，仅返回已确认的购买
func (s *LedgerQueryService) GetPurchaseBySuccessID(successID string) (*models.GiftTransaction, error) {
	purchase, err := s.txnRepo.GetBySuccessID(successID)
	if err != nil {
		return nil, err
	}
	if purchase == nil || purchase.Status != constants.TransactionStatusSuccess {
		return nil, ErrTransactionNotFound
	}
	return purchase, nil
}

// ListAdmin 后台分页查询交易
func (s *LedgerQueryService) ListAdmin(filter repository.GiftTransactionListFilter) ([]TransactionView, int64, error) {
	txns, total, err := s.txnRepo.ListAdmin(filter)
	if err != nil {
		return nil, 0, err
	}
	views, err := s.attachUsers(txns)
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

func (s *LedgerQueryService) attachUsers(txns []models.GiftTransaction) ([]TransactionView, error) {
	views := make([]TransactionView, 0, len(txns))
	if len(txns) == 0 {
		return views, nil
	}
	seen := make(map[int64]struct{}, len(txns)*2)
	ids := make([]int64, 0, len(txns)*2)
	collect := func(id int64) {
		if _, ok := seen[id]; ok || id == 0 {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	for _, txn := range txns {
		collect(txn.FromUserID)
		if txn.ToUserID != nil {
			collect(*txn.ToUserID)
		}
	}

	users := make(map[int64]*models.User, len(ids))
	if s.userRepo != nil {
		rows, err := s.userRepo.ListByTelegramIDs(ids)
		if err != nil {
			return nil, err
		}
		for i := range rows {
			users[rows[i].TelegramID] = &rows[i]
		}
	}

	for _, txn := range txns {
		view := TransactionView{GiftTransaction: txn, FromUser: users[txn.FromUserID]}
		if txn.ToUserID != nil {
			view.ToUser = users[*txn.ToUserID]
		}
		views = append(views, view)
	}
	return views, nil
}
