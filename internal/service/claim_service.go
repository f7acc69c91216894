package service

import (
	"net/url"
	"strings"
	"time"

	"github.com/giftledger/internal/constants"
	"github.com/giftledger/internal/models"
	"github.com/giftledger/internal/repository"
)

// ClaimPreview 领取令牌对应的转赠信息
type ClaimPreview struct {
	SendID     uint          `json:"send_id"`
	Token      string        `json:"token,omitempty"`
	ClaimURL   string        `json:"claim_url,omitempty"`
	Gift       *models.Gift  `json:"gift,omitempty"`
	Amount     models.Amount `json:"amount"`
	Asset      string        `json:"asset"`
	SenderID   int64         `json:"sender_id"`
	SenderName string        `json:"sender_name"`
	Status     string        `json:"status"`
	ExpiresAt  *time.Time    `json:"expires_at,omitempty"`
}

// ClaimService 领取令牌的签发、解析与领取
type ClaimService struct {
	ledger       *LedgerService
	txnRepo      repository.GiftTransactionRepository
	userRepo     repository.UserRepository
	claimBaseURL string
}

// NewClaimService 创建领取服务
func NewClaimService(ledger *LedgerService, txnRepo repository.GiftTransactionRepository, userRepo repository.UserRepository, claimBaseURL string) *ClaimService {
	return &ClaimService{
		ledger:       ledger,
		txnRepo:      txnRepo,
		userRepo:     userRepo,
		claimBaseURL: strings.TrimSpace(claimBaseURL),
	}
}

// Issue 为购买记录发起转赠并返回可分享的领取信息
func (s *ClaimService) Issue(senderID int64, purchaseID uint) (*ClaimPreview, error) {
	send, err := s.ledger.CreateSendIntent(senderID, purchaseID)
	if err != nil {
		return nil, err
	}
	preview := s.buildPreview(send)
	preview.Token = *send.ClaimToken
	preview.ClaimURL = s.ClaimURL(*send.ClaimToken)
	return preview, nil
}

// ResolveForSender 赠送者分享前解析令牌，只有发起人能拿到分享信息
func (s *ClaimService) ResolveForSender(senderID int64, token string) (*ClaimPreview, error) {
	send, err := s.pendingSend(token)
	if err != nil {
		return nil, err
	}
	if send.FromUserID != senderID {
		return nil, ErrForbidden
	}
	preview := s.buildPreview(send)
	preview.Token = *send.ClaimToken
	preview.ClaimURL = s.ClaimURL(*send.ClaimToken)
	return preview, nil
}

// Preview 接收者打开链接时展示的转赠信息（不含令牌，仅限待领取）
func (s *ClaimService) Preview(token string) (*ClaimPreview, error) {
	send, err := s.pendingSend(token)
	if err != nil {
		return nil, err
	}
	return s.buildPreview(send), nil
}

// Claim 领取转赠
func (s *ClaimService) Claim(receiverID int64, token string) (*ClaimPreview, error) {
	send, err := s.ledger.Claim(receiverID, token)
	if err != nil {
		return nil, err
	}
	return s.buildPreview(send), nil
}

// ClaimURL 拼接领取链接（Mini App startapp 参数携带令牌）
func (s *ClaimService) ClaimURL(token string) string {
	if s.claimBaseURL == "" || token == "" {
		return ""
	}
	parsed, err := url.Parse(s.claimBaseURL)
	if err != nil {
		return ""
	}
	query := parsed.Query()
	query.Set("startapp", token)
	parsed.RawQuery = query.Encode()
	return parsed.String()
}

func (s *ClaimService) pendingSend(token string) (*models.GiftTransaction, error) {
	send, err := s.txnRepo.GetByClaimToken(token)
	if err != nil {
		return nil, err
	}
	if send == nil || send.Status != constants.TransactionStatusPending || send.Expired(s.ledger.now()) {
		return nil, ErrClaimNotFound
	}
	return send, nil
}

func (s *ClaimService) buildPreview(send *models.GiftTransaction) *ClaimPreview {
	preview := &ClaimPreview{
		SendID:    send.ID,
		Gift:      send.Gift,
		Amount:    send.Amount,
		Asset:     send.Asset,
		SenderID:  send.FromUserID,
		Status:    send.Status,
		ExpiresAt: send.ExpiresAt,
	}
	if s.userRepo != nil {
		if sender, err := s.userRepo.GetByTelegramID(send.FromUserID); err == nil {
			preview.SenderName = sender.DisplayName()
		}
	}
	return preview
}
