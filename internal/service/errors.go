package service

import "errors"

// 通用错误
var (
	ErrNotFound           = errors.New("resource not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidInput       = errors.New("invalid input")
	ErrUnauthorized       = errors.New("unauthorized")
)

// 目录错误
var (
	ErrGiftNotFound       = errors.New("gift not found")
	ErrGiftNameExists     = errors.New("gift name already exists")
	ErrGiftInvalid        = errors.New("gift definition invalid")
	ErrGiftStockBelowSold = errors.New("gift stock below purchased quantity")
	ErrOutOfStock         = errors.New("gift out of stock")
)

// 账本状态机错误
var (
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidTransition   = errors.New("invalid transition from terminal state")
	ErrAlreadyInitiated    = errors.New("send already initiated for this purchase")
	ErrAlreadySent         = errors.New("purchase already sent")
	ErrAlreadyProcessed    = errors.New("claim already processed")
	ErrSelfGift            = errors.New("cannot claim own gift")
	ErrClaimNotFound       = errors.New("claim token not found")
	ErrLedgerWriteFailed   = errors.New("ledger write failed")
)

// 支付桥接错误
var (
	ErrGatewayUnavailable    = errors.New("payment gateway unavailable")
	ErrWebhookUnauthorized   = errors.New("webhook verification failed")
	ErrWebhookPayloadInvalid = errors.New("webhook payload invalid")
	ErrInvoiceAlreadyIssued  = errors.New("invoice already issued")
)

// 通知错误（仅记录，不向调用方返回）
var (
	ErrDeliveryFailed = errors.New("notification delivery failed")
)

// 登录错误
var (
	ErrTelegramAuthInvalid = errors.New("telegram auth invalid")
	ErrTelegramAuthExpired = errors.New("telegram auth expired")
)
