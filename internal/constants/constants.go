package constants

// 礼物交易类型常量
const (
	TransactionKindPurchase = "purchase"
	TransactionKindSend     = "send"
)

// 礼物交易状态常量
const (
	TransactionStatusPending = "pending"
	TransactionStatusSuccess = "success"
	TransactionStatusFailed  = "failed"
)

// Crypto Pay 回调事件类型
const (
	CryptoPayUpdateInvoicePaid = "invoice_paid"
)

// 通知动作类型
const (
	NotifyActionOpenGifts = "open_gifts"
	NotifyActionOpenApp   = "open_app"
	NotifyActionViewGift  = "view_gift"
)

// 上下文键
const (
	ContextKeyUserID     = "user_id"
	ContextKeyTelegramID = "telegram_id"
	ContextKeyAdminID    = "admin_id"
	ContextKeyUsername   = "username"
	ContextKeyRequestID  = "request_id"
)

// 队列与任务常量
const (
	QueueDefault       = "default"
	QueueCritical      = "critical"
	TaskGiftNotify     = "gift:notify"
	TaskGiftSendExpire = "gift:send_expire"
)
