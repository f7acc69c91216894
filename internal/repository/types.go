package repository

// GiftTransactionListFilter 后台查询账本交易的过滤条件
type GiftTransactionListFilter struct {
	Page     int
	PageSize int
	Kind     string
	Status   string
	UserID   int64
	GiftID   uint
}
