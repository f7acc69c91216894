package public

import "github.com/giftledger/internal/provider"

// Handler Mini App 与公开接口处理器入口
// 说明：该处理器用于公开查询、用户侧 API 与支付回调。
type Handler struct {
	*provider.Container
}

// New 创建前台处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
