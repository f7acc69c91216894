package public

import (
	"strings"

	"github.com/giftledger/internal/http/response"

	"github.com/gin-gonic/gin"
)

// TelegramLoginRequest Mini App 登录请求
type TelegramLoginRequest struct {
	InitData string `json:"init_data" binding:"required"`
}

// TelegramLogin 使用 Mini App initData 换取用户 Token
func (h *Handler) TelegramLogin(c *gin.Context) {
	var req TelegramLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	user, token, expiresAt, err := h.UserAuthService.LoginWithInitData(strings.TrimSpace(req.InitData))
	if err != nil {
		respondWithMappedError(c, err, telegramAuthErrorRules, response.CodeInternal, "error.internal_error")
		return
	}
	response.Success(c, gin.H{
		"user":       user,
		"token":      token,
		"expires_at": expiresAt,
	})
}
