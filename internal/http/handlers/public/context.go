package public

import (
	"github.com/giftledger/internal/constants"
	handlershared "github.com/giftledger/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func requestLog(c *gin.Context) *zap.SugaredLogger {
	return handlershared.RequestLog(c)
}

func respondError(c *gin.Context, code int, key string, err error) {
	handlershared.RespondError(c, code, key, err)
}

// getTelegramID 当前登录用户的 Telegram ID（账本中的用户标识）
func getTelegramID(c *gin.Context) (int64, bool) {
	return handlershared.GetContextInt64(c, constants.ContextKeyTelegramID)
}

func parseIDParam(c *gin.Context, name string) (uint, bool) {
	return handlershared.ParseUintParam(c, name)
}
