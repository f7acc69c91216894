package admin

import (
	"errors"

	handlershared "github.com/giftledger/internal/http/handlers/shared"
	"github.com/giftledger/internal/http/response"
	"github.com/giftledger/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func requestLog(c *gin.Context) *zap.SugaredLogger {
	return handlershared.RequestLog(c)
}

func respondError(c *gin.Context, code int, key string, err error) {
	handlershared.RespondError(c, code, key, err)
}

// respondGiftError 礼物定义维护的错误映射
func respondGiftError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrGiftNotFound):
		respondError(c, response.CodeNotFound, "error.gift_not_found", nil)
	case errors.Is(err, service.ErrGiftInvalid):
		respondError(c, response.CodeBadRequest, "error.gift_invalid", nil)
	case errors.Is(err, service.ErrGiftNameExists):
		respondError(c, response.CodeConflict, "error.gift_name_exists", nil)
	case errors.Is(err, service.ErrGiftStockBelowSold):
		respondError(c, response.CodeBadRequest, "error.gift_stock_below_sold", nil)
	default:
		respondError(c, response.CodeInternal, "error.internal_error", err)
	}
}
