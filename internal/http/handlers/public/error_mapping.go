package public

import (
	"errors"

	"github.com/giftledger/internal/http/response"
	"github.com/giftledger/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	key    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackKey string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.key, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackKey, err)
}

// respondLedgerError 账本相关接口统一的错误映射
func respondLedgerError(c *gin.Context, err error) {
	respondWithMappedError(c, err, ledgerErrorRules, response.CodeInternal, "error.internal_error")
}

var ledgerErrorRules = []mappedHandlerError{
	{target: service.ErrInvalidInput, code: response.CodeBadRequest, key: "error.bad_request"},
	{target: service.ErrGiftNotFound, code: response.CodeNotFound, key: "error.gift_not_found"},
	{target: service.ErrTransactionNotFound, code: response.CodeNotFound, key: "error.transaction_not_found"},
	{target: service.ErrClaimNotFound, code: response.CodeNotFound, key: "error.claim_not_found"},
	{target: service.ErrNotFound, code: response.CodeNotFound, key: "error.not_found"},
	{target: service.ErrForbidden, code: response.CodeForbidden, key: "error.transaction_forbidden"},
	{target: service.ErrSelfGift, code: response.CodeForbidden, key: "error.claim_self_gift"},
	{target: service.ErrOutOfStock, code: response.CodeConflict, key: "error.gift_out_of_stock"},
	{target: service.ErrInvalidTransition, code: response.CodeConflict, key: "error.transaction_invalid_step"},
	{target: service.ErrAlreadyInitiated, code: response.CodeConflict, key: "error.send_already_initiated"},
	{target: service.ErrAlreadySent, code: response.CodeConflict, key: "error.send_already_sent"},
	{target: service.ErrAlreadyProcessed, code: response.CodeConflict, key: "error.claim_already_processed"},
	{target: service.ErrGatewayUnavailable, code: response.CodeBadGateway, key: "error.gateway_unavailable"},
}

var telegramAuthErrorRules = []mappedHandlerError{
	{target: service.ErrTelegramAuthExpired, code: response.CodeUnauthorized, key: "error.telegram_auth_expired"},
	{target: service.ErrTelegramAuthInvalid, code: response.CodeUnauthorized, key: "error.telegram_auth_invalid"},
}
