package admin

import (
	"github.com/giftledger/internal/constants"
	handlershared "github.com/giftledger/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
)

func getAdminID(c *gin.Context) (uint, bool) {
	return handlershared.GetContextUintWithKeys(c, constants.ContextKeyAdminID, "error.unauthorized", "error.internal_error")
}
