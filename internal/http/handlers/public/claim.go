package public

import (
	"strings"

	"github.com/giftledger/internal/http/response"

	"github.com/gin-gonic/gin"
)

// ClaimRequest 领取请求
type ClaimRequest struct {
	Token string `json:"token" binding:"required"`
}

// PreviewClaim 打开领取链接时的预览
func (h *Handler) PreviewClaim(c *gin.Context) {
	token := strings.TrimSpace(c.Param("token"))
	if token == "" {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	preview, err := h.ClaimService.Preview(token)
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	response.Success(c, preview)
}

// Claim 领取礼物
func (h *Handler) Claim(c *gin.Context) {
	userID, ok := getTelegramID(c)
	if !ok {
		return
	}
	var req ClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	result, err := h.ClaimService.Claim(userID, strings.TrimSpace(req.Token))
	if err != nil {
		respondLedgerError(c, err)
		return
	}
	response.Success(c, result)
}
