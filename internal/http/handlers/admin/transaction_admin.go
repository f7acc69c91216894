package admin

import (
	"strconv"
	"strings"

	handlershared "github.com/giftledger/internal/http/handlers/shared"
	"github.com/giftledger/internal/http/response"
	"github.com/giftledger/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListTransactions 账本流水（分页，可按类型/状态/用户/礼物过滤）
func (h *Handler) ListTransactions(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	filter := repository.GiftTransactionListFilter{
		Page:     page,
		PageSize: pageSize,
		Kind:     strings.TrimSpace(c.Query("kind")),
		Status:   strings.TrimSpace(c.Query("status")),
	}
	if raw := strings.TrimSpace(c.Query("user_id")); raw != "" {
		userID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			respondError(c, response.CodeBadRequest, "error.bad_request", nil)
			return
		}
		filter.UserID = userID
	}
	if raw := strings.TrimSpace(c.Query("gift_id")); raw != "" {
		giftID, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			respondError(c, response.CodeBadRequest, "error.bad_request", nil)
			return
		}
		filter.GiftID = uint(giftID)
	}

	items, total, err := h.LedgerQueryService.ListAdmin(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal_error", err)
		return
	}
	response.SuccessWithPage(c, items, response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	})
}
