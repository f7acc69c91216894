package i18n

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	LocaleEN   = "en"
	LocaleZhCN = "zh-CN"
)

// DefaultLocale 默认语言
const DefaultLocale = LocaleEN

var messages = map[string]map[string]string{
	LocaleEN: {
		"error.bad_request":              "Invalid request",
		"error.unauthorized":             "Unauthorized",
		"error.forbidden":                "Forbidden",
		"error.not_found":                "Not found",
		"error.internal_error":           "Internal server error",
		"error.too_many_requests":        "Too many requests, please try again later",
		"error.rate_limited":             "Too many requests, please retry in %d seconds",
		"error.rate_limit_unavailable":   "Rate limiter unavailable",
		"error.auth_header_missing":      "Authorization header is missing",
		"error.auth_header_invalid":      "Authorization header is malformed",
		"error.token_invalid":            "Token is invalid or expired",
		"error.login_failed":             "Invalid username or password",
		"error.telegram_auth_invalid":    "Telegram authorization is invalid",
		"error.telegram_auth_expired":    "Telegram authorization has expired",
		"error.gift_not_found":           "Gift not found",
		"error.gift_invalid":             "Gift definition is invalid",
		"error.gift_name_exists":         "A gift with this name already exists",
		"error.gift_stock_below_sold":    "Stock cannot be lower than the quantity already purchased",
		"error.gift_out_of_stock":        "This gift is sold out",
		"error.transaction_not_found":    "Transaction not found",
		"error.transaction_forbidden":    "This transaction does not belong to you",
		"error.transaction_invalid_step": "This transaction can no longer change",
		"error.send_already_initiated":   "This gift is already waiting to be claimed",
		"error.send_already_sent":        "This gift has already been sent",
		"error.claim_not_found":          "Gift link not found",
		"error.claim_already_processed":  "This gift has already been claimed or is no longer available",
		"error.claim_self_gift":          "You cannot claim your own gift",
		"error.gateway_unavailable":      "Payment provider is unavailable, please retry",
		"error.webhook_unauthorized":     "Webhook verification failed",
		"error.webhook_payload_invalid":  "Webhook payload is invalid",
	},
	LocaleZhCN: {
		"error.bad_request":              "请求参数错误",
		"error.unauthorized":             "未登录或登录已失效",
		"error.forbidden":                "无权限",
		"error.not_found":                "资源不存在",
		"error.internal_error":           "服务器内部错误",
		"error.too_many_requests":        "请求过于频繁，请稍后再试",
		"error.rate_limited":             "请求过于频繁，请在 %d 秒后重试",
		"error.rate_limit_unavailable":   "限流服务不可用",
		"error.auth_header_missing":      "缺少 Authorization 请求头",
		"error.auth_header_invalid":      "Authorization 请求头格式错误",
		"error.token_invalid":            "登录凭证无效或已过期",
		"error.login_failed":             "用户名或密码错误",
		"error.telegram_auth_invalid":    "Telegram 授权无效",
		"error.telegram_auth_expired":    "Telegram 授权已过期",
		"error.gift_not_found":           "礼物不存在",
		"error.gift_invalid":             "礼物信息不合法",
		"error.gift_name_exists":         "礼物名称已存在",
		"error.gift_stock_below_sold":    "库存不能低于已售数量",
		"error.gift_out_of_stock":        "礼物已售罄",
		"error.transaction_not_found":    "交易不存在",
		"error.transaction_forbidden":    "无权操作该交易",
		"error.transaction_invalid_step": "交易已结束，无法变更",
		"error.send_already_initiated":   "该礼物已在等待领取",
		"error.send_already_sent":        "该礼物已赠出",
		"error.claim_not_found":          "礼物链接不存在",
		"error.claim_already_processed":  "礼物已被领取或已失效",
		"error.claim_self_gift":          "不能领取自己赠出的礼物",
		"error.gateway_unavailable":      "支付服务暂不可用，请稍后重试",
		"error.webhook_unauthorized":     "回调校验失败",
		"error.webhook_payload_invalid":  "回调数据不合法",
	},
}

// ResolveLocale 从 query 参数 lang 或 Accept-Language 解析语言
func ResolveLocale(c *gin.Context) string {
	if c == nil {
		return DefaultLocale
	}
	if locale := normalize(c.Query("lang")); locale != "" {
		return locale
	}
	header := c.GetHeader("Accept-Language")
	for _, part := range strings.Split(header, ",") {
		tag := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		if locale := normalize(tag); locale != "" {
			return locale
		}
	}
	return DefaultLocale
}

// T 翻译消息 key，缺失时回退到默认语言，再回退到 key 本身
func T(locale, key string) string {
	if table, ok := messages[locale]; ok {
		if msg, ok := table[key]; ok {
			return msg
		}
	}
	if msg, ok := messages[DefaultLocale][key]; ok {
		return msg
	}
	return key
}

// Sprintf 翻译带格式化参数的消息
func Sprintf(locale, key string, args ...interface{}) string {
	return fmt.Sprintf(T(locale, key), args...)
}

func normalize(tag string) string {
	lower := strings.ToLower(strings.TrimSpace(tag))
	switch {
	case lower == "":
		return ""
	case strings.HasPrefix(lower, "zh"):
		return LocaleZhCN
	case strings.HasPrefix(lower, "en"):
		return LocaleEN
	default:
		return ""
	}
}
