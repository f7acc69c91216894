package router

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/giftledger/internal/config"
	"github.com/giftledger/internal/constants"
	"github.com/giftledger/internal/http/response"
	"github.com/giftledger/internal/i18n"
	"github.com/giftledger/internal/logger"
	"github.com/giftledger/internal/models"
	"github.com/giftledger/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const requestIDKey = constants.ContextKeyRequestID
const requestIDHeader = "X-Request-ID"

// Mini App 直接携带 initData 时使用的鉴权方案
const telegramAuthScheme = "tma"

// CORSMiddleware 跨域中间件
func CORSMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	allowedMethods := cfg.AllowedMethods
	if len(allowedMethods) == 0 {
		allowedMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	}
	allowedHeaders := cfg.AllowedHeaders
	if len(allowedHeaders) == 0 {
		allowedHeaders = []string{
			"Content-Type",
			"Accept-Language",
			"Content-Length",
			"Accept-Encoding",
			"Authorization",
			"Cache-Control",
			"X-Requested-With",
			"X-CSRF-Token",
		}
	}
	methodsHeader := strings.Join(allowedMethods, ", ")
	headersHeader := strings.Join(allowedHeaders, ", ")

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		allowedOrigin := resolveAllowedOrigin(origin, allowedOrigins, cfg.AllowCredentials)
		if allowedOrigin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", allowedOrigin)
			if allowedOrigin != "*" {
				c.Writer.Header().Add("Vary", "Origin")
			}
		}
		if cfg.AllowCredentials {
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		}
		c.Writer.Header().Set("Access-Control-Allow-Headers", headersHeader)
		c.Writer.Header().Set("Access-Control-Allow-Methods", methodsHeader)
		if cfg.MaxAge > 0 {
			c.Writer.Header().Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
		}

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

func resolveAllowedOrigin(origin string, allowedOrigins []string, allowCredentials bool) string {
	if len(allowedOrigins) == 0 {
		return ""
	}
	for _, allowed := range allowedOrigins {
		if allowed == "*" {
			if allowCredentials && origin != "" {
				return origin
			}
			return "*"
		}
	}
	if origin == "" {
		return ""
	}
	for _, allowed := range allowedOrigins {
		if strings.EqualFold(allowed, origin) {
			return origin
		}
	}
	return ""
}

// RequestIDMiddleware 请求 ID 中间件
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Writer.Header().Set(requestIDHeader, requestID)
		c.Next()
	}
}

// LoggerMiddleware 结构化请求日志中间件
func LoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.L()
	}
	sugar := logger.Sugar()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log := sugar.With(
			"request_id", getRequestID(c),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		)
		if len(c.Errors) > 0 {
			log.Errorw("request", "errors", c.Errors.String())
			return
		}
		log.Infow("request")
	}
}

func getRequestID(c *gin.Context) string {
	value, ok := c.Get(requestIDKey)
	if !ok {
		return ""
	}
	if requestID, ok := value.(string); ok {
		return requestID
	}
	return ""
}

// AdminAuthenticator 管理员 Token 校验
type AdminAuthenticator interface {
	Authenticate(tokenString string) (*models.Admin, error)
}

// UserAuthenticator 用户 Token 与 initData 校验
type UserAuthenticator interface {
	ParseUserJWT(tokenString string) (*service.UserJWTClaims, error)
	AuthenticateInitData(raw string) (*models.User, error)
}

// JWTAuthMiddleware 管理员 JWT 鉴权中间件
func JWTAuthMiddleware(auth AdminAuthenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if auth == nil {
			abortUnauthorized(c, "error.token_invalid")
			return
		}
		scheme, credential, ok := splitAuthorization(c)
		if !ok {
			return
		}
		if scheme != "Bearer" {
			abortUnauthorized(c, "error.auth_header_invalid")
			return
		}
		admin, err := auth.Authenticate(credential)
		if err != nil || admin == nil {
			if err != nil && !errors.Is(err, service.ErrUnauthorized) {
				logger.Warnw("admin_token_check_failed", "error", err)
			}
			abortUnauthorized(c, "error.token_invalid")
			return
		}

		c.Set(constants.ContextKeyAdminID, admin.ID)
		c.Set(constants.ContextKeyUsername, admin.Username)
		c.Next()
	}
}

// UserAuthMiddleware 用户鉴权中间件
// 支持 "Bearer <用户 JWT>" 与 "tma <initData>" 两种方式。
func UserAuthMiddleware(auth UserAuthenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if auth == nil {
			abortUnauthorized(c, "error.token_invalid")
			return
		}
		scheme, credential, ok := splitAuthorization(c)
		if !ok {
			return
		}

		switch {
		case scheme == "Bearer":
			claims, err := auth.ParseUserJWT(credential)
			if err != nil || claims == nil || claims.TelegramID == 0 {
				abortUnauthorized(c, "error.token_invalid")
				return
			}
			c.Set(constants.ContextKeyTelegramID, claims.TelegramID)
			c.Set(constants.ContextKeyUsername, claims.Username)
		case strings.EqualFold(scheme, telegramAuthScheme):
			user, err := auth.AuthenticateInitData(credential)
			if err != nil {
				key := "error.telegram_auth_invalid"
				if errors.Is(err, service.ErrTelegramAuthExpired) {
					key = "error.telegram_auth_expired"
				} else if !errors.Is(err, service.ErrTelegramAuthInvalid) {
					logger.Errorw("telegram_init_data_auth_failed", "error", err)
				}
				abortUnauthorized(c, key)
				return
			}
			c.Set(constants.ContextKeyTelegramID, user.TelegramID)
			c.Set(constants.ContextKeyUsername, user.Username)
		default:
			abortUnauthorized(c, "error.auth_header_invalid")
			return
		}
		c.Next()
	}
}

func splitAuthorization(c *gin.Context) (string, string, bool) {
	authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
	if authHeader == "" {
		abortUnauthorized(c, "error.auth_header_missing")
		return "", "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.TrimSpace(parts[1]) == "" {
		abortUnauthorized(c, "error.auth_header_invalid")
		return "", "", false
	}
	return parts[0], strings.TrimSpace(parts[1]), true
}

func abortUnauthorized(c *gin.Context, key string) {
	msg := i18n.T(i18n.ResolveLocale(c), key)
	response.Unauthorized(c, msg)
	c.Abort()
}
