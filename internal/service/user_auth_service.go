package service

import (
	"errors"
	"time"

	"github.com/giftledger/internal/config"
	"github.com/giftledger/internal/logger"
	"github.com/giftledger/internal/models"
	"github.com/giftledger/internal/repository"
	"github.com/giftledger/internal/telegram"

	"github.com/golang-jwt/jwt/v5"
)

// UserAuthService Mini App 用户认证服务
type UserAuthService struct {
	cfg      *config.Config
	userRepo repository.UserRepository
	now      func() time.Time
}

// NewUserAuthService 创建用户认证服务
func NewUserAuthService(cfg *config.Config, userRepo repository.UserRepository) *UserAuthService {
	return &UserAuthService{
		cfg:      cfg,
		userRepo: userRepo,
		now:      time.Now,
	}
}

// UserJWTClaims 用户 JWT 声明（主体为 Telegram 用户 ID）
type UserJWTClaims struct {
	TelegramID int64  `json:"telegram_id"`
	Username   string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

// GenerateUserJWT 生成用户 JWT Token
func (s *UserAuthService) GenerateUserJWT(user *models.User) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(jwtTTL(s.cfg.UserJWT))
	claims := UserJWTClaims{
		TelegramID: user.TelegramID,
		Username:   user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.cfg.UserJWT.SecretKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseUserJWT 解析用户 JWT Token
func (s *UserAuthService) ParseUserJWT(tokenString string) (*UserJWTClaims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &UserJWTClaims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.UserJWT.SecretKey), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.TelegramID == 0 {
		return nil, ErrUnauthorized
	}
	return claims, nil
}

// AuthenticateInitData 校验 Mini App initData 并同步用户资料
func (s *UserAuthService) AuthenticateInitData(raw string) (*models.User, error) {
	data, err := telegram.ValidateInitData(raw, s.cfg.Telegram.BotToken, s.cfg.Telegram.InitDataMaxAge(), s.now())
	if err != nil {
		if errors.Is(err, telegram.ErrInitDataExpired) {
			return nil, ErrTelegramAuthExpired
		}
		logger.Warnw("telegram_init_data_rejected", "error", err)
		return nil, ErrTelegramAuthInvalid
	}
	if data.User.ID == 0 {
		return nil, ErrTelegramAuthInvalid
	}

	now := s.now()
	user := &models.User{
		TelegramID:   data.User.ID,
		Username:     data.User.Username,
		FirstName:    data.User.FirstName,
		LastName:     data.User.LastName,
		LanguageCode: data.User.LanguageCode,
		IsPremium:    data.User.IsPremium,
		LastLoginAt:  &now,
	}
	if err := s.userRepo.Upsert(user); err != nil {
		return nil, err
	}
	return user, nil
}

// LoginWithInitData 使用 initData 登录并签发用户 Token
func (s *UserAuthService) LoginWithInitData(raw string) (*models.User, string, time.Time, error) {
	user, err := s.AuthenticateInitData(raw)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	token, expiresAt, err := s.GenerateUserJWT(user)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	logger.Infow("telegram_user_login", "telegram_id", user.TelegramID)
	return user, token, expiresAt, nil
}

// GetUser 获取用户资料
func (s *UserAuthService) GetUser(telegramID int64) (*models.User, error) {
	user, err := s.userRepo.GetByTelegramID(telegramID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return user, nil
}
