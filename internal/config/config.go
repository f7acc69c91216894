package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/giftledger/internal/logger"

	"github.com/spf13/viper"
)

// Config 应用配置结构
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Database  DatabaseConfig  `mapstructure:"database"`
	AdminJWT  JWTConfig       `mapstructure:"admin_jwt"`
	UserJWT   JWTConfig       `mapstructure:"user_jwt"`
	Admin     AdminConfig     `mapstructure:"admin"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	CryptoPay CryptoPayConfig `mapstructure:"cryptopay"`
	Gift      GiftConfig      `mapstructure:"gift"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Queue     QueueConfig     `mapstructure:"queue"`
	CORS      CORSConfig      `mapstructure:"cors"`
	Security  SecurityConfig  `mapstructure:"security"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug / release
}

// LogConfig 日志配置
type LogConfig struct {
	Dir        string `mapstructure:"dir"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
	Console    bool   `mapstructure:"console"`
}

// ToLoggerOptions 转换为 logger 配置
func (c LogConfig) ToLoggerOptions() logger.Options {
	return logger.Options{
		Service:    "giftledger",
		Dir:        c.Dir,
		Filename:   c.Filename,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
		Compress:   c.Compress,
		Console:    c.Console,
	}
}

// DatabasePoolConfig 数据库连接池配置
type DatabasePoolConfig struct {
	MaxOpenConns           int `mapstructure:"max_open_conns"`
	MaxIdleConns           int `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeSeconds int `mapstructure:"conn_max_lifetime_seconds"`
	ConnMaxIdleTimeSeconds int `mapstructure:"conn_max_idle_time_seconds"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver string             `mapstructure:"driver"` // 数据库驱动（sqlite/postgres）
	DSN    string             `mapstructure:"dsn"`    // 数据库连接串
	Pool   DatabasePoolConfig `mapstructure:"pool"`
}

// JWTConfig JWT 配置
type JWTConfig struct {
	SecretKey   string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

// AdminConfig 默认管理员配置
type AdminConfig struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// TelegramConfig Telegram 机器人与 Mini App 配置
type TelegramConfig struct {
	BotToken             string `mapstructure:"bot_token"`
	BotUsername          string `mapstructure:"bot_username"`
	MiniAppURL           string `mapstructure:"mini_app_url"`
	InitDataMaxAgeSecond int    `mapstructure:"init_data_max_age_seconds"`
	BotEnabled           bool   `mapstructure:"bot_enabled"`
	PollTimeoutSeconds   int    `mapstructure:"poll_timeout_seconds"`
	SendTimeoutSeconds   int    `mapstructure:"send_timeout_seconds"`
}

// InitDataMaxAge 返回 initData 最大有效期
func (c TelegramConfig) InitDataMaxAge() time.Duration {
	if c.InitDataMaxAgeSecond <= 0 {
		return time.Hour
	}
	return time.Duration(c.InitDataMaxAgeSecond) * time.Second
}

// CryptoPayConfig Crypto Pay 网关配置
type CryptoPayConfig struct {
	BaseURL               string `mapstructure:"base_url"`
	APIToken              string `mapstructure:"api_token"`
	WebhookToken          string `mapstructure:"webhook_token"`
	PaidButtonURL         string `mapstructure:"paid_button_url"`
	RequestTimeoutSeconds int    `mapstructure:"request_timeout_seconds"`
	AllowAnonymous        bool   `mapstructure:"allow_anonymous"`
}

// RequestTimeout 返回网关请求超时
func (c CryptoPayConfig) RequestTimeout() time.Duration {
	if c.RequestTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// GiftConfig 礼物业务配置
type GiftConfig struct {
	ClaimTTLMinutes         int    `mapstructure:"claim_ttl_minutes"`
	ClaimBaseURL            string `mapstructure:"claim_base_url"`
	RecentForGiftLimit      int    `mapstructure:"recent_for_gift_limit"`
	RecentForUserLimit      int    `mapstructure:"recent_for_user_limit"`
	ExpireSweepIntervalSecs int    `mapstructure:"expire_sweep_interval_seconds"`
	CatalogCacheTTLSeconds  int    `mapstructure:"catalog_cache_ttl_seconds"`
}

// ClaimTTL 返回领取链接有效期
func (c GiftConfig) ClaimTTL() time.Duration {
	if c.ClaimTTLMinutes <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.ClaimTTLMinutes) * time.Minute
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// QueueConfig 异步队列配置
type QueueConfig struct {
	Enabled     bool           `mapstructure:"enabled"`
	Host        string         `mapstructure:"host"`
	Port        int            `mapstructure:"port"`
	Password    string         `mapstructure:"password"`
	DB          int            `mapstructure:"db"`
	Concurrency int            `mapstructure:"concurrency"`
	Queues      map[string]int `mapstructure:"queues"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	LoginRateLimit RateLimitConfig `mapstructure:"login_rate_limit"`
	ClaimRateLimit RateLimitConfig `mapstructure:"claim_rate_limit"`
}

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	WindowSeconds int `mapstructure:"window_seconds"`
	MaxAttempts   int `mapstructure:"max_attempts"`
	BlockSeconds  int `mapstructure:"block_seconds"`
}

// MetricsConfig 指标暴露配置
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load 从 config.yml 加载配置
func Load() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")     // 从当前目录查找
	viper.AddConfigPath("../")   // 如果从 cmd/server 运行
	viper.AddConfigPath("./etc") // etc 文件夹

	setDefaults()

	// 环境变量支持
	viper.AutomaticEnv()                                   // 自动读取环境变量
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // 将 . 替换为 _ (例如 server.port -> SERVER_PORT)

	if err := viper.ReadInConfig(); err != nil {
		logger.Warnw("config_file_read_failed",
			"error", err,
			"fallback", "env_or_defaults",
		)
	} else {
		logger.Infow("config_file_loaded", "file", viper.ConfigFileUsed())
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		logger.Errorw("config_unmarshal_failed", "error", err)
		panic(fmt.Errorf("配置解析失败: %w", err))
	}

	return &cfg
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("log.dir", "")
	viper.SetDefault("log.filename", "giftledger.log")
	viper.SetDefault("log.max_size_mb", 100)
	viper.SetDefault("log.max_backups", 7)
	viper.SetDefault("log.max_age_days", 30)
	viper.SetDefault("log.compress", true)
	viper.SetDefault("log.console", false)
	viper.SetDefault("database.driver", "sqlite")
	viper.SetDefault("database.dsn", "./db/giftledger.db")
	viper.SetDefault("database.pool.max_open_conns", 1)
	viper.SetDefault("database.pool.max_idle_conns", 1)
	viper.SetDefault("database.pool.conn_max_lifetime_seconds", 0)
	viper.SetDefault("database.pool.conn_max_idle_time_seconds", 0)
	viper.SetDefault("admin_jwt.secret", "admin-change-me-in-production")
	viper.SetDefault("admin_jwt.expire_hours", 24)
	viper.SetDefault("user_jwt.secret", "user-change-me-in-production")
	viper.SetDefault("user_jwt.expire_hours", 24)
	viper.SetDefault("admin.username", "admin")
	viper.SetDefault("admin.password", "")
	viper.SetDefault("telegram.bot_token", "")
	viper.SetDefault("telegram.bot_username", "")
	viper.SetDefault("telegram.mini_app_url", "")
	viper.SetDefault("telegram.init_data_max_age_seconds", 3600)
	viper.SetDefault("telegram.bot_enabled", false)
	viper.SetDefault("telegram.poll_timeout_seconds", 60)
	viper.SetDefault("telegram.send_timeout_seconds", 10)
	viper.SetDefault("cryptopay.base_url", "https://pay.crypt.bot/api")
	viper.SetDefault("cryptopay.api_token", "")
	viper.SetDefault("cryptopay.webhook_token", "")
	viper.SetDefault("cryptopay.paid_button_url", "")
	viper.SetDefault("cryptopay.request_timeout_seconds", 10)
	viper.SetDefault("cryptopay.allow_anonymous", false)
	viper.SetDefault("gift.claim_ttl_minutes", 1440)
	viper.SetDefault("gift.claim_base_url", "")
	viper.SetDefault("gift.recent_for_gift_limit", 10)
	viper.SetDefault("gift.recent_for_user_limit", 20)
	viper.SetDefault("gift.expire_sweep_interval_seconds", 60)
	viper.SetDefault("gift.catalog_cache_ttl_seconds", 30)
	viper.SetDefault("redis.enabled", true)
	viper.SetDefault("redis.host", "127.0.0.1")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.prefix", "gl")
	viper.SetDefault("queue.enabled", true)
	viper.SetDefault("queue.host", "127.0.0.1")
	viper.SetDefault("queue.port", 6379)
	viper.SetDefault("queue.password", "")
	viper.SetDefault("queue.db", 1)
	viper.SetDefault("queue.concurrency", 10)
	viper.SetDefault("queue.queues", map[string]int{
		"default":  10,
		"critical": 5,
	})
	viper.SetDefault("cors.allowed_origins", []string{"*"})
	viper.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	viper.SetDefault("cors.allowed_headers", []string{
		"Content-Type",
		"Content-Length",
		"Accept-Encoding",
		"Authorization",
		"Cache-Control",
		"X-Requested-With",
	})
	viper.SetDefault("cors.allow_credentials", true)
	viper.SetDefault("cors.max_age", 600)
	viper.SetDefault("security.login_rate_limit.window_seconds", 300)
	viper.SetDefault("security.login_rate_limit.max_attempts", 5)
	viper.SetDefault("security.login_rate_limit.block_seconds", 900)
	viper.SetDefault("security.claim_rate_limit.window_seconds", 60)
	viper.SetDefault("security.claim_rate_limit.max_attempts", 20)
	viper.SetDefault("security.claim_rate_limit.block_seconds", 300)
	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.path", "/metrics")
}
