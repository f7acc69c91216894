package cryptopay

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var (
	ErrConfigInvalid    = errors.New("cryptopay config invalid")
	ErrRequestFailed    = errors.New("cryptopay request failed")
	ErrResponseInvalid  = errors.New("cryptopay response invalid")
	ErrSignatureInvalid = errors.New("cryptopay signature invalid")
	ErrPathTokenInvalid = errors.New("cryptopay webhook path token invalid")
)

// SignatureHeader 回调签名请求头
const SignatureHeader = "Crypto-Pay-Api-Signature"

// APITokenHeader 接口鉴权请求头
const APITokenHeader = "Crypto-Pay-API-Token"

// UpdateInvoicePaid 发票已支付事件
const UpdateInvoicePaid = "invoice_paid"

const (
	defaultBaseURL = "https://pay.crypt.bot/api"
	defaultTimeout = 10 * time.Second
	paidButtonName = "callback"
)

// Config Crypto Pay 配置
type Config struct {
	BaseURL        string        // 接口地址，如 https://pay.crypt.bot/api
	APIToken       string        // API Token（同时是回调签名密钥的来源）
	PaidButtonURL  string        // 支付完成后按钮跳转地址前缀
	Timeout        time.Duration // 单次请求超时
	AllowAnonymous bool          // 是否允许匿名支付
}

// InvoiceInput 创建发票输入
type InvoiceInput struct {
	Amount      string
	Asset       string
	Description string
	Payload     string
	SuccessID   string
}

// Invoice 创建发票结果
type Invoice struct {
	InvoiceID         int64  `json:"invoice_id"`
	Hash              string `json:"hash"`
	Status            string `json:"status"`
	Asset             string `json:"asset"`
	Amount            string `json:"amount"`
	Payload           string `json:"payload"`
	BotInvoiceURL     string `json:"bot_invoice_url"`
	MiniAppInvoiceURL string `json:"mini_app_invoice_url"`
	WebAppInvoiceURL  string `json:"web_app_invoice_url"`
}

// PayURL 优先返回 Mini App 支付链接
func (i *Invoice) PayURL() string {
	if i == nil {
		return ""
	}
	for _, candidate := range []string{i.MiniAppInvoiceURL, i.BotInvoiceURL, i.WebAppInvoiceURL} {
		if strings.TrimSpace(candidate) != "" {
			return candidate
		}
	}
	return ""
}

// Update 回调事件
type Update struct {
	UpdateID    int64   `json:"update_id"`
	UpdateType  string  `json:"update_type"`
	RequestDate string  `json:"request_date"`
	Payload     Invoice `json:"payload"`
}

// Client Crypto Pay 客户端
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient 创建客户端
func NewClient(cfg Config) *Client {
	cfg.normalize()
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// ValidateConfig 校验配置
func ValidateConfig(cfg Config) error {
	if strings.TrimSpace(cfg.APIToken) == "" {
		return fmt.Errorf("%w: api_token is required", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return fmt.Errorf("%w: base_url is required", ErrConfigInvalid)
	}
	return nil
}

func (c *Config) normalize() {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	c.APIToken = strings.TrimSpace(c.APIToken)
	c.PaidButtonURL = strings.TrimRight(strings.TrimSpace(c.PaidButtonURL), "/")
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
}

// CreateInvoice 创建发票
func (c *Client) CreateInvoice(ctx context.Context, input InvoiceInput) (*Invoice, error) {
	if err := ValidateConfig(c.cfg); err != nil {
		return nil, err
	}
	if strings.TrimSpace(input.Amount) == "" || strings.TrimSpace(input.Asset) == "" {
		return nil, fmt.Errorf("%w: amount and asset are required", ErrConfigInvalid)
	}

	params := map[string]interface{}{
		"currency_type":   "crypto",
		"asset":           strings.ToUpper(strings.TrimSpace(input.Asset)),
		"amount":          strings.TrimSpace(input.Amount),
		"description":     input.Description,
		"payload":         input.Payload,
		"allow_anonymous": c.cfg.AllowAnonymous,
	}
	if c.cfg.PaidButtonURL != "" && input.SuccessID != "" {
		params["paid_btn_name"] = paidButtonName
		params["paid_btn_url"] = c.cfg.PaidButtonURL + "/" + input.SuccessID
	}

	respBytes, err := c.postJSON(ctx, "/createInvoice", params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}

	var resp struct {
		OK     bool    `json:"ok"`
		Result Invoice `json:"result"`
		Error  struct {
			Code int    `json:"code"`
			Name string `json:"name"`
		} `json:"error"`
	}
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}
	if !resp.OK {
		return nil, fmt.Errorf("%w: %d %s", ErrResponseInvalid, resp.Error.Code, resp.Error.Name)
	}
	if resp.Result.InvoiceID == 0 {
		return nil, fmt.Errorf("%w: missing invoice_id", ErrResponseInvalid)
	}
	return &resp.Result, nil
}

// Sign 计算回调签名：hex(HMAC-SHA256(key = SHA256(apiToken), message = body))
func Sign(body []byte, apiToken string) string {
	secret := sha256.Sum256([]byte(apiToken))
	mac := hmac.New(sha256.New, secret[:])
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature 校验回调签名（常量时间比较）
func VerifySignature(body []byte, signature, apiToken string) error {
	if strings.TrimSpace(apiToken) == "" {
		return ErrConfigInvalid
	}
	got, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil || len(got) == 0 {
		return ErrSignatureInvalid
	}
	expected, _ := hex.DecodeString(Sign(body, apiToken))
	if !hmac.Equal(got, expected) {
		return ErrSignatureInvalid
	}
	return nil
}

// VerifyPathToken 校验回调地址中的路径令牌（常量时间比较）
func VerifyPathToken(pathToken, expected string) error {
	if strings.TrimSpace(expected) == "" {
		return ErrConfigInvalid
	}
	if subtle.ConstantTimeCompare([]byte(pathToken), []byte(expected)) != 1 {
		return ErrPathTokenInvalid
	}
	return nil
}

// ParseUpdate 解析回调数据
func ParseUpdate(body []byte) (*Update, error) {
	if len(body) == 0 {
		return nil, ErrResponseInvalid
	}
	var update Update
	if err := json.Unmarshal(body, &update); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}
	return &update, nil
}

func (c *Client) postJSON(ctx context.Context, path string, params map[string]interface{}) ([]byte, error) {
	body, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(APITokenHeader, c.cfg.APIToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	// 业务错误同样以 JSON 返回，4xx 交给上层解析 ok=false
	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("http status %d", resp.StatusCode)
	}
	return respBody, nil
}
