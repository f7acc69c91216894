package telegram

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

var (
	ErrInitDataMissing   = errors.New("telegram init data missing")
	ErrInitDataMalformed = errors.New("telegram init data malformed")
	ErrInitDataSignature = errors.New("telegram init data signature invalid")
	ErrInitDataExpired   = errors.New("telegram init data expired")
)

const webAppDataKey = "WebAppData"

// WebAppUser Mini App 传入的用户信息
type WebAppUser struct {
	ID           int64  `json:"id"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Username     string `json:"username"`
	LanguageCode string `json:"language_code"`
	IsPremium    bool   `json:"is_premium"`
}

// InitData 校验通过的 Mini App 启动数据
type InitData struct {
	QueryID    string
	User       WebAppUser
	AuthDate   time.Time
	StartParam string
	Hash       string
}

// ValidateInitData 校验 Mini App initData 签名与有效期
// secret = HMAC_SHA256(key="WebAppData", botToken)
// hash   = hex(HMAC_SHA256(key=secret, data_check_string))
func ValidateInitData(raw, botToken string, maxAge time.Duration, now time.Time) (*InitData, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrInitDataMissing
	}
	if strings.TrimSpace(botToken) == "" {
		return nil, fmt.Errorf("%w: bot token not configured", ErrInitDataSignature)
	}
	values, err := url.ParseQuery(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInitDataMalformed, err)
	}
	hash := values.Get("hash")
	if hash == "" {
		return nil, fmt.Errorf("%w: hash missing", ErrInitDataMalformed)
	}

	expected := SignInitData(values, botToken)
	got, err := hex.DecodeString(hash)
	if err != nil {
		return nil, ErrInitDataSignature
	}
	want, _ := hex.DecodeString(expected)
	if !hmac.Equal(got, want) {
		return nil, ErrInitDataSignature
	}

	authUnix, err := strconv.ParseInt(values.Get("auth_date"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: auth_date invalid", ErrInitDataMalformed)
	}
	authDate := time.Unix(authUnix, 0)
	if maxAge > 0 && now.Sub(authDate) > maxAge {
		return nil, ErrInitDataExpired
	}

	data := &InitData{
		QueryID:    values.Get("query_id"),
		AuthDate:   authDate,
		StartParam: values.Get("start_param"),
		Hash:       hash,
	}
	if rawUser := values.Get("user"); rawUser != "" {
		if err := json.Unmarshal([]byte(rawUser), &data.User); err != nil {
			return nil, fmt.Errorf("%w: user invalid", ErrInitDataMalformed)
		}
	}
	if data.User.ID == 0 {
		return nil, fmt.Errorf("%w: user missing", ErrInitDataMalformed)
	}
	return data, nil
}

// SignInitData 计算 initData 的 hash（忽略 hash 字段本身）
func SignInitData(values url.Values, botToken string) string {
	keys := make([]string, 0, len(values))
	for key := range values {
		if key == "hash" {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, key+"="+values.Get(key))
	}
	dataCheckString := strings.Join(pairs, "\n")

	secretMac := hmac.New(sha256.New, []byte(webAppDataKey))
	secretMac.Write([]byte(botToken))
	secret := secretMac.Sum(nil)

	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(dataCheckString))
	return hex.EncodeToString(mac.Sum(nil))
}
