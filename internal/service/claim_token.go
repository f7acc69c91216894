package service

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// claimTokenBytes 领取令牌随机字节数（256 bit）
const claimTokenBytes = 32

// newClaimToken 生成 URL 安全的领取令牌，来源为 crypto/rand
func newClaimToken() (string, error) {
	buf := make([]byte, claimTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate claim token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
