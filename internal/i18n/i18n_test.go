package i18n

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestResolveLocale(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		name   string
		url    string
		header string
		want   string
	}{
		{"default", "/", "", LocaleEN},
		{"query wins", "/?lang=zh", "en-US", LocaleZhCN},
		{"accept language", "/", "fr-FR, zh-CN;q=0.8", LocaleZhCN},
		{"unknown", "/", "de", LocaleEN},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, tc.url, nil)
			if tc.header != "" {
				c.Request.Header.Set("Accept-Language", tc.header)
			}
			if got := ResolveLocale(c); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestTFallback(t *testing.T) {
	if got := T(LocaleZhCN, "error.claim_self_gift"); got != "不能领取自己赠出的礼物" {
		t.Fatalf("unexpected zh message: %s", got)
	}
	if got := T("xx", "error.claim_self_gift"); got != "You cannot claim your own gift" {
		t.Fatalf("unexpected fallback: %s", got)
	}
	if got := T(LocaleEN, "error.unknown_key"); got != "error.unknown_key" {
		t.Fatalf("expected key fallback, got %s", got)
	}
}

func TestSprintf(t *testing.T) {
	if got := Sprintf(LocaleEN, "error.rate_limited", 30); got != "Too many requests, please retry in 30 seconds" {
		t.Fatalf("unexpected formatted message: %s", got)
	}
}
