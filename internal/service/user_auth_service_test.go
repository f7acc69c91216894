package service

import (
	"errors"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/giftledger/internal/config"
	"github.com/giftledger/internal/telegram"
)

const testBotToken = "123456:TEST-bot-token"

func signedInitData(authDate time.Time, user string) string {
	values := url.Values{}
	values.Set("query_id", "AAHdF6IQAAAAAN0XohDhrOrc")
	values.Set("user", user)
	values.Set("auth_date", strconv.FormatInt(authDate.Unix(), 10))
	values.Set("hash", telegram.SignInitData(values, testBotToken))
	return values.Encode()
}

func newTestUserAuthService(f *ledgerFixture) *UserAuthService {
	cfg := &config.Config{
		UserJWT:  config.JWTConfig{SecretKey: "user-secret", ExpireHours: 1},
		Telegram: config.TelegramConfig{BotToken: testBotToken, InitDataMaxAgeSecond: 3600},
	}
	return NewUserAuthService(cfg, f.userRepo)
}

func TestLoginWithInitData(t *testing.T) {
	f := newLedgerFixture(t, "auth_init_data")
	svc := newTestUserAuthService(f)

	raw := signedInitData(time.Now().Add(-time.Minute), `{"id":279058397,"first_name":"Vlad","username":"vdkfrost","language_code":"en"}`)
	user, token, expiresAt, err := svc.LoginWithInitData(raw)
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if user.TelegramID != 279058397 || token == "" || !expiresAt.After(time.Now()) {
		t.Fatalf("unexpected login result: %+v %q %v", user, token, expiresAt)
	}

	claims, err := svc.ParseUserJWT(token)
	if err != nil || claims.TelegramID != 279058397 {
		t.Fatalf("parse token failed: %+v err=%v", claims, err)
	}

	stored, err := svc.GetUser(279058397)
	if err != nil || stored.Username != "vdkfrost" || stored.LastLoginAt == nil {
		t.Fatalf("user directory not updated: %+v err=%v", stored, err)
	}

	// 资料变更后再次登录应刷新
	raw = signedInitData(time.Now(), `{"id":279058397,"first_name":"Vladislav","username":"vdkfrost"}`)
	if _, _, _, err := svc.LoginWithInitData(raw); err != nil {
		t.Fatalf("second login failed: %v", err)
	}
	stored, _ = svc.GetUser(279058397)
	if stored.FirstName != "Vladislav" {
		t.Fatalf("expected refreshed first name, got %q", stored.FirstName)
	}
}

func TestLoginWithInitDataRejects(t *testing.T) {
	f := newLedgerFixture(t, "auth_init_data_reject")
	svc := newTestUserAuthService(f)

	expired := signedInitData(time.Now().Add(-2*time.Hour), `{"id":1,"first_name":"A"}`)
	if _, _, _, err := svc.LoginWithInitData(expired); !errors.Is(err, ErrTelegramAuthExpired) {
		t.Fatalf("expected expired, got %v", err)
	}

	tampered := signedInitData(time.Now(), `{"id":1,"first_name":"A"}`)
	values, _ := url.ParseQuery(tampered)
	values.Set("user", `{"id":2,"first_name":"B"}`)
	if _, _, _, err := svc.LoginWithInitData(values.Encode()); !errors.Is(err, ErrTelegramAuthInvalid) {
		t.Fatalf("expected invalid, got %v", err)
	}

	if _, err := svc.ParseUserJWT("not-a-token"); err == nil {
		t.Fatalf("expected parse error")
	}
}
