package telegram

import (
	"errors"
	"net/url"
	"strconv"
	"testing"
	"time"
)

const testBotToken = "123456:TEST-bot-token"

func buildInitData(t *testing.T, authDate time.Time, user string) string {
	t.Helper()
	values := url.Values{}
	values.Set("query_id", "AAHdF6IQAAAAAN0XohDhrOrc")
	values.Set("user", user)
	values.Set("auth_date", strconv.FormatInt(authDate.Unix(), 10))
	values.Set("hash", SignInitData(values, testBotToken))
	return values.Encode()
}

func TestValidateInitData(t *testing.T) {
	now := time.Now()
	raw := buildInitData(t, now.Add(-time.Minute), `{"id":279058397,"first_name":"Vlad","username":"vdkfrost","language_code":"en"}`)

	data, err := ValidateInitData(raw, testBotToken, time.Hour, now)
	if err != nil {
		t.Fatalf("validate init data failed: %v", err)
	}
	if data.User.ID != 279058397 || data.User.Username != "vdkfrost" {
		t.Fatalf("unexpected user: %+v", data.User)
	}
}

func TestValidateInitDataRejects(t *testing.T) {
	now := time.Now()
	user := `{"id":42,"first_name":"A"}`

	if _, err := ValidateInitData("", testBotToken, time.Hour, now); !errors.Is(err, ErrInitDataMissing) {
		t.Fatalf("expected missing error, got %v", err)
	}

	expired := buildInitData(t, now.Add(-2*time.Hour), user)
	if _, err := ValidateInitData(expired, testBotToken, time.Hour, now); !errors.Is(err, ErrInitDataExpired) {
		t.Fatalf("expected expired error, got %v", err)
	}

	valid := buildInitData(t, now, user)
	if _, err := ValidateInitData(valid, "654321:other-token", time.Hour, now); !errors.Is(err, ErrInitDataSignature) {
		t.Fatalf("expected signature error for other bot, got %v", err)
	}

	values, _ := url.ParseQuery(valid)
	values.Set("user", `{"id":43,"first_name":"A"}`)
	if _, err := ValidateInitData(values.Encode(), testBotToken, time.Hour, now); !errors.Is(err, ErrInitDataSignature) {
		t.Fatalf("expected signature error for tampered user, got %v", err)
	}

	values.Del("hash")
	if _, err := ValidateInitData(values.Encode(), testBotToken, time.Hour, now); !errors.Is(err, ErrInitDataMalformed) {
		t.Fatalf("expected malformed error without hash, got %v", err)
	}
}
