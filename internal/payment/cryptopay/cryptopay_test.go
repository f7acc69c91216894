package cryptopay

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"update_id":1,"update_type":"invoice_paid","payload":{"invoice_id":42}}`)
	token := "12345:AAzQcZWQqQAbsfgPnOLr4FHC8Doa4L7KryC"
	signature := Sign(body, token)

	if err := VerifySignature(body, signature, token); err != nil {
		t.Fatalf("expected signature valid, got %v", err)
	}
	tampered := []byte(`{"update_id":1,"update_type":"invoice_paid","payload":{"invoice_id":43}}`)
	if err := VerifySignature(tampered, signature, token); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("expected tampered body rejected, got %v", err)
	}
	if err := VerifySignature(body, signature, "other-token"); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("expected wrong token rejected, got %v", err)
	}
	if err := VerifySignature(body, "not-hex", token); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("expected malformed signature rejected, got %v", err)
	}
	if err := VerifySignature(body, signature, ""); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("expected empty api token to be config error, got %v", err)
	}
}

func TestVerifyPathToken(t *testing.T) {
	if err := VerifyPathToken("secret-path", "secret-path"); err != nil {
		t.Fatalf("expected path token valid, got %v", err)
	}
	if err := VerifyPathToken("secret-pat", "secret-path"); !errors.Is(err, ErrPathTokenInvalid) {
		t.Fatalf("expected path token mismatch, got %v", err)
	}
	if err := VerifyPathToken("", ""); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("expected unconfigured path token rejected, got %v", err)
	}
}

func TestCreateInvoice(t *testing.T) {
	var captured map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/createInvoice" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get(APITokenHeader) != "api-token" {
			t.Errorf("missing api token header")
		}
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &captured)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"result":{"invoice_id":777,"status":"active","asset":"ETH","amount":"0.01","mini_app_invoice_url":"https://t.me/CryptoBot/app?startapp=invoice-IVx"}}`))
	}))
	defer server.Close()

	client := NewClient(Config{
		BaseURL:       server.URL + "/api/",
		APIToken:      "api-token",
		PaidButtonURL: "https://gifts.example.com/purchase/success/",
	})
	invoice, err := client.CreateInvoice(context.Background(), InvoiceInput{
		Amount:      "0.01",
		Asset:       "eth",
		Description: "Purchasing a Blue Star gift",
		Payload:     "1",
		SuccessID:   "abc",
	})
	if err != nil {
		t.Fatalf("create invoice failed: %v", err)
	}
	if invoice.InvoiceID != 777 {
		t.Fatalf("unexpected invoice id: %d", invoice.InvoiceID)
	}
	if invoice.PayURL() != "https://t.me/CryptoBot/app?startapp=invoice-IVx" {
		t.Fatalf("unexpected pay url: %s", invoice.PayURL())
	}
	if captured["asset"] != "ETH" {
		t.Fatalf("expected asset upper-cased, got %v", captured["asset"])
	}
	if captured["paid_btn_url"] != "https://gifts.example.com/purchase/success/abc" {
		t.Fatalf("unexpected paid button url: %v", captured["paid_btn_url"])
	}
	if captured["allow_anonymous"] != false {
		t.Fatalf("expected allow_anonymous false, got %v", captured["allow_anonymous"])
	}
}

func TestCreateInvoiceGatewayErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get(APITokenHeader) == "bad-token" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"ok":false,"error":{"code":401,"name":"UNAUTHORIZED"}}`))
			return
		}
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, APIToken: "bad-token"})
	_, err := client.CreateInvoice(context.Background(), InvoiceInput{Amount: "1", Asset: "TON"})
	if !errors.Is(err, ErrResponseInvalid) {
		t.Fatalf("expected response invalid, got %v", err)
	}

	client = NewClient(Config{BaseURL: server.URL, APIToken: "good-token"})
	_, err = client.CreateInvoice(context.Background(), InvoiceInput{Amount: "1", Asset: "TON"})
	if !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("expected request failed on 5xx, got %v", err)
	}
}

func TestCreateInvoiceTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, APIToken: "token", Timeout: 50 * time.Millisecond})
	start := time.Now()
	_, err := client.CreateInvoice(context.Background(), InvoiceInput{Amount: "1", Asset: "TON"})
	if !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("expected request failed on timeout, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatalf("expected bounded timeout, took %s", time.Since(start))
	}
}

func TestParseUpdate(t *testing.T) {
	update, err := ParseUpdate([]byte(`{"update_id":9,"update_type":"invoice_paid","request_date":"2024-01-01T00:00:00.000Z","payload":{"invoice_id":55,"status":"paid","amount":"5","asset":"TON"}}`))
	if err != nil {
		t.Fatalf("parse update failed: %v", err)
	}
	if update.UpdateType != UpdateInvoicePaid || update.Payload.InvoiceID != 55 {
		t.Fatalf("unexpected update: %+v", update)
	}
	if _, err := ParseUpdate(nil); !errors.Is(err, ErrResponseInvalid) {
		t.Fatalf("expected empty body rejected, got %v", err)
	}
}
