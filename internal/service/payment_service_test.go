package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/giftledger/internal/constants"
	"github.com/giftledger/internal/payment/cryptopay"
)

func TestRequestInvoiceGatewayUnavailableKeepsPending(t *testing.T) {
	f := newLedgerFixture(t, "payment_gateway_down")
	gift := f.createGift(t, "Blue Star", 1)
	f.gateway.err = fmt.Errorf("%w: dial tcp: i/o timeout", cryptopay.ErrRequestFailed)

	purchase, err := f.payment.Purchase(context.Background(), 1, gift.ID)
	if !errors.Is(err, ErrGatewayUnavailable) {
		t.Fatalf("expected gateway unavailable, got %v", err)
	}
	if purchase == nil || purchase.Status != constants.TransactionStatusPending || purchase.ExternalInvoiceID != nil {
		t.Fatalf("purchase must stay pending without invoice, got %+v", purchase)
	}

	f.gateway.err = nil
	retried, err := f.payment.RetryInvoice(context.Background(), 1, purchase.ID)
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if retried.ExternalInvoiceID == nil || retried.PayURL == "" {
		t.Fatalf("expected invoice after retry, got %+v", retried)
	}

	again, err := f.payment.RetryInvoice(context.Background(), 1, purchase.ID)
	if err != nil || *again.ExternalInvoiceID != *retried.ExternalInvoiceID {
		t.Fatalf("issued invoice must be reused, got %+v err=%v", again, err)
	}
	if f.gateway.calls != 2 {
		t.Fatalf("expected 2 gateway calls, got %d", f.gateway.calls)
	}
	if _, err := f.payment.RetryInvoice(context.Background(), 2, purchase.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden for other user, got %v", err)
	}
}

func TestRequestInvoiceRejectsSettledPurchase(t *testing.T) {
	f := newLedgerFixture(t, "payment_settled")
	gift := f.createGift(t, "Blue Star", 1)
	purchase := f.paidPurchase(t, 1, gift.ID)
	if _, err := f.payment.RetryInvoice(context.Background(), 1, purchase.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
}

func buildPaidUpdate(invoiceID int64, updateType string) []byte {
	return []byte(fmt.Sprintf(`{"update_id":%d,"update_type":"%s","request_date":"2026-01-01T00:00:00.000Z","payload":{"invoice_id":%d,"status":"paid","asset":"USDT","amount":"3"}}`,
		invoiceID+1, updateType, invoiceID))
}

func TestHandleWebhookVerification(t *testing.T) {
	f := newLedgerFixture(t, "payment_webhook")
	gift := f.createGift(t, "Blue Star", 2)
	purchase, err := f.payment.Purchase(context.Background(), 1, gift.ID)
	if err != nil {
		t.Fatalf("purchase failed: %v", err)
	}
	body := buildPaidUpdate(*purchase.ExternalInvoiceID, cryptopay.UpdateInvoicePaid)

	cases := []struct {
		name  string
		input WebhookCallbackInput
	}{
		{"bad signature", WebhookCallbackInput{PathToken: testWebhookToken, Signature: cryptopay.Sign(body, "other-token"), Body: body}},
		{"missing signature", WebhookCallbackInput{PathToken: testWebhookToken, Body: body}},
		{"bad path token", WebhookCallbackInput{PathToken: "guess", Signature: cryptopay.Sign(body, testAPIToken), Body: body}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := f.payment.HandleWebhook(tc.input); !errors.Is(err, ErrWebhookUnauthorized) {
				t.Fatalf("expected unauthorized, got %v", err)
			}
		})
	}
	current, _ := f.txnRepo.GetByID(purchase.ID)
	if current.Status != constants.TransactionStatusPending {
		t.Fatalf("unverified webhook must not touch the ledger, got %s", current.Status)
	}

	valid := WebhookCallbackInput{PathToken: testWebhookToken, Signature: cryptopay.Sign(body, testAPIToken), Body: body}
	result, err := f.payment.HandleWebhook(valid)
	if err != nil || result.Result != WebhookResultConfirmed {
		t.Fatalf("expected confirmed, got %+v err=%v", result, err)
	}
	result, err = f.payment.HandleWebhook(valid)
	if err != nil || result.Result != WebhookResultDuplicate {
		t.Fatalf("expected duplicate, got %+v err=%v", result, err)
	}
	if got := f.reloadGift(t, gift.ID).QuantityPurchased; got != 1 {
		t.Fatalf("expected quantity_purchased 1, got %d", got)
	}
}

func TestHandleWebhookIgnoresOtherUpdates(t *testing.T) {
	f := newLedgerFixture(t, "payment_webhook_ignored")
	body := buildPaidUpdate(77, "invoice_expired")
	result, err := f.payment.HandleWebhook(WebhookCallbackInput{
		PathToken: testWebhookToken,
		Signature: cryptopay.Sign(body, testAPIToken),
		Body:      body,
	})
	if err != nil || result.Result != WebhookResultIgnored {
		t.Fatalf("expected ignored, got %+v err=%v", result, err)
	}

	unknown := buildPaidUpdate(78, cryptopay.UpdateInvoicePaid)
	result, err = f.payment.HandleWebhook(WebhookCallbackInput{
		PathToken: testWebhookToken,
		Signature: cryptopay.Sign(unknown, testAPIToken),
		Body:      unknown,
	})
	if err != nil || result.Result != WebhookResultUnknown {
		t.Fatalf("expected unknown invoice ack, got %+v err=%v", result, err)
	}
}
