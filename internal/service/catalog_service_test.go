package service

import (
	"context"
	"errors"
	"testing"
)

func TestCatalogCreateAndUpdate(t *testing.T) {
	f := newLedgerFixture(t, "catalog_admin")
	ctx := context.Background()

	gift, err := f.catalog.Create(ctx, GiftInput{Name: " Blue Star ", Price: "3.5", Asset: "usdt", TotalInStock: 2})
	if err != nil {
		t.Fatalf("create gift failed: %v", err)
	}
	if gift.Name != "Blue Star" || gift.Asset != "USDT" || gift.Price.String() != "3.5" {
		t.Fatalf("unexpected gift: %+v", gift)
	}
	if _, err := f.catalog.Create(ctx, GiftInput{Name: "Blue Star", Price: "1", Asset: "TON", TotalInStock: 1}); !errors.Is(err, ErrGiftNameExists) {
		t.Fatalf("expected name exists, got %v", err)
	}
	for _, input := range []GiftInput{
		{Name: "", Price: "1", Asset: "TON", TotalInStock: 1},
		{Name: "Bad Price", Price: "-1", Asset: "TON", TotalInStock: 1},
		{Name: "Bad Stock", Price: "1", Asset: "TON", TotalInStock: -1},
	} {
		if _, err := f.catalog.Create(ctx, input); !errors.Is(err, ErrGiftInvalid) {
			t.Fatalf("expected invalid gift for %+v, got %v", input, err)
		}
	}

	f.paidPurchase(t, 1, gift.ID)
	f.paidPurchase(t, 2, gift.ID)
	if _, err := f.catalog.Update(ctx, gift.ID, GiftInput{Name: "Blue Star", Price: "3.5", Asset: "USDT", TotalInStock: 1}); !errors.Is(err, ErrGiftStockBelowSold) {
		t.Fatalf("expected stock below sold, got %v", err)
	}
	updated, err := f.catalog.Update(ctx, gift.ID, GiftInput{Name: "Blue Star", Price: "4", Asset: "USDT", TotalInStock: 5})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if updated.TotalInStock != 5 || updated.QuantityPurchased != 2 || updated.Remaining() != 3 {
		t.Fatalf("unexpected updated gift: %+v", updated)
	}

	gifts, err := f.catalog.List(ctx)
	if err != nil || len(gifts) != 1 {
		t.Fatalf("unexpected list: %+v err=%v", gifts, err)
	}
	if _, err := f.catalog.Get(999); !errors.Is(err, ErrGiftNotFound) {
		t.Fatalf("expected gift not found, got %v", err)
	}
}
