package repository

import (
	"testing"
	"time"

	"github.com/giftledger/internal/constants"
	"github.com/giftledger/internal/models"
)

func createSuccessPurchase(t *testing.T, repo *GormGiftTransactionRepository, userID int64, gift *models.Gift) *models.GiftTransaction {
	t.Helper()
	purchase := models.NewPurchaseTransaction(userID, gift, "")
	purchase.Status = constants.TransactionStatusSuccess
	if err := repo.Create(purchase); err != nil {
		t.Fatalf("create purchase failed: %v", err)
	}
	return purchase
}

func TestCreateRejectsPurchaseWithClaimToken(t *testing.T) {
	db := openRepositoryTestDB(t, "txn_shape")
	gift := createTestGift(t, NewGiftRepository(db), "Blue Star", 10)
	repo := NewGiftTransactionRepository(db)

	purchase := models.NewPurchaseTransaction(1, gift, "")
	token := "leaked"
	purchase.ClaimToken = &token
	if err := repo.Create(purchase); err == nil {
		t.Fatalf("expected purchase with claim token to be rejected")
	}
}

func TestTransitionFromPendingOnlyOnce(t *testing.T) {
	db := openRepositoryTestDB(t, "txn_transition")
	gift := createTestGift(t, NewGiftRepository(db), "Blue Star", 10)
	repo := NewGiftTransactionRepository(db)

	purchase := models.NewPurchaseTransaction(1, gift, "")
	if err := repo.Create(purchase); err != nil {
		t.Fatalf("create purchase failed: %v", err)
	}

	affected, err := repo.TransitionFromPending(purchase.ID, constants.TransactionStatusSuccess, nil)
	if err != nil || affected != 1 {
		t.Fatalf("first transition should succeed, affected=%d err=%v", affected, err)
	}
	affected, err = repo.TransitionFromPending(purchase.ID, constants.TransactionStatusFailed, nil)
	if err != nil {
		t.Fatalf("second transition failed: %v", err)
	}
	if affected != 0 {
		t.Fatalf("terminal record must not transition again, affected=%d", affected)
	}
	got, _ := repo.GetByID(purchase.ID)
	if got.Status != constants.TransactionStatusSuccess {
		t.Fatalf("expected status success, got %s", got.Status)
	}
}

func TestActiveReferenceUniqueness(t *testing.T) {
	db := openRepositoryTestDB(t, "txn_active_ref")
	gift := createTestGift(t, NewGiftRepository(db), "Blue Star", 10)
	repo := NewGiftTransactionRepository(db)
	purchase := createSuccessPurchase(t, repo, 1, gift)

	first := models.NewSendTransaction(1, purchase, "token-a", time.Now().Add(time.Hour))
	if err := repo.Create(first); err != nil {
		t.Fatalf("create first send failed: %v", err)
	}
	second := models.NewSendTransaction(1, purchase, "token-b", time.Now().Add(time.Hour))
	if err := repo.Create(second); err == nil {
		t.Fatalf("expected second active send on same purchase to be rejected")
	}

	if affected, err := repo.FailSend(first.ID); err != nil || affected != 1 {
		t.Fatalf("fail send failed: affected=%d err=%v", affected, err)
	}
	third := models.NewSendTransaction(1, purchase, "token-c", time.Now().Add(time.Hour))
	if err := repo.Create(third); err != nil {
		t.Fatalf("expected send after failed one to be allowed: %v", err)
	}
}

func TestClaimSendGuards(t *testing.T) {
	db := openRepositoryTestDB(t, "txn_claim")
	gift := createTestGift(t, NewGiftRepository(db), "Blue Star", 10)
	repo := NewGiftTransactionRepository(db)
	purchase := createSuccessPurchase(t, repo, 1, gift)
	now := time.Now().UTC()

	send := models.NewSendTransaction(1, purchase, "token-claim", now.Add(time.Hour))
	if err := repo.Create(send); err != nil {
		t.Fatalf("create send failed: %v", err)
	}

	if affected, _ := repo.ClaimSend(send.ID, 1, now); affected != 0 {
		t.Fatalf("sender must not claim own send")
	}
	if affected, _ := repo.ClaimSend(send.ID, 2, now.Add(2*time.Hour)); affected != 0 {
		t.Fatalf("expired send must not be claimable")
	}
	if affected, err := repo.ClaimSend(send.ID, 2, now); err != nil || affected != 1 {
		t.Fatalf("claim should succeed: affected=%d err=%v", affected, err)
	}
	if affected, _ := repo.ClaimSend(send.ID, 3, now); affected != 0 {
		t.Fatalf("claimed send must not be claimed again")
	}

	got, _ := repo.GetByClaimToken("token-claim")
	if got == nil || got.ToUserID == nil || *got.ToUserID != 2 {
		t.Fatalf("expected receiver 2 on claimed send, got %+v", got)
	}
}

func TestProjections(t *testing.T) {
	db := openRepositoryTestDB(t, "txn_projection")
	gift := createTestGift(t, NewGiftRepository(db), "Blue Star", 10)
	repo := NewGiftTransactionRepository(db)
	now := time.Now().UTC()

	kept := createSuccessPurchase(t, repo, 1, gift)
	forwarded := createSuccessPurchase(t, repo, 1, gift)
	pending := models.NewPurchaseTransaction(1, gift, "")
	if err := repo.Create(pending); err != nil {
		t.Fatalf("create pending purchase failed: %v", err)
	}

	send := models.NewSendTransaction(1, forwarded, "token-projection", now.Add(time.Hour))
	if err := repo.Create(send); err != nil {
		t.Fatalf("create send failed: %v", err)
	}

	available, err := repo.ListAvailableToSend(1)
	if err != nil {
		t.Fatalf("list available failed: %v", err)
	}
	if len(available) != 1 || available[0].ID != kept.ID {
		t.Fatalf("expected only purchase %d available, got %+v", kept.ID, available)
	}
	if available[0].Gift == nil || available[0].Gift.Name != "Blue Star" {
		t.Fatalf("expected gift preloaded on available purchase")
	}

	if _, err := repo.ClaimSend(send.ID, 2, now); err != nil {
		t.Fatalf("claim send failed: %v", err)
	}
	received, err := repo.ListReceivedByUser(2)
	if err != nil {
		t.Fatalf("list received failed: %v", err)
	}
	if len(received) != 1 || received[0].ID != send.ID {
		t.Fatalf("expected send %d received by user 2, got %+v", send.ID, received)
	}

	recentGift, err := repo.ListRecentForGift(gift.ID, 2)
	if err != nil {
		t.Fatalf("list recent for gift failed: %v", err)
	}
	if len(recentGift) != 2 {
		t.Fatalf("expected limit 2 recent success transactions, got %d", len(recentGift))
	}
	for _, txn := range recentGift {
		if txn.Status != constants.TransactionStatusSuccess {
			t.Fatalf("recent for gift must only list success, got %s", txn.Status)
		}
	}

	recentUser, err := repo.ListRecentForUser(2, 10)
	if err != nil {
		t.Fatalf("list recent for user failed: %v", err)
	}
	if len(recentUser) != 1 || recentUser[0].ID != send.ID {
		t.Fatalf("expected receiver to see the send, got %+v", recentUser)
	}
	recentSender, _ := repo.ListRecentForUser(1, 10)
	if len(recentSender) != 4 {
		t.Fatalf("expected 4 transactions for sender, got %d", len(recentSender))
	}
}
