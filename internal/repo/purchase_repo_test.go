package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/yahora/yahora-backend/internal/domain"
)

func seedPurchase(t *testing.T, db *gorm.DB, buyerID string) *domain.Purchase {
	t.Helper()
	p, err := CreatePurchase(context.Background(), db, &domain.Purchase{
		BuyerID:         buyerID,
		Questions:       3,
		DeadlineMinutes: 5,
		WithImages:      true,
		TotalBs:         domain.Total(3, true),
		ReceiptURL:      "https://receipts.example.com/r1.jpg",
	})
	if err != nil {
		t.Fatalf("create purchase: %v", err)
	}
	return p
}

func TestCreatePurchase_PendingWithComputedTotal(t *testing.T) {
	db := openTestDB(t)
	mustProfile(t, db, "buyer", 0, false)

	p := seedPurchase(t, db, "buyer")
	if p.Status != domain.PurchasePending {
		t.Fatalf("status = %q, want pending", p.Status)
	}
	// 3 questions at 2 Bs plus the 4 Bs image benefit.
	if p.TotalBs != 10.0 {
		t.Fatalf("total = %v, want 10", p.TotalBs)
	}
}

func TestReviewPurchase_GuardedTransition(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	mustProfile(t, db, "buyer", 0, false)
	mustProfile(t, db, "admin", 0, false)
	p := seedPurchase(t, db, "buyer")

	now := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)
	if err := ReviewPurchase(ctx, db, p.ID, domain.PurchaseApproved, "admin", now); err != nil {
		t.Fatalf("approve: %v", err)
	}

	got, _ := GetPurchase(ctx, db, p.ID)
	if got.Status != domain.PurchaseApproved || got.ReviewedBy == nil || *got.ReviewedBy != "admin" {
		t.Fatalf("unexpected state: %+v", got)
	}

	// A second reviewer loses the race cleanly.
	err := ReviewPurchase(ctx, db, p.ID, domain.PurchaseRejected, "admin", now.Add(time.Second))
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("second review err = %v, want ErrConflict", err)
	}
	got, _ = GetPurchase(ctx, db, p.ID)
	if got.Status != domain.PurchaseApproved {
		t.Fatalf("losing reviewer mutated state: %+v", got)
	}

	if err := ReviewPurchase(ctx, db, "missing", domain.PurchaseApproved, "admin", now); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing review err = %v, want ErrNotFound", err)
	}
}

func TestListPurchases_StatusFilter(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	mustProfile(t, db, "buyer", 0, false)
	p1 := seedPurchase(t, db, "buyer")
	seedPurchase(t, db, "buyer")

	if err := ReviewPurchase(ctx, db, p1.ID, domain.PurchaseRejected, "admin", time.Now()); err != nil {
		t.Fatalf("reject: %v", err)
	}

	pending, err := ListPurchases(ctx, db, domain.PurchasePending, 0, 10)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("pending = %d, want 1", len(pending))
	}

	all, err := ListPurchases(ctx, db, "", 0, 10)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("all = %d, want 2", len(all))
	}
}
