package services

import (
	"context"
	"errors"
	"testing"

	"github.com/yahora/yahora-backend/internal/domain"
	"github.com/yahora/yahora-backend/internal/repo"
)

func TestPurchaseRegister_ServerSideTotalAndCoercion(t *testing.T) {
	db, _, _ := newServiceEnv(t)
	svc := &PurchaseService{DB: db}
	ctx := context.Background()

	seedProfile(t, db, "buyer", domain.RoleUser, 0, 7, false, false)
	buyer := Principal{ID: "buyer", Role: domain.RoleUser}

	pur, err := svc.Register(ctx, buyer, 3, 5, true, "https://bucket.example.com/receipt.jpg")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if pur.Status != domain.PurchasePending {
		t.Fatalf("status = %q, want pending", pur.Status)
	}
	if pur.TotalBs != 10 {
		t.Fatalf("total = %v, want 10 (3 questions + images)", pur.TotalBs)
	}
	if pur.DeadlineMinutes != 5 {
		t.Fatalf("deadline = %d, want 5", pur.DeadlineMinutes)
	}

	// Out-of-range window falls back to the default.
	pur, err = svc.Register(ctx, buyer, 1, 30, false, "https://bucket.example.com/r2.jpg")
	if err != nil {
		t.Fatalf("register coerced: %v", err)
	}
	if pur.DeadlineMinutes != 7 {
		t.Fatalf("coerced deadline = %d, want 7", pur.DeadlineMinutes)
	}

	if _, err := svc.Register(ctx, buyer, 0, 7, false, "https://x/r.jpg"); !errors.Is(err, ErrContentLength) {
		t.Fatalf("zero questions err = %v", err)
	}
	if _, err := svc.Register(ctx, buyer, 1, 7, false, "   "); !errors.Is(err, ErrContentLength) {
		t.Fatalf("blank receipt err = %v", err)
	}
}

func TestPurchaseList_AdminOnly(t *testing.T) {
	db, _, _ := newServiceEnv(t)
	svc := &PurchaseService{DB: db}
	ctx := context.Background()

	seedProfile(t, db, "buyer", domain.RoleUser, 0, 7, false, false)
	seedProfile(t, db, "admin", domain.RoleAdmin, 0, 7, false, false)
	buyer := Principal{ID: "buyer", Role: domain.RoleUser}

	if _, err := svc.Register(ctx, buyer, 2, 7, false, "https://x/r.jpg"); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.List(ctx, buyer, "", 1, 20); !errors.Is(err, ErrForbidden) {
		t.Fatalf("non-admin list err = %v", err)
	}
	got, err := svc.List(ctx, Principal{ID: "admin", Role: domain.RoleAdmin}, domain.PurchasePending, 1, 20)
	if err != nil {
		t.Fatalf("admin list: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
}

func TestPurchaseApprove_AppliesCreditsAndBenefitsOnce(t *testing.T) {
	db, _, _ := newServiceEnv(t)
	svc := &PurchaseService{DB: db}
	ctx := context.Background()

	seedProfile(t, db, "buyer", domain.RoleUser, 1, 7, false, false)
	seedProfile(t, db, "admin", domain.RoleAdmin, 0, 7, false, false)
	buyer := Principal{ID: "buyer", Role: domain.RoleUser}
	admin := Principal{ID: "admin", Role: domain.RoleAdmin}

	pur, err := svc.Register(ctx, buyer, 3, 4, true, "https://x/r.jpg")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := svc.Approve(ctx, buyer, pur.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("non-admin approve err = %v", err)
	}
	if err := svc.Approve(ctx, admin, pur.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}

	prof, err := repo.GetProfile(ctx, db, "buyer")
	if err != nil {
		t.Fatalf("get profile: %v", err)
	}
	if prof.AvailableQuestions != 4 {
		t.Fatalf("balance = %d, want 4", prof.AvailableQuestions)
	}
	if prof.DeadlineMinutes != 4 || !prof.ImagesAllowed {
		t.Fatalf("benefits not applied: %+v", prof)
	}

	got, _ := repo.GetPurchase(ctx, db, pur.ID)
	if got.Status != domain.PurchaseApproved || got.ReviewedBy == nil || *got.ReviewedBy != "admin" {
		t.Fatalf("purchase not marked reviewed: %+v", got)
	}

	// A second review applies nothing.
	if err := svc.Approve(ctx, admin, pur.ID); !errors.Is(err, ErrPurchaseReviewed) {
		t.Fatalf("second approve err = %v", err)
	}
	prof, _ = repo.GetProfile(ctx, db, "buyer")
	if prof.AvailableQuestions != 4 {
		t.Fatalf("double credit: balance = %d", prof.AvailableQuestions)
	}

	if err := svc.Approve(ctx, admin, "00000000-0000-0000-0000-000000000000"); !errors.Is(err, ErrPurchaseNotFound) {
		t.Fatalf("missing approve err = %v", err)
	}
}

func TestPurchaseReject_LeavesProfileUntouched(t *testing.T) {
	db, _, _ := newServiceEnv(t)
	svc := &PurchaseService{DB: db}
	ctx := context.Background()

	seedProfile(t, db, "buyer", domain.RoleUser, 1, 7, false, false)
	seedProfile(t, db, "admin", domain.RoleAdmin, 0, 7, false, false)
	admin := Principal{ID: "admin", Role: domain.RoleAdmin}

	pur, err := svc.Register(ctx, Principal{ID: "buyer", Role: domain.RoleUser}, 5, 3, true, "https://x/r.jpg")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := svc.Reject(ctx, admin, pur.ID); err != nil {
		t.Fatalf("reject: %v", err)
	}
	prof, _ := repo.GetProfile(ctx, db, "buyer")
	if prof.AvailableQuestions != 1 || prof.DeadlineMinutes != 7 || prof.ImagesAllowed {
		t.Fatalf("rejected purchase touched profile: %+v", prof)
	}

	if err := svc.Approve(ctx, admin, pur.ID); !errors.Is(err, ErrPurchaseReviewed) {
		t.Fatalf("approve after reject err = %v", err)
	}
}

func TestProfileGet_MissingProfile(t *testing.T) {
	db, _, _ := newServiceEnv(t)
	svc := &ProfileService{DB: db}

	if _, err := svc.Get(context.Background(), Principal{ID: "ghost"}); !errors.Is(err, ErrProfileNotFound) {
		t.Fatalf("err = %v, want ErrProfileNotFound", err)
	}
}
