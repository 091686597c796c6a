// Package services – PurchaseService
//
// Credit top-ups stay manual, as in the payment flow this backend serves: the
// buyer registers a purchase with an uploaded receipt URL, an admin reviews
// it, and approval applies the credits and benefits to the profile exactly
// once. The review transition is a guarded update, so two admins racing on
// the same purchase apply it once.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/yahora/yahora-backend/internal/domain"
	"github.com/yahora/yahora-backend/internal/repo"
)

// PurchaseService implements the manual credit top-up flow.
type PurchaseService struct {
	DB *gorm.DB
}

// Register records a pending purchase for the principal. The total is always
// recomputed server-side from the requested items.
func (s *PurchaseService) Register(ctx context.Context, p Principal, questions, deadlineMinutes int, withImages bool, receiptURL string) (*domain.Purchase, error) {
	if questions < 1 {
		return nil, ErrContentLength
	}
	if deadlineMinutes < 3 || deadlineMinutes > 7 {
		deadlineMinutes = 7
	}
	receiptURL = strings.TrimSpace(receiptURL)
	if receiptURL == "" {
		return nil, ErrContentLength
	}

	return repo.CreatePurchase(ctx, s.DB, &domain.Purchase{
		BuyerID:         p.ID,
		Questions:       questions,
		DeadlineMinutes: deadlineMinutes,
		WithImages:      withImages,
		TotalBs:         domain.Total(questions, withImages),
		ReceiptURL:      receiptURL,
	})
}

// List returns purchases for admin review, optionally filtered by status.
func (s *PurchaseService) List(ctx context.Context, p Principal, status string, page, pageSize int) ([]domain.Purchase, error) {
	if !p.IsAdmin() {
		return nil, ErrForbidden
	}
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	return repo.ListPurchases(ctx, s.DB, status, (page-1)*pageSize, pageSize)
}

// Approve moves a pending purchase to approved and applies its credits and
// benefits to the buyer, in one transaction keyed on the guarded status
// transition. A concurrent reviewer surfaces as ErrPurchaseReviewed and
// applies nothing.
func (s *PurchaseService) Approve(ctx context.Context, p Principal, purchaseID string) error {
	if !p.IsAdmin() {
		return ErrForbidden
	}
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pur, err := repo.GetPurchase(ctx, tx, purchaseID)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrPurchaseNotFound
			}
			return err
		}
		if err := repo.ReviewPurchase(ctx, tx, purchaseID, domain.PurchaseApproved, p.ID, time.Now()); err != nil {
			if errors.Is(err, repo.ErrConflict) {
				return ErrPurchaseReviewed
			}
			if errors.Is(err, repo.ErrNotFound) {
				return ErrPurchaseNotFound
			}
			return err
		}
		if err := repo.AddQuestionCredits(ctx, tx, pur.BuyerID, pur.Questions); err != nil {
			return err
		}
		return repo.ApplyBenefits(ctx, tx, pur.BuyerID, pur.DeadlineMinutes, pur.WithImages)
	})
}

// Reject moves a pending purchase to rejected without touching the profile.
func (s *PurchaseService) Reject(ctx context.Context, p Principal, purchaseID string) error {
	if !p.IsAdmin() {
		return ErrForbidden
	}
	if _, err := repo.GetPurchase(ctx, s.DB, purchaseID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrPurchaseNotFound
		}
		return err
	}
	if err := repo.ReviewPurchase(ctx, s.DB, purchaseID, domain.PurchaseRejected, p.ID, time.Now()); err != nil {
		if errors.Is(err, repo.ErrConflict) {
			return ErrPurchaseReviewed
		}
		if errors.Is(err, repo.ErrNotFound) {
			return ErrPurchaseNotFound
		}
		return err
	}
	return nil
}
