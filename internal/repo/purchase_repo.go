// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Purchase
// model backing the manual credit top-up flow.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yahora/yahora-backend/internal/domain"
)

// CreatePurchase inserts a pending top-up request.
func CreatePurchase(ctx context.Context, db *gorm.DB, p *domain.Purchase) (*domain.Purchase, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.Status = domain.PurchasePending
	p.CreatedAt = time.Now().UTC()
	if err := db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

// GetPurchase fetches a purchase by ID.
func GetPurchase(ctx context.Context, db *gorm.DB, id string) (*domain.Purchase, error) {
	var p domain.Purchase
	if err := db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// ListPurchases returns purchases filtered by status ("" for all), newest
// first.
func ListPurchases(ctx context.Context, db *gorm.DB, status string, offset, limit int) ([]domain.Purchase, error) {
	var out []domain.Purchase
	q := db.WithContext(ctx).Order("created_at desc").Offset(offset).Limit(limit)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Find(&out).Error
	return out, err
}

// ReviewPurchase moves a pending purchase to approved or rejected with a
// guarded UPDATE, so a purchase is reviewed at most once. ErrConflict means
// another admin already reviewed it.
func ReviewPurchase(ctx context.Context, db *gorm.DB, id, status, reviewerID string, now time.Time) error {
	now = now.UTC()
	res := db.WithContext(ctx).
		Model(&domain.Purchase{}).
		Where("id = ? AND status = ?", id, domain.PurchasePending).
		Updates(map[string]any{
			"status":      status,
			"reviewed_by": reviewerID,
			"reviewed_at": now,
			"updated_at":  now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var n int64
		if err := db.WithContext(ctx).Model(&domain.Purchase{}).Where("id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		return ErrConflict
	}
	return nil
}
