// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Profile
// model. Credit balances are only ever mutated through the conditional
// updates below; nothing reads a balance and writes it back.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yahora/yahora-backend/internal/domain"
)

// CreateProfile inserts a new profile row with a UUID primary key.
func CreateProfile(ctx context.Context, db *gorm.DB, p *domain.Profile) (*domain.Profile, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.CreatedAt = time.Now().UTC()
	if err := db.WithContext(ctx).Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

// GetProfile fetches a profile by ID, or ErrNotFound if missing.
func GetProfile(ctx context.Context, db *gorm.DB, id string) (*domain.Profile, error) {
	var p domain.Profile
	if err := db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// SpendQuestionCredit decrements the balance by one, but only while it is
// still positive. ErrConflict means the balance was already zero; the caller
// surfaces that as "no questions available".
func SpendQuestionCredit(ctx context.Context, db *gorm.DB, profileID string) error {
	res := db.WithContext(ctx).
		Model(&domain.Profile{}).
		Where("id = ? AND available_questions > 0", profileID).
		Update("available_questions", gorm.Expr("available_questions - 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var n int64
		if err := db.WithContext(ctx).Model(&domain.Profile{}).Where("id = ?", profileID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		return ErrConflict
	}
	return nil
}

// AddQuestionCredits increments the balance by delta (purchase approval).
func AddQuestionCredits(ctx context.Context, db *gorm.DB, profileID string, delta int) error {
	res := db.WithContext(ctx).
		Model(&domain.Profile{}).
		Where("id = ?", profileID).
		Update("available_questions", gorm.Expr("available_questions + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ApplyBenefits sets the purchased benefits on a profile: the answer-window
// minutes and whether image attachments are allowed.
func ApplyBenefits(ctx context.Context, db *gorm.DB, profileID string, deadlineMinutes int, imagesAllowed bool) error {
	res := db.WithContext(ctx).
		Model(&domain.Profile{}).
		Where("id = ?", profileID).
		Updates(map[string]any{
			"deadline_minutes": deadlineMinutes,
			"images_allowed":   imagesAllowed,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ResetBenefits returns a profile to the default window and no image uploads.
// Benefits only last while the credit balance is above zero, so this runs
// when a spend drains the balance.
func ResetBenefits(ctx context.Context, db *gorm.DB, profileID string) error {
	return db.WithContext(ctx).
		Model(&domain.Profile{}).
		Where("id = ? AND available_questions = 0", profileID).
		Updates(map[string]any{
			"deadline_minutes": 7,
			"images_allowed":   false,
		}).Error
}
