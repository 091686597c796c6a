// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Question
// model, including the compare-and-set transition that makes question closing
// idempotent under concurrent closers.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a question is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - CloseQuestion returns ErrConflict when another closer already won the
//     race; callers treat that as a benign no-op.
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yahora/yahora-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrConflict is returned by conditional updates when the guarded predicate
// no longer holds, i.e. a concurrent writer got there first.
var ErrConflict = errors.New("conflict: concurrent update won")

// CreateQuestion inserts a new pending Question owned by ownerID. The
// question ID is a randomly generated UUID and CreatedAt is set to the given
// UTC instant so the deadline anchor is controlled by the caller's clock.
func CreateQuestion(ctx context.Context, db *gorm.DB, q *domain.Question, now time.Time) (*domain.Question, error) {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	q.Status = domain.StatusPending
	q.AnswerCount = 0
	q.CreatedAt = now.UTC()
	if err := db.WithContext(ctx).Create(q).Error; err != nil {
		return nil, err
	}
	return q, nil
}

// GetQuestion fetches a single question by ID, or ErrNotFound if missing.
func GetQuestion(ctx context.Context, db *gorm.DB, id string) (*domain.Question, error) {
	var q domain.Question
	if err := db.WithContext(ctx).Where("id = ?", id).First(&q).Error; err != nil {
		return nil, err
	}
	return &q, nil
}

// ListQuestionsPage returns a page of questions owned by ownerID, newest
// first. Use CountQuestions to obtain the total for pagination metadata.
func ListQuestionsPage(ctx context.Context, db *gorm.DB, ownerID string, offset, limit int) ([]domain.Question, error) {
	var out []domain.Question
	err := db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// CountQuestions returns the total number of questions owned by ownerID.
func CountQuestions(ctx context.Context, db *gorm.DB, ownerID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Question{}).
		Where("owner_id = ?", ownerID).
		Count(&total).Error
	return total, err
}

// ListPendingQuestions returns every question still in the pending status,
// oldest first. The lifecycle sweeper re-evaluates each of these on its tick;
// the collaborator feed uses the same ordering so older questions get
// answered before they time out.
func ListPendingQuestions(ctx context.Context, db *gorm.DB, limit int) ([]domain.Question, error) {
	var out []domain.Question
	q := db.WithContext(ctx).
		Where("status = ?", domain.StatusPending).
		Order("created_at asc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

// CloseQuestion transitions a question out of pending with a single guarded
// UPDATE: the write only applies while status is still "pending", so exactly
// one of any number of concurrent closers succeeds. The terminal status is
// derived from the row's own answer_count inside that same statement, never
// from a count the caller read earlier — an answer committing between the
// caller's read and this write still yields "answered".
//
// Returns ErrConflict when the question was already terminal (benign),
// ErrNotFound when it does not exist at all, and the raw DB error otherwise.
func CloseQuestion(ctx context.Context, db *gorm.DB, id, cause string, now time.Time) error {
	now = now.UTC()
	res := db.WithContext(ctx).
		Model(&domain.Question{}).
		Where("id = ? AND status = ?", id, domain.StatusPending).
		Updates(map[string]any{
			"status": gorm.Expr("CASE WHEN answer_count > 0 THEN ? ELSE ? END",
				domain.StatusAnswered, domain.StatusClosed),
			"close_cause": cause,
			"closed_at":   now,
			"updated_at":  now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// Either already closed or missing; disambiguate for the caller.
		var n int64
		if err := db.WithContext(ctx).Model(&domain.Question{}).Where("id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		return ErrConflict
	}
	return nil
}

// IssueRefund credits one question back to the owner of a question that
// closed by timeout with zero answers. The dedupe flag and the balance
// increment happen in one transaction, with the flag flip itself guarded, so
// the refund applies at most once no matter how many times this is retried.
//
// Returns ErrConflict when the refund was already issued (benign).
func IssueRefund(ctx context.Context, db *gorm.DB, questionID string) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Question{}).
			Where("id = ? AND status = ? AND close_cause = ? AND answer_count = 0 AND refund_issued = ?",
				questionID, domain.StatusClosed, domain.CauseTimeout, false).
			Update("refund_issued", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConflict
		}
		return tx.Model(&domain.Profile{}).
			Where("id = (?)", tx.Model(&domain.Question{}).Select("owner_id").Where("id = ?", questionID)).
			Update("available_questions", gorm.Expr("available_questions + 1")).Error
	})
}

// ListUnrefunded returns closed-by-timeout questions with zero answers whose
// refund has not been recorded yet. The lifecycle sweeper retries these so a
// failed credit write after a successful close is never silently lost.
func ListUnrefunded(ctx context.Context, db *gorm.DB, limit int) ([]domain.Question, error) {
	var out []domain.Question
	q := db.WithContext(ctx).
		Where("status = ? AND close_cause = ? AND answer_count = 0 AND refund_issued = ?",
			domain.StatusClosed, domain.CauseTimeout, false).
		Order("closed_at asc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}
