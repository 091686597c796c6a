// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Answer
// model. The admission guard lives here, at the store boundary, because two
// concurrent submissions racing past a client-side check must not both
// succeed.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yahora/yahora-backend/internal/domain"
)

// Answer admission errors.
var (
	// ErrDuplicateAuthor means the author already answered this question.
	ErrDuplicateAuthor = errors.New("author already answered this question")

	// ErrMaxAnswers means the question already holds the maximum number of
	// answers.
	ErrMaxAnswers = errors.New("question reached the maximum number of answers")

	// ErrQuestionNotOpen means the question is terminal (or missing) and no
	// longer accepts answers.
	ErrQuestionNotOpen = errors.New("question is not open for answers")
)

// InsertAnswer admits and persists an answer in one transaction.
//
// Order matters: the denormalized counter is bumped first with a conditional
// UPDATE (status must still be pending and the count below the cap), so the
// counter itself is the gate; the row insert then relies on the unique
// (question_id, author_id) index to reject duplicate authors. A duplicate
// rolls the counter bump back with the transaction.
func InsertAnswer(ctx context.Context, db *gorm.DB, a *domain.Answer, now time.Time) (*domain.Answer, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.CreatedAt = now.UTC()

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.Question{}).
			Where("id = ? AND status = ? AND answer_count < ?",
				a.QuestionID, domain.StatusPending, domain.MaxAnswersPerQuestion).
			Update("answer_count", gorm.Expr("answer_count + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Guard failed: closed question, full question, or no question.
			var q domain.Question
			if err := tx.Where("id = ?", a.QuestionID).First(&q).Error; err != nil {
				return err
			}
			if q.AnswerCount >= domain.MaxAnswersPerQuestion {
				return ErrMaxAnswers
			}
			return ErrQuestionNotOpen
		}
		if err := tx.Create(a).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicateAuthor
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// ListAnswers returns a question's answers with pro collaborators first,
// then oldest first within each tier.
func ListAnswers(ctx context.Context, db *gorm.DB, questionID string) ([]domain.Answer, error) {
	var out []domain.Answer
	err := db.WithContext(ctx).
		Joins("JOIN profiles ON profiles.id = answers.author_id").
		Where("answers.question_id = ?", questionID).
		Order("profiles.pro DESC, answers.created_at ASC, answers.id ASC").
		Find(&out).Error
	return out, err
}

// CountAnswers uses a raw COUNT against the answers table. This is the
// durable count the lifecycle manager bases its refund decision on, never
// the denormalized counter alone.
func CountAnswers(ctx context.Context, db *gorm.DB, questionID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Raw(
		"SELECT COUNT(*) FROM answers WHERE question_id = ? AND deleted_at IS NULL", questionID,
	).Scan(&total).Error
	return total, err
}

// ListAnswersByAuthor returns everything a collaborator has submitted,
// newest first.
func ListAnswersByAuthor(ctx context.Context, db *gorm.DB, authorID string, offset, limit int) ([]domain.Answer, error) {
	var out []domain.Answer
	err := db.WithContext(ctx).
		Where("author_id = ?", authorID).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// GetAnswer fetches an answer by ID.
func GetAnswer(ctx context.Context, db *gorm.DB, id string) (*domain.Answer, error) {
	var a domain.Answer
	if err := db.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// AcceptAnswer marks an answer accepted and credits the snapshotted payout to
// its author, in one transaction. The accepted flip is guarded so a repeated
// accept cannot pay twice; ErrConflict signals it was already accepted.
func AcceptAnswer(ctx context.Context, db *gorm.DB, answerID string) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var a domain.Answer
		if err := tx.Where("id = ?", answerID).First(&a).Error; err != nil {
			return err
		}
		res := tx.Model(&domain.Answer{}).
			Where("id = ? AND accepted = ?", answerID, false).
			Update("accepted", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrConflict
		}
		return tx.Model(&domain.Profile{}).
			Where("id = ?", a.AuthorID).
			Update("earnings", gorm.Expr("earnings + ?", a.Payout)).Error
	})
}

// isUniqueViolation detects unique-constraint violations across drivers that
// may not map to gorm.ErrDuplicatedKey.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// glebarez/sqlite often returns plain-text errors for UNIQUE violations.
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "constraint failed: unique") ||
		strings.Contains(msg, "duplicate key")
}
