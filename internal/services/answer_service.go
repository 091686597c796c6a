// Package services – AnswerService
//
// This file implements the AnswerService, which governs answer submission and
// acceptance. Submission is gated twice: a cheap freshness check against the
// lifecycle (so answering a lapsed question closes it instead of admitting
// the answer), then the authoritative admission guard inside the store
// transaction (conditional counter bump plus unique author index). The
// service-level sentinels map the store's rejections to stable errors the
// handlers can translate.
package services

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/yahora/yahora-backend/internal/domain"
	"github.com/yahora/yahora-backend/internal/lifecycle"
	"github.com/yahora/yahora-backend/internal/repo"
)

const maxAnswerRunes = 500

// AnswerService implements the use-cases around answers: submission under the
// admission guard, listings with pro-first ordering, and owner acceptance
// with the one-shot payout.
type AnswerService struct {
	DB        *gorm.DB
	Lifecycle *lifecycle.Manager
}

// Submit records an answer by the principal on questionID.
//
// Semantics and validation:
//   - the principal must be a collaborator (or admin); otherwise ErrForbidden.
//   - content must be 1-500 characters after trimming; otherwise
//     ErrContentLength.
//   - the question must still be pending with a live window; a lapsed window
//     observed here triggers the close and returns ErrQuestionClosed.
//   - at most 5 answers per question and one per author, enforced by the
//     store transaction; violations surface as ErrMaxAnswersReached /
//     ErrDuplicateAnswer and leave the counter untouched.
//
// The payout amount is snapshotted from the principal's tier at submission
// time. On success the lifecycle is re-evaluated, which closes the question
// when this answer was the fifth.
func (s *AnswerService) Submit(ctx context.Context, p Principal, questionID, content string) (*domain.Answer, error) {
	tr := otel.Tracer("services/AnswerService")
	ctx, span := tr.Start(ctx, "Submit",
		trace.WithAttributes(
			attribute.String("question.id", questionID),
			attribute.String("user.id", p.ID),
		),
	)
	defer span.End()

	if !p.CanAnswer() {
		return nil, ErrForbidden
	}
	content = strings.TrimSpace(content)
	if n := utf8.RuneCountInString(content); n == 0 || n > maxAnswerRunes {
		return nil, ErrContentLength
	}

	// Freshness check: never admit an answer into a lapsed window. The store
	// guard below would also reject it, but only after the sweeper closes the
	// question; evaluating here keeps the rejection immediate.
	q, err := repo.GetQuestion(ctx, s.DB, questionID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrQuestionNotFound
		}
		return nil, err
	}
	now := s.Lifecycle.Clock.Now()
	if dec := lifecycle.Evaluate(q.Status, q.CreatedAt, q.DeadlineMinutes, q.AnswerCount, now); dec.Close || !q.Pending() {
		if err := s.Lifecycle.EvaluateQuestion(ctx, questionID); err != nil {
			return nil, err
		}
		return nil, ErrQuestionClosed
	}

	a := &domain.Answer{
		QuestionID: questionID,
		AuthorID:   p.ID,
		Content:    content,
		Payout:     p.PayoutPerAnswer(),
	}
	if _, err := repo.InsertAnswer(ctx, s.DB, a, now); err != nil {
		switch {
		case errors.Is(err, repo.ErrDuplicateAuthor):
			return nil, ErrDuplicateAnswer
		case errors.Is(err, repo.ErrMaxAnswers):
			return nil, ErrMaxAnswersReached
		case errors.Is(err, repo.ErrQuestionNotOpen):
			return nil, ErrQuestionClosed
		case errors.Is(err, repo.ErrNotFound):
			return nil, ErrQuestionNotFound
		}
		return nil, err
	}

	if err := s.Lifecycle.OnAnswerInserted(ctx, questionID, a.ID); err != nil {
		// The answer is durable; a failed post-insert evaluation is retried
		// by the sweeper's next tick.
		return a, nil
	}
	return a, nil
}

// List returns a question's answers, pro collaborators first.
func (s *AnswerService) List(ctx context.Context, questionID string) ([]domain.Answer, error) {
	if _, err := repo.GetQuestion(ctx, s.DB, questionID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrQuestionNotFound
		}
		return nil, err
	}
	return repo.ListAnswers(ctx, s.DB, questionID)
}

// ListMine returns the principal's own answers, newest first.
func (s *AnswerService) ListMine(ctx context.Context, p Principal, page, pageSize int) ([]domain.Answer, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	return repo.ListAnswersByAuthor(ctx, s.DB, p.ID, (page-1)*pageSize, pageSize)
}

// Accept marks an answer accepted on behalf of the question owner and credits
// the snapshotted payout to its author, exactly once.
//
//   - Only the question's owner (or an admin) may accept; otherwise
//     ErrForbidden.
//   - Accepting twice yields ErrAlreadyAccepted and pays nothing further.
func (s *AnswerService) Accept(ctx context.Context, p Principal, answerID string) error {
	tr := otel.Tracer("services/AnswerService")
	ctx, span := tr.Start(ctx, "Accept",
		trace.WithAttributes(
			attribute.String("answer.id", answerID),
			attribute.String("user.id", p.ID),
		),
	)
	defer span.End()

	a, err := repo.GetAnswer(ctx, s.DB, answerID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrAnswerNotFound
		}
		return err
	}
	q, err := repo.GetQuestion(ctx, s.DB, a.QuestionID)
	if err != nil {
		return err
	}
	if q.OwnerID != p.ID && !p.IsAdmin() {
		return ErrForbidden
	}

	if err := repo.AcceptAnswer(ctx, s.DB, answerID); err != nil {
		if errors.Is(err, repo.ErrConflict) {
			return ErrAlreadyAccepted
		}
		return err
	}
	return nil
}
