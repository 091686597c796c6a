// Package services – QuestionService
//
// This file implements the QuestionService, which owns question creation and
// listing. Creation validates content and references, spends one question
// credit, and persists the question in a single transaction, so a failed
// insert never burns a credit and a drained balance never yields a question.
// The deadline window is snapshotted from the owner's profile at creation
// time; moving the benefit later never moves an open question's deadline.
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

const (
	minQuestionRunes = 10
	maxQuestionRunes = 500
)

// QuestionService provides question-level operations: creation with credit
// spend, owner listings with live countdowns, and the open feed collaborators
// answer from.
type QuestionService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Lifecycle derives countdown snapshots and is nudged after mutations.
	Lifecycle *lifecycle.Manager
}

// QuestionView is a question together with its derived countdown.
type QuestionView struct {
	domain.Question
	RemainingSeconds int64 `json:"remaining_seconds"`
}

// Create validates and persists a new pending question for the principal.
//
// Rules enforced here:
//   - content is 10-500 characters after trimming;
//   - the category must exist and be active; the zone too, when given;
//   - an image URL requires the purchased image benefit;
//   - the principal must hold at least one question credit, spent in the same
//     transaction as the insert (conditional decrement, never read-then-write).
//
// When the spend drains the balance to zero, purchased benefits reset to the
// defaults, matching how they are sold.
func (s *QuestionService) Create(ctx context.Context, p Principal, content, categoryID string, zoneID, imageURL *string) (*QuestionView, error) {
	tr := otel.Tracer("services/QuestionService")
	ctx, span := tr.Start(ctx, "Create",
		trace.WithAttributes(attribute.String("user.id", p.ID)),
	)
	defer span.End()

	content = strings.TrimSpace(content)
	if n := utf8.RuneCountInString(content); n < minQuestionRunes || n > maxQuestionRunes {
		return nil, ErrContentLength
	}

	if ok, err := repo.CategoryExists(ctx, s.DB, categoryID); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrUnknownCategory
	}
	if zoneID != nil && *zoneID != "" {
		if ok, err := repo.ZoneExists(ctx, s.DB, *zoneID); err != nil {
			return nil, err
		} else if !ok {
			return nil, ErrUnknownZone
		}
	} else {
		zoneID = nil
	}

	owner, err := repo.GetProfile(ctx, s.DB, p.ID)
	if err != nil {
		return nil, err
	}
	if imageURL != nil && *imageURL != "" && !owner.ImagesAllowed {
		return nil, ErrImagesNotAllowed
	}

	q := &domain.Question{
		OwnerID:         p.ID,
		Content:         content,
		CategoryID:      categoryID,
		ZoneID:          zoneID,
		ImageURL:        imageURL,
		DeadlineMinutes: owner.DeadlineMinutes,
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.SpendQuestionCredit(ctx, tx, p.ID); err != nil {
			if errors.Is(err, repo.ErrConflict) {
				return ErrNoCredits
			}
			return err
		}
		if _, err := repo.CreateQuestion(ctx, tx, q, s.Lifecycle.Clock.Now()); err != nil {
			return err
		}
		// Benefits last only while the balance is positive.
		return repo.ResetBenefits(ctx, tx, p.ID)
	})
	if err != nil {
		return nil, err
	}

	v := &QuestionView{Question: *q}
	v.RemainingSeconds = lifecycle.RemainingSeconds(q.CreatedAt, q.DeadlineMinutes, s.Lifecycle.Clock.Now())
	return v, nil
}

// ListMine returns a page of the principal's questions, newest first, with
// countdowns re-derived from absolute timestamps. Questions whose window has
// lapsed but whose transition has not been applied yet simply show zero.
func (s *QuestionService) ListMine(ctx context.Context, p Principal, page, pageSize int) ([]QuestionView, int64, error) {
	tr := otel.Tracer("services/QuestionService")
	ctx, span := tr.Start(ctx, "ListMine",
		trace.WithAttributes(
			attribute.String("user.id", p.ID),
			attribute.Int("page", page),
		),
	)
	defer span.End()

	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := repo.CountQuestions(ctx, s.DB, p.ID)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []QuestionView{}, 0, nil
	}

	items, err := repo.ListQuestionsPage(ctx, s.DB, p.ID, offset, pageSize)
	if err != nil {
		return nil, 0, err
	}
	return s.views(items), total, nil
}

// ListOpen returns the pending questions collaborators can still answer,
// oldest first so the ones closest to timing out surface on top.
func (s *QuestionService) ListOpen(ctx context.Context, limit int) ([]QuestionView, error) {
	items, err := repo.ListPendingQuestions(ctx, s.DB, limit)
	if err != nil {
		return nil, err
	}
	return s.views(items), nil
}

// Get returns one question with its countdown, re-evaluating the lifecycle
// first so a lapsed question reads terminal rather than "0 seconds left".
func (s *QuestionService) Get(ctx context.Context, id string) (*QuestionView, error) {
	if err := s.Lifecycle.EvaluateQuestion(ctx, id); err != nil {
		return nil, err
	}
	q, err := repo.GetQuestion(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrQuestionNotFound
		}
		return nil, err
	}
	v := s.views([]domain.Question{*q})
	return &v[0], nil
}

func (s *QuestionService) views(items []domain.Question) []QuestionView {
	now := s.Lifecycle.Clock.Now()
	out := make([]QuestionView, len(items))
	for i := range items {
		out[i] = QuestionView{Question: items[i]}
		if items[i].Pending() {
			out[i].RemainingSeconds = lifecycle.RemainingSeconds(items[i].CreatedAt, items[i].DeadlineMinutes, now)
		}
	}
	return out
}
