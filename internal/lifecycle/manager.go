// Manager applies lifecycle decisions against the store. All mutations go
// through conditional updates in the repo layer; the manager holds no lock
// and never assumes it is the only process evaluating a question.
package lifecycle

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/yahora/yahora-backend/internal/domain"
	"github.com/yahora/yahora-backend/internal/notify"
	"github.com/yahora/yahora-backend/internal/repo"
)

// Manager evaluates pending questions and applies due transitions.
type Manager struct {
	DB       *gorm.DB
	Clock    Clock
	Notifier notify.Notifier
}

// NewManager wires a Manager; a nil clock defaults to the system clock.
func NewManager(db *gorm.DB, clock Clock, n notify.Notifier) *Manager {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Manager{DB: db, Clock: clock, Notifier: n}
}

// EvaluateQuestion re-derives the closing condition for one question and, if
// due, applies the transition exactly once. Safe to call any number of times
// from any number of processes:
//
//  1. A terminal question is a no-op.
//  2. The transition is a compare-and-set on status; losing the race to
//     another closer is benign.
//  3. The terminal status and the refund decision are computed from the
//     durable answer count read at transition time, not from whatever stale
//     count the caller may hold.
//  4. A refund write that fails after a confirmed close is logged and left
//     for RetryRefunds; the close is never re-attempted.
func (m *Manager) EvaluateQuestion(ctx context.Context, questionID string) error {
	tr := otel.Tracer("lifecycle/Manager")
	ctx, span := tr.Start(ctx, "EvaluateQuestion",
		trace.WithAttributes(attribute.String("question.id", questionID)),
	)
	defer span.End()

	q, err := repo.GetQuestion(ctx, m.DB, questionID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil
		}
		return err
	}
	if !q.Pending() {
		return nil
	}

	now := m.Clock.Now()
	dec := Evaluate(q.Status, q.CreatedAt, q.DeadlineMinutes, q.AnswerCount, now)
	if !dec.Close {
		return nil
	}

	// The terminal status is derived inside the CAS from the row's durable
	// answer_count: a last-moment answer that raced the timeout flips the
	// status to answered and voids the refund, even if it committed after the
	// stale count this goroutine read above.
	err = repo.CloseQuestion(ctx, m.DB, q.ID, dec.Cause, now)
	switch {
	case errors.Is(err, repo.ErrConflict):
		// Another closer won; nothing left to do.
		return nil
	case err != nil:
		return err
	}

	// Re-read the written row; answer_count is frozen once status leaves
	// pending, so this reflects exactly what the transition saw.
	closed, err := repo.GetQuestion(ctx, m.DB, q.ID)
	if err != nil {
		return err
	}
	status := closed.Status
	count := int64(closed.AnswerCount)

	log.Info().
		Str("question_id", q.ID).
		Str("status", status).
		Str("cause", dec.Cause).
		Int64("answers", count).
		Msg("question closed")

	if RefundDue(dec.Cause, count) {
		if err := repo.IssueRefund(ctx, m.DB, q.ID); err != nil && !errors.Is(err, repo.ErrConflict) {
			// Close already happened; the credit must not be lost. Leave the
			// refund_issued flag unset so RetryRefunds picks it up.
			log.Error().Err(err).
				Str("question_id", q.ID).
				Str("owner_id", q.OwnerID).
				Msg("refund failed after close; queued for retry")
		}
	}

	if m.Notifier != nil {
		if err := m.Notifier.Publish(ctx, notify.Event{
			Kind:       notify.KindQuestionUpdated,
			QuestionID: q.ID,
			Status:     status,
			At:         now,
		}); err != nil {
			log.Warn().Err(err).Str("question_id", q.ID).Msg("close notification failed")
		}
	}
	return nil
}

// OnAnswerInserted is the notification hook for new answers: it publishes the
// insertion and immediately re-evaluates the question, which closes it when
// the cap was just reached.
func (m *Manager) OnAnswerInserted(ctx context.Context, questionID, answerID string) error {
	if m.Notifier != nil {
		if err := m.Notifier.Publish(ctx, notify.Event{
			Kind:       notify.KindAnswerInserted,
			QuestionID: questionID,
			AnswerID:   answerID,
			At:         m.Clock.Now(),
		}); err != nil {
			log.Warn().Err(err).Str("question_id", questionID).Msg("answer notification failed")
		}
	}
	return m.EvaluateQuestion(ctx, questionID)
}

// SweepPending re-evaluates every pending question once. Each question fails
// or closes independently; the first store error aborts the sweep and the
// next tick retries.
func (m *Manager) SweepPending(ctx context.Context) error {
	pending, err := repo.ListPendingQuestions(ctx, m.DB, 0)
	if err != nil {
		return err
	}
	for i := range pending {
		if err := m.EvaluateQuestion(ctx, pending[i].ID); err != nil {
			return err
		}
	}
	return nil
}

// RetryRefunds re-attempts refunds that failed after a confirmed close.
func (m *Manager) RetryRefunds(ctx context.Context) error {
	due, err := repo.ListUnrefunded(ctx, m.DB, 0)
	if err != nil {
		return err
	}
	for i := range due {
		q := &due[i]
		if err := repo.IssueRefund(ctx, m.DB, q.ID); err != nil {
			if errors.Is(err, repo.ErrConflict) {
				continue
			}
			log.Error().Err(err).Str("question_id", q.ID).Msg("refund retry failed")
			continue
		}
		log.Info().Str("question_id", q.ID).Str("owner_id", q.OwnerID).Msg("refund issued on retry")
	}
	return nil
}

// Snapshot is the client-facing view of a question's countdown.
type Snapshot struct {
	Status           string `json:"status"`
	AnswerCount      int    `json:"answer_count"`
	RemainingSeconds int64  `json:"remaining_seconds"`
}

// Snapshot derives the current countdown view for one question.
func (m *Manager) Snapshot(q *domain.Question) Snapshot {
	s := Snapshot{Status: q.Status, AnswerCount: q.AnswerCount}
	if q.Pending() {
		s.RemainingSeconds = RemainingSeconds(q.CreatedAt, q.DeadlineMinutes, m.Clock.Now())
	}
	return s
}
