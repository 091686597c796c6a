package lifecycle

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/yahora/yahora-backend/internal/domain"
	"github.com/yahora/yahora-backend/internal/notify"
	"github.com/yahora/yahora-backend/internal/repo"
)

// stepClock is a manually advanced Clock.
type stepClock struct {
	mu sync.Mutex
	at time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.at
}

func (c *stepClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.at = c.at.Add(d)
	c.mu.Unlock()
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := repo.OpenSQLite(filepath.Join(t.TempDir(), "lifecycle.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedProfile(t *testing.T, db *gorm.DB, id, email string, credits int) {
	t.Helper()
	p := &domain.Profile{
		ID: id, Email: email, FullName: "Test " + id,
		Role: domain.RoleUser, AvailableQuestions: credits, DeadlineMinutes: 7,
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("seed profile %s: %v", id, err)
	}
}

func seedQuestion(t *testing.T, db *gorm.DB, ownerID string, minutes int, at time.Time) *domain.Question {
	t.Helper()
	q, err := repo.CreateQuestion(context.Background(), db, &domain.Question{
		OwnerID:         ownerID,
		Content:         "where is the nearest notary open on saturdays?",
		CategoryID:      "cat-1",
		DeadlineMinutes: minutes,
	}, at)
	if err != nil {
		t.Fatalf("seed question: %v", err)
	}
	return q
}

func seedAnswer(t *testing.T, db *gorm.DB, questionID, authorID string, at time.Time) *domain.Answer {
	t.Helper()
	seedProfile(t, db, authorID, authorID+"@example.com", 0)
	a, err := repo.InsertAnswer(context.Background(), db, &domain.Answer{
		QuestionID: questionID,
		AuthorID:   authorID,
		Content:    "try the office on the main square",
		Payout:     0.30,
	}, at)
	if err != nil {
		t.Fatalf("seed answer by %s: %v", authorID, err)
	}
	return a
}

func TestEvaluateQuestion_AnswerLandingAfterLapse_LabelsAnswered(t *testing.T) {
	db := newTestDB(t)
	clk := &stepClock{at: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)}
	m := NewManager(db, clk, notify.NewBus())
	ctx := context.Background()

	seedProfile(t, db, "owner-7", "owner7@example.com", 0)
	q := seedQuestion(t, db, "owner-7", 3, clk.Now())

	// The window lapses, then an answer commits before any closer applies the
	// transition (its store guard passes: the row is still pending). The close
	// that follows must read answered off the durable counter, not the zero a
	// closer saw before the answer landed.
	clk.Advance(3*time.Minute + time.Second)
	seedAnswer(t, db, q.ID, "late-collab", clk.Now())

	if err := m.EvaluateQuestion(ctx, q.ID); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	got, _ := repo.GetQuestion(ctx, db, q.ID)
	if got.Status != domain.StatusAnswered || got.CloseCause == nil || *got.CloseCause != domain.CauseTimeout {
		t.Fatalf("unexpected terminal row: %+v", got)
	}
	if got.RefundIssued {
		t.Fatalf("refund issued for an answered question")
	}
	prof, _ := repo.GetProfile(ctx, db, "owner-7")
	if prof.AvailableQuestions != 0 {
		t.Fatalf("balance = %d, want 0", prof.AvailableQuestions)
	}
}

func TestEvaluateQuestion_EmptyTimeout_RefundsExactlyOnce(t *testing.T) {
	db := newTestDB(t)
	clk := &stepClock{at: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)}
	m := NewManager(db, clk, notify.NewBus())
	ctx := context.Background()

	seedProfile(t, db, "owner-1", "owner1@example.com", 0)
	q := seedQuestion(t, db, "owner-1", 3, clk.Now())

	// Still inside the window: nothing happens.
	clk.Advance(2 * time.Minute)
	if err := m.EvaluateQuestion(ctx, q.ID); err != nil {
		t.Fatalf("evaluate (open): %v", err)
	}
	got, _ := repo.GetQuestion(ctx, db, q.ID)
	if got.Status != domain.StatusPending {
		t.Fatalf("closed too early: %+v", got)
	}

	// Window elapsed with zero answers: closed + refund.
	clk.Advance(time.Minute + time.Second)
	if err := m.EvaluateQuestion(ctx, q.ID); err != nil {
		t.Fatalf("evaluate (expired): %v", err)
	}
	got, _ = repo.GetQuestion(ctx, db, q.ID)
	if got.Status != domain.StatusClosed || got.CloseCause == nil || *got.CloseCause != domain.CauseTimeout {
		t.Fatalf("unexpected terminal state: %+v", got)
	}
	if !got.RefundIssued {
		t.Fatal("refund flag not set")
	}
	prof, _ := repo.GetProfile(ctx, db, "owner-1")
	if prof.AvailableQuestions != 1 {
		t.Fatalf("balance = %d, want 1", prof.AvailableQuestions)
	}

	// Re-evaluating a terminal question changes nothing.
	if err := m.EvaluateQuestion(ctx, q.ID); err != nil {
		t.Fatalf("evaluate (terminal): %v", err)
	}
	prof, _ = repo.GetProfile(ctx, db, "owner-1")
	if prof.AvailableQuestions != 1 {
		t.Fatalf("double refund: balance = %d", prof.AvailableQuestions)
	}
}

func TestEvaluateQuestion_TimeoutWithAnswers_AnsweredNoRefund(t *testing.T) {
	db := newTestDB(t)
	clk := &stepClock{at: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)}
	m := NewManager(db, clk, notify.NewBus())
	ctx := context.Background()

	seedProfile(t, db, "owner-2", "owner2@example.com", 0)
	q := seedQuestion(t, db, "owner-2", 3, clk.Now())
	seedAnswer(t, db, q.ID, "collab-a", clk.Now().Add(time.Minute))
	seedAnswer(t, db, q.ID, "collab-b", clk.Now().Add(2*time.Minute))

	clk.Advance(3*time.Minute + time.Second)
	if err := m.EvaluateQuestion(ctx, q.ID); err != nil {
		t.Fatalf("evaluate: %v", err)
	}

	got, _ := repo.GetQuestion(ctx, db, q.ID)
	if got.Status != domain.StatusAnswered {
		t.Fatalf("status = %q, want answered", got.Status)
	}
	if got.CloseCause == nil || *got.CloseCause != domain.CauseTimeout {
		t.Fatalf("cause = %v, want timeout", got.CloseCause)
	}
	if got.RefundIssued {
		t.Fatal("refund issued despite answers")
	}
	prof, _ := repo.GetProfile(ctx, db, "owner-2")
	if prof.AvailableQuestions != 0 {
		t.Fatalf("balance = %d, want 0", prof.AvailableQuestions)
	}
}

func TestOnAnswerInserted_CapClosesEarly(t *testing.T) {
	db := newTestDB(t)
	clk := &stepClock{at: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)}
	bus := notify.NewBus()
	m := NewManager(db, clk, bus)
	ctx := context.Background()

	seedProfile(t, db, "owner-3", "owner3@example.com", 0)
	q := seedQuestion(t, db, "owner-3", 7, clk.Now())

	ch, cancel := bus.Subscribe(q.ID)
	defer cancel()

	// Five answers inside the first minute fill the question.
	authors := []string{"c1", "c2", "c3", "c4", "c5"}
	var last *domain.Answer
	for i, author := range authors {
		clk.Advance(10 * time.Second)
		last = seedAnswer(t, db, q.ID, author, clk.Now())
		if err := m.OnAnswerInserted(ctx, q.ID, last.ID); err != nil {
			t.Fatalf("answer %d: %v", i+1, err)
		}
	}

	got, _ := repo.GetQuestion(ctx, db, q.ID)
	if got.Status != domain.StatusAnswered || got.AnswerCount != domain.MaxAnswersPerQuestion {
		t.Fatalf("unexpected state after cap: %+v", got)
	}
	if got.CloseCause == nil || *got.CloseCause != domain.CauseMaxAnswers {
		t.Fatalf("cause = %v, want max_answers", got.CloseCause)
	}
	if got.RefundIssued {
		t.Fatal("cap close must not refund")
	}

	// A sixth answer bounces off the cap.
	seedProfile(t, db, "c6", "c6@example.com", 0)
	_, err := repo.InsertAnswer(ctx, db, &domain.Answer{
		QuestionID: q.ID, AuthorID: "c6", Content: "too late",
	}, clk.Now())
	if err == nil {
		t.Fatal("expected sixth answer to be rejected")
	}

	// The bus saw both answer and close events.
	var kinds []string
	for len(kinds) < 2 {
		select {
		case ev := <-ch:
			kinds = append(kinds, ev.Kind)
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for events, got %v", kinds)
		}
	}
}

func TestEvaluateQuestion_ConcurrentClosers_OneTransitionOneRefund(t *testing.T) {
	db := newTestDB(t)
	clk := &stepClock{at: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)}
	m := NewManager(db, clk, notify.NewBus())
	ctx := context.Background()

	seedProfile(t, db, "owner-4", "owner4@example.com", 2)
	q := seedQuestion(t, db, "owner-4", 3, clk.Now())
	clk.Advance(4 * time.Minute)

	const closers = 8
	var wg sync.WaitGroup
	errs := make(chan error, closers)
	for i := 0; i < closers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- m.EvaluateQuestion(ctx, q.ID)
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent evaluate: %v", err)
		}
	}

	got, _ := repo.GetQuestion(ctx, db, q.ID)
	if got.Status != domain.StatusClosed || !got.RefundIssued {
		t.Fatalf("unexpected state: %+v", got)
	}
	prof, _ := repo.GetProfile(ctx, db, "owner-4")
	if prof.AvailableQuestions != 3 {
		t.Fatalf("balance = %d, want 3 (one refund applied once)", prof.AvailableQuestions)
	}
}

func TestSweepPending_ClosesOnlyExpired(t *testing.T) {
	db := newTestDB(t)
	clk := &stepClock{at: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)}
	m := NewManager(db, clk, notify.NewBus())
	ctx := context.Background()

	seedProfile(t, db, "owner-5", "owner5@example.com", 0)
	expired := seedQuestion(t, db, "owner-5", 3, clk.Now())
	clk.Advance(5 * time.Minute)
	fresh := seedQuestion(t, db, "owner-5", 7, clk.Now())

	if err := m.SweepPending(ctx); err != nil {
		t.Fatalf("sweep: %v", err)
	}

	gotExpired, _ := repo.GetQuestion(ctx, db, expired.ID)
	if gotExpired.Status != domain.StatusClosed {
		t.Fatalf("expired question not closed: %+v", gotExpired)
	}
	gotFresh, _ := repo.GetQuestion(ctx, db, fresh.ID)
	if gotFresh.Status != domain.StatusPending {
		t.Fatalf("fresh question closed by sweep: %+v", gotFresh)
	}
}

func TestRetryRefunds_PicksUpMissedCredit(t *testing.T) {
	db := newTestDB(t)
	clk := &stepClock{at: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)}
	m := NewManager(db, clk, notify.NewBus())
	ctx := context.Background()

	seedProfile(t, db, "owner-6", "owner6@example.com", 0)
	q := seedQuestion(t, db, "owner-6", 3, clk.Now())

	// Simulate a close whose refund write was lost: terminal row, flag unset.
	now := clk.Now().Add(4 * time.Minute)
	if err := repo.CloseQuestion(ctx, db, q.ID, domain.CauseTimeout, now); err != nil {
		t.Fatalf("close: %v", err)
	}

	if err := m.RetryRefunds(ctx); err != nil {
		t.Fatalf("retry: %v", err)
	}
	prof, _ := repo.GetProfile(ctx, db, "owner-6")
	if prof.AvailableQuestions != 1 {
		t.Fatalf("balance = %d, want 1", prof.AvailableQuestions)
	}

	// Second pass is a no-op thanks to the guarded flag.
	if err := m.RetryRefunds(ctx); err != nil {
		t.Fatalf("retry again: %v", err)
	}
	prof, _ = repo.GetProfile(ctx, db, "owner-6")
	if prof.AvailableQuestions != 1 {
		t.Fatalf("retry double-refunded: balance = %d", prof.AvailableQuestions)
	}
}

func TestSnapshot_CountdownViews(t *testing.T) {
	clk := &stepClock{at: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)}
	m := &Manager{Clock: clk}

	q := &domain.Question{
		Status:          domain.StatusPending,
		DeadlineMinutes: 7,
		CreatedAt:       clk.Now(),
	}
	clk.Advance(90 * time.Second)
	s := m.Snapshot(q)
	if s.RemainingSeconds != 330 {
		t.Fatalf("remaining = %d, want 330", s.RemainingSeconds)
	}

	q.Status = domain.StatusAnswered
	if s := m.Snapshot(q); s.RemainingSeconds != 0 {
		t.Fatalf("terminal question must report 0, got %d", s.RemainingSeconds)
	}
}
