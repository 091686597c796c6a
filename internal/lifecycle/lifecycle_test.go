package lifecycle

import (
	"testing"
	"time"

	"github.com/yahora/yahora-backend/internal/domain"
)

var t0 = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func TestRemaining_DerivedFromAbsoluteInstants(t *testing.T) {
	// Full window at creation.
	if got := Remaining(t0, 7, t0); got != 7*time.Minute {
		t.Fatalf("at creation: %v", got)
	}
	// Partway through.
	if got := Remaining(t0, 7, t0.Add(2*time.Minute)); got != 5*time.Minute {
		t.Fatalf("after 2m: %v", got)
	}
	// An observer arriving late sees zero, never a negative value.
	if got := Remaining(t0, 7, t0.Add(421*time.Second)); got != 0 {
		t.Fatalf("after expiry: %v", got)
	}
	if got := Remaining(t0, 7, t0.Add(24*time.Hour)); got != 0 {
		t.Fatalf("a day later: %v", got)
	}
}

func TestRemainingSeconds_FloorsToWholeSeconds(t *testing.T) {
	if got := RemainingSeconds(t0, 3, t0.Add(500*time.Millisecond)); got != 179 {
		t.Fatalf("got %d, want 179", got)
	}
	if got := RemainingSeconds(t0, 7, t0); got != 420 {
		t.Fatalf("got %d, want 420", got)
	}
}

func TestEvaluate_Scenarios(t *testing.T) {
	cases := []struct {
		name        string
		status      string
		minutes     int
		answers     int
		at          time.Time
		wantClose   bool
		wantCause   string
	}{
		{"open question, window running", domain.StatusPending, 7, 2, t0.Add(time.Minute), false, ""},
		{"window elapsed exactly", domain.StatusPending, 7, 0, t0.Add(7 * time.Minute), true, domain.CauseTimeout},
		{"window elapsed, has answers", domain.StatusPending, 3, 2, t0.Add(4 * time.Minute), true, domain.CauseTimeout},
		{"answer cap reached early", domain.StatusPending, 7, 5, t0.Add(50 * time.Second), true, domain.CauseMaxAnswers},
		{"cap and timeout both hold, cap wins", domain.StatusPending, 3, 5, t0.Add(time.Hour), true, domain.CauseMaxAnswers},
		{"terminal answered never re-closes", domain.StatusAnswered, 7, 5, t0.Add(time.Hour), false, ""},
		{"terminal closed never re-closes", domain.StatusClosed, 7, 0, t0.Add(time.Hour), false, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dec := Evaluate(tc.status, t0, tc.minutes, tc.answers, tc.at)
			if dec.Close != tc.wantClose || dec.Cause != tc.wantCause {
				t.Fatalf("Evaluate = %+v, want close=%v cause=%q", dec, tc.wantClose, tc.wantCause)
			}
		})
	}
}

func TestEvaluate_Deterministic(t *testing.T) {
	// Same durable inputs, same decision, no matter how often it runs.
	at := t0.Add(7 * time.Minute)
	first := Evaluate(domain.StatusPending, t0, 7, 0, at)
	for i := 0; i < 100; i++ {
		if got := Evaluate(domain.StatusPending, t0, 7, 0, at); got != first {
			t.Fatalf("iteration %d: %+v != %+v", i, got, first)
		}
	}
}

func TestTerminalStatus(t *testing.T) {
	if got := TerminalStatus(0); got != domain.StatusClosed {
		t.Fatalf("zero answers: %q", got)
	}
	if got := TerminalStatus(1); got != domain.StatusAnswered {
		t.Fatalf("one answer: %q", got)
	}
	if got := TerminalStatus(5); got != domain.StatusAnswered {
		t.Fatalf("full: %q", got)
	}
}

func TestRefundDue_TimeoutWithZeroAnswersOnly(t *testing.T) {
	if !RefundDue(domain.CauseTimeout, 0) {
		t.Fatal("empty timeout must refund")
	}
	if RefundDue(domain.CauseTimeout, 1) {
		t.Fatal("timeout with answers must not refund")
	}
	if RefundDue(domain.CauseMaxAnswers, 0) {
		t.Fatal("cap close must not refund")
	}
	if RefundDue(domain.CauseMaxAnswers, 5) {
		t.Fatal("cap close must not refund")
	}
}
