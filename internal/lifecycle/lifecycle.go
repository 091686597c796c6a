// Package lifecycle owns the pending-to-terminal transition of questions.
//
// A question is created pending with a deadline anchored to its creation
// timestamp. It closes when either the answer cap is reached or the window
// elapses, whichever is observed first. The closing condition is level
// triggered: it is re-derived from absolute timestamps and the durable answer
// count on every observation, so reloads, reconnects, and arbitrarily delayed
// ticks never corrupt the countdown. The transition itself is a
// compare-and-set in the store, so any number of concurrent observers
// produce exactly one transition and at most one refund.
//
// This file holds the pure decision logic; manager.go applies decisions and
// sweeper.go drives periodic re-evaluation.
package lifecycle

import (
	"time"

	"github.com/yahora/yahora-backend/internal/domain"
)

// Clock supplies the current instant. Production code uses SystemClock;
// tests substitute a fixed or stepped implementation.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

// Now implements Clock.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// Remaining returns how long the question's answer window stays open at the
// given instant, floored at zero. It is a pure function of the creation
// timestamp and the window length; no elapsed-tick state is involved.
func Remaining(createdAt time.Time, deadlineMinutes int, now time.Time) time.Duration {
	d := createdAt.Add(time.Duration(deadlineMinutes) * time.Minute).Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// RemainingSeconds is Remaining rounded down to whole seconds, the value
// clients display as the countdown.
func RemainingSeconds(createdAt time.Time, deadlineMinutes int, now time.Time) int64 {
	return int64(Remaining(createdAt, deadlineMinutes, now) / time.Second)
}

// Decision is the outcome of evaluating a pending question.
type Decision struct {
	// Close reports whether a transition is due.
	Close bool
	// Cause is domain.CauseTimeout or domain.CauseMaxAnswers when Close is set.
	Cause string
}

// Evaluate decides whether a question must transition at the given instant.
// Questions already terminal never transition again. The answer cap wins over
// the timeout when both hold, though the terminal status comes out the same
// either way (a full question has answers).
func Evaluate(status string, createdAt time.Time, deadlineMinutes, answerCount int, now time.Time) Decision {
	if status != domain.StatusPending {
		return Decision{}
	}
	if answerCount >= domain.MaxAnswersPerQuestion {
		return Decision{Close: true, Cause: domain.CauseMaxAnswers}
	}
	if Remaining(createdAt, deadlineMinutes, now) == 0 {
		return Decision{Close: true, Cause: domain.CauseTimeout}
	}
	return Decision{}
}

// TerminalStatus maps the durable answer count at transition time to the
// terminal status: at least one answer means answered, none means closed.
// The store's close statement applies this same rule against the row's own
// counter, so the derivation can never act on a stale in-memory count.
func TerminalStatus(answerCount int64) string {
	if answerCount > 0 {
		return domain.StatusAnswered
	}
	return domain.StatusClosed
}

// RefundDue reports whether closing with the given cause and durable answer
// count entitles the owner to a question-credit refund. The decision is a
// function of durable state only; which principal's process observed the
// condition first is irrelevant.
func RefundDue(cause string, answerCount int64) bool {
	return cause == domain.CauseTimeout && answerCount == 0
}
