// Package domain defines the persistence models for profiles, questions,
// answers, and the reference tables they point at. These types are mapped
// with GORM and form the core data layer of the application.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Profile roles. Collaborators answer questions; admins additionally manage
// reference data and purchase approvals.
const (
	RoleUser         = "user"
	RoleCollaborator = "collaborator"
	RoleAdmin        = "admin"
)

// Question lifecycle statuses. "pending" is the only non-terminal status:
// once a question leaves it, no further automatic transition occurs.
const (
	StatusPending  = "pending"
	StatusAnswered = "answered"
	StatusClosed   = "closed"
)

// Close causes recorded on a terminal question.
const (
	CauseTimeout    = "timeout"
	CauseMaxAnswers = "max_answers"
)

// MaxAnswersPerQuestion caps how many answers a single question may collect.
const MaxAnswersPerQuestion = 5

// Profile represents a registered account: an asker, a collaborator, or an
// admin. Question credits and purchased benefits live here.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - Email / FullName: account identity.
//   - Role: "user", "collaborator", or "admin" (enforced by DB constraint).
//   - Pro: higher collaborator tier; affects answer ordering and payout.
//   - AvailableQuestions: non-negative question-credit balance. Decremented
//     on question creation, incremented by exactly 1 on a timeout refund.
//   - DeadlineMinutes: minutes a question stays open; a purchased benefit,
//     3..7 with 7 the default.
//   - ImagesAllowed: purchased benefit permitting image attachments.
//   - Earnings: accumulated collaborator payout in Bs.
type Profile struct {
	ID                 string         `json:"id"         gorm:"type:char(36);primaryKey"`
	Email              string         `json:"email"      gorm:"type:varchar(255);not null;uniqueIndex"`
	FullName           string         `json:"full_name"  gorm:"type:varchar(255);not null"`
	Role               string         `json:"role"       gorm:"type:varchar(16);not null;default:'user';check:role IN ('user','collaborator','admin')"`
	Pro                bool           `json:"pro"        gorm:"not null;default:false"`
	AvailableQuestions int            `json:"available_questions" gorm:"not null;default:0;check:available_questions >= 0"`
	DeadlineMinutes    int            `json:"deadline_minutes"    gorm:"not null;default:7;check:deadline_minutes BETWEEN 3 AND 7"`
	ImagesAllowed      bool           `json:"images_allowed"      gorm:"not null;default:false"`
	Earnings           float64        `json:"earnings"   gorm:"not null;default:0"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `json:"-"          gorm:"index"`
}

// TableName returns the database table name for Profile.
func (Profile) TableName() string { return "profiles" }

// Question represents a time-boxed request submitted by a user. It is created
// "pending" with a deadline anchored to CreatedAt and transitions exactly once
// to a terminal status, either because the answer cap was reached or because
// the window elapsed.
//
// Fields:
//   - ID: UUID primary key (char(36)).
//   - OwnerID: profile that asked; indexed for owner listings.
//   - Content: question text, 10-500 characters (validated at creation).
//   - CategoryID / ZoneID: reference-table pointers; zone is optional.
//   - ImageURL: optional attachment already uploaded to external storage.
//   - DeadlineMinutes: snapshot of the owner's window at creation time, so
//     later benefit changes never move an open question's deadline.
//   - Status: pending | answered | closed (enforced by DB constraint).
//   - AnswerCount: denormalized counter, bumped only through the conditional
//     update in the repo layer; never exceeds MaxAnswersPerQuestion.
//   - CloseCause: timeout | max_answers, set on transition.
//   - RefundIssued: dedupe flag; set in the same close write that decides the
//     refund, so concurrent closers cannot double-refund.
//   - ClosedAt: transition timestamp.
//
// All timestamps are stored in UTC.
type Question struct {
	ID              string         `json:"id"         gorm:"type:char(36);primaryKey"`
	OwnerID         string         `json:"owner_id"   gorm:"type:char(36);not null;index:idx_owner_questions"`
	Content         string         `json:"content"    gorm:"type:text;not null"`
	CategoryID      string         `json:"category_id" gorm:"type:char(36);not null;index"`
	ZoneID          *string        `json:"zone_id,omitempty" gorm:"type:char(36)"`
	ImageURL        *string        `json:"image_url,omitempty" gorm:"type:varchar(512)"`
	DeadlineMinutes int            `json:"deadline_minutes" gorm:"not null;default:7"`
	Status          string         `json:"status"     gorm:"type:varchar(16);not null;default:'pending';index;check:status IN ('pending','answered','closed')"`
	AnswerCount     int            `json:"answer_count" gorm:"not null;default:0;check:answer_count BETWEEN 0 AND 5"`
	CloseCause      *string        `json:"close_cause,omitempty" gorm:"type:varchar(16);check:close_cause IN ('timeout','max_answers')"`
	RefundIssued    bool           `json:"refund_issued" gorm:"not null;default:false"`
	ClosedAt        *time.Time     `json:"closed_at,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `json:"-"          gorm:"index"`

	// Owner is the asking profile.
	Owner Profile `json:"-" gorm:"foreignKey:OwnerID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Question.
func (Question) TableName() string { return "questions" }

// Pending reports whether the question is still open for answers and
// automatic transitions.
func (q *Question) Pending() bool { return q.Status == StatusPending }

// Deadline returns the absolute instant the answer window ends. It is always
// derived from CreatedAt, never from a cached countdown.
func (q *Question) Deadline() time.Time {
	return q.CreatedAt.Add(time.Duration(q.DeadlineMinutes) * time.Minute)
}

// Answer represents a collaborator's response to a question. Answers are
// immutable once created; a given author may submit at most one answer per
// question (unique composite index).
//
// Fields:
//   - Payout: amount in Bs credited to the author if the answer is accepted,
//     snapshotted from the author's tier at submission time.
//   - Accepted: set once by the question owner; triggers the payout.
type Answer struct {
	ID         string         `json:"id"          gorm:"type:char(36);primaryKey"`
	QuestionID string         `json:"question_id" gorm:"type:char(36);not null;index;uniqueIndex:ux_answer_question_author"`
	AuthorID   string         `json:"author_id"   gorm:"type:char(36);not null;index;uniqueIndex:ux_answer_question_author"`
	Content    string         `json:"content"     gorm:"type:text;not null"`
	Payout     float64        `json:"payout"      gorm:"not null;default:0"`
	Accepted   bool           `json:"accepted"    gorm:"not null;default:false"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-"           gorm:"index"`

	// Question is the parent question. Answers are cascade-deleted if their
	// question is removed.
	Question Question `json:"-" gorm:"foreignKey:QuestionID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Answer.
func (Answer) TableName() string { return "answers" }

// Category is a reference row questions are classified under.
type Category struct {
	ID        string    `json:"id"     gorm:"type:char(36);primaryKey"`
	Name      string    `json:"name"   gorm:"type:varchar(128);not null;uniqueIndex"`
	Active    bool      `json:"active" gorm:"not null;default:true"`
	SortOrder int       `json:"sort_order" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Category.
func (Category) TableName() string { return "categories" }

// Zone is an optional geographic reference row attached to questions.
type Zone struct {
	ID        string    `json:"id"     gorm:"type:char(36);primaryKey"`
	Name      string    `json:"name"   gorm:"type:varchar(128);not null;uniqueIndex"`
	Active    bool      `json:"active" gorm:"not null;default:true"`
	SortOrder int       `json:"sort_order" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Zone.
func (Zone) TableName() string { return "zones" }
