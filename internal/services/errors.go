// Package services defines the business logic for questions, answers,
// credits, and purchases. This file centralizes common service-level error
// values so that they can be consistently returned by service methods and
// checked by callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages or HTTP status codes should be
// performed at the handler layer.
package services

import "errors"

// Question-related errors.
var (
	// ErrQuestionNotFound indicates that the requested question does not
	// exist or is not accessible to the current principal.
	ErrQuestionNotFound = errors.New("question not found")

	// ErrContentLength is returned when question or answer content is outside
	// the allowed 10-500 (questions) or 1-500 (answers) character range.
	ErrContentLength = errors.New("content length out of range")

	// ErrUnknownCategory is returned when the referenced category does not
	// exist or is inactive.
	ErrUnknownCategory = errors.New("unknown category")

	// ErrUnknownZone is returned when the referenced zone does not exist or
	// is inactive.
	ErrUnknownZone = errors.New("unknown zone")

	// ErrNoCredits is returned when a principal with an empty balance tries
	// to create a question.
	ErrNoCredits = errors.New("no questions available")

	// ErrImagesNotAllowed is returned when a question carries an image URL
	// but the owner has not purchased the image benefit.
	ErrImagesNotAllowed = errors.New("image attachments not purchased")
)

// Answer-related errors.
var (
	// ErrQuestionClosed is returned when answering a question that already
	// reached a terminal status.
	ErrQuestionClosed = errors.New("question is closed")

	// ErrMaxAnswersReached is returned when a question already holds the
	// maximum number of answers.
	ErrMaxAnswersReached = errors.New("maximum number of answers reached")

	// ErrDuplicateAnswer is returned when an author answers the same question
	// twice.
	ErrDuplicateAnswer = errors.New("already answered this question")

	// ErrAnswerNotFound indicates the requested answer does not exist.
	ErrAnswerNotFound = errors.New("answer not found")

	// ErrAlreadyAccepted is returned when accepting an answer twice.
	ErrAlreadyAccepted = errors.New("answer already accepted")
)

// Authorization and purchase errors.
var (
	// ErrForbidden is returned when the principal's role does not permit the
	// operation or it targets someone else's resource.
	ErrForbidden = errors.New("operation not permitted")

	// ErrPurchaseNotFound indicates the requested purchase does not exist.
	ErrPurchaseNotFound = errors.New("purchase not found")

	// ErrPurchaseReviewed is returned when reviewing a purchase that was
	// already approved or rejected.
	ErrPurchaseReviewed = errors.New("purchase already reviewed")
)
