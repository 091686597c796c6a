// Answer HTTP handlers.
//
// This file exposes REST endpoints for answer resources:
//   - POST  /questions/{id}/answers   (submit; collaborators only)
//   - GET   /questions/{id}/answers   (list, pro authors first)
//   - GET   /answers                  (caller's own answers, paginated)
//   - POST  /answers/{id}/accept      (question owner marks an answer accepted)
//
// Submission is where the admission rules surface to clients: a closed or full
// question and a repeat author each get a distinct error code, so the app can
// show the right message without parsing text.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yahora/yahora-backend/internal/services"
)

// SubmitAnswerRequest is the JSON payload for answering a question.
type SubmitAnswerRequest struct {
	// Content is the answer text (1–500 chars after trimming).
	Content string `json:"content" binding:"required" example:"The downtown office is open until 4pm, bring your ID card."`
}

// SubmitAnswer godoc
// @ID          submitAnswer
// @Summary     Answer a question
// @Description Appends an answer to an open question. Each collaborator may answer a question once; a question holds at most five answers.
// @Tags        Answers
// @Accept      json
// @Produce     json
//
// @Param       id    path  string  true  "Question ID (UUID)"  format(uuid)
// @Param       body  body  handlers.SubmitAnswerRequest  true  "Answer payload"
//
// @Success     201  {object}  domain.Answer
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse  "Not a collaborator"
// @Failure     404  {object}  handlers.ErrorResponse  "Question not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Closed, full, or duplicate"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /questions/{id}/answers [post]
func (h *Handlers) SubmitAnswer(c *gin.Context) {
	p, okP := mustPrincipal(c)
	if !okP {
		return
	}

	questionID := c.Param("id")
	if _, err := uuid.Parse(questionID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "question id must be a UUID")
		return
	}

	var req SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	ans, err := h.answerSvc.Submit(c.Request.Context(), p, questionID, req.Content)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrForbidden):
			fail(c, http.StatusForbidden, ErrCodeForbidden, "only collaborators can answer")
		case errors.Is(err, services.ErrContentLength):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "content must be 1-500 characters")
		case errors.Is(err, services.ErrQuestionNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "question not found")
		case errors.Is(err, services.ErrQuestionClosed):
			fail(c, http.StatusConflict, ErrCodeQuestionClosed, "question is closed")
		case errors.Is(err, services.ErrMaxAnswersReached):
			fail(c, http.StatusConflict, ErrCodeMaxAnswers, "maximum number of answers reached")
		case errors.Is(err, services.ErrDuplicateAnswer):
			fail(c, http.StatusConflict, ErrCodeDuplicateAnswer, "already answered this question")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusCreated, ans)
}

// ListAnswers godoc
// @ID          listAnswers
// @Summary     List a question's answers
// @Description Returns the answers of a question, pro-tier authors first, then oldest first.
// @Tags        Answers
// @Produce     json
//
// @Param       id  path  string  true  "Question ID (UUID)"  format(uuid)
//
// @Success     200  {array}   domain.Answer
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /questions/{id}/answers [get]
func (h *Handlers) ListAnswers(c *gin.Context) {
	questionID := c.Param("id")
	if _, err := uuid.Parse(questionID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "question id must be a UUID")
		return
	}

	items, err := h.answerSvc.List(c.Request.Context(), questionID)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, items)
}

// ListMyAnswers godoc
// @ID          listMyAnswers
// @Summary     List own answers (paginated)
// @Description Returns a page of the caller's answers, newest first.
// @Tags        Answers
// @Produce     json
//
// @Param       page       query  int  false "Page number"     minimum(1) default(1)
// @Param       page_size  query  int  false "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {array}   domain.Answer
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /answers [get]
func (h *Handlers) ListMyAnswers(c *gin.Context) {
	p, okP := mustPrincipal(c)
	if !okP {
		return
	}
	page, pageSize := clampPagination(c)

	items, err := h.answerSvc.ListMine(c.Request.Context(), p, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, items)
}

// AcceptAnswer godoc
// @ID          acceptAnswer
// @Summary     Accept an answer
// @Description Marks an answer accepted and credits the author's payout. Only the question owner (or an admin) may accept, and only once per answer.
// @Tags        Answers
// @Produce     json
//
// @Param       id  path  string  true  "Answer ID (UUID)"  format(uuid)
//
// @Success     204  {string}  string "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse  "Not the question owner"
// @Failure     404  {object}  handlers.ErrorResponse  "Answer not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Already accepted"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /answers/{id}/accept [post]
func (h *Handlers) AcceptAnswer(c *gin.Context) {
	p, okP := mustPrincipal(c)
	if !okP {
		return
	}

	answerID := c.Param("id")
	if _, err := uuid.Parse(answerID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "answer id must be a UUID")
		return
	}

	if err := h.answerSvc.Accept(c.Request.Context(), p, answerID); err != nil {
		switch {
		case errors.Is(err, services.ErrAnswerNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "answer not found")
		case errors.Is(err, services.ErrForbidden):
			fail(c, http.StatusForbidden, ErrCodeForbidden, "only the question owner can accept")
		case errors.Is(err, services.ErrAlreadyAccepted):
			fail(c, http.StatusConflict, ErrCodeConflict, "answer already accepted")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	noContent(c)
}
