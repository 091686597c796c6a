// Question HTTP handlers.
//
// This file exposes REST endpoints for question resources:
//   - POST   /questions          (create; spends one credit)
//   - GET    /questions          (owner's questions, paginated)
//   - GET    /questions/open     (open feed for collaborators)
//   - GET    /questions/{id}     (single question with live countdown)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses. Countdown values in responses are
// derived server-side from absolute timestamps; clients never compute
// deadlines themselves.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yahora/yahora-backend/internal/domain"
	"github.com/yahora/yahora-backend/internal/http/middleware"
	"github.com/yahora/yahora-backend/internal/services"
	"github.com/yahora/yahora-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// QuestionService defines question lifecycle operations consumed by HTTP
// handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type QuestionService interface {
	// Create validates content, spends one credit, and opens a new question.
	Create(ctx context.Context, p services.Principal, content, categoryID string, zoneID, imageURL *string) (*services.QuestionView, error)
	// ListMine returns a page of the principal's questions and the total count.
	ListMine(ctx context.Context, p services.Principal, page, pageSize int) ([]services.QuestionView, int64, error)
	// ListOpen returns still-answerable questions, oldest first.
	ListOpen(ctx context.Context, limit int) ([]services.QuestionView, error)
	// Get returns a single question after re-evaluating its deadline.
	Get(ctx context.Context, id string) (*services.QuestionView, error)
}

// AnswerService defines answer submission and retrieval operations.
type AnswerService interface {
	// Submit appends an answer to an open question, enforcing the per-author
	// and per-question admission rules.
	Submit(ctx context.Context, p services.Principal, questionID, content string) (*domain.Answer, error)
	// List returns a question's answers, pro authors first.
	List(ctx context.Context, questionID string) ([]domain.Answer, error)
	// ListMine returns a page of the principal's own answers.
	ListMine(ctx context.Context, p services.Principal, page, pageSize int) ([]domain.Answer, error)
	// Accept marks an answer accepted and credits the author's payout.
	Accept(ctx context.Context, p services.Principal, answerID string) error
}

// ProfileService exposes the caller's profile and the reference tables,
// including their admin management.
type ProfileService interface {
	Get(ctx context.Context, p services.Principal) (*domain.Profile, error)
	Categories(ctx context.Context) ([]domain.Category, error)
	Zones(ctx context.Context) ([]domain.Zone, error)
	CreateCategory(ctx context.Context, p services.Principal, id, name string, sortOrder int) (*domain.Category, error)
	UpdateCategory(ctx context.Context, p services.Principal, id, name string, sortOrder int, active bool) error
	CreateZone(ctx context.Context, p services.Principal, id, name string, sortOrder int) (*domain.Zone, error)
	UpdateZone(ctx context.Context, p services.Principal, id, name string, sortOrder int, active bool) error
}

// PurchaseService defines the manual credit top-up flow.
type PurchaseService interface {
	Register(ctx context.Context, p services.Principal, questions, deadlineMinutes int, withImages bool, receiptURL string) (*domain.Purchase, error)
	List(ctx context.Context, p services.Principal, status string, page, pageSize int) ([]domain.Purchase, error)
	Approve(ctx context.Context, p services.Principal, purchaseID string) error
	Reject(ctx context.Context, p services.Principal, purchaseID string) error
}

//
// Handler wiring
//

// Handlers groups HTTP endpoints for questions, answers, profiles, and
// purchases. It depends on abstract service interfaces to keep transport
// concerns separate from business logic.
type Handlers struct {
	questionSvc QuestionService
	answerSvc   AnswerService
	profileSvc  ProfileService
	purchaseSvc PurchaseService
}

// New constructs and returns a Handlers instance bound to the given services.
func New(q QuestionService, a AnswerService, pr ProfileService, pu PurchaseService) *Handlers {
	return &Handlers{questionSvc: q, answerSvc: a, profileSvc: pr, purchaseSvc: pu}
}

// principal extracts the authenticated principal from Gin context (set by the
// auth middleware). If absent, it falls back to the "X-User-ID"/"X-User-Role"
// headers (tests use them). The second return is false when no identity is
// available at all.
func principal(c *gin.Context) (services.Principal, bool) {
	if p, ok := middleware.PrincipalFrom(c); ok {
		return p, true
	}
	if c != nil && c.Request != nil {
		if id := strings.TrimSpace(c.GetHeader("X-User-ID")); id != "" {
			role := strings.TrimSpace(c.GetHeader("X-User-Role"))
			if role == "" {
				role = domain.RoleUser
			}
			return services.Principal{ID: id, Role: role, Pro: c.GetHeader("X-User-Pro") == "true"}, true
		}
	}
	return services.Principal{}, false
}

// mustPrincipal resolves the principal or aborts with 401.
func mustPrincipal(c *gin.Context) (services.Principal, bool) {
	p, okP := principal(c)
	if !okP {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
	}
	return p, okP
}

//
// DTOs
//

// CreateQuestionRequest is the JSON payload for opening a question.
type CreateQuestionRequest struct {
	// Content is the question text (10–500 chars after trimming).
	Content string `json:"content" binding:"required" example:"Where can I renew my license plate downtown today?"`
	// CategoryID references an active category.
	CategoryID string `json:"category_id" binding:"required" example:"tramites"`
	// ZoneID optionally scopes the question to a zone.
	ZoneID *string `json:"zone_id,omitempty" example:"centro"`
	// ImageURL optionally attaches an image; requires the purchased benefit.
	ImageURL *string `json:"image_url,omitempty"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListQuestionsResponse wraps a page of questions and pagination information.
type ListQuestionsResponse struct {
	Questions  []services.QuestionView `json:"questions"`
	Pagination Pagination              `json:"pagination"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.ClampInt(utils.AtoiDefault(c.Query("page_size"), defaultPageSize), 1, maxPageSize)
	return
}

//
// Handlers
//

// CreateQuestion godoc
// @ID          createQuestion
// @Summary     Open a new question
// @Description Spends one question credit and opens a pending, time-boxed question.
// @Tags        Questions
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.CreateQuestionRequest  true  "Create question payload"
//
// @Success     201  {object}  services.QuestionView
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     402  {object}  handlers.ErrorResponse  "No credits"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /questions [post]
func (h *Handlers) CreateQuestion(c *gin.Context) {
	p, okP := mustPrincipal(c)
	if !okP {
		return
	}

	var req CreateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	qv, err := h.questionSvc.Create(c.Request.Context(), p, req.Content, req.CategoryID, req.ZoneID, req.ImageURL)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrContentLength):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "content must be 10-500 characters")
		case errors.Is(err, services.ErrUnknownCategory):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unknown category")
		case errors.Is(err, services.ErrUnknownZone):
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unknown zone")
		case errors.Is(err, services.ErrImagesNotAllowed):
			fail(c, http.StatusForbidden, ErrCodeImagesNotAllowed, "image attachments not purchased")
		case errors.Is(err, services.ErrNoCredits):
			fail(c, http.StatusPaymentRequired, ErrCodeNoCredits, "no questions available")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	ok(c, http.StatusCreated, qv)
}

// ListMyQuestions godoc
// @ID          listMyQuestions
// @Summary     List own questions (paginated)
// @Description Returns a page of the caller's questions, newest first, each with its live countdown.
// @Tags        Questions
// @Produce     json
//
// @Param       page       query  int  false "Page number"     minimum(1) default(1)
// @Param       page_size  query  int  false "Items per page"  minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.ListQuestionsResponse
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /questions [get]
func (h *Handlers) ListMyQuestions(c *gin.Context) {
	p, okP := mustPrincipal(c)
	if !okP {
		return
	}
	page, pageSize := clampPagination(c)

	items, total, err := h.questionSvc.ListMine(c.Request.Context(), p, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, ListQuestionsResponse{
		Questions: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}

// ListOpenQuestions godoc
// @ID          listOpenQuestions
// @Summary     List open questions
// @Description Returns questions still accepting answers, oldest first, for collaborators.
// @Tags        Questions
// @Produce     json
//
// @Param       limit  query  int  false "Maximum items"  minimum(1) maximum(100) default(50)
//
// @Success     200  {array}  services.QuestionView
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /questions/open [get]
func (h *Handlers) ListOpenQuestions(c *gin.Context) {
	limit := utils.AtoiDefault(c.Query("limit"), 50)
	if limit < 1 {
		limit = 1
	}
	if limit > 100 {
		limit = 100
	}

	items, err := h.questionSvc.ListOpen(c.Request.Context(), limit)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, items)
}

// GetQuestion godoc
// @ID          getQuestion
// @Summary     Get a question
// @Description Returns a question with its answers count and remaining seconds. The deadline is re-evaluated on read, so an expired question reports its terminal status here before the sweeper runs.
// @Tags        Questions
// @Produce     json
//
// @Param       id  path  string  true  "Question ID (UUID)"  format(uuid)
//
// @Success     200  {object} services.QuestionView
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     404  {object} handlers.ErrorResponse "Question not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /questions/{id} [get]
func (h *Handlers) GetQuestion(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "question id must be a UUID")
		return
	}

	qv, err := h.questionSvc.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrQuestionNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "question not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, qv)
}
