// Purchase HTTP handlers.
//
// Credit top-ups are manual: the buyer registers a purchase with a receipt
// URL, an admin lists pending purchases and approves or rejects them.
//
//   - POST  /purchases               (register; any authenticated user)
//   - GET   /purchases               (list; admin only)
//   - POST  /purchases/{id}/approve  (admin only)
//   - POST  /purchases/{id}/reject   (admin only)
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yahora/yahora-backend/internal/services"
)

// RegisterPurchaseRequest is the JSON payload for registering a purchase.
// The total is always recomputed server-side; a client-sent total is ignored.
type RegisterPurchaseRequest struct {
	// Questions is the number of question credits bought (>= 1).
	Questions int `json:"questions" binding:"required,min=1" example:"3"`
	// DeadlineMinutes is the purchased deadline window (3–7).
	DeadlineMinutes int `json:"deadline_minutes" example:"5"`
	// WithImages buys the image-attachment benefit.
	WithImages bool `json:"with_images"`
	// ReceiptURL points at the uploaded payment receipt.
	ReceiptURL string `json:"receipt_url" binding:"required"`
}

// RegisterPurchase godoc
// @ID          registerPurchase
// @Summary     Register a purchase
// @Description Records a pending purchase for admin review. Credits apply only after approval.
// @Tags        Purchases
// @Accept      json
// @Produce     json
//
// @Param       body  body  handlers.RegisterPurchaseRequest  true  "Purchase payload"
//
// @Success     201  {object}  domain.Purchase
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /purchases [post]
func (h *Handlers) RegisterPurchase(c *gin.Context) {
	p, okP := mustPrincipal(c)
	if !okP {
		return
	}

	var req RegisterPurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	pur, err := h.purchaseSvc.Register(c.Request.Context(), p, req.Questions, req.DeadlineMinutes, req.WithImages, req.ReceiptURL)
	if err != nil {
		if errors.Is(err, services.ErrContentLength) {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "questions and receipt_url are required")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusCreated, pur)
}

// ListPurchases godoc
// @ID          listPurchases
// @Summary     List purchases (admin)
// @Description Returns purchases for review, optionally filtered by status.
// @Tags        Purchases
// @Produce     json
//
// @Param       status     query  string  false "Filter by status"  Enums(pending, approved, rejected)
// @Param       page       query  int     false "Page number"       minimum(1) default(1)
// @Param       page_size  query  int     false "Items per page"    minimum(1) maximum(100) default(20)
//
// @Success     200  {array}   domain.Purchase
// @Failure     403  {object}  handlers.ErrorResponse  "Admin only"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /purchases [get]
func (h *Handlers) ListPurchases(c *gin.Context) {
	p, okP := mustPrincipal(c)
	if !okP {
		return
	}
	page, pageSize := clampPagination(c)

	items, err := h.purchaseSvc.List(c.Request.Context(), p, c.Query("status"), page, pageSize)
	if err != nil {
		if errors.Is(err, services.ErrForbidden) {
			fail(c, http.StatusForbidden, ErrCodeForbidden, "admin only")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, items)
}

// ApprovePurchase godoc
// @ID          approvePurchase
// @Summary     Approve a purchase (admin)
// @Description Approves a pending purchase and applies its credits and benefits to the buyer exactly once.
// @Tags        Purchases
// @Produce     json
//
// @Param       id  path  string  true  "Purchase ID (UUID)"  format(uuid)
//
// @Success     204  {string}  string "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse  "Admin only"
// @Failure     404  {object}  handlers.ErrorResponse  "Purchase not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Already reviewed"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /purchases/{id}/approve [post]
func (h *Handlers) ApprovePurchase(c *gin.Context) {
	h.reviewPurchase(c, h.purchaseSvc.Approve)
}

// RejectPurchase godoc
// @ID          rejectPurchase
// @Summary     Reject a purchase (admin)
// @Description Rejects a pending purchase without touching the buyer's profile.
// @Tags        Purchases
// @Produce     json
//
// @Param       id  path  string  true  "Purchase ID (UUID)"  format(uuid)
//
// @Success     204  {string}  string "No Content"
// @Failure     400  {object}  handlers.ErrorResponse  "Bad request"
// @Failure     403  {object}  handlers.ErrorResponse  "Admin only"
// @Failure     404  {object}  handlers.ErrorResponse  "Purchase not found"
// @Failure     409  {object}  handlers.ErrorResponse  "Already reviewed"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /purchases/{id}/reject [post]
func (h *Handlers) RejectPurchase(c *gin.Context) {
	h.reviewPurchase(c, h.purchaseSvc.Reject)
}

// reviewPurchase shares the approve/reject plumbing: both are an admin-gated,
// idempotence-guarded transition keyed by purchase ID.
func (h *Handlers) reviewPurchase(c *gin.Context, review func(ctx context.Context, p services.Principal, id string) error) {
	p, okP := mustPrincipal(c)
	if !okP {
		return
	}

	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "purchase id must be a UUID")
		return
	}

	if err := review(c.Request.Context(), p, id); err != nil {
		switch {
		case errors.Is(err, services.ErrForbidden):
			fail(c, http.StatusForbidden, ErrCodeForbidden, "admin only")
		case errors.Is(err, services.ErrPurchaseNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "purchase not found")
		case errors.Is(err, services.ErrPurchaseReviewed):
			fail(c, http.StatusConflict, ErrCodeConflict, "purchase already reviewed")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		}
		return
	}
	noContent(c)
}
