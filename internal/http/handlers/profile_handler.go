// Profile and reference-data HTTP handlers.
//
//   - GET /profile           (caller's balance, benefits, and earnings)
//   - GET /categories        (active categories, display order)
//   - GET /zones             (active zones, display order)
//   - POST /categories       (admin: add a category)
//   - PUT  /categories/{id}  (admin: rename/reorder/retire)
//   - POST /zones            (admin: add a zone)
//   - PUT  /zones/{id}       (admin: rename/reorder/retire)
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yahora/yahora-backend/internal/services"
)

// GetProfile godoc
// @ID          getProfile
// @Summary     Get own profile
// @Description Returns the caller's profile: available question credits, purchased benefits, and accumulated earnings.
// @Tags        Profile
// @Produce     json
//
// @Success     200  {object}  domain.Profile
// @Failure     404  {object}  handlers.ErrorResponse  "Profile not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /profile [get]
func (h *Handlers) GetProfile(c *gin.Context) {
	p, okP := mustPrincipal(c)
	if !okP {
		return
	}

	prof, err := h.profileSvc.Get(c.Request.Context(), p)
	if err != nil {
		if errors.Is(err, services.ErrProfileNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "profile not found")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, prof)
}

// ListCategories godoc
// @ID          listCategories
// @Summary     List categories
// @Tags        Reference
// @Produce     json
// @Success     200  {array}   domain.Category
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /categories [get]
func (h *Handlers) ListCategories(c *gin.Context) {
	items, err := h.profileSvc.Categories(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, items)
}

// ListZones godoc
// @ID          listZones
// @Summary     List zones
// @Tags        Reference
// @Produce     json
// @Success     200  {array}   domain.Zone
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /zones [get]
func (h *Handlers) ListZones(c *gin.Context) {
	items, err := h.profileSvc.Zones(c.Request.Context())
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, items)
}

// CreateReferenceRequest is the admin payload for adding a category or zone.
type CreateReferenceRequest struct {
	ID        string `json:"id"`
	Name      string `json:"name" binding:"required"`
	SortOrder int    `json:"sort_order"`
}

// UpdateReferenceRequest is the admin payload for editing a category or zone.
type UpdateReferenceRequest struct {
	Name      string `json:"name" binding:"required"`
	SortOrder int    `json:"sort_order"`
	Active    *bool  `json:"active" binding:"required"`
}

// CreateCategory godoc
// @ID          createCategory
// @Summary     Add a category
// @Description Admin only. Adds an active category to the question form; an omitted id is generated.
// @Tags        Reference
// @Accept      json
// @Produce     json
// @Param       payload  body  handlers.CreateReferenceRequest  true  "Category"
// @Success     201  {object}  domain.Category
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid payload"
// @Failure     403  {object}  handlers.ErrorResponse  "Admin only"
// @Router      /categories [post]
func (h *Handlers) CreateCategory(c *gin.Context) {
	p, okP := mustPrincipal(c)
	if !okP {
		return
	}
	var req CreateReferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid payload: "+err.Error())
		return
	}
	cat, err := h.profileSvc.CreateCategory(c.Request.Context(), p, req.ID, req.Name, req.SortOrder)
	if err != nil {
		h.failReference(c, err)
		return
	}
	ok(c, http.StatusCreated, cat)
}

// UpdateCategory godoc
// @ID          updateCategory
// @Summary     Edit a category
// @Description Admin only. Renames, reorders, or retires a category.
// @Tags        Reference
// @Accept      json
// @Produce     json
// @Param       id       path  string                           true  "Category ID"
// @Param       payload  body  handlers.UpdateReferenceRequest  true  "Changes"
// @Success     204  {object}  nil
// @Failure     403  {object}  handlers.ErrorResponse  "Admin only"
// @Failure     404  {object}  handlers.ErrorResponse  "Category not found"
// @Router      /categories/{id} [put]
func (h *Handlers) UpdateCategory(c *gin.Context) {
	p, okP := mustPrincipal(c)
	if !okP {
		return
	}
	var req UpdateReferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid payload: "+err.Error())
		return
	}
	err := h.profileSvc.UpdateCategory(c.Request.Context(), p, c.Param("id"), req.Name, req.SortOrder, *req.Active)
	if err != nil {
		h.failReference(c, err)
		return
	}
	noContent(c)
}

// CreateZone godoc
// @ID          createZone
// @Summary     Add a zone
// @Tags        Reference
// @Accept      json
// @Produce     json
// @Param       payload  body  handlers.CreateReferenceRequest  true  "Zone"
// @Success     201  {object}  domain.Zone
// @Failure     403  {object}  handlers.ErrorResponse  "Admin only"
// @Router      /zones [post]
func (h *Handlers) CreateZone(c *gin.Context) {
	p, okP := mustPrincipal(c)
	if !okP {
		return
	}
	var req CreateReferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid payload: "+err.Error())
		return
	}
	z, err := h.profileSvc.CreateZone(c.Request.Context(), p, req.ID, req.Name, req.SortOrder)
	if err != nil {
		h.failReference(c, err)
		return
	}
	ok(c, http.StatusCreated, z)
}

// UpdateZone godoc
// @ID          updateZone
// @Summary     Edit a zone
// @Tags        Reference
// @Accept      json
// @Produce     json
// @Param       id       path  string                           true  "Zone ID"
// @Param       payload  body  handlers.UpdateReferenceRequest  true  "Changes"
// @Success     204  {object}  nil
// @Failure     403  {object}  handlers.ErrorResponse  "Admin only"
// @Failure     404  {object}  handlers.ErrorResponse  "Zone not found"
// @Router      /zones/{id} [put]
func (h *Handlers) UpdateZone(c *gin.Context) {
	p, okP := mustPrincipal(c)
	if !okP {
		return
	}
	var req UpdateReferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid payload: "+err.Error())
		return
	}
	err := h.profileSvc.UpdateZone(c.Request.Context(), p, c.Param("id"), req.Name, req.SortOrder, *req.Active)
	if err != nil {
		h.failReference(c, err)
		return
	}
	noContent(c)
}

// failReference translates reference-management service errors.
func (h *Handlers) failReference(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrForbidden):
		fail(c, http.StatusForbidden, ErrCodeForbidden, "admin role required")
	case errors.Is(err, services.ErrContentLength):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "name must not be empty")
	case errors.Is(err, services.ErrUnknownCategory):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "category not found")
	case errors.Is(err, services.ErrUnknownZone):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "zone not found")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}
