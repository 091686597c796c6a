// Package services – ProfileService
package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/yahora/yahora-backend/internal/domain"
	"github.com/yahora/yahora-backend/internal/repo"
)

// ErrProfileNotFound indicates the principal's profile row is missing.
var ErrProfileNotFound = errors.New("profile not found")

// ProfileService exposes the principal's own profile and the reference
// tables question forms are built from, including their admin management.
type ProfileService struct {
	DB *gorm.DB
}

// Get returns the principal's profile.
func (s *ProfileService) Get(ctx context.Context, p Principal) (*domain.Profile, error) {
	prof, err := repo.GetProfile(ctx, s.DB, p.ID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return prof, nil
}

// Categories returns active categories in display order.
func (s *ProfileService) Categories(ctx context.Context) ([]domain.Category, error) {
	return repo.ListCategories(ctx, s.DB)
}

// Zones returns active zones in display order.
func (s *ProfileService) Zones(ctx context.Context) ([]domain.Zone, error) {
	return repo.ListZones(ctx, s.DB)
}

// CreateCategory adds a category to the question form. Admin only; an empty
// id yields a generated UUID so admins may pass stable slugs when they care.
func (s *ProfileService) CreateCategory(ctx context.Context, p Principal, id, name string, sortOrder int) (*domain.Category, error) {
	if !p.IsAdmin() {
		return nil, ErrForbidden
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrContentLength
	}
	return repo.CreateCategory(ctx, s.DB, &domain.Category{ID: id, Name: name, SortOrder: sortOrder})
}

// UpdateCategory renames, reorders, or retires a category. Retiring (active
// false) hides it from the form and from the creation gate without touching
// questions already classified under it.
func (s *ProfileService) UpdateCategory(ctx context.Context, p Principal, id, name string, sortOrder int, active bool) error {
	if !p.IsAdmin() {
		return ErrForbidden
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrContentLength
	}
	if err := repo.UpdateCategory(ctx, s.DB, id, name, sortOrder, active); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUnknownCategory
		}
		return err
	}
	return nil
}

// CreateZone adds a zone; same rules as CreateCategory.
func (s *ProfileService) CreateZone(ctx context.Context, p Principal, id, name string, sortOrder int) (*domain.Zone, error) {
	if !p.IsAdmin() {
		return nil, ErrForbidden
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrContentLength
	}
	return repo.CreateZone(ctx, s.DB, &domain.Zone{ID: id, Name: name, SortOrder: sortOrder})
}

// UpdateZone renames, reorders, or retires a zone.
func (s *ProfileService) UpdateZone(ctx context.Context, p Principal, id, name string, sortOrder int, active bool) error {
	if !p.IsAdmin() {
		return ErrForbidden
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrContentLength
	}
	if err := repo.UpdateZone(ctx, s.DB, id, name, sortOrder, active); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUnknownZone
		}
		return err
	}
	return nil
}
