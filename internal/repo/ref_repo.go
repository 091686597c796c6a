// Reference-table access: categories and zones. Reads serve the question
// forms; writes come from the admin management endpoints.
package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yahora/yahora-backend/internal/domain"
)

// ListCategories returns active categories in display order.
func ListCategories(ctx context.Context, db *gorm.DB) ([]domain.Category, error) {
	var out []domain.Category
	err := db.WithContext(ctx).
		Where("active = ?", true).
		Order("sort_order asc, name asc").
		Find(&out).Error
	return out, err
}

// ListZones returns active zones in display order.
func ListZones(ctx context.Context, db *gorm.DB) ([]domain.Zone, error) {
	var out []domain.Zone
	err := db.WithContext(ctx).
		Where("active = ?", true).
		Order("sort_order asc, name asc").
		Find(&out).Error
	return out, err
}

// CategoryExists reports whether an active category with the given ID exists.
func CategoryExists(ctx context.Context, db *gorm.DB, id string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Category{}).
		Where("id = ? AND active = ?", id, true).
		Count(&n).Error
	return n > 0, err
}

// ZoneExists reports whether an active zone with the given ID exists.
func ZoneExists(ctx context.Context, db *gorm.DB, id string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Zone{}).
		Where("id = ? AND active = ?", id, true).
		Count(&n).Error
	return n > 0, err
}

// CreateCategory inserts a new active category. A missing ID gets a random
// UUID; callers may supply a stable slug instead.
func CreateCategory(ctx context.Context, db *gorm.DB, c *domain.Category) (*domain.Category, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.Active = true
	if err := db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

// UpdateCategory rewrites a category's name, ordering, and active flag.
// Returns ErrNotFound when no such row exists.
func UpdateCategory(ctx context.Context, db *gorm.DB, id, name string, sortOrder int, active bool) error {
	res := db.WithContext(ctx).
		Model(&domain.Category{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"name":       name,
			"sort_order": sortOrder,
			"active":     active,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateZone inserts a new active zone; same ID rules as CreateCategory.
func CreateZone(ctx context.Context, db *gorm.DB, z *domain.Zone) (*domain.Zone, error) {
	if z.ID == "" {
		z.ID = uuid.NewString()
	}
	z.Active = true
	if err := db.WithContext(ctx).Create(z).Error; err != nil {
		return nil, err
	}
	return z, nil
}

// UpdateZone rewrites a zone's name, ordering, and active flag.
func UpdateZone(ctx context.Context, db *gorm.DB, id, name string, sortOrder int, active bool) error {
	res := db.WithContext(ctx).
		Model(&domain.Zone{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"name":       name,
			"sort_order": sortOrder,
			"active":     active,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
