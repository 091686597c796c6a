package services

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/yahora/yahora-backend/internal/domain"
	"github.com/yahora/yahora-backend/internal/lifecycle"
	"github.com/yahora/yahora-backend/internal/notify"
	"github.com/yahora/yahora-backend/internal/repo"
)

var testT0 = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

// stepClock is a manually advanced lifecycle.Clock.
type stepClock struct {
	mu sync.Mutex
	at time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.at
}

func (c *stepClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.at = c.at.Add(d)
	c.mu.Unlock()
}

func newServiceEnv(t *testing.T) (*gorm.DB, *lifecycle.Manager, *stepClock) {
	t.Helper()
	db, err := repo.OpenSQLite(filepath.Join(t.TempDir(), "svc.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	clk := &stepClock{at: testT0}
	mgr := lifecycle.NewManager(db, clk, notify.NewBus())
	return db, mgr, clk
}

func seedProfile(t *testing.T, db *gorm.DB, id, role string, credits, deadlineMinutes int, images, pro bool) {
	t.Helper()
	_, err := repo.CreateProfile(context.Background(), db, &domain.Profile{
		ID:                 id,
		Email:              id + "@example.com",
		FullName:           "Test " + id,
		Role:               role,
		Pro:                pro,
		AvailableQuestions: credits,
		DeadlineMinutes:    deadlineMinutes,
		ImagesAllowed:      images,
	})
	if err != nil {
		t.Fatalf("seed profile %s: %v", id, err)
	}
}

func seedCategory(t *testing.T, db *gorm.DB, id string) {
	t.Helper()
	if err := db.Create(&domain.Category{ID: id, Name: "Category " + id, Active: true}).Error; err != nil {
		t.Fatalf("seed category %s: %v", id, err)
	}
}

func seedZone(t *testing.T, db *gorm.DB, id string) {
	t.Helper()
	if err := db.Create(&domain.Zone{ID: id, Name: "Zone " + id, Active: true}).Error; err != nil {
		t.Fatalf("seed zone %s: %v", id, err)
	}
}
