// Package domain defines the core persistence models for the application.
// This file holds the purchase model backing the manual credit top-up flow:
// the user uploads a payment receipt, an admin reviews it, and approval
// applies the purchased credits and benefits to the profile.
package domain

import "time"

// Purchase statuses.
const (
	PurchasePending  = "pending"
	PurchaseApproved = "approved"
	PurchaseRejected = "rejected"
)

// Purchase pricing, in Bs.
const (
	QuestionPriceBs     = 2.0
	ImageBenefitPriceBs = 4.0
)

// Purchase represents a credit top-up request awaiting admin review. The
// requested benefits (question count, answer-window minutes, image uploads)
// are applied to the buyer's profile only on approval, exactly once.
type Purchase struct {
	ID              string     `json:"id"         gorm:"type:char(36);primaryKey"`
	BuyerID         string     `json:"buyer_id"   gorm:"type:char(36);not null;index"`
	Questions       int        `json:"questions"  gorm:"not null;check:questions > 0"`
	DeadlineMinutes int        `json:"deadline_minutes" gorm:"not null;default:7;check:deadline_minutes BETWEEN 3 AND 7"`
	WithImages      bool       `json:"with_images" gorm:"not null;default:false"`
	TotalBs         float64    `json:"total_bs"   gorm:"not null"`
	ReceiptURL      string     `json:"receipt_url" gorm:"type:varchar(512);not null"`
	Status          string     `json:"status"     gorm:"type:varchar(16);not null;default:'pending';index;check:status IN ('pending','approved','rejected')"`
	ReviewedBy      *string    `json:"reviewed_by,omitempty" gorm:"type:char(36)"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	// Buyer is the purchasing profile.
	Buyer Profile `json:"-" gorm:"foreignKey:BuyerID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName implements the GORM tabler interface.
func (Purchase) TableName() string { return "purchases" }

// Total computes the purchase price from the requested items.
func Total(questions int, withImages bool) float64 {
	t := float64(questions) * QuestionPriceBs
	if withImages {
		t += ImageBenefitPriceBs
	}
	return t
}
