package models

import (
	"time"

	"github.com/google/uuid"
)

// Business status lifecycle: draft -> pending (first save) -> published/suspended (admin only).
const (
	BusinessStatusDraft     = "draft"
	BusinessStatusPending   = "pending"
	BusinessStatusPublished = "published"
	BusinessStatusSuspended = "suspended"
)

// Business represents a directory entry. A branch is a Business row with
// IsBranch set; branches always reference a parent business and carry their
// own street address.
type Business struct {
	ID               uuid.UUID   `db:"id" json:"id"`
	OwnerID          uuid.UUID   `db:"owner_id" json:"owner_id"`
	Name             string      `db:"name" json:"name"`
	Slug             string      `db:"slug" json:"slug"`
	Description      string      `db:"description" json:"description"`
	Phone            string      `db:"phone" json:"phone"`
	Email            string      `db:"email" json:"email"`
	Website          *string     `db:"website" json:"website,omitempty"`
	LogoURL          *string     `db:"logo_url" json:"logo_url,omitempty"`
	CoverURL         *string     `db:"cover_url" json:"cover_url,omitempty"`
	CategoryID       uuid.UUID   `db:"category_id" json:"category_id"`
	SubCategoryID    *uuid.UUID  `db:"sub_category_id" json:"sub_category_id,omitempty"`
	IsBranch         bool        `db:"is_branch" json:"is_branch"`
	BranchName       *string     `db:"branch_name" json:"branch_name,omitempty"`
	ParentBusinessID *uuid.UUID  `db:"parent_business_id" json:"parent_business_id,omitempty"`
	Address          string      `db:"address" json:"address"`
	City             string      `db:"city" json:"city"`
	Region           *string     `db:"region" json:"region,omitempty"`
	Latitude         *float64    `db:"latitude" json:"latitude,omitempty"`
	Longitude        *float64    `db:"longitude" json:"longitude,omitempty"`
	Status           string      `db:"status" json:"status"`
	Verified         bool        `db:"verified" json:"verified"`
	Featured         bool        `db:"featured" json:"featured"`
	ViewCount        int         `db:"view_count" json:"view_count"`
	AverageRating    float64     `db:"average_rating" json:"average_rating"`
	ReviewCount      int         `db:"review_count" json:"review_count"`
	Services         StringArray `db:"services" json:"services"`
	CreatedAt        time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time   `db:"updated_at" json:"updated_at"`

	// Loaded relations (not columns)
	Photos []Photo         `db:"-" json:"photos,omitempty"`
	Hours  []BusinessHours `db:"-" json:"hours,omitempty"`
}

// BusinessHours holds one weekday's opening window for a business.
// Callers replace the full week on every save (delete-then-insert).
type BusinessHours struct {
	ID         uuid.UUID `db:"id" json:"id"`
	BusinessID uuid.UUID `db:"business_id" json:"business_id"`
	DayOfWeek  int       `db:"day_of_week" json:"day_of_week"` // 0 = Sunday
	Opens      string    `db:"opens" json:"opens"`             // "08:00"
	Closes     string    `db:"closes" json:"closes"`           // "17:30"
	Closed     bool      `db:"closed" json:"closed"`
}
