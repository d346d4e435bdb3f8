package models

import (
	"time"

	"github.com/google/uuid"
)

// Review is unique per (business, user): one review per user per business.
type Review struct {
	ID         uuid.UUID `db:"id" json:"id"`
	BusinessID uuid.UUID `db:"business_id" json:"business_id"`
	UserID     uuid.UUID `db:"user_id" json:"user_id"`
	Rating     int       `db:"rating" json:"rating"` // 1..5
	Title      *string   `db:"title" json:"title,omitempty"`
	Comment    *string   `db:"comment" json:"comment,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Favorite is a pure join record, unique per (user, business).
type Favorite struct {
	ID         uuid.UUID `db:"id" json:"id"`
	UserID     uuid.UUID `db:"user_id" json:"user_id"`
	BusinessID uuid.UUID `db:"business_id" json:"business_id"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
