package models

import (
	"time"

	"github.com/google/uuid"
)

// Booking statuses
const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusCancelled = "cancelled"
	BookingStatusCompleted = "completed"
)

// Booking is an appointment request from a user to a business. The business
// owner confirms or cancels it; the requesting user may cancel their own.
type Booking struct {
	ID          uuid.UUID `db:"id" json:"id"`
	BusinessID  uuid.UUID `db:"business_id" json:"business_id"`
	UserID      uuid.UUID `db:"user_id" json:"user_id"`
	ScheduledAt time.Time `db:"scheduled_at" json:"scheduled_at"`
	Note        *string   `db:"note" json:"note,omitempty"`
	Status      string    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}
