package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/botswanaservices/directory-backend/internal/models"
	"github.com/google/uuid"
)

// BookingRepository handles booking database operations
type BookingRepository struct {
	db DB
}

// NewBookingRepository creates a new booking repository
func NewBookingRepository(db DB) *BookingRepository {
	return &BookingRepository{
		db: db,
	}
}

// Create inserts a new booking in pending status
func (r *BookingRepository) Create(businessID, userID uuid.UUID, scheduledAt time.Time, note *string) (*models.Booking, error) {
	b := &models.Booking{
		ID:          uuid.New(),
		BusinessID:  businessID,
		UserID:      userID,
		ScheduledAt: scheduledAt,
		Note:        note,
		Status:      models.BookingStatusPending,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	query := `
		INSERT INTO bookings (id, business_id, user_id, scheduled_at, note, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.Exec(
		query,
		b.ID, b.BusinessID, b.UserID, b.ScheduledAt, b.Note, b.Status, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	return b, nil
}

// GetByID retrieves a booking by ID
func (r *BookingRepository) GetByID(id uuid.UUID) (*models.Booking, error) {
	var b models.Booking

	query := `
		SELECT id, business_id, user_id, scheduled_at, note, status, created_at, updated_at
		FROM bookings
		WHERE id = $1
	`

	err := r.db.Get(&b, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get booking by ID: %w", err)
	}

	return &b, nil
}

// ListByUser retrieves a user's bookings, soonest first
func (r *BookingRepository) ListByUser(userID uuid.UUID) ([]*models.Booking, error) {
	var bookings []*models.Booking

	query := `
		SELECT id, business_id, user_id, scheduled_at, note, status, created_at, updated_at
		FROM bookings
		WHERE user_id = $1
		ORDER BY scheduled_at
	`

	err := r.db.Select(&bookings, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings for user: %w", err)
	}

	return bookings, nil
}

// ListByBusiness retrieves a business's bookings, soonest first
func (r *BookingRepository) ListByBusiness(businessID uuid.UUID) ([]*models.Booking, error) {
	var bookings []*models.Booking

	query := `
		SELECT id, business_id, user_id, scheduled_at, note, status, created_at, updated_at
		FROM bookings
		WHERE business_id = $1
		ORDER BY scheduled_at
	`

	err := r.db.Select(&bookings, query, businessID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings for business: %w", err)
	}

	return bookings, nil
}

// UpdateStatus transitions a booking to the given status
func (r *BookingRepository) UpdateStatus(id uuid.UUID, status string) error {
	query := `
		UPDATE bookings
		SET status = $1,
		    updated_at = $2
		WHERE id = $3
	`

	result, err := r.db.Exec(query, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update booking status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("booking not found")
	}

	return nil
}
