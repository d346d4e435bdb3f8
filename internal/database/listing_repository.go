package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/botswanaservices/directory-backend/internal/models"
	"github.com/google/uuid"
)

// ListingRepository handles listing database operations
type ListingRepository struct {
	db DB
}

// NewListingRepository creates a new listing repository
func NewListingRepository(db DB) *ListingRepository {
	return &ListingRepository{
		db: db,
	}
}

// Create inserts a listing
func (r *ListingRepository) Create(l *models.Listing) error {
	query := `
		INSERT INTO listings (id, business_id, title, description, price, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.Exec(
		query,
		l.ID, l.BusinessID, l.Title, l.Description, l.Price, l.Active, l.CreatedAt, l.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create listing: %w", err)
	}

	return nil
}

// GetByID retrieves a listing by ID
func (r *ListingRepository) GetByID(id uuid.UUID) (*models.Listing, error) {
	var l models.Listing

	query := `
		SELECT id, business_id, title, description, price, active, created_at, updated_at
		FROM listings
		WHERE id = $1
	`

	err := r.db.Get(&l, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get listing by ID: %w", err)
	}

	return &l, nil
}

// ListByBusiness retrieves listings for a business
func (r *ListingRepository) ListByBusiness(businessID uuid.UUID) ([]*models.Listing, error) {
	var listings []*models.Listing

	query := `
		SELECT id, business_id, title, description, price, active, created_at, updated_at
		FROM listings
		WHERE business_id = $1
		ORDER BY created_at DESC
	`

	err := r.db.Select(&listings, query, businessID)
	if err != nil {
		return nil, fmt.Errorf("failed to list listings: %w", err)
	}

	return listings, nil
}

// Update rewrites a listing's editable fields
func (r *ListingRepository) Update(l *models.Listing) error {
	query := `
		UPDATE listings
		SET title = $1,
		    description = $2,
		    price = $3,
		    active = $4,
		    updated_at = $5
		WHERE id = $6
	`

	result, err := r.db.Exec(query, l.Title, l.Description, l.Price, l.Active, time.Now(), l.ID)
	if err != nil {
		return fmt.Errorf("failed to update listing: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("listing not found")
	}

	return nil
}

// Delete removes a listing
func (r *ListingRepository) Delete(id uuid.UUID) error {
	result, err := r.db.Exec(`DELETE FROM listings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete listing: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("listing not found")
	}

	return nil
}
