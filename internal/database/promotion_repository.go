package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/botswanaservices/directory-backend/internal/models"
	"github.com/google/uuid"
)

// PromotionRepository handles promotion database operations
type PromotionRepository struct {
	db DB
}

// NewPromotionRepository creates a new promotion repository
func NewPromotionRepository(db DB) *PromotionRepository {
	return &PromotionRepository{
		db: db,
	}
}

// Create inserts a promotion
func (r *PromotionRepository) Create(p *models.Promotion) error {
	query := `
		INSERT INTO promotions (id, business_id, title, description, discount_pct, starts_at, ends_at, active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.Exec(
		query,
		p.ID, p.BusinessID, p.Title, p.Description, p.DiscountPct,
		p.StartsAt, p.EndsAt, p.Active, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create promotion: %w", err)
	}

	return nil
}

// GetByID retrieves a promotion by ID
func (r *PromotionRepository) GetByID(id uuid.UUID) (*models.Promotion, error) {
	var p models.Promotion

	query := `
		SELECT id, business_id, title, description, discount_pct, starts_at, ends_at, active, created_at
		FROM promotions
		WHERE id = $1
	`

	err := r.db.Get(&p, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get promotion by ID: %w", err)
	}

	return &p, nil
}

// ListByBusiness retrieves promotions for a business, newest first
func (r *PromotionRepository) ListByBusiness(businessID uuid.UUID) ([]*models.Promotion, error) {
	var promotions []*models.Promotion

	query := `
		SELECT id, business_id, title, description, discount_pct, starts_at, ends_at, active, created_at
		FROM promotions
		WHERE business_id = $1
		ORDER BY created_at DESC
	`

	err := r.db.Select(&promotions, query, businessID)
	if err != nil {
		return nil, fmt.Errorf("failed to list promotions: %w", err)
	}

	return promotions, nil
}

// Update rewrites a promotion's editable fields
func (r *PromotionRepository) Update(p *models.Promotion) error {
	query := `
		UPDATE promotions
		SET title = $1,
		    description = $2,
		    discount_pct = $3,
		    starts_at = $4,
		    ends_at = $5,
		    active = $6
		WHERE id = $7
	`

	result, err := r.db.Exec(query, p.Title, p.Description, p.DiscountPct, p.StartsAt, p.EndsAt, p.Active, p.ID)
	if err != nil {
		return fmt.Errorf("failed to update promotion: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("promotion not found")
	}

	return nil
}

// Delete removes a promotion
func (r *PromotionRepository) Delete(id uuid.UUID) error {
	result, err := r.db.Exec(`DELETE FROM promotions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete promotion: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("promotion not found")
	}

	return nil
}

// DeactivateExpired flips active off for promotions past their end time.
// Called from the hourly sweep.
func (r *PromotionRepository) DeactivateExpired() (int64, error) {
	query := `
		UPDATE promotions
		SET active = FALSE
		WHERE active = TRUE AND ends_at < $1
	`

	result, err := r.db.Exec(query, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to deactivate expired promotions: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}
