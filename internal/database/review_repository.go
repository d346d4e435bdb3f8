package database

import (
	"database/sql"
	"fmt"

	"github.com/botswanaservices/directory-backend/internal/models"
	"github.com/google/uuid"
)

// ReviewRepository handles review database operations
type ReviewRepository struct {
	db DB
}

// NewReviewRepository creates a new review repository
func NewReviewRepository(db DB) *ReviewRepository {
	return &ReviewRepository{
		db: db,
	}
}

// CreateTx inserts a review inside the caller's transaction
func (r *ReviewRepository) CreateTx(q Queryer, review *models.Review) error {
	query := `
		INSERT INTO reviews (id, business_id, user_id, rating, title, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := q.Exec(
		query,
		review.ID, review.BusinessID, review.UserID,
		review.Rating, review.Title, review.Comment, review.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create review: %w", err)
	}

	return nil
}

// GetByID retrieves a review by ID
func (r *ReviewRepository) GetByID(id uuid.UUID) (*models.Review, error) {
	var review models.Review

	query := `
		SELECT id, business_id, user_id, rating, title, comment, created_at
		FROM reviews
		WHERE id = $1
	`

	err := r.db.Get(&review, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get review by ID: %w", err)
	}

	return &review, nil
}

// GetByBusinessAndUser retrieves a user's review of a business, if any
func (r *ReviewRepository) GetByBusinessAndUser(businessID, userID uuid.UUID) (*models.Review, error) {
	var review models.Review

	query := `
		SELECT id, business_id, user_id, rating, title, comment, created_at
		FROM reviews
		WHERE business_id = $1 AND user_id = $2
	`

	err := r.db.Get(&review, query, businessID, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get review: %w", err)
	}

	return &review, nil
}

// ListByBusiness retrieves reviews for a business, newest first
func (r *ReviewRepository) ListByBusiness(businessID uuid.UUID, limit, offset int) ([]*models.Review, error) {
	var reviews []*models.Review

	query := `
		SELECT id, business_id, user_id, rating, title, comment, created_at
		FROM reviews
		WHERE business_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	err := r.db.Select(&reviews, query, businessID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}

	return reviews, nil
}

// ListByUser retrieves a user's reviews, newest first
func (r *ReviewRepository) ListByUser(userID uuid.UUID) ([]*models.Review, error) {
	var reviews []*models.Review

	query := `
		SELECT id, business_id, user_id, rating, title, comment, created_at
		FROM reviews
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	err := r.db.Select(&reviews, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews for user: %w", err)
	}

	return reviews, nil
}

// RatingsTx reads every rating for a business inside the caller's
// transaction. Rating recomputation always works from this full re-read, never
// from a delta.
func (r *ReviewRepository) RatingsTx(q Queryer, businessID uuid.UUID) ([]int, error) {
	var ratings []int

	query := `SELECT rating FROM reviews WHERE business_id = $1`

	err := q.Select(&ratings, query, businessID)
	if err != nil {
		return nil, fmt.Errorf("failed to read ratings: %w", err)
	}

	return ratings, nil
}

// DeleteTx removes a review inside the caller's transaction
func (r *ReviewRepository) DeleteTx(q Queryer, id uuid.UUID) error {
	result, err := q.Exec(`DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("review not found")
	}

	return nil
}
