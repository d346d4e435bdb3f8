package database

import (
	"fmt"
	"time"

	"github.com/botswanaservices/directory-backend/internal/models"
	"github.com/google/uuid"
)

// FavoriteRepository handles favorite database operations
type FavoriteRepository struct {
	db DB
}

// NewFavoriteRepository creates a new favorite repository
func NewFavoriteRepository(db DB) *FavoriteRepository {
	return &FavoriteRepository{
		db: db,
	}
}

// Create inserts a favorite. The (user_id, business_id) unique constraint
// rejects duplicates.
func (r *FavoriteRepository) Create(userID, businessID uuid.UUID) (*models.Favorite, error) {
	f := &models.Favorite{
		ID:         uuid.New(),
		UserID:     userID,
		BusinessID: businessID,
		CreatedAt:  time.Now(),
	}

	query := `
		INSERT INTO favorites (id, user_id, business_id, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.db.Exec(query, f.ID, f.UserID, f.BusinessID, f.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create favorite: %w", err)
	}

	return f, nil
}

// Exists reports whether the user already favorited the business
func (r *FavoriteRepository) Exists(userID, businessID uuid.UUID) (bool, error) {
	var exists bool

	query := `
		SELECT EXISTS (
			SELECT 1 FROM favorites WHERE user_id = $1 AND business_id = $2
		)
	`

	err := r.db.QueryRow(query, userID, businessID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check favorite: %w", err)
	}

	return exists, nil
}

// ListByUser retrieves a user's favorites, newest first
func (r *FavoriteRepository) ListByUser(userID uuid.UUID) ([]*models.Favorite, error) {
	var favorites []*models.Favorite

	query := `
		SELECT id, user_id, business_id, created_at
		FROM favorites
		WHERE user_id = $1
		ORDER BY created_at DESC
	`

	err := r.db.Select(&favorites, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}

	return favorites, nil
}

// Delete removes a user's favorite of a business
func (r *FavoriteRepository) Delete(userID, businessID uuid.UUID) error {
	result, err := r.db.Exec(
		`DELETE FROM favorites WHERE user_id = $1 AND business_id = $2`,
		userID, businessID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete favorite: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("favorite not found")
	}

	return nil
}
