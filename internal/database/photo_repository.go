package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/botswanaservices/directory-backend/internal/models"
	"github.com/google/uuid"
)

// PhotoRepository handles photo database operations
type PhotoRepository struct {
	db DB
}

// NewPhotoRepository creates a new photo repository
func NewPhotoRepository(db DB) *PhotoRepository {
	return &PhotoRepository{
		db: db,
	}
}

// CreateTx inserts a photo row inside the caller's transaction
func (r *PhotoRepository) CreateTx(q Queryer, p *models.Photo) error {
	query := `
		INSERT INTO photos (id, business_id, url, storage_path, position, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := q.Exec(query, p.ID, p.BusinessID, p.URL, p.StoragePath, p.Position, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create photo: %w", err)
	}

	return nil
}

// ListByBusiness retrieves a business's photos in display order
func (r *PhotoRepository) ListByBusiness(businessID uuid.UUID) ([]models.Photo, error) {
	var photos []models.Photo

	query := `
		SELECT id, business_id, url, storage_path, position, created_at
		FROM photos
		WHERE business_id = $1
		ORDER BY position, created_at
	`

	err := r.db.Select(&photos, query, businessID)
	if err != nil {
		return nil, fmt.Errorf("failed to list photos: %w", err)
	}

	return photos, nil
}

// ListByBusinessTx retrieves photos inside the caller's transaction, used
// when copying a parent's photo set to a new branch
func (r *PhotoRepository) ListByBusinessTx(q Queryer, businessID uuid.UUID) ([]models.Photo, error) {
	var photos []models.Photo

	query := `
		SELECT id, business_id, url, storage_path, position, created_at
		FROM photos
		WHERE business_id = $1
		ORDER BY position, created_at
	`

	err := q.Select(&photos, query, businessID)
	if err != nil {
		return nil, fmt.Errorf("failed to list photos: %w", err)
	}

	return photos, nil
}

// GetByID retrieves a photo by ID
func (r *PhotoRepository) GetByID(id uuid.UUID) (*models.Photo, error) {
	var p models.Photo

	query := `
		SELECT id, business_id, url, storage_path, position, created_at
		FROM photos
		WHERE id = $1
	`

	err := r.db.Get(&p, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get photo by ID: %w", err)
	}

	return &p, nil
}

// CountByBusiness returns the number of photos attached to a business
func (r *PhotoRepository) CountByBusiness(businessID uuid.UUID) (int, error) {
	var count int

	query := `SELECT COUNT(*) FROM photos WHERE business_id = $1`

	err := r.db.QueryRow(query, businessID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count photos: %w", err)
	}

	return count, nil
}

// Delete removes a photo row
func (r *PhotoRepository) Delete(id uuid.UUID) error {
	result, err := r.db.Exec(`DELETE FROM photos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete photo: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("photo not found")
	}

	return nil
}

// CopyToBusinessTx copies every photo row of src to dst inside the caller's
// transaction. New rows reference the same URLs, so later deletes on the
// source leave the copies intact.
func (r *PhotoRepository) CopyToBusinessTx(q Queryer, src, dst uuid.UUID) error {
	photos, err := r.ListByBusinessTx(q, src)
	if err != nil {
		return err
	}

	for _, p := range photos {
		copied := models.Photo{
			ID:          uuid.New(),
			BusinessID:  dst,
			URL:         p.URL,
			StoragePath: p.StoragePath,
			Position:    p.Position,
			CreatedAt:   time.Now(),
		}
		if err := r.CreateTx(q, &copied); err != nil {
			return err
		}
	}

	return nil
}
