package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/botswanaservices/directory-backend/internal/models"
	"github.com/google/uuid"
)

// CategoryRepository handles category database operations
type CategoryRepository struct {
	db DB
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(db DB) *CategoryRepository {
	return &CategoryRepository{
		db: db,
	}
}

// GetByName retrieves a category by exact name match under the given parent.
// parentID nil means a top-level category.
func (r *CategoryRepository) GetByName(name string, parentID *uuid.UUID) (*models.Category, error) {
	var c models.Category

	query := `
		SELECT id, name, slug, parent_id, created_at
		FROM categories
		WHERE name = $1
		  AND (($2::uuid IS NULL AND parent_id IS NULL) OR parent_id = $2)
	`

	err := r.db.Get(&c, query, name, parentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get category by name: %w", err)
	}

	return &c, nil
}

// GetByID retrieves a category by ID
func (r *CategoryRepository) GetByID(id uuid.UUID) (*models.Category, error) {
	var c models.Category

	query := `
		SELECT id, name, slug, parent_id, created_at
		FROM categories
		WHERE id = $1
	`

	err := r.db.Get(&c, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get category by ID: %w", err)
	}

	return &c, nil
}

// CreateTx inserts a category inside the caller's transaction. Two concurrent
// creates for the same slug race into a unique violation; callers map that to
// a retry, not a server error.
func (r *CategoryRepository) CreateTx(q Queryer, name, slug string, parentID *uuid.UUID) (*models.Category, error) {
	c := &models.Category{
		ID:        uuid.New(),
		Name:      name,
		Slug:      slug,
		ParentID:  parentID,
		CreatedAt: time.Now(),
	}

	query := `
		INSERT INTO categories (id, name, slug, parent_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := q.Exec(query, c.ID, c.Name, c.Slug, c.ParentID, c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	return c, nil
}

// ListAll retrieves all categories ordered parents-first
func (r *CategoryRepository) ListAll() ([]*models.Category, error) {
	var categories []*models.Category

	query := `
		SELECT id, name, slug, parent_id, created_at
		FROM categories
		ORDER BY parent_id NULLS FIRST, name
	`

	err := r.db.Select(&categories, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	return categories, nil
}
