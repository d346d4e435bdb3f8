package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/botswanaservices/directory-backend/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// IsUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation (error code 23505). Repositories wrap driver errors, so the
// check must unwrap.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

const businessColumns = `
	id, owner_id, name, slug, description, phone, email, website,
	logo_url, cover_url, category_id, sub_category_id, is_branch,
	branch_name, parent_business_id, address, city, region,
	latitude, longitude, status, verified, featured, view_count,
	average_rating, review_count, services, created_at, updated_at
`

// BusinessRepository handles business and branch database operations
type BusinessRepository struct {
	db DB
}

// NewBusinessRepository creates a new business repository
func NewBusinessRepository(db DB) *BusinessRepository {
	return &BusinessRepository{
		db: db,
	}
}

// CreateTx inserts a business row inside the caller's transaction
func (r *BusinessRepository) CreateTx(q Queryer, b *models.Business) error {
	query := `
		INSERT INTO businesses (` + businessColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		        $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29)
	`

	_, err := q.Exec(
		query,
		b.ID, b.OwnerID, b.Name, b.Slug, b.Description, b.Phone, b.Email, b.Website,
		b.LogoURL, b.CoverURL, b.CategoryID, b.SubCategoryID, b.IsBranch,
		b.BranchName, b.ParentBusinessID, b.Address, b.City, b.Region,
		b.Latitude, b.Longitude, b.Status, b.Verified, b.Featured, b.ViewCount,
		b.AverageRating, b.ReviewCount, b.Services, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create business: %w", err)
	}

	return nil
}

// GetByID retrieves a business by ID
func (r *BusinessRepository) GetByID(id uuid.UUID) (*models.Business, error) {
	var b models.Business

	query := `SELECT ` + businessColumns + ` FROM businesses WHERE id = $1`

	err := r.db.Get(&b, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get business by ID: %w", err)
	}

	return &b, nil
}

// GetBySlug retrieves a business by its unique slug
func (r *BusinessRepository) GetBySlug(slug string) (*models.Business, error) {
	var b models.Business

	query := `SELECT ` + businessColumns + ` FROM businesses WHERE slug = $1`

	err := r.db.Get(&b, query, slug)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get business by slug: %w", err)
	}

	return &b, nil
}

// GetProfileByOwner retrieves the owner's non-branch business, if any
func (r *BusinessRepository) GetProfileByOwner(ownerID uuid.UUID) (*models.Business, error) {
	var b models.Business

	query := `
		SELECT ` + businessColumns + `
		FROM businesses
		WHERE owner_id = $1 AND is_branch = FALSE
	`

	err := r.db.Get(&b, query, ownerID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get business for owner: %w", err)
	}

	return &b, nil
}

// ListByOwner retrieves every business (parent and branches) owned by a user
func (r *BusinessRepository) ListByOwner(ownerID uuid.UUID) ([]*models.Business, error) {
	var businesses []*models.Business

	query := `
		SELECT ` + businessColumns + `
		FROM businesses
		WHERE owner_id = $1
		ORDER BY is_branch, created_at
	`

	err := r.db.Select(&businesses, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list businesses for owner: %w", err)
	}

	return businesses, nil
}

// ListBranches retrieves all branches under a parent business
func (r *BusinessRepository) ListBranches(parentID uuid.UUID) ([]*models.Business, error) {
	var branches []*models.Business

	query := `
		SELECT ` + businessColumns + `
		FROM businesses
		WHERE parent_business_id = $1 AND is_branch = TRUE
		ORDER BY created_at
	`

	err := r.db.Select(&branches, query, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list branches: %w", err)
	}

	return branches, nil
}

// ListPublished retrieves published businesses for the public directory
func (r *BusinessRepository) ListPublished(city string, categoryID *uuid.UUID, limit, offset int) ([]*models.Business, error) {
	var businesses []*models.Business

	query := `
		SELECT ` + businessColumns + `
		FROM businesses
		WHERE status = $1
		  AND ($2 = '' OR LOWER(city) = LOWER($2))
		  AND ($3::uuid IS NULL OR category_id = $3)
		ORDER BY featured DESC, average_rating DESC, created_at DESC
		LIMIT $4 OFFSET $5
	`

	err := r.db.Select(&businesses, query, models.BusinessStatusPublished, city, categoryID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list published businesses: %w", err)
	}

	return businesses, nil
}

// NameExists reports whether a non-branch business with the given name exists
// (case-insensitive). Branch rows are excluded; their uniqueness is scoped to
// the parent via BranchNameExists.
func (r *BusinessRepository) NameExists(name string) (bool, error) {
	var exists bool

	query := `
		SELECT EXISTS (
			SELECT 1 FROM businesses
			WHERE is_branch = FALSE AND LOWER(name) = LOWER($1)
		)
	`

	err := r.db.QueryRow(query, name).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check business name: %w", err)
	}

	return exists, nil
}

// BranchNameExists reports whether a branch with the given name already
// exists under the parent (case-insensitive)
func (r *BusinessRepository) BranchNameExists(parentID uuid.UUID, branchName string) (bool, error) {
	var exists bool

	query := `
		SELECT EXISTS (
			SELECT 1 FROM businesses
			WHERE parent_business_id = $1
			  AND is_branch = TRUE
			  AND LOWER(branch_name) = LOWER($2)
		)
	`

	err := r.db.QueryRow(query, parentID, branchName).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check branch name: %w", err)
	}

	return exists, nil
}

// UpdateProfileTx updates the owner-editable fields of a business inside the
// caller's transaction. A nil SubCategoryID clears the stored reference
// rather than leaving it stale.
func (r *BusinessRepository) UpdateProfileTx(q Queryer, b *models.Business) error {
	query := `
		UPDATE businesses
		SET name = $1,
		    description = $2,
		    phone = $3,
		    email = $4,
		    website = $5,
		    logo_url = $6,
		    cover_url = $7,
		    category_id = $8,
		    sub_category_id = $9,
		    address = $10,
		    city = $11,
		    region = $12,
		    latitude = $13,
		    longitude = $14,
		    services = $15,
		    status = $16,
		    updated_at = $17
		WHERE id = $18
	`

	result, err := q.Exec(
		query,
		b.Name, b.Description, b.Phone, b.Email, b.Website, b.LogoURL, b.CoverURL,
		b.CategoryID, b.SubCategoryID, b.Address, b.City, b.Region,
		b.Latitude, b.Longitude, b.Services, b.Status, time.Now(), b.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update business: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("business not found")
	}

	return nil
}

// UpdateModeration applies the admin-editable field whitelist. Nil fields are
// left untouched.
func (r *BusinessRepository) UpdateModeration(id uuid.UUID, status *string, verified, featured *bool) error {
	query := `
		UPDATE businesses
		SET status = COALESCE($1, status),
		    verified = COALESCE($2, verified),
		    featured = COALESCE($3, featured),
		    updated_at = $4
		WHERE id = $5
	`

	result, err := r.db.Exec(query, status, verified, featured, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update business moderation fields: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("business not found")
	}

	return nil
}

// UpdateRatingTx writes both derived rating fields from one recompute inside
// the caller's transaction so the counter and the average cannot diverge.
func (r *BusinessRepository) UpdateRatingTx(q Queryer, id uuid.UUID, averageRating float64, reviewCount int) error {
	query := `
		UPDATE businesses
		SET average_rating = $1,
		    review_count = $2,
		    updated_at = $3
		WHERE id = $4
	`

	_, err := q.Exec(query, averageRating, reviewCount, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update business rating: %w", err)
	}

	return nil
}

// IncrementViewCount bumps the public profile view counter
func (r *BusinessRepository) IncrementViewCount(id uuid.UUID) error {
	query := `UPDATE businesses SET view_count = view_count + 1 WHERE id = $1`

	_, err := r.db.Exec(query, id)
	if err != nil {
		return fmt.Errorf("failed to increment view count: %w", err)
	}

	return nil
}

// DeleteTx removes a business row inside the caller's transaction
func (r *BusinessRepository) DeleteTx(q Queryer, id uuid.UUID) error {
	result, err := q.Exec(`DELETE FROM businesses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete business: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("business not found")
	}

	return nil
}

// DeleteCascade removes a business, its branches, and every dependent row in
// one transaction. Used by the admin console; owner-facing deletes go through
// DeleteTx branch by branch.
func (r *BusinessRepository) DeleteCascade(id uuid.UUID) error {
	return WithTx(r.db, func(tx *sqlx.Tx) error {
		var branchIDs []uuid.UUID
		if err := tx.Select(&branchIDs, `SELECT id FROM businesses WHERE parent_business_id = $1`, id); err != nil {
			return fmt.Errorf("failed to list branches for delete: %w", err)
		}

		ids := append(branchIDs, id)
		dependents := []string{"photos", "reviews", "favorites", "bookings", "promotions", "listings", "business_hours"}
		for _, table := range dependents {
			query := fmt.Sprintf(`DELETE FROM %s WHERE business_id = ANY($1)`, table)
			if _, err := tx.Exec(query, pq.Array(ids)); err != nil {
				return fmt.Errorf("failed to delete %s rows: %w", table, err)
			}
		}

		if _, err := tx.Exec(`DELETE FROM businesses WHERE parent_business_id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete branches: %w", err)
		}

		result, err := tx.Exec(`DELETE FROM businesses WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete business: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return fmt.Errorf("business not found")
		}

		return nil
	})
}

// ReplaceHoursTx replaces all business-hours rows for a business inside the
// caller's transaction. Delete-then-insert, not merge: callers resend the
// full week.
func (r *BusinessRepository) ReplaceHoursTx(q Queryer, businessID uuid.UUID, hours []models.BusinessHours) error {
	if _, err := q.Exec(`DELETE FROM business_hours WHERE business_id = $1`, businessID); err != nil {
		return fmt.Errorf("failed to clear business hours: %w", err)
	}

	query := `
		INSERT INTO business_hours (id, business_id, day_of_week, opens, closes, closed)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	for _, h := range hours {
		_, err := q.Exec(query, uuid.New(), businessID, h.DayOfWeek, h.Opens, h.Closes, h.Closed)
		if err != nil {
			return fmt.Errorf("failed to insert business hours: %w", err)
		}
	}

	return nil
}

// GetHours retrieves the weekly hours for a business
func (r *BusinessRepository) GetHours(businessID uuid.UUID) ([]models.BusinessHours, error) {
	var hours []models.BusinessHours

	query := `
		SELECT id, business_id, day_of_week, opens, closes, closed
		FROM business_hours
		WHERE business_id = $1
		ORDER BY day_of_week
	`

	err := r.db.Select(&hours, query, businessID)
	if err != nil {
		return nil, fmt.Errorf("failed to get business hours: %w", err)
	}

	return hours, nil
}

// ListForModeration retrieves businesses for the admin console, optionally
// filtered by status
func (r *BusinessRepository) ListForModeration(status string, limit, offset int) ([]*models.Business, error) {
	var businesses []*models.Business

	query := `
		SELECT ` + businessColumns + `
		FROM businesses
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	err := r.db.Select(&businesses, query, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list businesses for moderation: %w", err)
	}

	return businesses, nil
}

// CountByStatus returns business counts grouped by status for the admin
// dashboard
func (r *BusinessRepository) CountByStatus() (map[string]int, error) {
	rows, err := r.db.Query(`SELECT status, COUNT(*) FROM businesses GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count businesses by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		counts[status] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read status counts: %w", err)
	}

	return counts, nil
}
