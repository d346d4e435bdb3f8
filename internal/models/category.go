package models

import (
	"time"

	"github.com/google/uuid"
)

// Category is a two-level tree: top-level categories and their subcategories
// linked through ParentID. Categories are created lazily from human-entered
// names when a business profile references one that does not exist yet.
type Category struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	Name      string     `db:"name" json:"name"`
	Slug      string     `db:"slug" json:"slug"`
	ParentID  *uuid.UUID `db:"parent_id" json:"parent_id,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

// Photo belongs to exactly one business. Branch creation copies the parent's
// photos as new rows pointing at the same URLs, so deleting a parent photo
// never removes a branch's copy.
type Photo struct {
	ID          uuid.UUID `db:"id" json:"id"`
	BusinessID  uuid.UUID `db:"business_id" json:"business_id"`
	URL         string    `db:"url" json:"url"`
	StoragePath string    `db:"storage_path" json:"-"`
	Position    int       `db:"position" json:"position"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// MaxPhotosPerBusiness caps live photos on a non-branch profile, enforced at
// upload time. Inheritance copies made for new branches do not count.
const MaxPhotosPerBusiness = 5
