package models

import "strings"

// BusinessProfileRequest carries the owner-editable profile fields for
// create and update
type BusinessProfileRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Phone       string          `json:"phone"`
	Email       string          `json:"email"`
	Website     *string         `json:"website,omitempty"`
	LogoURL     *string         `json:"logo_url,omitempty"`
	CoverURL    *string         `json:"cover_url,omitempty"`
	Category    string          `json:"category"`
	SubCategory string          `json:"sub_category,omitempty"`
	Address     string          `json:"address"`
	City        string          `json:"city"`
	Region      *string         `json:"region,omitempty"`
	Services    []string        `json:"services,omitempty"`
	Hours       []BusinessHours `json:"hours,omitempty"`
}

// RequiredFieldMissing returns the name of the first missing required field,
// or the empty string when all are present
func (r *BusinessProfileRequest) RequiredFieldMissing() string {
	required := []struct {
		field, value string
	}{
		{"name", r.Name},
		{"category", r.Category},
		{"description", r.Description},
		{"phone", r.Phone},
		{"email", r.Email},
		{"address", r.Address},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return f.field
		}
	}
	return ""
}

// BranchRequest carries the fields needed to open a branch under a parent
// business
type BranchRequest struct {
	BranchName string  `json:"branch_name"`
	City       string  `json:"city"`
	Address    string  `json:"address"`
	Phone      *string `json:"phone,omitempty"`
	Email      *string `json:"email,omitempty"`
}

// PhotoUpload is one decoded multipart file ready for storage
type PhotoUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ReviewRequest carries a user's review submission
type ReviewRequest struct {
	Rating  int    `json:"rating"`
	Title   string `json:"title"`
	Comment string `json:"comment"`
}

// BookingRequest carries a user's booking submission
type BookingRequest struct {
	BusinessID  string  `json:"business_id"`
	ScheduledAt string  `json:"scheduled_at"` // RFC 3339
	Note        *string `json:"note,omitempty"`
}

// PromotionRequest carries a business owner's promotion fields
type PromotionRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	DiscountPct *int    `json:"discount_pct,omitempty"`
	StartsAt    string  `json:"starts_at"` // RFC 3339
	EndsAt      string  `json:"ends_at"`   // RFC 3339
}

// ListingRequest carries a business owner's listing fields
type ListingRequest struct {
	BusinessID  string   `json:"business_id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Price       *float64 `json:"price,omitempty"`
}
