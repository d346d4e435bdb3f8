package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/botswanaservices/directory-backend/internal/database"
	"github.com/botswanaservices/directory-backend/internal/models"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// DirectoryHandler serves the public, unauthenticated directory endpoints
type DirectoryHandler struct {
	businessRepo  *database.BusinessRepository
	categoryRepo  *database.CategoryRepository
	photoRepo     *database.PhotoRepository
	reviewRepo    *database.ReviewRepository
	promotionRepo *database.PromotionRepository
	listingRepo   *database.ListingRepository
}

// NewDirectoryHandler creates a new directory handler
func NewDirectoryHandler(
	businessRepo *database.BusinessRepository,
	categoryRepo *database.CategoryRepository,
	photoRepo *database.PhotoRepository,
	reviewRepo *database.ReviewRepository,
	promotionRepo *database.PromotionRepository,
	listingRepo *database.ListingRepository,
) *DirectoryHandler {
	return &DirectoryHandler{
		businessRepo:  businessRepo,
		categoryRepo:  categoryRepo,
		photoRepo:     photoRepo,
		reviewRepo:    reviewRepo,
		promotionRepo: promotionRepo,
		listingRepo:   listingRepo,
	}
}

// ListBusinesses handles GET /businesses
func (h *DirectoryHandler) ListBusinesses(c *gin.Context) {
	city := c.Query("city")

	var categoryID *uuid.UUID
	if raw := c.Query("category_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "validation_error",
				Message: "Invalid category_id parameter",
			})
			return
		}
		categoryID = &id
	}

	limit, offset := pagination(c)

	businesses, err := h.businessRepo.ListPublished(city, categoryID, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"businesses": businesses,
		"count":      len(businesses),
	})
}

// GetBusiness handles GET /businesses/:slug. Only published businesses are
// visible here; everything else reads as not found.
func (h *DirectoryHandler) GetBusiness(c *gin.Context) {
	slug := c.Param("slug")

	business, err := h.businessRepo.GetBySlug(slug)
	if err != nil {
		respondError(c, err)
		return
	}
	if business == nil || business.Status != models.BusinessStatusPublished {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "business not found",
		})
		return
	}

	if err := h.businessRepo.IncrementViewCount(business.ID); err != nil {
		log.Printf("WARN: failed to increment view count for %s: %v", business.ID, err)
	}

	photos, err := h.photoRepo.ListByBusiness(business.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	business.Photos = photos

	hours, err := h.businessRepo.GetHours(business.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	business.Hours = hours

	branches, err := h.businessRepo.ListBranches(business.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	reviews, err := h.reviewRepo.ListByBusiness(business.ID, defaultPageSize, 0)
	if err != nil {
		respondError(c, err)
		return
	}

	promotions, err := h.promotionRepo.ListByBusiness(business.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	listings, err := h.listingRepo.ListByBusiness(business.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"business":   business,
		"branches":   branches,
		"reviews":    reviews,
		"promotions": promotions,
		"listings":   listings,
	})
}

// ListBusinessReviews handles GET /businesses/:slug/reviews with pagination
func (h *DirectoryHandler) ListBusinessReviews(c *gin.Context) {
	slug := c.Param("slug")

	business, err := h.businessRepo.GetBySlug(slug)
	if err != nil {
		respondError(c, err)
		return
	}
	if business == nil || business.Status != models.BusinessStatusPublished {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "business not found",
		})
		return
	}

	limit, offset := pagination(c)

	reviews, err := h.reviewRepo.ListByBusiness(business.ID, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reviews": reviews,
		"count":   len(reviews),
	})
}

// ListCategories handles GET /categories
func (h *DirectoryHandler) ListCategories(c *gin.Context) {
	categories, err := h.categoryRepo.ListAll()
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// pagination reads limit and offset query parameters with sane bounds
func pagination(c *gin.Context) (limit, offset int) {
	limit = defaultPageSize
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	if raw := c.Query("offset"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 0 {
			offset = parsed
		}
	}

	return limit, offset
}
