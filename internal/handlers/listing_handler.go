package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/botswanaservices/directory-backend/internal/database"
	"github.com/botswanaservices/directory-backend/internal/middleware"
	"github.com/botswanaservices/directory-backend/internal/models"
)

// ListingHandler handles the owner's service/product listing endpoints.
// Every request names the target business explicitly.
type ListingHandler struct {
	listingRepo  *database.ListingRepository
	businessRepo *database.BusinessRepository
}

// NewListingHandler creates a new listing handler
func NewListingHandler(listingRepo *database.ListingRepository, businessRepo *database.BusinessRepository) *ListingHandler {
	return &ListingHandler{
		listingRepo:  listingRepo,
		businessRepo: businessRepo,
	}
}

// requireOwnedBusiness resolves the named business and verifies ownership
func (h *ListingHandler) requireOwnedBusiness(c *gin.Context, ownerID uuid.UUID, rawBusinessID string) *models.Business {
	businessID, err := uuid.Parse(rawBusinessID)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid business_id",
		})
		return nil
	}

	business, err := h.businessRepo.GetByID(businessID)
	if err != nil {
		respondError(c, err)
		return nil
	}
	if business == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "business not found",
		})
		return nil
	}
	if business.OwnerID != ownerID {
		c.JSON(http.StatusForbidden, ErrorResponse{
			Error:   "forbidden",
			Message: "you do not own this business",
		})
		return nil
	}
	return business
}

// List handles GET /business/listings?business_id=...
func (h *ListingHandler) List(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)

	business := h.requireOwnedBusiness(c, principal.ID, c.Query("business_id"))
	if business == nil {
		return
	}

	listings, err := h.listingRepo.ListByBusiness(business.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"listings": listings})
}

// Create handles POST /business/listings
func (h *ListingHandler) Create(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)

	var req models.ListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if strings.TrimSpace(req.Title) == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "title is required",
			Field:   "title",
		})
		return
	}

	business := h.requireOwnedBusiness(c, principal.ID, req.BusinessID)
	if business == nil {
		return
	}

	now := time.Now()
	listing := &models.Listing{
		ID:          uuid.New(),
		BusinessID:  business.ID,
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.listingRepo.Create(listing); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"listing": listing})
}

// Update handles PUT /business/listings/:id
func (h *ListingHandler) Update(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)

	listingID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req models.ListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	listing, err := h.listingRepo.GetByID(listingID)
	if err != nil {
		respondError(c, err)
		return
	}
	if listing == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "listing not found",
		})
		return
	}

	business := h.requireOwnedBusiness(c, principal.ID, listing.BusinessID.String())
	if business == nil {
		return
	}

	listing.Title = req.Title
	listing.Description = req.Description
	listing.Price = req.Price
	listing.UpdatedAt = time.Now()

	if err := h.listingRepo.Update(listing); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"listing": listing})
}

// Delete handles DELETE /business/listings/:id
func (h *ListingHandler) Delete(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)

	listingID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	listing, err := h.listingRepo.GetByID(listingID)
	if err != nil {
		respondError(c, err)
		return
	}
	if listing == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "listing not found",
		})
		return
	}

	business := h.requireOwnedBusiness(c, principal.ID, listing.BusinessID.String())
	if business == nil {
		return
	}

	if err := h.listingRepo.Delete(listingID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "listing deleted"})
}
