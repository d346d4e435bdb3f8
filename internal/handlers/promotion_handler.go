package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/botswanaservices/directory-backend/internal/database"
	"github.com/botswanaservices/directory-backend/internal/middleware"
	"github.com/botswanaservices/directory-backend/internal/models"
)

// PromotionHandler handles the owner's promotion endpoints
type PromotionHandler struct {
	promotionRepo *database.PromotionRepository
	businessRepo  *database.BusinessRepository
}

// NewPromotionHandler creates a new promotion handler
func NewPromotionHandler(promotionRepo *database.PromotionRepository, businessRepo *database.BusinessRepository) *PromotionHandler {
	return &PromotionHandler{
		promotionRepo: promotionRepo,
		businessRepo:  businessRepo,
	}
}

// ownedBusiness loads the owner's business profile or writes a 404
func (h *PromotionHandler) ownedBusiness(c *gin.Context, ownerID uuid.UUID) *models.Business {
	business, err := h.businessRepo.GetProfileByOwner(ownerID)
	if err != nil {
		respondError(c, err)
		return nil
	}
	if business == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "business profile not found",
		})
		return nil
	}
	return business
}

// List handles GET /business/promotions
func (h *PromotionHandler) List(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)

	business := h.ownedBusiness(c, principal.ID)
	if business == nil {
		return
	}

	promotions, err := h.promotionRepo.ListByBusiness(business.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"promotions": promotions})
}

// Create handles POST /business/promotions
func (h *PromotionHandler) Create(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)

	business := h.ownedBusiness(c, principal.ID)
	if business == nil {
		return
	}

	var req models.PromotionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	startsAt, endsAt, ok := parsePromotionWindow(c, &req)
	if !ok {
		return
	}

	promotion := &models.Promotion{
		ID:          uuid.New(),
		BusinessID:  business.ID,
		Title:       req.Title,
		Description: req.Description,
		DiscountPct: req.DiscountPct,
		StartsAt:    startsAt,
		EndsAt:      endsAt,
		Active:      true,
		CreatedAt:   time.Now(),
	}

	if err := h.promotionRepo.Create(promotion); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"promotion": promotion})
}

// Update handles PUT /business/promotions/:id
func (h *PromotionHandler) Update(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)

	promotionID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	business := h.ownedBusiness(c, principal.ID)
	if business == nil {
		return
	}

	promotion, err := h.promotionRepo.GetByID(promotionID)
	if err != nil {
		respondError(c, err)
		return
	}
	if promotion == nil || promotion.BusinessID != business.ID {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "promotion not found",
		})
		return
	}

	var req models.PromotionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	startsAt, endsAt, ok := parsePromotionWindow(c, &req)
	if !ok {
		return
	}

	promotion.Title = req.Title
	promotion.Description = req.Description
	promotion.DiscountPct = req.DiscountPct
	promotion.StartsAt = startsAt
	promotion.EndsAt = endsAt
	promotion.Active = endsAt.After(time.Now())

	if err := h.promotionRepo.Update(promotion); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"promotion": promotion})
}

// Delete handles DELETE /business/promotions/:id
func (h *PromotionHandler) Delete(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)

	promotionID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	business := h.ownedBusiness(c, principal.ID)
	if business == nil {
		return
	}

	promotion, err := h.promotionRepo.GetByID(promotionID)
	if err != nil {
		respondError(c, err)
		return
	}
	if promotion == nil || promotion.BusinessID != business.ID {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "promotion not found",
		})
		return
	}

	if err := h.promotionRepo.Delete(promotionID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "promotion deleted"})
}

// parsePromotionWindow validates the promotion time range
func parsePromotionWindow(c *gin.Context, req *models.PromotionRequest) (time.Time, time.Time, bool) {
	startsAt, err := time.Parse(time.RFC3339, req.StartsAt)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "starts_at must be an RFC 3339 timestamp",
		})
		return time.Time{}, time.Time{}, false
	}

	endsAt, err := time.Parse(time.RFC3339, req.EndsAt)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "ends_at must be an RFC 3339 timestamp",
		})
		return time.Time{}, time.Time{}, false
	}

	if !endsAt.After(startsAt) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "ends_at must be after starts_at",
		})
		return time.Time{}, time.Time{}, false
	}

	return startsAt, endsAt, true
}
