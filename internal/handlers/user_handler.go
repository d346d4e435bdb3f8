package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/botswanaservices/directory-backend/internal/database"
	"github.com/botswanaservices/directory-backend/internal/middleware"
	"github.com/botswanaservices/directory-backend/internal/models"
	"github.com/botswanaservices/directory-backend/internal/services"
)

// UserHandler handles the signed-in user's profile, favorites, reviews and
// bookings
type UserHandler struct {
	userRepo     *database.UserRepository
	favoriteRepo *database.FavoriteRepository
	reviewRepo   *database.ReviewRepository
	bookingRepo  *database.BookingRepository
	businessRepo *database.BusinessRepository
	reviewSvc    *services.ReviewService
}

// NewUserHandler creates a new user handler
func NewUserHandler(
	userRepo *database.UserRepository,
	favoriteRepo *database.FavoriteRepository,
	reviewRepo *database.ReviewRepository,
	bookingRepo *database.BookingRepository,
	businessRepo *database.BusinessRepository,
	reviewSvc *services.ReviewService,
) *UserHandler {
	return &UserHandler{
		userRepo:     userRepo,
		favoriteRepo: favoriteRepo,
		reviewRepo:   reviewRepo,
		bookingRepo:  bookingRepo,
		businessRepo: businessRepo,
		reviewSvc:    reviewSvc,
	}
}

// GetProfile handles GET /usersdashboard/profile
func (h *UserHandler) GetProfile(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)

	user, err := h.userRepo.GetUserByID(principal.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "account not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// UpdateProfileRequest is the profile update body
type UpdateProfileRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required"`
}

// UpdateProfile handles PUT /usersdashboard/profile
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.userRepo.UpdateProfile(principal.ID, req.Name, req.Email); err != nil {
		if database.IsUniqueViolation(err) {
			c.JSON(http.StatusConflict, ErrorResponse{
				Error:   "conflict",
				Message: "an account with this email already exists",
			})
			return
		}
		respondError(c, err)
		return
	}

	user, err := h.userRepo.GetUserByID(principal.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// ListFavorites handles GET /user/favorites
func (h *UserHandler) ListFavorites(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)

	favorites, err := h.favoriteRepo.ListByUser(principal.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"favorites": favorites})
}

// AddFavorite handles POST /user/favorites/:businessId
func (h *UserHandler) AddFavorite(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)

	businessID, ok := parseUUIDParam(c, "businessId")
	if !ok {
		return
	}

	business, err := h.businessRepo.GetByID(businessID)
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

	exists, err := h.favoriteRepo.Exists(principal.ID, businessID)
	if err != nil {
		respondError(c, err)
		return
	}
	if exists {
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "conflict",
			Message: "business is already in your favorites",
		})
		return
	}

	favorite, err := h.favoriteRepo.Create(principal.ID, businessID)
	if err != nil {
		if database.IsUniqueViolation(err) {
			c.JSON(http.StatusConflict, ErrorResponse{
				Error:   "conflict",
				Message: "business is already in your favorites",
			})
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"favorite": favorite})
}

// RemoveFavorite handles DELETE /user/favorites/:businessId
func (h *UserHandler) RemoveFavorite(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)

	businessID, ok := parseUUIDParam(c, "businessId")
	if !ok {
		return
	}

	if err := h.favoriteRepo.Delete(principal.ID, businessID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "favorite removed"})
}

// ListReviews handles GET /user/reviews
func (h *UserHandler) ListReviews(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)

	reviews, err := h.reviewRepo.ListByUser(principal.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"reviews": reviews})
}

// CreateReview handles POST /user/reviews/:businessId
func (h *UserHandler) CreateReview(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)

	businessID, ok := parseUUIDParam(c, "businessId")
	if !ok {
		return
	}

	var req models.ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	review, err := h.reviewSvc.CreateReview(principal.ID, businessID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"review": review})
}

// DeleteReview handles DELETE /user/reviews/:id
func (h *UserHandler) DeleteReview(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)

	reviewID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.reviewSvc.DeleteReview(principal.ID, principal.Role, reviewID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "review deleted"})
}

// ListBookings handles GET /user/bookings
func (h *UserHandler) ListBookings(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)

	bookings, err := h.bookingRepo.ListByUser(principal.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}

// CreateBooking handles POST /user/bookings
func (h *UserHandler) CreateBooking(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)

	var req models.BookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	businessID, err := uuid.Parse(req.BusinessID)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid business_id",
		})
		return
	}

	scheduledAt, err := time.Parse(time.RFC3339, req.ScheduledAt)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "scheduled_at must be an RFC 3339 timestamp",
		})
		return
	}
	if scheduledAt.Before(time.Now()) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "scheduled_at must be in the future",
		})
		return
	}

	business, err := h.businessRepo.GetByID(businessID)
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

	booking, err := h.bookingRepo.Create(businessID, principal.ID, scheduledAt, req.Note)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"booking": booking})
}

// CancelBooking handles DELETE /user/bookings/:id. Users may only cancel
// their own bookings.
func (h *UserHandler) CancelBooking(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)

	bookingID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	booking, err := h.bookingRepo.GetByID(bookingID)
	if err != nil {
		respondError(c, err)
		return
	}
	if booking == nil || booking.UserID != principal.ID {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "booking not found",
		})
		return
	}

	if err := h.bookingRepo.UpdateStatus(bookingID, models.BookingStatusCancelled); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "booking cancelled"})
}
