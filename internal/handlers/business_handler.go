package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/botswanaservices/directory-backend/internal/database"
	"github.com/botswanaservices/directory-backend/internal/middleware"
	"github.com/botswanaservices/directory-backend/internal/models"
	"github.com/botswanaservices/directory-backend/internal/services"
)

// BusinessHandler handles the business owner's dashboard endpoints
type BusinessHandler struct {
	businessSvc  *services.BusinessService
	businessRepo *database.BusinessRepository
	bookingRepo  *database.BookingRepository
}

// NewBusinessHandler creates a new business handler
func NewBusinessHandler(
	businessSvc *services.BusinessService,
	businessRepo *database.BusinessRepository,
	bookingRepo *database.BookingRepository,
) *BusinessHandler {
	return &BusinessHandler{
		businessSvc:  businessSvc,
		businessRepo: businessRepo,
		bookingRepo:  bookingRepo,
	}
}

// GetProfile handles GET /business/profile
func (h *BusinessHandler) GetProfile(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)

	business, err := h.businessRepo.GetProfileByOwner(principal.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	if business == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "business profile not found",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"business": business})
}

// CreateProfile handles POST /business/profile
func (h *BusinessHandler) CreateProfile(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)

	var req models.BusinessProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	business, err := h.businessSvc.CreateBusinessProfile(c.Request.Context(), principal.ID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"business": business})
}

// UpdateProfile handles PUT /business/profile
func (h *BusinessHandler) UpdateProfile(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)

	var req models.BusinessProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	business, err := h.businessSvc.UpdateBusinessProfile(c.Request.Context(), principal.ID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"business": business})
}

// ListBranches handles GET /business/branches
func (h *BusinessHandler) ListBranches(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)

	parent, err := h.businessRepo.GetProfileByOwner(principal.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	if parent == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "business profile not found",
		})
		return
	}

	branches, err := h.businessRepo.ListBranches(parent.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"branches": branches})
}

// AddBranch handles POST /business/branches
func (h *BusinessHandler) AddBranch(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)

	parent, err := h.businessRepo.GetProfileByOwner(principal.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	if parent == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "business profile not found",
		})
		return
	}

	var req models.BranchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	branch, err := h.businessSvc.AddBranch(c.Request.Context(), principal.ID, parent.ID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"branch": branch})
}

// UpdateBranch handles PUT /business/branches/:id
func (h *BusinessHandler) UpdateBranch(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)

	branchID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req models.BranchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	branch, err := h.businessSvc.UpdateBranch(c.Request.Context(), principal.ID, branchID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"branch": branch})
}

// DeleteBranch handles DELETE /business/branches/:id
func (h *BusinessHandler) DeleteBranch(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)

	branchID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.businessSvc.DeleteBranch(principal.ID, branchID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "branch deleted"})
}

// UploadPhotos handles POST /business/photos (multipart form, field "photos")
func (h *BusinessHandler) UploadPhotos(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)

	businessID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		respondBindError(c, err)
		return
	}

	var uploads []models.PhotoUpload
	for _, header := range form.File["photos"] {
		file, err := header.Open()
		if err != nil {
			respondBindError(c, err)
			return
		}
		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			respondBindError(c, err)
			return
		}
		uploads = append(uploads, models.PhotoUpload{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Data:        data,
		})
	}

	photos, err := h.businessSvc.UploadPhotos(c.Request.Context(), principal.ID, businessID, uploads)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"photos": photos})
}

// DeletePhoto handles DELETE /business/photos/:id
func (h *BusinessHandler) DeletePhoto(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)

	photoID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.businessSvc.DeletePhoto(c.Request.Context(), principal.ID, photoID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "photo deleted"})
}

// ListBookings handles GET /business/bookings
func (h *BusinessHandler) ListBookings(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)

	business, err := h.businessRepo.GetProfileByOwner(principal.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	if business == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "business profile not found",
		})
		return
	}

	bookings, err := h.bookingRepo.ListByBusiness(business.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}

// UpdateBookingStatusRequest is the booking status change body
type UpdateBookingStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateBookingStatus handles PUT /business/bookings/:id
func (h *BusinessHandler) UpdateBookingStatus(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)

	bookingID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateBookingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if req.Status != models.BookingStatusConfirmed &&
		req.Status != models.BookingStatusCancelled &&
		req.Status != models.BookingStatusCompleted {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "status must be confirmed, cancelled or completed",
		})
		return
	}

	booking, err := h.bookingRepo.GetByID(bookingID)
	if err != nil {
		respondError(c, err)
		return
	}
	if booking == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "booking not found",
		})
		return
	}

	business, err := h.businessRepo.GetByID(booking.BusinessID)
	if err != nil {
		respondError(c, err)
		return
	}
	if business == nil || business.OwnerID != principal.ID {
		c.JSON(http.StatusForbidden, ErrorResponse{
			Error:   "forbidden",
			Message: "you do not own this booking's business",
		})
		return
	}

	if err := h.bookingRepo.UpdateStatus(bookingID, req.Status); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "booking updated"})
}
