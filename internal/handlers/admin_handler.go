package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/botswanaservices/directory-backend/internal/database"
	"github.com/botswanaservices/directory-backend/internal/middleware"
	"github.com/botswanaservices/directory-backend/internal/models"
	"github.com/botswanaservices/directory-backend/internal/services"
	"github.com/botswanaservices/directory-backend/internal/utils"
)

// AdminHandler handles the admin console endpoints
type AdminHandler struct {
	businessRepo *database.BusinessRepository
	userRepo     *database.UserRepository
	auditSvc     *services.AuditService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(businessRepo *database.BusinessRepository, userRepo *database.UserRepository, auditSvc *services.AuditService) *AdminHandler {
	return &AdminHandler{
		businessRepo: businessRepo,
		userRepo:     userRepo,
		auditSvc:     auditSvc,
	}
}

// ListBusinesses handles GET /botswanaservices/businesses with an optional
// status filter
func (h *AdminHandler) ListBusinesses(c *gin.Context) {
	status := c.Query("status")
	if status != "" && status != models.BusinessStatusDraft &&
		status != models.BusinessStatusPending &&
		status != models.BusinessStatusPublished &&
		status != models.BusinessStatusSuspended {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "unknown status filter",
		})
		return
	}

	limit, offset := pagination(c)

	businesses, err := h.businessRepo.ListForModeration(status, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"businesses": businesses,
		"count":      len(businesses),
	})
}

// ModerationRequest carries the admin-editable business fields. Omitted
// fields are left untouched.
type ModerationRequest struct {
	Status   *string `json:"status,omitempty"`
	Verified *bool   `json:"verified,omitempty"`
	Featured *bool   `json:"featured,omitempty"`
}

// UpdateBusiness handles PUT /botswanaservices/businesses/:id
func (h *AdminHandler) UpdateBusiness(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)

	businessID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req ModerationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if req.Status == nil && req.Verified == nil && req.Featured == nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "no moderation fields supplied",
		})
		return
	}

	if req.Status != nil {
		switch *req.Status {
		case models.BusinessStatusPending, models.BusinessStatusPublished, models.BusinessStatusSuspended:
		default:
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "validation_error",
				Message: "status must be pending, published or suspended",
			})
			return
		}
	}

	business, err := h.businessRepo.GetByID(businessID)
	if err != nil {
		respondError(c, err)
		return
	}
	if business == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "business not found",
		})
		return
	}

	if err := h.businessRepo.UpdateModeration(businessID, req.Status, req.Verified, req.Featured); err != nil {
		respondError(c, err)
		return
	}

	changes := map[string]interface{}{}
	if req.Status != nil {
		changes["status"] = *req.Status
	}
	if req.Verified != nil {
		changes["verified"] = *req.Verified
	}
	if req.Featured != nil {
		changes["featured"] = *req.Featured
	}
	if err := h.auditSvc.LogModeration(principal.ID, businessID, changes, utils.GetRealIP(c), utils.GetUserAgent(c)); err != nil {
		log.Printf("WARN: failed to log moderation audit event: %v", err)
	}

	updated, err := h.businessRepo.GetByID(businessID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"business": updated})
}

// DeleteBusiness handles DELETE /botswanaservices/businesses/:id. The
// business, its branches and all dependent rows go in one transaction.
func (h *AdminHandler) DeleteBusiness(c *gin.Context) {
	principal := middleware.MustGetPrincipal(c)

	businessID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	business, err := h.businessRepo.GetByID(businessID)
	if err != nil {
		respondError(c, err)
		return
	}
	if business == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "not_found",
			Message: "business not found",
		})
		return
	}

	if err := h.businessRepo.DeleteCascade(businessID); err != nil {
		respondError(c, err)
		return
	}

	changes := map[string]interface{}{"deleted": true, "name": business.Name}
	if err := h.auditSvc.LogModeration(principal.ID, businessID, changes, utils.GetRealIP(c), utils.GetUserAgent(c)); err != nil {
		log.Printf("WARN: failed to log moderation audit event: %v", err)
	}

	c.JSON(http.StatusOK, gin.H{"message": "business deleted"})
}

// Stats handles GET /botswanaservices/stats
func (h *AdminHandler) Stats(c *gin.Context) {
	counts, err := h.businessRepo.CountByStatus()
	if err != nil {
		respondError(c, err)
		return
	}

	users, err := h.userRepo.CountUsers()
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"businesses_by_status": counts,
		"total_users":          users,
	})
}
