package services

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/botswanaservices/directory-backend/internal/database"
	"github.com/botswanaservices/directory-backend/internal/models"
)

// ReviewService handles review writes and keeps the business's derived
// rating fields consistent with them
type ReviewService struct {
	db           database.DB
	reviewRepo   *database.ReviewRepository
	businessRepo *database.BusinessRepository
	business     *BusinessService
	logger       *logrus.Logger
}

// NewReviewService creates a new review service
func NewReviewService(
	db database.DB,
	reviewRepo *database.ReviewRepository,
	businessRepo *database.BusinessRepository,
	business *BusinessService,
	logger *logrus.Logger,
) *ReviewService {
	return &ReviewService{
		db:           db,
		reviewRepo:   reviewRepo,
		businessRepo: businessRepo,
		business:     business,
		logger:       logger,
	}
}

// CreateReview records a user's review and recomputes the business rating
// in the same transaction
func (s *ReviewService) CreateReview(userID, businessID uuid.UUID, req *models.ReviewRequest) (*models.Review, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, NewValidationError("rating", "must be between 1 and 5")
	}

	business, err := s.businessRepo.GetByID(businessID)
	if err != nil {
		return nil, &DependencyError{Op: "business lookup", Err: err}
	}
	if business == nil || business.Status != models.BusinessStatusPublished {
		return nil, &NotFoundError{Resource: "business"}
	}
	if business.OwnerID == userID {
		return nil, NewValidationError("business_id", "you cannot review your own business")
	}

	existing, err := s.reviewRepo.GetByBusinessAndUser(businessID, userID)
	if err != nil {
		return nil, &DependencyError{Op: "review lookup", Err: err}
	}
	if existing != nil {
		return nil, &ConflictError{Message: "you have already reviewed this business"}
	}

	review := &models.Review{
		ID:         uuid.New(),
		BusinessID: businessID,
		UserID:     userID,
		Rating:     req.Rating,
		Title:      optionalString(req.Title),
		Comment:    optionalString(req.Comment),
		CreatedAt:  time.Now(),
	}

	err = database.WithTx(s.db, func(tx *sqlx.Tx) error {
		if err := s.reviewRepo.CreateTx(tx, review); err != nil {
			if database.IsUniqueViolation(err) {
				return &ConflictError{Message: "you have already reviewed this business"}
			}
			return &DependencyError{Op: "review create", Err: err}
		}
		return s.business.recomputeRatingTx(tx, businessID)
	})
	if err != nil {
		return nil, err
	}

	return review, nil
}

// DeleteReview removes a review. The author or an admin may delete; the
// rating recompute happens in the same transaction as the delete.
func (s *ReviewService) DeleteReview(requesterID uuid.UUID, requesterRole string, reviewID uuid.UUID) error {
	review, err := s.reviewRepo.GetByID(reviewID)
	if err != nil {
		return &DependencyError{Op: "review lookup", Err: err}
	}
	if review == nil {
		return &NotFoundError{Resource: "review"}
	}
	if review.UserID != requesterID && requesterRole != models.RoleAdmin {
		return &PermissionError{Message: "you can only delete your own reviews"}
	}

	return database.WithTx(s.db, func(tx *sqlx.Tx) error {
		if err := s.reviewRepo.DeleteTx(tx, reviewID); err != nil {
			return &DependencyError{Op: "review delete", Err: err}
		}
		return s.business.recomputeRatingTx(tx, review.BusinessID)
	})
}

// optionalString maps an empty or blank field to a NULL column
func optionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
