package services

import (
	"context"
	"fmt"
	"math/rand"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/botswanaservices/directory-backend/internal/database"
	"github.com/botswanaservices/directory-backend/internal/models"
	"github.com/botswanaservices/directory-backend/pkg/geocode"
	"github.com/botswanaservices/directory-backend/pkg/mailer"
	"github.com/botswanaservices/directory-backend/pkg/slugger"
	"github.com/botswanaservices/directory-backend/pkg/storage"
)

const (
	maxPhotoBytes = 5 << 20 // 5MB per file
)

// BusinessService enforces the invariants around businesses, branches,
// photos and ratings
type BusinessService struct {
	db           database.DB
	businessRepo *database.BusinessRepository
	categoryRepo *database.CategoryRepository
	photoRepo    *database.PhotoRepository
	reviewRepo   *database.ReviewRepository
	geocoder     geocode.Geocoder
	store        storage.Store
	mail         mailer.Mailer
	logger       *logrus.Logger
}

// NewBusinessService creates a new business service
func NewBusinessService(
	db database.DB,
	businessRepo *database.BusinessRepository,
	categoryRepo *database.CategoryRepository,
	photoRepo *database.PhotoRepository,
	reviewRepo *database.ReviewRepository,
	geocoder geocode.Geocoder,
	store storage.Store,
	mail mailer.Mailer,
	logger *logrus.Logger,
) *BusinessService {
	return &BusinessService{
		db:           db,
		businessRepo: businessRepo,
		categoryRepo: categoryRepo,
		photoRepo:    photoRepo,
		reviewRepo:   reviewRepo,
		geocoder:     geocoder,
		store:        store,
		mail:         mail,
		logger:       logger,
	}
}

// resolveCoordinates geocodes (address, city) and falls back to the static
// per-city table on error, timeout, or no match. It never fails.
func (s *BusinessService) resolveCoordinates(ctx context.Context, address, city string) geocode.Coordinates {
	coords, err := s.geocoder.Geocode(ctx, address, city)
	if err != nil {
		s.logger.WithError(err).WithField("city", city).Warn("Geocoding failed, using city fallback")
		return geocode.FallbackForCity(city)
	}
	if coords == nil {
		return geocode.FallbackForCity(city)
	}
	return *coords
}

// resolveCategory finds or lazily creates a category by name. parentID nil
// means a top-level category. Two concurrent creates for the same name race
// into a unique violation, which is mapped to a retryable conflict.
func (s *BusinessService) resolveCategory(tx *sqlx.Tx, name string, parentID *uuid.UUID) (*models.Category, error) {
	existing, err := s.categoryRepo.GetByName(name, parentID)
	if err != nil {
		return nil, &DependencyError{Op: "category lookup", Err: err}
	}
	if existing != nil {
		return existing, nil
	}

	created, err := s.categoryRepo.CreateTx(tx, name, slugger.Make(name), parentID)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, &ConflictError{Message: "category was just created by another request, please retry"}
		}
		return nil, &DependencyError{Op: "category create", Err: err}
	}
	return created, nil
}

// CreateBusinessProfile creates the owner's business record with its hours,
// resolving categories and coordinates along the way
func (s *BusinessService) CreateBusinessProfile(ctx context.Context, ownerID uuid.UUID, req *models.BusinessProfileRequest) (*models.Business, error) {
	if field := req.RequiredFieldMissing(); field != "" {
		return nil, NewValidationError(field, "is required")
	}

	existing, err := s.businessRepo.GetProfileByOwner(ownerID)
	if err != nil {
		return nil, &DependencyError{Op: "business lookup", Err: err}
	}
	if existing != nil {
		return nil, &ConflictError{Message: "a business profile already exists for this account"}
	}

	taken, err := s.businessRepo.NameExists(req.Name)
	if err != nil {
		return nil, &DependencyError{Op: "name check", Err: err}
	}
	if taken {
		return nil, &ConflictError{Message: "a business with this name already exists"}
	}

	coords := s.resolveCoordinates(ctx, req.Address, req.City)
	now := time.Now()

	business := &models.Business{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Name:        req.Name,
		Slug:        slugger.Unique(req.Name),
		Description: req.Description,
		Phone:       req.Phone,
		Email:       req.Email,
		Website:     req.Website,
		LogoURL:     req.LogoURL,
		CoverURL:    req.CoverURL,
		Address:     req.Address,
		City:        req.City,
		Region:      req.Region,
		Latitude:    &coords.Latitude,
		Longitude:   &coords.Longitude,
		Status:      models.BusinessStatusDraft,
		Services:    models.StringArray(req.Services),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err = database.WithTx(s.db, func(tx *sqlx.Tx) error {
		category, err := s.resolveCategory(tx, req.Category, nil)
		if err != nil {
			return err
		}
		business.CategoryID = category.ID

		if strings.TrimSpace(req.SubCategory) != "" {
			sub, err := s.resolveCategory(tx, req.SubCategory, &category.ID)
			if err != nil {
				return err
			}
			business.SubCategoryID = &sub.ID
		}

		if err := s.businessRepo.CreateTx(tx, business); err != nil {
			if database.IsUniqueViolation(err) {
				return &ConflictError{Message: "business slug already in use, please retry"}
			}
			return &DependencyError{Op: "business create", Err: err}
		}

		if len(req.Hours) > 0 {
			if err := s.businessRepo.ReplaceHoursTx(tx, business.ID, req.Hours); err != nil {
				return &DependencyError{Op: "hours replace", Err: err}
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.sendBestEffort(ctx, business.Email, "Welcome to Botswana Services",
		fmt.Sprintf("<p>Your business <b>%s</b> has been created. Complete your profile to get listed.</p>", business.Name))
	s.sendBestEffort(ctx, business.Email, "Grow your reach on Botswana Services",
		"<p>Add photos, opening hours and services to appear higher in search results.</p>")

	return s.loadRelations(business)
}

// UpdateBusinessProfile updates the owner's business record. An omitted
// sub-category clears the stored reference.
func (s *BusinessService) UpdateBusinessProfile(ctx context.Context, ownerID uuid.UUID, req *models.BusinessProfileRequest) (*models.Business, error) {
	if field := req.RequiredFieldMissing(); field != "" {
		return nil, NewValidationError(field, "is required")
	}

	business, err := s.businessRepo.GetProfileByOwner(ownerID)
	if err != nil {
		return nil, &DependencyError{Op: "business lookup", Err: err}
	}
	if business == nil {
		return nil, &NotFoundError{Resource: "business profile"}
	}

	if !strings.EqualFold(business.Name, req.Name) {
		taken, err := s.businessRepo.NameExists(req.Name)
		if err != nil {
			return nil, &DependencyError{Op: "name check", Err: err}
		}
		if taken {
			return nil, &ConflictError{Message: "a business with this name already exists"}
		}
	}

	if business.Address != req.Address || business.City != req.City {
		coords := s.resolveCoordinates(ctx, req.Address, req.City)
		business.Latitude = &coords.Latitude
		business.Longitude = &coords.Longitude
	}

	business.Name = req.Name
	business.Description = req.Description
	business.Phone = req.Phone
	business.Email = req.Email
	business.Website = req.Website
	business.LogoURL = req.LogoURL
	business.CoverURL = req.CoverURL
	business.Address = req.Address
	business.City = req.City
	business.Region = req.Region
	business.Services = models.StringArray(req.Services)
	if business.Status == models.BusinessStatusDraft {
		business.Status = models.BusinessStatusPending
	}

	err = database.WithTx(s.db, func(tx *sqlx.Tx) error {
		category, err := s.resolveCategory(tx, req.Category, nil)
		if err != nil {
			return err
		}
		business.CategoryID = category.ID

		business.SubCategoryID = nil
		if strings.TrimSpace(req.SubCategory) != "" {
			sub, err := s.resolveCategory(tx, req.SubCategory, &category.ID)
			if err != nil {
				return err
			}
			business.SubCategoryID = &sub.ID
		}

		if err := s.businessRepo.UpdateProfileTx(tx, business); err != nil {
			return &DependencyError{Op: "business update", Err: err}
		}

		if req.Hours != nil {
			if err := s.businessRepo.ReplaceHoursTx(tx, business.ID, req.Hours); err != nil {
				return &DependencyError{Op: "hours replace", Err: err}
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.loadRelations(business)
}

// AddBranch opens a branch under the requester's parent business. The branch
// inherits the parent's identity fields and photo set but must carry its own
// street address.
func (s *BusinessService) AddBranch(ctx context.Context, requesterID, parentID uuid.UUID, req *models.BranchRequest) (*models.Business, error) {
	if strings.TrimSpace(req.Address) == "" {
		return nil, NewValidationError("address", "branches require a street address")
	}
	if strings.TrimSpace(req.BranchName) == "" {
		return nil, NewValidationError("branch_name", "is required")
	}
	if strings.TrimSpace(req.City) == "" {
		return nil, NewValidationError("city", "is required")
	}

	parent, err := s.businessRepo.GetByID(parentID)
	if err != nil {
		return nil, &DependencyError{Op: "parent lookup", Err: err}
	}
	if parent == nil {
		return nil, &NotFoundError{Resource: "parent business"}
	}
	if parent.OwnerID != requesterID {
		return nil, &PermissionError{Message: "you do not own this business"}
	}
	if parent.IsBranch {
		return nil, NewValidationError("parent_business_id", "branches cannot have branches")
	}

	exists, err := s.businessRepo.BranchNameExists(parentID, req.BranchName)
	if err != nil {
		return nil, &DependencyError{Op: "branch name check", Err: err}
	}
	if exists {
		return nil, &ConflictError{Message: "a branch with this name already exists"}
	}

	coords := s.resolveCoordinates(ctx, req.Address, req.City)

	status := models.BusinessStatusPending
	if parent.Status == models.BusinessStatusPublished {
		status = models.BusinessStatusPublished
	}

	phone := parent.Phone
	if req.Phone != nil {
		phone = *req.Phone
	}
	email := parent.Email
	if req.Email != nil {
		email = *req.Email
	}

	now := time.Now()
	branchName := req.BranchName
	branch := &models.Business{
		ID:               uuid.New(),
		OwnerID:          parent.OwnerID,
		Name:             parent.Name,
		Slug:             slugger.Unique(parent.Name + " " + branchName),
		Description:      parent.Description,
		Phone:            phone,
		Email:            email,
		Website:          parent.Website,
		LogoURL:          parent.LogoURL,
		CoverURL:         parent.CoverURL,
		CategoryID:       parent.CategoryID,
		SubCategoryID:    parent.SubCategoryID,
		IsBranch:         true,
		BranchName:       &branchName,
		ParentBusinessID: &parent.ID,
		Address:          req.Address,
		City:             req.City,
		Latitude:         &coords.Latitude,
		Longitude:        &coords.Longitude,
		Status:           status,
		Verified:         parent.Verified,
		Services:         parent.Services,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	err = database.WithTx(s.db, func(tx *sqlx.Tx) error {
		if err := s.businessRepo.CreateTx(tx, branch); err != nil {
			if database.IsUniqueViolation(err) {
				return &ConflictError{Message: "a branch with this name already exists"}
			}
			return &DependencyError{Op: "branch create", Err: err}
		}

		if err := s.photoRepo.CopyToBusinessTx(tx, parent.ID, branch.ID); err != nil {
			return &DependencyError{Op: "photo copy", Err: err}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.loadRelations(branch)
}

// UpdateBranch updates a branch's own fields. The identity fields inherited
// from the parent are not editable here.
func (s *BusinessService) UpdateBranch(ctx context.Context, requesterID, branchID uuid.UUID, req *models.BranchRequest) (*models.Business, error) {
	branch, err := s.getOwnedBranch(requesterID, branchID)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(req.Address) == "" {
		return nil, NewValidationError("address", "branches require a street address")
	}

	if req.BranchName != "" && !strings.EqualFold(req.BranchName, derefString(branch.BranchName)) {
		exists, err := s.businessRepo.BranchNameExists(*branch.ParentBusinessID, req.BranchName)
		if err != nil {
			return nil, &DependencyError{Op: "branch name check", Err: err}
		}
		if exists {
			return nil, &ConflictError{Message: "a branch with this name already exists"}
		}
		name := req.BranchName
		branch.BranchName = &name
	}

	if branch.Address != req.Address || (req.City != "" && branch.City != req.City) {
		city := branch.City
		if req.City != "" {
			city = req.City
		}
		coords := s.resolveCoordinates(ctx, req.Address, city)
		branch.Latitude = &coords.Latitude
		branch.Longitude = &coords.Longitude
	}

	branch.Address = req.Address
	if req.City != "" {
		branch.City = req.City
	}
	if req.Phone != nil {
		branch.Phone = *req.Phone
	}
	if req.Email != nil {
		branch.Email = *req.Email
	}

	err = database.WithTx(s.db, func(tx *sqlx.Tx) error {
		if err := s.businessRepo.UpdateProfileTx(tx, branch); err != nil {
			return &DependencyError{Op: "branch update", Err: err}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.loadRelations(branch)
}

// DeleteBranch removes a branch and its photo rows. Non-branch records are
// not deletable through this path.
func (s *BusinessService) DeleteBranch(requesterID, branchID uuid.UUID) error {
	branch, err := s.getOwnedBranch(requesterID, branchID)
	if err != nil {
		return err
	}

	return database.WithTx(s.db, func(tx *sqlx.Tx) error {
		if _, err := tx.Exec(`DELETE FROM photos WHERE business_id = $1`, branch.ID); err != nil {
			return &DependencyError{Op: "branch photo delete", Err: err}
		}
		if err := s.businessRepo.DeleteTx(tx, branch.ID); err != nil {
			return &DependencyError{Op: "branch delete", Err: err}
		}
		return nil
	})
}

// getOwnedBranch loads a branch and verifies both that the record is a
// branch and that the requester owns it
func (s *BusinessService) getOwnedBranch(requesterID, branchID uuid.UUID) (*models.Business, error) {
	branch, err := s.businessRepo.GetByID(branchID)
	if err != nil {
		return nil, &DependencyError{Op: "branch lookup", Err: err}
	}
	if branch == nil {
		return nil, &NotFoundError{Resource: "branch"}
	}
	if !branch.IsBranch {
		return nil, NewValidationError("branch_id", "record is not a branch")
	}
	if branch.OwnerID != requesterID {
		return nil, &PermissionError{Message: "you do not own this branch"}
	}
	return branch, nil
}

// RecomputeRating re-reads every review for the business and writes the
// average and the count from that one read, in one transaction
func (s *BusinessService) RecomputeRating(businessID uuid.UUID) error {
	return database.WithTx(s.db, func(tx *sqlx.Tx) error {
		return s.recomputeRatingTx(tx, businessID)
	})
}

func (s *BusinessService) recomputeRatingTx(tx *sqlx.Tx, businessID uuid.UUID) error {
	ratings, err := s.reviewRepo.RatingsTx(tx, businessID)
	if err != nil {
		return &DependencyError{Op: "rating read", Err: err}
	}

	average := 0.0
	if len(ratings) > 0 {
		sum := 0
		for _, r := range ratings {
			sum += r
		}
		average = float64(sum) / float64(len(ratings))
	}

	if err := s.businessRepo.UpdateRatingTx(tx, businessID, average, len(ratings)); err != nil {
		return &DependencyError{Op: "rating write", Err: err}
	}

	return nil
}

// UploadPhotos stores the given files and inserts a photo row per stored
// file. The total photo count per business is capped.
func (s *BusinessService) UploadPhotos(ctx context.Context, requesterID, businessID uuid.UUID, files []models.PhotoUpload) ([]models.Photo, error) {
	if len(files) == 0 {
		return nil, NewValidationError("photos", "no files supplied")
	}

	business, err := s.businessRepo.GetByID(businessID)
	if err != nil {
		return nil, &DependencyError{Op: "business lookup", Err: err}
	}
	if business == nil {
		return nil, &NotFoundError{Resource: "business"}
	}
	if business.OwnerID != requesterID {
		return nil, &PermissionError{Message: "you do not own this business"}
	}

	existing, err := s.photoRepo.CountByBusiness(businessID)
	if err != nil {
		return nil, &DependencyError{Op: "photo count", Err: err}
	}
	if existing+len(files) > models.MaxPhotosPerBusiness {
		return nil, NewValidationError("photos",
			fmt.Sprintf("a business can have at most %d photos", models.MaxPhotosPerBusiness))
	}

	for _, f := range files {
		if !strings.HasPrefix(f.ContentType, "image/") {
			return nil, NewValidationError("photos", fmt.Sprintf("%s is not an image", f.Filename))
		}
		if len(f.Data) > maxPhotoBytes {
			return nil, NewValidationError("photos", fmt.Sprintf("%s exceeds the 5MB limit", f.Filename))
		}
	}

	var photos []models.Photo
	for i, f := range files {
		key := storageKey(business.OwnerID, f.Filename)
		url, err := s.store.Upload(ctx, key, f.Data, f.ContentType)
		if err != nil {
			s.logger.WithError(err).Error("Photo upload failed")
			return nil, &DependencyError{Op: "photo upload", Err: err}
		}
		photos = append(photos, models.Photo{
			ID:          uuid.New(),
			BusinessID:  businessID,
			URL:         url,
			StoragePath: key,
			Position:    existing + i,
			CreatedAt:   time.Now(),
		})
	}

	err = database.WithTx(s.db, func(tx *sqlx.Tx) error {
		for i := range photos {
			if err := s.photoRepo.CreateTx(tx, &photos[i]); err != nil {
				return &DependencyError{Op: "photo insert", Err: err}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return photos, nil
}

// DeletePhoto removes a photo row and its stored object. Storage removal is
// best-effort once the row is gone.
func (s *BusinessService) DeletePhoto(ctx context.Context, requesterID, photoID uuid.UUID) error {
	photo, err := s.photoRepo.GetByID(photoID)
	if err != nil {
		return &DependencyError{Op: "photo lookup", Err: err}
	}
	if photo == nil {
		return &NotFoundError{Resource: "photo"}
	}

	business, err := s.businessRepo.GetByID(photo.BusinessID)
	if err != nil {
		return &DependencyError{Op: "business lookup", Err: err}
	}
	if business == nil || business.OwnerID != requesterID {
		return &PermissionError{Message: "you do not own this photo"}
	}

	if err := s.photoRepo.Delete(photoID); err != nil {
		return &DependencyError{Op: "photo delete", Err: err}
	}

	if err := s.store.Remove(ctx, photo.StoragePath); err != nil {
		s.logger.WithError(err).WithField("path", photo.StoragePath).Warn("Failed to remove stored photo")
	}

	return nil
}

// loadRelations attaches photos and hours to the business for responses
func (s *BusinessService) loadRelations(b *models.Business) (*models.Business, error) {
	photos, err := s.photoRepo.ListByBusiness(b.ID)
	if err != nil {
		return nil, &DependencyError{Op: "photo load", Err: err}
	}
	hours, err := s.businessRepo.GetHours(b.ID)
	if err != nil {
		return nil, &DependencyError{Op: "hours load", Err: err}
	}
	b.Photos = photos
	b.Hours = hours
	return b, nil
}

// sendBestEffort sends a notification email without letting failures
// propagate to the caller
func (s *BusinessService) sendBestEffort(ctx context.Context, to, subject, body string) {
	if err := s.mail.Send(ctx, to, subject, body); err != nil {
		s.logger.WithError(err).WithField("subject", subject).Warn("Notification email failed")
	}
}

// storageKey builds an object key that cannot collide across owners or
// repeated uploads of the same filename
func storageKey(ownerID uuid.UUID, filename string) string {
	ext := path.Ext(filename)
	return fmt.Sprintf("%s/%d-%04d%s", ownerID, time.Now().UnixNano(), rand.Intn(10000), ext)
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
