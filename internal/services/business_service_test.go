package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/botswanaservices/directory-backend/internal/database"
	"github.com/botswanaservices/directory-backend/internal/models"
	"github.com/botswanaservices/directory-backend/pkg/geocode"
)

// stubGeocoder returns a fixed result or error
type stubGeocoder struct {
	coords *geocode.Coordinates
	err    error
}

func (s *stubGeocoder) Geocode(_ context.Context, _, _ string) (*geocode.Coordinates, error) {
	return s.coords, s.err
}

// stubStore records uploads in memory
type stubStore struct {
	uploaded []string
	removed  []string
	err      error
}

func (s *stubStore) Upload(_ context.Context, path string, _ []byte, _ string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.uploaded = append(s.uploaded, path)
	return "https://cdn.example.com/" + path, nil
}

func (s *stubStore) Remove(_ context.Context, path string) error {
	s.removed = append(s.removed, path)
	return nil
}

// stubMailer counts sends
type stubMailer struct {
	sent []string
	err  error
}

func (s *stubMailer) Send(_ context.Context, to, subject, _ string) error {
	s.sent = append(s.sent, subject)
	return s.err
}

func setupBusinessServiceTest(t *testing.T) (*BusinessService, sqlmock.Sqlmock, *stubGeocoder, *stubStore, *stubMailer, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	postgresDB := &database.PostgresDB{DB: sqlxDB}

	geocoder := &stubGeocoder{}
	store := &stubStore{}
	mail := &stubMailer{}

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	service := NewBusinessService(
		postgresDB,
		database.NewBusinessRepository(postgresDB),
		database.NewCategoryRepository(postgresDB),
		database.NewPhotoRepository(postgresDB),
		database.NewReviewRepository(postgresDB),
		geocoder,
		store,
		mail,
		logger,
	)

	cleanup := func() {
		db.Close()
	}

	return service, mock, geocoder, store, mail, cleanup
}

var businessTestColumns = []string{
	"id", "owner_id", "name", "slug", "description", "phone", "email", "website",
	"logo_url", "cover_url", "category_id", "sub_category_id", "is_branch",
	"branch_name", "parent_business_id", "address", "city", "region",
	"latitude", "longitude", "status", "verified", "featured", "view_count",
	"average_rating", "review_count", "services", "created_at", "updated_at",
}

func parentBusinessRow(id, ownerID uuid.UUID, status string, verified bool) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(businessTestColumns).AddRow(
		id, ownerID, "Kalahari Cafe", "kalahari-cafe-a1b2", "Coffee and food", "+267 71 234 567",
		"hello@kalahari.example", nil, nil, nil, uuid.New(), nil, false,
		nil, nil, "Plot 123, Main Mall", "Gaborone", nil,
		-24.6282, 25.9231, status, verified, false, 0,
		4.5, 2, []byte("{}"), now, now,
	)
}

func TestCreateBusinessProfile_MissingRequiredField(t *testing.T) {
	service, mock, _, _, _, cleanup := setupBusinessServiceTest(t)
	defer cleanup()

	req := &models.BusinessProfileRequest{
		Name:  "Kalahari Cafe",
		Email: "hello@kalahari.example",
		// description, phone, category, address missing
	}

	_, err := service.CreateBusinessProfile(context.Background(), uuid.New(), req)
	require.Error(t, err)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "category", validationErr.Field)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBusinessProfile_DuplicateName(t *testing.T) {
	service, mock, _, _, _, cleanup := setupBusinessServiceTest(t)
	defer cleanup()

	ownerID := uuid.New()

	// No existing profile for the owner
	mock.ExpectQuery("FROM businesses").
		WithArgs(ownerID).
		WillReturnError(sql.ErrNoRows)

	// Name check finds a clash
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("Kalahari Cafe").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	req := &models.BusinessProfileRequest{
		Name:        "Kalahari Cafe",
		Category:    "Restaurants",
		Description: "Coffee and food",
		Phone:       "+267 71 234 567",
		Email:       "hello@kalahari.example",
		Address:     "Plot 123, Main Mall",
		City:        "Gaborone",
	}

	_, err := service.CreateBusinessProfile(context.Background(), ownerID, req)
	require.Error(t, err)
	assert.True(t, IsConflict(err))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBusinessProfile_CategoryRaceIsRetryableConflict(t *testing.T) {
	service, mock, _, _, _, cleanup := setupBusinessServiceTest(t)
	defer cleanup()

	ownerID := uuid.New()

	mock.ExpectQuery("FROM businesses").
		WithArgs(ownerID).
		WillReturnError(sql.ErrNoRows)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("Kalahari Cafe").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	mock.ExpectBegin()

	mock.ExpectQuery("FROM categories").
		WithArgs("Restaurants", nil).
		WillReturnError(sql.ErrNoRows)

	// Another request created the category first.
	mock.ExpectExec("INSERT INTO categories").
		WillReturnError(&pq.Error{Code: "23505"})

	mock.ExpectRollback()

	req := &models.BusinessProfileRequest{
		Name:        "Kalahari Cafe",
		Category:    "Restaurants",
		Description: "Coffee and food",
		Phone:       "+267 71 234 567",
		Email:       "hello@kalahari.example",
		Address:     "Plot 123, Main Mall",
		City:        "Gaborone",
	}

	_, err := service.CreateBusinessProfile(context.Background(), ownerID, req)
	require.Error(t, err)
	assert.True(t, IsConflict(err), "a lost category-create race must read as a retryable conflict, not a server error")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddBranch_AddressRequired(t *testing.T) {
	service, mock, _, _, _, cleanup := setupBusinessServiceTest(t)
	defer cleanup()

	req := &models.BranchRequest{
		BranchName: "Maun Branch",
		City:       "Maun",
		Address:    "   ",
	}

	_, err := service.AddBranch(context.Background(), uuid.New(), uuid.New(), req)
	require.Error(t, err)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "address", validationErr.Field)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddBranch_RequesterDoesNotOwnParent(t *testing.T) {
	service, mock, _, _, _, cleanup := setupBusinessServiceTest(t)
	defer cleanup()

	parentID := uuid.New()
	ownerID := uuid.New()
	strangerID := uuid.New()

	mock.ExpectQuery("FROM businesses WHERE id").
		WithArgs(parentID).
		WillReturnRows(parentBusinessRow(parentID, ownerID, models.BusinessStatusPublished, true))

	req := &models.BranchRequest{
		BranchName: "Maun Branch",
		City:       "Maun",
		Address:    "Airport Road",
	}

	_, err := service.AddBranch(context.Background(), strangerID, parentID, req)
	require.Error(t, err)

	var permErr *PermissionError
	assert.ErrorAs(t, err, &permErr)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddBranch_DuplicateBranchName(t *testing.T) {
	service, mock, _, _, _, cleanup := setupBusinessServiceTest(t)
	defer cleanup()

	parentID := uuid.New()
	ownerID := uuid.New()

	mock.ExpectQuery("FROM businesses WHERE id").
		WithArgs(parentID).
		WillReturnRows(parentBusinessRow(parentID, ownerID, models.BusinessStatusPublished, true))

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(parentID, "Maun Branch").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	req := &models.BranchRequest{
		BranchName: "Maun Branch",
		City:       "Maun",
		Address:    "Airport Road",
	}

	_, err := service.AddBranch(context.Background(), ownerID, parentID, req)
	require.Error(t, err)
	assert.True(t, IsConflict(err))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddBranch_CopiesPhotosAndInherits(t *testing.T) {
	service, mock, geocoder, _, _, cleanup := setupBusinessServiceTest(t)
	defer cleanup()

	// Geocoding fails; the branch must still get coordinates from the
	// city fallback table.
	geocoder.err = errors.New("geocoder unreachable")

	parentID := uuid.New()
	ownerID := uuid.New()

	mock.ExpectQuery("FROM businesses WHERE id").
		WithArgs(parentID).
		WillReturnRows(parentBusinessRow(parentID, ownerID, models.BusinessStatusPublished, true))

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(parentID, "Maun Branch").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	mock.ExpectBegin()

	mock.ExpectExec("INSERT INTO businesses").
		WillReturnResult(sqlmock.NewResult(1, 1))

	// Parent has two photos; both are copied as new rows.
	photoColumns := []string{"id", "business_id", "url", "storage_path", "position", "created_at"}
	mock.ExpectQuery("FROM photos").
		WithArgs(parentID).
		WillReturnRows(sqlmock.NewRows(photoColumns).
			AddRow(uuid.New(), parentID, "https://cdn.example.com/a.jpg", "o/a.jpg", 0, time.Now()).
			AddRow(uuid.New(), parentID, "https://cdn.example.com/b.jpg", "o/b.jpg", 1, time.Now()))

	mock.ExpectExec("INSERT INTO photos").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO photos").WillReturnResult(sqlmock.NewResult(2, 1))

	mock.ExpectCommit()

	// Relations are loaded for the response.
	mock.ExpectQuery("FROM photos").
		WillReturnRows(sqlmock.NewRows(photoColumns))
	mock.ExpectQuery("FROM business_hours").
		WillReturnRows(sqlmock.NewRows([]string{"id", "business_id", "day_of_week", "opens", "closes", "closed"}))

	req := &models.BranchRequest{
		BranchName: "Maun Branch",
		City:       "Maun",
		Address:    "Airport Road",
	}

	branch, err := service.AddBranch(context.Background(), ownerID, parentID, req)
	require.NoError(t, err)

	assert.True(t, branch.IsBranch)
	assert.Equal(t, parentID, *branch.ParentBusinessID)
	assert.Equal(t, "Kalahari Cafe", branch.Name, "branch inherits the parent name")
	assert.Equal(t, "Maun Branch", *branch.BranchName)

	// Published parent publishes the branch, and verified is inherited.
	assert.Equal(t, models.BusinessStatusPublished, branch.Status)
	assert.True(t, branch.Verified)

	// Fallback coordinates for Maun.
	fallback := geocode.FallbackForCity("Maun")
	assert.Equal(t, fallback.Latitude, *branch.Latitude)
	assert.Equal(t, fallback.Longitude, *branch.Longitude)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddBranch_PendingWhenParentUnpublished(t *testing.T) {
	service, mock, geocoder, _, _, cleanup := setupBusinessServiceTest(t)
	defer cleanup()

	geocoder.coords = &geocode.Coordinates{Latitude: -19.99, Longitude: 23.42}

	parentID := uuid.New()
	ownerID := uuid.New()

	mock.ExpectQuery("FROM businesses WHERE id").
		WithArgs(parentID).
		WillReturnRows(parentBusinessRow(parentID, ownerID, models.BusinessStatusPending, false))

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(parentID, "Maun Branch").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO businesses").WillReturnResult(sqlmock.NewResult(1, 1))

	photoColumns := []string{"id", "business_id", "url", "storage_path", "position", "created_at"}
	mock.ExpectQuery("FROM photos").
		WithArgs(parentID).
		WillReturnRows(sqlmock.NewRows(photoColumns))
	mock.ExpectCommit()

	mock.ExpectQuery("FROM photos").WillReturnRows(sqlmock.NewRows(photoColumns))
	mock.ExpectQuery("FROM business_hours").
		WillReturnRows(sqlmock.NewRows([]string{"id", "business_id", "day_of_week", "opens", "closes", "closed"}))

	req := &models.BranchRequest{
		BranchName: "Maun Branch",
		City:       "Maun",
		Address:    "Airport Road",
	}

	branch, err := service.AddBranch(context.Background(), ownerID, parentID, req)
	require.NoError(t, err)

	assert.Equal(t, models.BusinessStatusPending, branch.Status)
	assert.False(t, branch.Verified)
	assert.Equal(t, -19.99, *branch.Latitude)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecomputeRating_MeanFromFullReRead(t *testing.T) {
	service, mock, _, _, _, cleanup := setupBusinessServiceTest(t)
	defer cleanup()

	businessID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT rating FROM reviews").
		WithArgs(businessID).
		WillReturnRows(sqlmock.NewRows([]string{"rating"}).AddRow(5).AddRow(4).AddRow(3))
	mock.ExpectExec("UPDATE businesses").
		WithArgs(4.0, 3, sqlmock.AnyArg(), businessID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := service.RecomputeRating(businessID)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecomputeRating_ZeroWhenNoReviews(t *testing.T) {
	service, mock, _, _, _, cleanup := setupBusinessServiceTest(t)
	defer cleanup()

	businessID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT rating FROM reviews").
		WithArgs(businessID).
		WillReturnRows(sqlmock.NewRows([]string{"rating"}))
	mock.ExpectExec("UPDATE businesses").
		WithArgs(0.0, 0, sqlmock.AnyArg(), businessID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := service.RecomputeRating(businessID)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUploadPhotos_RejectsOverCap(t *testing.T) {
	service, mock, _, store, _, cleanup := setupBusinessServiceTest(t)
	defer cleanup()

	businessID := uuid.New()
	ownerID := uuid.New()

	row := parentBusinessRow(businessID, ownerID, models.BusinessStatusPublished, true)
	mock.ExpectQuery("FROM businesses WHERE id").
		WithArgs(businessID).
		WillReturnRows(row)

	mock.ExpectQuery("SELECT COUNT").
		WithArgs(businessID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	files := []models.PhotoUpload{
		{Filename: "a.jpg", ContentType: "image/jpeg", Data: []byte("x")},
		{Filename: "b.jpg", ContentType: "image/jpeg", Data: []byte("y")},
	}

	_, err := service.UploadPhotos(context.Background(), ownerID, businessID, files)
	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.Empty(t, store.uploaded, "nothing is stored when the cap check fails")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUploadPhotos_RejectsNonImage(t *testing.T) {
	service, mock, _, store, _, cleanup := setupBusinessServiceTest(t)
	defer cleanup()

	businessID := uuid.New()
	ownerID := uuid.New()

	mock.ExpectQuery("FROM businesses WHERE id").
		WithArgs(businessID).
		WillReturnRows(parentBusinessRow(businessID, ownerID, models.BusinessStatusPublished, true))

	mock.ExpectQuery("SELECT COUNT").
		WithArgs(businessID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	files := []models.PhotoUpload{
		{Filename: "notes.txt", ContentType: "text/plain", Data: []byte("hello")},
	}

	_, err := service.UploadPhotos(context.Background(), ownerID, businessID, files)
	require.Error(t, err)
	assert.True(t, IsValidation(err))
	assert.Empty(t, store.uploaded)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUploadPhotos_RejectsOversizedFile(t *testing.T) {
	service, mock, _, _, _, cleanup := setupBusinessServiceTest(t)
	defer cleanup()

	businessID := uuid.New()
	ownerID := uuid.New()

	mock.ExpectQuery("FROM businesses WHERE id").
		WithArgs(businessID).
		WillReturnRows(parentBusinessRow(businessID, ownerID, models.BusinessStatusPublished, true))

	mock.ExpectQuery("SELECT COUNT").
		WithArgs(businessID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	files := []models.PhotoUpload{
		{Filename: "huge.jpg", ContentType: "image/jpeg", Data: make([]byte, maxPhotoBytes+1)},
	}

	_, err := service.UploadPhotos(context.Background(), ownerID, businessID, files)
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteBranch_RejectsNonBranch(t *testing.T) {
	service, mock, _, _, _, cleanup := setupBusinessServiceTest(t)
	defer cleanup()

	businessID := uuid.New()
	ownerID := uuid.New()

	// A parent business, not a branch.
	mock.ExpectQuery("FROM businesses WHERE id").
		WithArgs(businessID).
		WillReturnRows(parentBusinessRow(businessID, ownerID, models.BusinessStatusPublished, true))

	err := service.DeleteBranch(ownerID, businessID)
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	assert.NoError(t, mock.ExpectationsWereMet())
}
