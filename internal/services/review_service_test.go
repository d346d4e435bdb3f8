package services

import (
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/botswanaservices/directory-backend/internal/database"
	"github.com/botswanaservices/directory-backend/internal/models"
)

func setupReviewServiceTest(t *testing.T) (*ReviewService, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	postgresDB := &database.PostgresDB{DB: sqlxDB}

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	reviewRepo := database.NewReviewRepository(postgresDB)
	businessRepo := database.NewBusinessRepository(postgresDB)

	businessSvc := NewBusinessService(
		postgresDB,
		businessRepo,
		database.NewCategoryRepository(postgresDB),
		database.NewPhotoRepository(postgresDB),
		reviewRepo,
		&stubGeocoder{},
		&stubStore{},
		&stubMailer{},
		logger,
	)

	service := NewReviewService(postgresDB, reviewRepo, businessRepo, businessSvc, logger)

	return service, mock, func() { db.Close() }
}

var reviewTestColumns = []string{"id", "business_id", "user_id", "rating", "title", "comment", "created_at"}

func TestCreateReview_InvalidRating(t *testing.T) {
	service, mock, cleanup := setupReviewServiceTest(t)
	defer cleanup()

	for _, rating := range []int{0, 6, -1} {
		_, err := service.CreateReview(uuid.New(), uuid.New(), &models.ReviewRequest{Rating: rating})
		require.Error(t, err)
		assert.True(t, IsValidation(err), "rating %d should be rejected", rating)
	}

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateReview_UnpublishedBusinessHidden(t *testing.T) {
	service, mock, cleanup := setupReviewServiceTest(t)
	defer cleanup()

	businessID := uuid.New()

	mock.ExpectQuery("FROM businesses WHERE id").
		WithArgs(businessID).
		WillReturnRows(parentBusinessRow(businessID, uuid.New(), models.BusinessStatusPending, false))

	_, err := service.CreateReview(uuid.New(), businessID, &models.ReviewRequest{Rating: 4})
	require.Error(t, err)
	assert.True(t, IsNotFound(err), "unpublished businesses read as absent, not forbidden")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateReview_OwnBusinessRejected(t *testing.T) {
	service, mock, cleanup := setupReviewServiceTest(t)
	defer cleanup()

	businessID := uuid.New()
	ownerID := uuid.New()

	mock.ExpectQuery("FROM businesses WHERE id").
		WithArgs(businessID).
		WillReturnRows(parentBusinessRow(businessID, ownerID, models.BusinessStatusPublished, true))

	_, err := service.CreateReview(ownerID, businessID, &models.ReviewRequest{Rating: 5})
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateReview_SecondReviewConflicts(t *testing.T) {
	service, mock, cleanup := setupReviewServiceTest(t)
	defer cleanup()

	businessID := uuid.New()
	userID := uuid.New()

	mock.ExpectQuery("FROM businesses WHERE id").
		WithArgs(businessID).
		WillReturnRows(parentBusinessRow(businessID, uuid.New(), models.BusinessStatusPublished, true))

	mock.ExpectQuery("FROM reviews").
		WithArgs(businessID, userID).
		WillReturnRows(sqlmock.NewRows(reviewTestColumns).
			AddRow(uuid.New(), businessID, userID, 4, "Great", "Loved it", time.Now()))

	_, err := service.CreateReview(userID, businessID, &models.ReviewRequest{Rating: 2})
	require.Error(t, err)
	assert.True(t, IsConflict(err))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateReview_RecomputesRatingInSameTransaction(t *testing.T) {
	service, mock, cleanup := setupReviewServiceTest(t)
	defer cleanup()

	businessID := uuid.New()
	userID := uuid.New()

	mock.ExpectQuery("FROM businesses WHERE id").
		WithArgs(businessID).
		WillReturnRows(parentBusinessRow(businessID, uuid.New(), models.BusinessStatusPublished, true))

	mock.ExpectQuery("FROM reviews").
		WithArgs(businessID, userID).
		WillReturnError(sql.ErrNoRows)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO reviews").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("SELECT rating FROM reviews").
		WithArgs(businessID).
		WillReturnRows(sqlmock.NewRows([]string{"rating"}).AddRow(5).AddRow(5))
	mock.ExpectExec("UPDATE businesses").
		WithArgs(5.0, 2, sqlmock.AnyArg(), businessID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	review, err := service.CreateReview(userID, businessID, &models.ReviewRequest{Rating: 5, Title: "Great", Comment: "Loved it"})
	require.NoError(t, err)
	assert.Equal(t, 5, review.Rating)
	assert.Equal(t, businessID, review.BusinessID)
	require.NotNil(t, review.Title)
	assert.Equal(t, "Great", *review.Title)
	require.NotNil(t, review.Comment)
	assert.Equal(t, "Loved it", *review.Comment)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateReview_BlankTitleAndCommentStoredAsNull(t *testing.T) {
	service, mock, cleanup := setupReviewServiceTest(t)
	defer cleanup()

	businessID := uuid.New()
	userID := uuid.New()

	mock.ExpectQuery("FROM businesses WHERE id").
		WithArgs(businessID).
		WillReturnRows(parentBusinessRow(businessID, uuid.New(), models.BusinessStatusPublished, true))

	mock.ExpectQuery("FROM reviews").
		WithArgs(businessID, userID).
		WillReturnError(sql.ErrNoRows)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO reviews").
		WithArgs(sqlmock.AnyArg(), businessID, userID, 3, nil, nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("SELECT rating FROM reviews").
		WithArgs(businessID).
		WillReturnRows(sqlmock.NewRows([]string{"rating"}).AddRow(3))
	mock.ExpectExec("UPDATE businesses").
		WithArgs(3.0, 1, sqlmock.AnyArg(), businessID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	review, err := service.CreateReview(userID, businessID, &models.ReviewRequest{Rating: 3, Title: "  ", Comment: ""})
	require.NoError(t, err)
	assert.Nil(t, review.Title)
	assert.Nil(t, review.Comment)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateReview_RollsBackWhenRecomputeFails(t *testing.T) {
	service, mock, cleanup := setupReviewServiceTest(t)
	defer cleanup()

	businessID := uuid.New()
	userID := uuid.New()

	mock.ExpectQuery("FROM businesses WHERE id").
		WithArgs(businessID).
		WillReturnRows(parentBusinessRow(businessID, uuid.New(), models.BusinessStatusPublished, true))

	mock.ExpectQuery("FROM reviews").
		WithArgs(businessID, userID).
		WillReturnError(sql.ErrNoRows)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO reviews").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("SELECT rating FROM reviews").
		WithArgs(businessID).
		WillReturnError(sql.ErrConnDone)
	mock.ExpectRollback()

	_, err := service.CreateReview(userID, businessID, &models.ReviewRequest{Rating: 5})
	require.Error(t, err)

	var depErr *DependencyError
	assert.ErrorAs(t, err, &depErr)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteReview_OnlyAuthorOrAdmin(t *testing.T) {
	service, mock, cleanup := setupReviewServiceTest(t)
	defer cleanup()

	reviewID := uuid.New()
	authorID := uuid.New()
	strangerID := uuid.New()

	mock.ExpectQuery("FROM reviews").
		WithArgs(reviewID).
		WillReturnRows(sqlmock.NewRows(reviewTestColumns).
			AddRow(reviewID, uuid.New(), authorID, 4, "Great", "Loved it", time.Now()))

	err := service.DeleteReview(strangerID, models.RoleUser, reviewID)
	require.Error(t, err)

	var permErr *PermissionError
	assert.ErrorAs(t, err, &permErr)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteReview_AdminDeletesAndRecomputes(t *testing.T) {
	service, mock, cleanup := setupReviewServiceTest(t)
	defer cleanup()

	reviewID := uuid.New()
	businessID := uuid.New()
	adminID := uuid.New()

	mock.ExpectQuery("FROM reviews").
		WithArgs(reviewID).
		WillReturnRows(sqlmock.NewRows(reviewTestColumns).
			AddRow(reviewID, businessID, uuid.New(), 1, "Spam", "spam spam", time.Now()))

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM reviews").
		WithArgs(reviewID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT rating FROM reviews").
		WithArgs(businessID).
		WillReturnRows(sqlmock.NewRows([]string{"rating"}))
	mock.ExpectExec("UPDATE businesses").
		WithArgs(0.0, 0, sqlmock.AnyArg(), businessID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := service.DeleteReview(adminID, models.RoleAdmin, reviewID)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteReview_NotFound(t *testing.T) {
	service, mock, cleanup := setupReviewServiceTest(t)
	defer cleanup()

	reviewID := uuid.New()

	mock.ExpectQuery("FROM reviews").
		WithArgs(reviewID).
		WillReturnError(sql.ErrNoRows)

	err := service.DeleteReview(uuid.New(), models.RoleUser, reviewID)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	assert.NoError(t, mock.ExpectationsWereMet())
}
