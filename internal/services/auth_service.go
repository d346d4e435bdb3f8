package services

import (
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/botswanaservices/directory-backend/internal/database"
	"github.com/botswanaservices/directory-backend/internal/models"
	"github.com/botswanaservices/directory-backend/pkg/jwt"
)

// AuthService handles signup, login and token refresh
type AuthService struct {
	userRepo *database.UserRepository
	jwt      *jwt.Service
	logger   *logrus.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo *database.UserRepository, jwtService *jwt.Service, logger *logrus.Logger) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		jwt:      jwtService,
		logger:   logger,
	}
}

// TokenPair holds a fresh access and refresh token
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Signup registers a new account. Only the user and business roles are
// self-assignable; admin accounts are provisioned out of band.
func (s *AuthService) Signup(email, password, name, role string) (*models.User, *TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, nil, NewValidationError("email", "a valid email address is required")
	}
	if len(password) < 8 {
		return nil, nil, NewValidationError("password", "must be at least 8 characters")
	}
	if strings.TrimSpace(name) == "" {
		return nil, nil, NewValidationError("name", "is required")
	}
	if role != models.RoleUser && role != models.RoleBusiness {
		return nil, nil, NewValidationError("role", "must be user or business")
	}

	existing, err := s.userRepo.GetUserByEmail(email)
	if err != nil {
		return nil, nil, &DependencyError{Op: "user lookup", Err: err}
	}
	if existing != nil {
		return nil, nil, &ConflictError{Message: "an account with this email already exists"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, &DependencyError{Op: "password hash", Err: err}
	}

	user, err := s.userRepo.CreateUser(email, string(hash), name, role)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, nil, &ConflictError{Message: "an account with this email already exists"}
		}
		return nil, nil, &DependencyError{Op: "user create", Err: err}
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}

	return user, tokens, nil
}

// Login verifies credentials and issues a token pair
func (s *AuthService) Login(email, password string) (*models.User, *TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.userRepo.GetUserByEmail(email)
	if err != nil {
		return nil, nil, &DependencyError{Op: "user lookup", Err: err}
	}
	if user == nil {
		return nil, nil, &AuthenticationError{Message: "invalid email or password"}
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, &AuthenticationError{Message: "invalid email or password"}
	}

	if err := s.userRepo.UpdateLastLogin(user.ID); err != nil {
		s.logger.WithError(err).Warn("Failed to update last login timestamp")
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}

	return user, tokens, nil
}

// Refresh validates a refresh token and issues a fresh pair. The role claim
// is re-read from the database, not trusted from the old token.
func (s *AuthService) Refresh(refreshToken string) (*TokenPair, error) {
	claims, err := s.jwt.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, &AuthenticationError{Message: "invalid refresh token"}
	}

	user, err := s.userRepo.GetUserByID(claims.UserID)
	if err != nil {
		return nil, &DependencyError{Op: "user lookup", Err: err}
	}
	if user == nil {
		return nil, &AuthenticationError{Message: "account no longer exists"}
	}

	return s.issueTokens(user)
}

func (s *AuthService) issueTokens(user *models.User) (*TokenPair, error) {
	access, err := s.jwt.GenerateAccessToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, &DependencyError{Op: "access token", Err: err}
	}
	refresh, err := s.jwt.GenerateRefreshToken(user.ID, user.Email)
	if err != nil {
		return nil, &DependencyError{Op: "refresh token", Err: err}
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
