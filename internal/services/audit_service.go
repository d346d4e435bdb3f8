package services

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/botswanaservices/directory-backend/internal/database"
	"github.com/botswanaservices/directory-backend/internal/utils"
)

// AuditService records security and moderation events
type AuditService struct {
	db database.DB
}

// NewAuditService creates a new audit service
func NewAuditService(db database.DB) *AuditService {
	return &AuditService{
		db: db,
	}
}

// AuditEvent represents an event to be logged
type AuditEvent struct {
	UserID     *uuid.UUID             // Nil for pre-authentication events
	Action     string                 // e.g. "login", "signup", "moderation_update"
	EntityType string                 // e.g. "user", "business", "review"
	EntityID   *uuid.UUID             // Nil when no single entity applies
	IPAddress  string
	UserAgent  string
	Details    map[string]interface{} // Stored as JSONB
}

// LogSignup logs an account creation
func (s *AuditService) LogSignup(userID uuid.UUID, email, role, ipAddress, userAgent string) error {
	return s.logEvent(AuditEvent{
		UserID:     &userID,
		Action:     "signup",
		EntityType: "user",
		EntityID:   &userID,
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Details: map[string]interface{}{
			"email":       email,
			"role":        role,
			"device_info": utils.ParseUserAgent(userAgent),
		},
	})
}

// LogLogin logs a login attempt
func (s *AuditService) LogLogin(userID *uuid.UUID, email string, success bool, ipAddress, userAgent string) error {
	action := "login_failed"
	if success {
		action = "login"
	}

	return s.logEvent(AuditEvent{
		UserID:     userID,
		Action:     action,
		EntityType: "user",
		EntityID:   userID,
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Details: map[string]interface{}{
			"email":       email,
			"success":     success,
			"device_info": utils.ParseUserAgent(userAgent),
		},
	})
}

// LogModeration logs an admin change to a business's status or flags
func (s *AuditService) LogModeration(adminID, businessID uuid.UUID, changes map[string]interface{}, ipAddress, userAgent string) error {
	return s.logEvent(AuditEvent{
		UserID:     &adminID,
		Action:     "moderation_update",
		EntityType: "business",
		EntityID:   &businessID,
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Details:    changes,
	})
}

// LogRateLimitViolation logs a caller exceeding the request window
func (s *AuditService) LogRateLimitViolation(key, route, ipAddress, userAgent string) error {
	return s.logEvent(AuditEvent{
		Action:     "rate_limit_violation",
		EntityType: "rate_limit",
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Details: map[string]interface{}{
			"key":         key,
			"route":       route,
			"device_info": utils.ParseUserAgent(userAgent),
		},
	})
}

// logEvent writes one row to the audit_logs table
func (s *AuditService) logEvent(event AuditEvent) error {
	details, err := json.Marshal(event.Details)
	if err != nil {
		return fmt.Errorf("failed to marshal audit details: %w", err)
	}

	query := `
		INSERT INTO audit_logs (user_id, action, entity_type, entity_id, ip_address, user_agent, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
	`

	_, err = s.db.Exec(
		query,
		event.UserID,
		event.Action,
		event.EntityType,
		event.EntityID,
		event.IPAddress,
		event.UserAgent,
		details,
	)
	if err != nil {
		return fmt.Errorf("failed to log audit event: %w", err)
	}

	return nil
}

// CleanupOldAuditLogs removes audit logs older than the given duration and
// returns the number of rows removed
func (s *AuditService) CleanupOldAuditLogs(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)

	result, err := s.db.Exec(`DELETE FROM audit_logs WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup old audit logs: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}
