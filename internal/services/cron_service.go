package services

import (
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/botswanaservices/directory-backend/internal/database"
)

// CronService manages scheduled background jobs
type CronService struct {
	cron          *cron.Cron
	promotionRepo *database.PromotionRepository
	rateLimitSvc  *RateLimitService
	auditSvc      *AuditService
}

// NewCronService creates a new CronService
func NewCronService(
	promotionRepo *database.PromotionRepository,
	rateLimitSvc *RateLimitService,
	auditSvc *AuditService,
) *CronService {
	return &CronService{
		cron:          cron.New(cron.WithSeconds()),
		promotionRepo: promotionRepo,
		rateLimitSvc:  rateLimitSvc,
		auditSvc:      auditSvc,
	}
}

// Start schedules and starts all background jobs
func (s *CronService) Start() error {
	log.Println("Starting cron service...")

	// Deactivate expired promotions every hour
	_, err := s.cron.AddFunc("0 0 * * * *", s.expirePromotionsJob)
	if err != nil {
		return fmt.Errorf("failed to schedule promotion expiry job: %w", err)
	}
	log.Println("Scheduled: Expire promotions (hourly)")

	// Drop stale rate limit windows every 10 minutes
	_, err = s.cron.AddFunc("0 */10 * * * *", s.cleanupRateLimitsJob)
	if err != nil {
		return fmt.Errorf("failed to schedule rate limit cleanup job: %w", err)
	}
	log.Println("Scheduled: Rate limit cleanup (every 10 minutes)")

	// Prune audit logs weekly on Sunday at 4 AM
	_, err = s.cron.AddFunc("0 0 4 * * 0", s.cleanupAuditLogsJob)
	if err != nil {
		return fmt.Errorf("failed to schedule audit cleanup job: %w", err)
	}
	log.Println("Scheduled: Audit log cleanup (Sundays at 4:00 AM)")

	s.cron.Start()
	log.Println("Cron service started")

	return nil
}

// Stop stops the scheduler and waits for running jobs to finish
func (s *CronService) Stop() {
	log.Println("Stopping cron service...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("Cron service stopped")
}

func (s *CronService) expirePromotionsJob() {
	start := time.Now()

	deactivated, err := s.promotionRepo.DeactivateExpired()
	if err != nil {
		log.Printf("[CRON ERROR] Failed to expire promotions: %v", err)
		return
	}

	if deactivated > 0 {
		log.Printf("[CRON] Deactivated %d expired promotions in %v", deactivated, time.Since(start))
	}
}

func (s *CronService) cleanupRateLimitsJob() {
	removed := s.rateLimitSvc.CleanupExpired()
	if removed > 0 {
		log.Printf("[CRON] Dropped %d stale rate limit windows", removed)
	}
}

func (s *CronService) cleanupAuditLogsJob() {
	removed, err := s.auditSvc.CleanupOldAuditLogs(90 * 24 * time.Hour)
	if err != nil {
		log.Printf("[CRON ERROR] Failed to cleanup audit logs: %v", err)
		return
	}
	log.Printf("[CRON] Removed %d old audit log rows", removed)
}
