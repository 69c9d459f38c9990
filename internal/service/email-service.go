package service

import (
	"context"
	"log"
	"study_admin_service/internal/config"
	"study_admin_service/internal/events"
	"study_admin_service/internal/metrics"
	"study_admin_service/internal/models"
)

// Email templates rendered by the notification service.
const (
	TemplateRegisterAdmin = "register_new_admin"
	TemplateUpdateAdmin   = "update_admin_account"
)

// EmailSender reports acceptance only. Delivery happens elsewhere; a rejected
// send never fails the operation that requested it, it only changes which
// audit event gets logged.
type EmailSender interface {
	SendInvitationEmail(ctx context.Context, admin *models.AdminUser) bool
	SendUpdateEmail(ctx context.Context, admin *models.AdminUser) bool
}

// AuditLogger is fire-and-forget; failures are logged and swallowed.
type AuditLogger interface {
	LogEvent(ctx context.Context, eventName string, fields map[string]string)
}

type EmailService struct {
	publisher events.Publisher
	cfg       *config.Config
}

func NewEmailService(publisher events.Publisher, cfg *config.Config) *EmailService {
	return &EmailService{
		publisher: publisher,
		cfg:       cfg,
	}
}

func (es *EmailService) SendInvitationEmail(ctx context.Context, admin *models.AdminUser) bool {
	args := map[string]string{
		"ORG_NAME":              es.cfg.OrgName,
		"FIRST_NAME":            admin.FirstName,
		"ACTIVATION_LINK":       es.cfg.UserDetailsLink + admin.SecurityCode,
		"CONTACT_EMAIL_ADDRESS": es.cfg.FromEmailAddress,
	}

	err := es.publisher.PublishEmailRequest(ctx, TemplateRegisterAdmin, admin.Email, args)
	if err != nil {
		log.Printf("Failed to publish invitation email request for %s: %v", admin.ID, err)
		metrics.EmailRequestsPublished.WithLabelValues("failed").Inc()
		return false
	}
	metrics.EmailRequestsPublished.WithLabelValues("accepted").Inc()
	return true
}

func (es *EmailService) SendUpdateEmail(ctx context.Context, admin *models.AdminUser) bool {
	args := map[string]string{
		"ORG_NAME":              es.cfg.OrgName,
		"FIRST_NAME":            admin.FirstName,
		"CONTACT_EMAIL_ADDRESS": es.cfg.FromEmailAddress,
	}

	err := es.publisher.PublishEmailRequest(ctx, TemplateUpdateAdmin, admin.Email, args)
	if err != nil {
		log.Printf("Failed to publish update email request for %s: %v", admin.ID, err)
		metrics.EmailRequestsPublished.WithLabelValues("failed").Inc()
		return false
	}
	metrics.EmailRequestsPublished.WithLabelValues("accepted").Inc()
	return true
}

type AuditService struct {
	publisher events.Publisher
}

func NewAuditService(publisher events.Publisher) *AuditService {
	return &AuditService{publisher: publisher}
}

func (as *AuditService) LogEvent(ctx context.Context, eventName string, fields map[string]string) {
	if err := as.publisher.PublishAuditEvent(ctx, eventName, fields); err != nil {
		log.Printf("Warning: Failed to publish audit event %s: %v", eventName, err)
	}
}
