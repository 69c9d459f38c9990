package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	// EmailRequested asks the notification service to render and send a
	// templated email.
	EmailRequested EventType = "email.requested"
	// AuditLogged carries one audit-trail entry.
	AuditLogged EventType = "audit.logged"
)

// Audit event names recorded by the admin lifecycle flows.
const (
	AuditNewUserCreated               = "NEW_USER_CREATED"
	AuditNewUserInvitationEmailSent   = "NEW_USER_INVITATION_EMAIL_SENT"
	AuditNewUserInvitationEmailFailed = "NEW_USER_INVITATION_EMAIL_FAILED"
	AuditAccountUpdateEmailSent       = "ACCOUNT_UPDATE_EMAIL_SENT"
	AuditAccountUpdateEmailFailed     = "ACCOUNT_UPDATE_EMAIL_FAILED"
	AuditUserRecordUpdated            = "USER_RECORD_UPDATED"
	AuditUserRegistryViewed           = "USER_REGISTRY_VIEWED"
	AuditAppParticipantRegistryViewed = "APP_PARTICIPANT_REGISTRY_VIEWED"
	AuditUserAccountActivated         = "USER_ACCOUNT_ACTIVATED"
)

type BaseEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp int64     `json:"timestamp"`
	Version   string    `json:"version"`
}

func newBaseEvent(eventType EventType) BaseEvent {
	return BaseEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().Unix(),
		Version:   "1.0",
	}
}

type EmailRequestEvent struct {
	BaseEvent
	Template  string            `json:"template"`
	Recipient string            `json:"recipient"`
	Args      map[string]string `json:"args"`
}

func NewEmailRequestEvent(template, recipient string, args map[string]string) *EmailRequestEvent {
	return &EmailRequestEvent{
		BaseEvent: newBaseEvent(EmailRequested),
		Template:  template,
		Recipient: recipient,
		Args:      args,
	}
}

func (e *EmailRequestEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

type AuditEvent struct {
	BaseEvent
	EventName string            `json:"eventName"`
	Fields    map[string]string `json:"fields"`
}

func NewAuditEvent(eventName string, fields map[string]string) *AuditEvent {
	return &AuditEvent{
		BaseEvent: newBaseEvent(AuditLogged),
		EventName: eventName,
		Fields:    fields,
	}
}

func (e *AuditEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// CatalogChangedEvent is consumed from the study-builder side whenever apps,
// studies or sites change; cached app listings are dropped in response.
type CatalogChangedEvent struct {
	BaseEvent
	ResourceType string `json:"resourceType"`
	ResourceID   string `json:"resourceId"`
}
