package audit

import (
	"time"

	id "propverify/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies and routing per sink.
type EventCategory string

const (
	// CategoryCompliance covers events with legal/regulatory significance:
	// verification submissions, reviewer decisions, document removal.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers access denials and other signals for monitoring.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine activity that can be sampled or
	// retained for a shorter period.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	UserID    id.UserID
	Role      string
	// Subject is the id of the record acted on (document or case).
	Subject  string
	Action   string
	Decision string
	Reason   string
	// RequestID is the correlation ID from the HTTP request context.
	RequestID string
	// ActorID tracks who performed the action when different from UserID,
	// such as a reviewer deciding on an applicant's case.
	ActorID string
}

type AuditEvent string

const (
	// Document events
	EventDocumentUploaded AuditEvent = "document_uploaded"
	EventDocumentReplaced AuditEvent = "document_replaced"
	EventDocumentDeleted  AuditEvent = "document_deleted"
	EventDocumentReviewed AuditEvent = "document_reviewed"

	// Verification events
	EventVerificationSubmitted AuditEvent = "verification_submitted"
	EventVerificationDecided   AuditEvent = "verification_decided"

	// Access events
	EventRestrictedActionDenied AuditEvent = "restricted_action_denied"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventVerificationSubmitted: CategoryCompliance,
	EventVerificationDecided:   CategoryCompliance,
	EventDocumentDeleted:       CategoryCompliance,
	EventDocumentReviewed:      CategoryCompliance,

	EventRestrictedActionDenied: CategorySecurity,

	EventDocumentUploaded: CategoryOperations,
	EventDocumentReplaced: CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}
