package domain

import (
	"time"

	"github.com/google/uuid"
)

// GroupStatus enumerates the lifecycle states of a message group.
type GroupStatus string

const (
	GroupDraft      GroupStatus = "draft"
	GroupScheduled  GroupStatus = "scheduled"
	GroupProcessing GroupStatus = "processing"
	GroupComplete   GroupStatus = "complete"
	GroupCanceled   GroupStatus = "canceled"
)

// CanTransition reports whether a group status change is legal. Transitions
// are one-directional; canceled may interrupt any non-terminal state.
func CanTransition(from, to GroupStatus) bool {
	if to == GroupCanceled {
		return from == GroupDraft || from == GroupScheduled || from == GroupProcessing
	}
	switch from {
	case GroupDraft:
		return to == GroupScheduled
	case GroupScheduled:
		return to == GroupProcessing
	case GroupProcessing:
		return to == GroupComplete
	}
	return false
}

// MessageGroup is one send operation encompassing many recipients. Subject
// and BodyHTML act as overrides when TemplateID is set, and as the content
// itself when it is not.
type MessageGroup struct {
	ID         uuid.UUID   `json:"id" db:"id"`
	TenantID   uuid.UUID   `json:"tenant_id" db:"tenant_id"`
	AppID      *uuid.UUID  `json:"app_id,omitempty" db:"app_id"`
	TemplateID *uuid.UUID  `json:"template_id,omitempty" db:"template_id"`
	Subject    string      `json:"subject,omitempty" db:"subject"`
	BodyHTML   string      `json:"body_html,omitempty" db:"body_html"`
	BodyText   string      `json:"body_text,omitempty" db:"body_text"`
	Status     GroupStatus `json:"status" db:"status"`

	ScheduledAt *time.Time `json:"scheduled_at,omitempty" db:"scheduled_at"`

	TotalRecipients     int `json:"total_recipients" db:"total_recipients"`
	ProcessedRecipients int `json:"processed_recipients" db:"processed_recipients"`
	SentCount           int `json:"sent_count" db:"sent_count"`
	FailedCount         int `json:"failed_count" db:"failed_count"`

	// LockVersion is the optimistic concurrency token bumped by the claim step.
	LockVersion int `json:"lock_version" db:"lock_version"`

	StartedAt   *time.Time `json:"started_at,omitempty" db:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	CanceledAt  *time.Time `json:"canceled_at,omitempty" db:"canceled_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// IsTerminal returns true if the group is in a final state.
func (g *MessageGroup) IsTerminal() bool {
	return g.Status == GroupComplete || g.Status == GroupCanceled
}

// RecipientStatus enumerates the per-recipient pipeline stages.
type RecipientStatus string

const (
	RecipientPending  RecipientStatus = "pending"
	RecipientRendered RecipientStatus = "rendered"
	RecipientSent     RecipientStatus = "sent"
	RecipientFailed   RecipientStatus = "failed"
	RecipientSkipped  RecipientStatus = "skipped"
)

// Recipient is one addressee within a group. Email uniqueness is per-group
// (enforced at ingestion when dedupe is requested), never global.
type Recipient struct {
	ID      uuid.UUID      `json:"id" db:"id"`
	GroupID uuid.UUID      `json:"group_id" db:"group_id"`
	Email   string         `json:"email" db:"email"`
	Name    string         `json:"name,omitempty" db:"name"`
	Context map[string]any `json:"context,omitempty" db:"context"`

	Status          RecipientStatus `json:"status" db:"status"`
	RenderedSubject string          `json:"rendered_subject,omitempty" db:"rendered_subject"`
	RenderedHTML    string          `json:"rendered_html,omitempty" db:"rendered_html"`
	RenderedText    string          `json:"rendered_text,omitempty" db:"rendered_text"`
	LastError       string          `json:"last_error,omitempty" db:"last_error"`
	FailedAttempts  int             `json:"failed_attempts" db:"failed_attempts"`

	OpenedAt  *time.Time `json:"opened_at,omitempty" db:"opened_at"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

// Message is an immutable audit record of one delivery attempt. One row per
// attempt, not per recipient. Append-only.
type Message struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	RecipientID  uuid.UUID  `json:"recipient_id" db:"recipient_id"`
	GroupID      uuid.UUID  `json:"group_id" db:"group_id"`
	AttemptCount int        `json:"attempt_count" db:"attempt_count"`
	SentAt       *time.Time `json:"sent_at,omitempty" db:"sent_at"`
	LastError    string     `json:"last_error,omitempty" db:"last_error"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}

// EventType enumerates pipeline audit events.
type EventType string

const (
	EventSent          EventType = "sent"
	EventFailed        EventType = "failed"
	EventOpen          EventType = "open"
	EventGroupCanceled EventType = "group_canceled"
	EventGroupComplete EventType = "group_complete"
)

// Event is an immutable, append-only audit/analytics record tied to a group
// and/or recipient. The pipeline never updates or deletes events.
type Event struct {
	ID          uuid.UUID      `json:"id" db:"id"`
	GroupID     *uuid.UUID     `json:"group_id,omitempty" db:"group_id"`
	RecipientID *uuid.UUID     `json:"recipient_id,omitempty" db:"recipient_id"`
	Type        EventType      `json:"type" db:"type"`
	Metadata    map[string]any `json:"metadata,omitempty" db:"metadata"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
}

// Suppression is a tenant-scoped do-not-send entry. Presence short-circuits
// delivery: the recipient is skipped without consuming a send attempt.
type Suppression struct {
	ID        uuid.UUID `json:"id" db:"id"`
	TenantID  uuid.UUID `json:"tenant_id" db:"tenant_id"`
	Email     string    `json:"email" db:"email"`
	Reason    string    `json:"reason,omitempty" db:"reason"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
