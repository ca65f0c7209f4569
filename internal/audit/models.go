package audit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventLoginSucceeded EventType = "login.succeeded"
	EventLoginFailed    EventType = "login.failed"
	EventTokenRejected  EventType = "token.rejected"
	EventAccessDenied   EventType = "access.denied"
	EventClientCreated  EventType = "client.created"
	EventClientUpdated  EventType = "client.updated"
	EventClientDeleted  EventType = "client.deleted"
)

// Event is a security-relevant fact. Reason carries operator detail such as
// unknown_email vs password_mismatch and is never returned to API callers.
type Event struct {
	ID         uuid.UUID `json:"id"`
	Type       EventType `json:"type"`
	Subject    string    `json:"subject,omitempty"`
	Email      string    `json:"email,omitempty"`
	Resource   string    `json:"resource,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	IP         string    `json:"ip,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewEvent stamps an id and time on a new event.
func NewEvent(t EventType) Event {
	return Event{ID: uuid.New(), Type: t, OccurredAt: time.Now().UTC()}
}

func (e Event) WithSubject(subject string) Event   { e.Subject = subject; return e }
func (e Event) WithEmail(email string) Event       { e.Email = email; return e }
func (e Event) WithResource(resource string) Event { e.Resource = resource; return e }
func (e Event) WithReason(reason string) Event     { e.Reason = reason; return e }
func (e Event) WithIP(ip string) Event             { e.IP = ip; return e }

// PartitionKey keeps one principal's events ordered on a single partition.
func (e Event) PartitionKey() string {
	if e.Subject != "" {
		return e.Subject
	}
	return e.Email
}

func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}
