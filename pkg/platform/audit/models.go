package audit

import (
	"context"
	"time"

	id "docverify/pkg/domain"
)

// Event records a user-visible action. It stays transport-agnostic so the
// same value can be written to Postgres or published to Kafka.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	UserID    id.UserID `json:"user_id"`
	Subject   string    `json:"subject"`
	Action    string    `json:"action"`
	Decision  string    `json:"decision,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	Device    string    `json:"device,omitempty"`
}

type AuditEvent string

const (
	EventSessionIssued         AuditEvent = "session_issued"
	EventCardCreated           AuditEvent = "card_created"
	EventCardDeleted           AuditEvent = "card_deleted"
	EventVerificationCompleted AuditEvent = "verification_completed"
	EventDoubtPosted           AuditEvent = "doubt_posted"
)

// Store persists events. Implementations must be safe for concurrent use.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// Reader lists a user's events, newest first.
type Reader interface {
	ListByUser(ctx context.Context, userID id.UserID) ([]Event, error)
}

// Emitter is satisfied by publisher.Publisher.
type Emitter interface {
	Emit(ctx context.Context, event Event) error
}

// Fanout appends each event to every store in order and stops at the first error.
type Fanout []Store

func (f Fanout) Append(ctx context.Context, event Event) error {
	for _, s := range f {
		if err := s.Append(ctx, event); err != nil {
			return err
		}
	}
	return nil
}
