package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit events.
//
// It MUST be append-only.
// No Update/Delete methods are provided by design.

type Repository interface {
	Append(ctx context.Context, e Event) error
}

// Service logs internal audit information.
//
// IMPORTANT:
// - Audit is internal-only. Do not expose these records to tenant users by default.
// - Callers should treat audit logging as best-effort.

type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.WorkspaceID == "" {
		return ErrInvalidEvent
	}
	if e.Type == "" {
		return ErrInvalidEvent
	}

	now := s.clock().UTC()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	return s.repo.Append(ctx, e)
}

// LogSessionCreated records the start of a dialogue session.
func (s *Service) LogSessionCreated(ctx context.Context, workspaceID, sessionID, ip string) error {
	return s.Append(ctx, Event{
		WorkspaceID: workspaceID,
		Type:        EventTypeSessionCreated,
		IPAddress:   ip,
		SessionID:   sessionID,
		Message:     "session created",
	})
}

// LogSessionEnded records a session release, with the final slot values
// as metadata.
func (s *Service) LogSessionEnded(ctx context.Context, workspaceID, sessionID, metadata string) error {
	return s.Append(ctx, Event{
		WorkspaceID: workspaceID,
		Type:        EventTypeSessionEnded,
		SessionID:   sessionID,
		Message:     "session ended",
		Metadata:    metadata,
	})
}

// LogAppointmentStored records a booking produced by a completed session.
func (s *Service) LogAppointmentStored(ctx context.Context, workspaceID, sessionID, appointmentID string) error {
	return s.Append(ctx, Event{
		WorkspaceID:   workspaceID,
		Type:          EventTypeAppointmentStored,
		SessionID:     sessionID,
		AppointmentID: appointmentID,
		Message:       "appointment stored",
	})
}

// LogAdminAction records an operator action against the admin surface.
func (s *Service) LogAdminAction(ctx context.Context, workspaceID, actorUserID, actorRole, ip, message, metadata string) error {
	return s.Append(ctx, Event{
		WorkspaceID: workspaceID,
		Type:        EventTypeAdminAction,
		ActorUserID: actorUserID,
		ActorRole:   actorRole,
		IPAddress:   ip,
		Message:     message,
		Metadata:    metadata,
	})
}
