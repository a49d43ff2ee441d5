package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for appointment records.
// Implementations: MemoryRepo (tests), RedisRepo, PostgresRepo.
type Repository interface {
	Store(ctx context.Context, rec Record) error
	List(ctx context.Context) ([]Record, error)
	ListByDay(ctx context.Context, day string) ([]Record, error)
}

var (
	ErrInvalidRecord = errors.New("appointment: invalid record")
	ErrTimeConflict  = errors.New("appointment: day/time slot already booked")
)

// Service stores completed bookings and answers simple scheduling queries.
// Pure repository lookups plus conflict checks; no dialogue logic.
type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

// Store persists a record, filling id/timestamp when absent and rejecting
// exact day+time collisions with confirmed records.
func (s *Service) Store(ctx context.Context, rec Record) (Record, error) {
	if s.repo == nil {
		return Record{}, errors.New("appointment: repository not configured")
	}
	if rec.SessionID == "" || rec.CustomerName == "" {
		return Record{}, ErrInvalidRecord
	}

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.BookedAt.IsZero() {
		rec.BookedAt = s.clock().UTC()
	}
	if rec.Status == "" {
		rec.Status = StatusConfirmed
	}

	conflict, err := s.HasConflict(ctx, rec.PreferredDay, rec.PreferredTime)
	if err != nil {
		return Record{}, err
	}
	if conflict {
		return Record{}, ErrTimeConflict
	}

	if err := s.repo.Store(ctx, rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// HasConflict reports whether a confirmed record already occupies the slot.
func (s *Service) HasConflict(ctx context.Context, day, at string) (bool, error) {
	if day == "" || at == "" {
		return false, nil
	}
	recs, err := s.repo.ListByDay(ctx, day)
	if err != nil {
		return false, err
	}
	for _, r := range recs {
		if r.Status == StatusConfirmed && r.PreferredTime == at {
			return true, nil
		}
	}
	return false, nil
}

// Alternatives suggests other slots when the requested one conflicts.
func (s *Service) Alternatives(day, at string) []string {
	return []string{
		"Earlier time on " + day,
		"Later time on " + day,
		"Same time on a different day",
	}
}

// List returns all stored records.
func (s *Service) List(ctx context.Context) ([]Record, error) {
	return s.repo.List(ctx)
}

// ListByDay returns records for one preferred day.
func (s *Service) ListByDay(ctx context.Context, day string) ([]Record, error) {
	return s.repo.ListByDay(ctx, day)
}

// ServiceCounts aggregates bookings per requested service.
func (s *Service) ServiceCounts(ctx context.Context) (map[string]int, error) {
	recs, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for _, r := range recs {
		counts[r.Service]++
	}
	return counts, nil
}
