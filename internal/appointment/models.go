package appointment

import "time"

// Record is one confirmed (or pending) appointment produced by a
// completed dialogue session.
//
// Invariants:
// - ID and SessionID are required.
// - Status transitions are append-style: records are stored once and
//   never mutated by this service.

type Record struct {
	ID        string `json:"id" db:"id"`
	SessionID string `json:"session_id" db:"session_id"`

	CustomerName  string `json:"customer_name" db:"customer_name"`
	CustomerPhone string `json:"customer_phone" db:"customer_phone"`
	PreferredDay  string `json:"preferred_day" db:"preferred_day"`
	PreferredTime string `json:"preferred_time" db:"preferred_time"`
	Service       string `json:"service" db:"service"`

	// ConfirmationCode is the short code read back to the caller.
	ConfirmationCode string `json:"confirmation_code" db:"confirmation_code"`

	Status Status `json:"status" db:"status"`

	BookedAt time.Time `json:"booked_at" db:"booked_at"`
}

type Status string

const (
	StatusConfirmed     Status = "confirmed"
	StatusPending       Status = "pending"
	StatusNeedsFollowup Status = "needs_followup"
)
