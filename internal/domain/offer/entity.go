package offer

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusOffered   Status = "offered"
	StatusViewed    Status = "viewed"
	StatusAccepted  Status = "accepted"
	StatusDeclined  Status = "declined"
	StatusExpired   Status = "expired"
	StatusRescinded Status = "rescinded"
)

// IsOpen reports whether an offer can still be acted on by the escort.
// Viewing is observational: an offer may be accepted straight from offered.
func (s Status) IsOpen() bool {
	return s == StatusOffered || s == StatusViewed
}

func (s Status) IsTerminal() bool {
	switch s {
	case StatusAccepted, StatusDeclined, StatusExpired, StatusRescinded:
		return true
	}
	return false
}

// Offer proposes one escort for one job. Offers fan out in waves; the
// (job, escort, wave) triple is unique in storage.
type Offer struct {
	ID       uuid.UUID
	JobID    uuid.UUID
	BrokerID uuid.UUID
	EscortID uuid.UUID

	Status      Status
	OfferedRate float64
	Rank        int
	Wave        int

	OfferedAt   time.Time
	ExpiresAt   time.Time
	RespondedAt *time.Time
}

func (o Offer) ExpiredAt(now time.Time) bool {
	return !o.ExpiresAt.IsZero() && o.ExpiresAt.Before(now)
}
