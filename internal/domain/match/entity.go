package match

import (
	"time"

	"github.com/google/uuid"
)

type PayoutStatus string

const (
	PayoutNone     PayoutStatus = "none"
	PayoutPending  PayoutStatus = "pending"
	PayoutReleased PayoutStatus = "released"
)

// Match is the confirmed booking created the instant an offer is accepted.
// Exactly one match may exist per job; storage enforces this with a unique
// constraint on job_id regardless of any application-level locking.
type Match struct {
	ID              uuid.UUID
	JobID           uuid.UUID
	BrokerID        uuid.UUID
	EscortID        uuid.UUID
	AcceptedOfferID uuid.UUID

	AcceptedAt   time.Time
	PayoutStatus PayoutStatus
}
