package job

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusOpen      Status = "open"
	StatusMatched   Status = "matched"
	StatusCancelled Status = "cancelled"
	StatusExpired   Status = "expired"
)

// Job is a transport request needing exactly one escort. It transitions to
// matched at most once; the matches table uniqueness constraint is the
// storage-level enforcement of that rule.
type Job struct {
	ID           uuid.UUID
	BrokerID     uuid.UUID
	OriginRegion string
	DestRegion   string
	LoadType     string

	// BudgetMax is the broker's rate ceiling; 0 means no ceiling was given.
	BudgetMax  float64
	RequiredAt *time.Time

	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (j Job) IsOpen() bool {
	return j.Status == StatusOpen
}
