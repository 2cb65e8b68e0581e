package presence

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusAvailable Status = "available"
	StatusBusy      Status = "busy"
	StatusOffline   Status = "offline"
)

type Presence struct {
	EscortID  uuid.UUID
	Status    Status
	UpdatedAt time.Time
}
