package dto

import (
	"time"

	"github.com/google/uuid"
)

type AcceptOfferResponse struct {
	MatchID    uuid.UUID `json:"match_id"`
	JobID      uuid.UUID `json:"job_id"`
	AcceptedAt time.Time `json:"accepted_at"`
}

type BroadcastWaveRequest struct {
	Wave int `json:"wave"`
}

type BroadcastWaveResponse struct {
	JobID                uuid.UUID `json:"job_id"`
	Wave                 int       `json:"wave"`
	WaveSize             int       `json:"wave_size"`
	OffersCreated        int       `json:"offers_created"`
	CandidatesConsidered int       `json:"candidates_considered"`
	ExpiresAt            time.Time `json:"expires_at"`
}
