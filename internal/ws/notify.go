package ws

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type MatchConfirmedEvent struct {
	Type      string    `json:"type"`
	MatchID   uuid.UUID `json:"match_id"`
	JobID     uuid.UUID `json:"job_id"`
	EscortID  uuid.UUID `json:"escort_id"`
	Timestamp string    `json:"timestamp"`
}

type OffersBroadcastEvent struct {
	Type          string    `json:"type"`
	JobID         uuid.UUID `json:"job_id"`
	Wave          int       `json:"wave"`
	OffersCreated int       `json:"offers_created"`
	ExpiresAt     string    `json:"expires_at"`
	Timestamp     string    `json:"timestamp"`
}

func (h *Hub) NotifyMatchConfirmed(matchID, jobID, escortID uuid.UUID) {
	if h == nil {
		return
	}
	evt := MatchConfirmedEvent{
		Type:      "match_confirmed",
		MatchID:   matchID,
		JobID:     jobID,
		EscortID:  escortID,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	b, err := json.Marshal(evt)
	if err != nil {
		return
	}
	h.Broadcast(b)
}

func (h *Hub) NotifyOffersBroadcast(jobID uuid.UUID, wave, created int, expiresAt time.Time) {
	if h == nil {
		return
	}
	evt := OffersBroadcastEvent{
		Type:          "offers_broadcast",
		JobID:         jobID,
		Wave:          wave,
		OffersCreated: created,
		ExpiresAt:     expiresAt.UTC().Format(time.RFC3339),
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	}
	b, err := json.Marshal(evt)
	if err != nil {
		return
	}
	h.Broadcast(b)
}
