package events

import (
	"context"
	"log"
	"time"

	"haul-dispatch/internal/domain/match"
	"haul-dispatch/internal/domain/presence"
	"haul-dispatch/internal/repository"
	"haul-dispatch/internal/ws"

	"github.com/google/uuid"
)

// Publisher is the channel used to reach external consumers (payment
// setup, notification dispatch). Redis pub/sub in production.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload any) error
}

const MatchConfirmedChannel = "dispatch:match_confirmed"

// Emitter runs the fire-and-forget tail of a confirmed booking: presence
// flip, websocket fan-out, pub/sub emission. Failures here are logged and
// never unwind the match.
type Emitter struct {
	presence repository.PresenceRepository
	hub      *ws.Hub
	pub      Publisher
	logger   *log.Logger
}

func NewEmitter(pres repository.PresenceRepository, hub *ws.Hub, pub Publisher, logger *log.Logger) *Emitter {
	if logger == nil {
		logger = log.Default()
	}
	return &Emitter{presence: pres, hub: hub, pub: pub, logger: logger}
}

type matchConfirmedPayload struct {
	MatchID    uuid.UUID `json:"match_id"`
	JobID      uuid.UUID `json:"job_id"`
	BrokerID   uuid.UUID `json:"broker_id"`
	EscortID   uuid.UUID `json:"escort_id"`
	AcceptedAt time.Time `json:"accepted_at"`
}

func (e *Emitter) MatchConfirmed(ctx context.Context, m match.Match) {
	if e == nil {
		return
	}

	if e.presence != nil {
		if err := e.presence.SetStatus(ctx, m.EscortID, presence.StatusBusy); err != nil {
			e.logger.Printf("Presence update failed | escort=%s match=%s err=%v", m.EscortID, m.ID, err)
		}
	}

	if e.hub != nil {
		e.hub.NotifyMatchConfirmed(m.ID, m.JobID, m.EscortID)
	}

	if e.pub != nil {
		payload := matchConfirmedPayload{
			MatchID:    m.ID,
			JobID:      m.JobID,
			BrokerID:   m.BrokerID,
			EscortID:   m.EscortID,
			AcceptedAt: m.AcceptedAt,
		}
		if err := e.pub.Publish(ctx, MatchConfirmedChannel, payload); err != nil {
			e.logger.Printf("Match event publish failed | match=%s err=%v", m.ID, err)
		}
	}
}

func (e *Emitter) OffersBroadcast(jobID uuid.UUID, wave, created int, expiresAt time.Time) {
	if e == nil || e.hub == nil {
		return
	}
	e.hub.NotifyOffersBroadcast(jobID, wave, created, expiresAt)
}
