package usecase

import (
	"context"
	"log"
	"math"
	"sort"
	"time"

	"haul-dispatch/internal/domain/offer"
	"haul-dispatch/internal/domain/scoring"
	"haul-dispatch/internal/repository"

	"github.com/google/uuid"
)

// Per-wave offer TTLs; waves beyond the third reuse the last entry.
var waveTTL = []time.Duration{180 * time.Second, 300 * time.Second, 480 * time.Second}

// Cold-start priors for wave sizing. Live fill-probability intelligence is
// an external concern; without it every wave sizes from these.
const (
	defaultFillProbability = 0.5
	defaultWaveConfidence  = 0.3
)

type BroadcastResult struct {
	JobID                uuid.UUID
	Wave                 int
	WaveSize             int
	OffersCreated        int
	CandidatesConsidered int
	ExpiresAt            time.Time
}

// WaveNotifier receives best-effort fan-out notifications.
type WaveNotifier interface {
	OffersBroadcast(jobID uuid.UUID, wave, created int, expiresAt time.Time)
}

type OfferLifecycleUsecase interface {
	BroadcastWave(ctx context.Context, jobID uuid.UUID, wave int) (BroadcastResult, error)
	MarkViewed(ctx context.Context, escortID, offerID uuid.UUID) error
	Decline(ctx context.Context, escortID, offerID uuid.UUID) error
	ExpireOverdue(ctx context.Context) (int64, error)
}

type OfferLifecycle struct {
	jobs      repository.JobRepository
	offers    repository.OfferRepository
	operators repository.OperatorRepository
	notifier  WaveNotifier
	logger    *log.Logger
	now       func() time.Time
}

func NewOfferLifecycleUsecase(
	jobs repository.JobRepository,
	offers repository.OfferRepository,
	operators repository.OperatorRepository,
	notifier WaveNotifier,
	logger *log.Logger,
) *OfferLifecycle {
	if logger == nil {
		logger = log.Default()
	}
	return &OfferLifecycle{
		jobs:      jobs,
		offers:    offers,
		operators: operators,
		notifier:  notifier,
		logger:    logger,
		now:       time.Now,
	}
}

// BroadcastWave fans one generation of offers out to the best-scoring
// eligible operators. Re-broadcasting the same wave is idempotent: escorts
// already holding a live offer on the job are skipped, and the storage
// uniqueness on (job, escort, wave) absorbs duplicates. What triggers the
// next wave is an external scheduler's decision.
func (u *OfferLifecycle) BroadcastWave(ctx context.Context, jobID uuid.UUID, wave int) (BroadcastResult, error) {
	if jobID == uuid.Nil {
		return BroadcastResult{}, ErrInvalidInput
	}
	if wave < 1 {
		wave = 1
	}

	j, found, err := u.jobs.GetByID(ctx, jobID)
	if err != nil {
		u.logger.Printf("Job fetch failed | job=%s err=%v", jobID, err)
		return BroadcastResult{}, ErrInternal
	}
	if !found {
		return BroadcastResult{}, ErrJobNotFound
	}
	if !j.IsOpen() {
		return BroadcastResult{}, ErrJobNotOpen
	}

	pool, err := u.operators.ListAvailableByRegion(ctx, j.OriginRegion, maxPoolLimit)
	if err != nil {
		u.logger.Printf("Candidate pool fetch failed | job=%s err=%v", jobID, err)
		return BroadcastResult{}, ErrInternal
	}

	live, err := u.offers.ListLiveEscortIDs(ctx, jobID)
	if err != nil {
		u.logger.Printf("Live offer scan failed | job=%s err=%v", jobID, err)
		return BroadcastResult{}, ErrInternal
	}

	sctx := scoring.Context{
		OriginRegion: j.OriginRegion,
		DestRegion:   j.DestRegion,
		LoadType:     j.LoadType,
		RequiredAt:   j.RequiredAt,
		BudgetMax:    j.BudgetMax,
	}

	type scored struct {
		c     scoring.Candidate
		score float64
	}
	eligible := make([]scored, 0, len(pool))
	for _, c := range pool {
		if _, held := live[c.OperatorID]; held {
			continue
		}
		eligible = append(eligible, scored{c: c, score: scoring.BaseScore(sctx, c)})
	}
	sort.SliceStable(eligible, func(a, b int) bool { return eligible[a].score > eligible[b].score })

	size := waveSize(defaultFillProbability, defaultWaveConfidence)
	if size > len(eligible) {
		size = len(eligible)
	}

	now := u.now().UTC()
	expiresAt := now.Add(ttlForWave(wave))

	rows := make([]offer.Offer, 0, size)
	for i := 0; i < size; i++ {
		rows = append(rows, offer.Offer{
			ID:          uuid.New(),
			JobID:       j.ID,
			BrokerID:    j.BrokerID,
			EscortID:    eligible[i].c.OperatorID,
			Status:      offer.StatusOffered,
			OfferedRate: j.BudgetMax,
			Rank:        i + 1,
			Wave:        wave,
			OfferedAt:   now,
			ExpiresAt:   expiresAt,
		})
	}

	created := 0
	if len(rows) > 0 {
		created, err = u.offers.InsertWave(ctx, rows)
		if err != nil {
			u.logger.Printf("Offer wave insert failed | job=%s wave=%d err=%v", jobID, wave, err)
			return BroadcastResult{}, ErrInternal
		}
	}

	if created > 0 && u.notifier != nil {
		u.notifier.OffersBroadcast(j.ID, wave, created, expiresAt)
	}

	return BroadcastResult{
		JobID:                j.ID,
		Wave:                 wave,
		WaveSize:             size,
		OffersCreated:        created,
		CandidatesConsidered: len(pool),
		ExpiresAt:            expiresAt,
	}, nil
}

func (u *OfferLifecycle) MarkViewed(ctx context.Context, escortID, offerID uuid.UUID) error {
	o, err := u.ownedOffer(ctx, escortID, offerID)
	if err != nil {
		return err
	}
	if o.Status == offer.StatusViewed {
		return nil
	}
	if o.Status.IsTerminal() {
		return &OfferUnavailableError{Status: o.Status}
	}

	if _, err := u.offers.MarkViewed(ctx, offerID); err != nil {
		u.logger.Printf("Offer view mark failed | offer=%s err=%v", offerID, err)
		return ErrInternal
	}
	return nil
}

func (u *OfferLifecycle) Decline(ctx context.Context, escortID, offerID uuid.UUID) error {
	o, err := u.ownedOffer(ctx, escortID, offerID)
	if err != nil {
		return err
	}
	if o.Status.IsTerminal() {
		return &OfferUnavailableError{Status: o.Status}
	}

	rows, err := u.offers.MarkDeclined(ctx, offerID, u.now().UTC())
	if err != nil {
		u.logger.Printf("Offer decline failed | offer=%s err=%v", offerID, err)
		return ErrInternal
	}
	if rows == 0 {
		// Went terminal between the read and the write.
		if cur, found, err := u.offers.GetByID(ctx, offerID); err == nil && found {
			return &OfferUnavailableError{Status: cur.Status}
		}
		return ErrOfferNotFound
	}
	return nil
}

func (u *OfferLifecycle) ExpireOverdue(ctx context.Context) (int64, error) {
	n, err := u.offers.ExpireOverdue(ctx, u.now().UTC())
	if err != nil {
		u.logger.Printf("Offer expiry sweep failed | err=%v", err)
		return 0, ErrInternal
	}
	return n, nil
}

func (u *OfferLifecycle) ownedOffer(ctx context.Context, escortID, offerID uuid.UUID) (offer.Offer, error) {
	if escortID == uuid.Nil {
		return offer.Offer{}, ErrUnauthorized
	}
	if offerID == uuid.Nil {
		return offer.Offer{}, ErrOfferNotFound
	}

	o, found, err := u.offers.GetByID(ctx, offerID)
	if err != nil {
		u.logger.Printf("Offer fetch failed | offer=%s err=%v", offerID, err)
		return offer.Offer{}, ErrInternal
	}
	if !found {
		return offer.Offer{}, ErrOfferNotFound
	}
	if o.EscortID != escortID {
		return offer.Offer{}, ErrOfferForbidden
	}
	return o, nil
}

func ttlForWave(wave int) time.Duration {
	idx := wave - 1
	if idx >= len(waveTTL) {
		idx = len(waveTTL) - 1
	}
	if idx < 0 {
		idx = 0
	}
	return waveTTL[idx]
}

// waveSize spreads wider when fill probability or confidence is low.
func waveSize(pFill, confidence float64) int {
	base := 5.0
	spread := math.Round(base + (1-pFill)*15 + (1-confidence)*10)
	if spread < 3 {
		spread = 3
	}
	if spread > 25 {
		spread = 25
	}
	return int(spread)
}
