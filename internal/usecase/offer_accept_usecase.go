package usecase

import (
	"context"
	"errors"
	"log"
	"time"

	"haul-dispatch/internal/database"
	"haul-dispatch/internal/domain/job"
	"haul-dispatch/internal/domain/match"
	"haul-dispatch/internal/domain/offer"
	"haul-dispatch/internal/pkg/lock"
	"haul-dispatch/internal/repository"

	"github.com/google/uuid"
)

type AcceptResult struct {
	MatchID    uuid.UUID
	JobID      uuid.UUID
	AcceptedAt time.Time
}

// MatchEmitter runs the fire-and-forget tail of a confirmed booking.
type MatchEmitter interface {
	MatchConfirmed(ctx context.Context, m match.Match)
}

type OfferAcceptUsecase interface {
	Accept(ctx context.Context, escortID, offerID uuid.UUID) (AcceptResult, error)
}

// OfferAccept resolves concurrent accepts on one job into a single winner.
// Two independent layers guard the invariant: a job-scoped advisory lock
// (throughput aid) and the matches(job_id) uniqueness constraint (the
// storage-enforced backstop). The protocol stays correct if the lock is
// unavailable or skipped.
type OfferAccept struct {
	db      database.DB
	jobs    repository.JobRepository
	offers  repository.OfferRepository
	matches repository.MatchRepository
	locker  lock.Locker
	emitter MatchEmitter
	logger  *log.Logger
	now     func() time.Time
}

func NewOfferAcceptUsecase(
	db database.DB,
	jobs repository.JobRepository,
	offers repository.OfferRepository,
	matches repository.MatchRepository,
	locker lock.Locker,
	emitter MatchEmitter,
	logger *log.Logger,
) *OfferAccept {
	if locker == nil {
		locker = lock.NopLocker{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &OfferAccept{
		db:      db,
		jobs:    jobs,
		offers:  offers,
		matches: matches,
		locker:  locker,
		emitter: emitter,
		logger:  logger,
		now:     time.Now,
	}
}

func (u *OfferAccept) Accept(ctx context.Context, escortID, offerID uuid.UUID) (AcceptResult, error) {
	if escortID == uuid.Nil {
		return AcceptResult{}, ErrUnauthorized
	}
	if offerID == uuid.Nil {
		return AcceptResult{}, ErrOfferNotFound
	}

	o, found, err := u.offers.GetByID(ctx, offerID)
	if err != nil {
		u.logger.Printf("Offer fetch failed | offer=%s err=%v", offerID, err)
		return AcceptResult{}, ErrInternal
	}
	if !found {
		return AcceptResult{}, ErrOfferNotFound
	}
	if o.EscortID != escortID {
		return AcceptResult{}, ErrOfferForbidden
	}
	if !o.Status.IsOpen() {
		if o.Status == offer.StatusAccepted {
			// Own offer already accepted: idempotent retry.
			return AcceptResult{}, &AlreadyMatchedError{BySelf: true}
		}
		return AcceptResult{}, &OfferUnavailableError{Status: o.Status}
	}

	j, jobFound, err := u.jobs.GetByID(ctx, o.JobID)
	if err != nil {
		u.logger.Printf("Job fetch failed | job=%s err=%v", o.JobID, err)
		return AcceptResult{}, ErrInternal
	}
	if !jobFound {
		return AcceptResult{}, ErrJobNotFound
	}
	if j.Status == job.StatusCancelled || j.Status == job.StatusExpired {
		return AcceptResult{}, ErrJobCancelled
	}

	now := u.now().UTC()
	if o.ExpiredAt(now) {
		if err := u.offers.MarkExpired(ctx, offerID); err != nil {
			u.logger.Printf("Offer expiry mark failed | offer=%s err=%v", offerID, err)
		}
		return AcceptResult{}, ErrOfferExpired
	}

	// Job-scoped advisory lock. A failed acquisition does not abort:
	// it only means a competitor is in flight, and the uniqueness
	// constraint decides the winner.
	key := lock.JobKey(o.JobID)
	if got, err := u.locker.TryLock(ctx, key); err != nil {
		u.logger.Printf("Advisory lock error | job=%s err=%v", o.JobID, err)
	} else if got {
		defer func() {
			if err := u.locker.Unlock(context.WithoutCancel(ctx), key); err != nil {
				u.logger.Printf("Advisory unlock error | job=%s err=%v", o.JobID, err)
			}
		}()
	}

	if existing, matched, err := u.matches.FindByJobID(ctx, o.JobID); err != nil {
		u.logger.Printf("Match lookup failed | job=%s err=%v", o.JobID, err)
		return AcceptResult{}, ErrInternal
	} else if matched {
		return AcceptResult{}, &AlreadyMatchedError{BySelf: existing.EscortID == escortID}
	}

	return u.commitAccept(ctx, o, now)
}

// commitAccept runs steps 5-7 of the protocol in one transaction: the
// conditional offer accept, the constraint-guarded match insert, the job
// flip, and the sibling rescission. No reader can observe a confirmed
// match alongside an open sibling offer.
func (u *OfferAccept) commitAccept(ctx context.Context, o offer.Offer, now time.Time) (AcceptResult, error) {
	tx, err := u.db.Begin(ctx)
	if err != nil {
		u.logger.Printf("Accept tx begin failed | offer=%s err=%v", o.ID, err)
		return AcceptResult{}, ErrInternal
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(context.WithoutCancel(ctx))
		}
	}()

	rows, err := u.offers.AcceptIfOpen(ctx, tx, o.ID, now)
	if err != nil {
		u.logger.Printf("Offer accept write failed | offer=%s err=%v", o.ID, err)
		return AcceptResult{}, ErrInternal
	}
	if rows == 0 {
		// The offer went terminal between the read and this write.
		return AcceptResult{}, u.classifyClosedOffer(ctx, o)
	}

	m := match.Match{
		ID:              uuid.New(),
		JobID:           o.JobID,
		BrokerID:        o.BrokerID,
		EscortID:        o.EscortID,
		AcceptedOfferID: o.ID,
		AcceptedAt:      now,
		PayoutStatus:    match.PayoutNone,
	}
	if err := u.matches.Insert(ctx, tx, m); err != nil {
		if errors.Is(err, repository.ErrDuplicateJobMatch) {
			// Another accept slipped between the pre-check and the
			// insert; the constraint picked the winner.
			return AcceptResult{}, ErrRaceLost
		}
		u.logger.Printf("Match insert failed | job=%s err=%v", o.JobID, err)
		return AcceptResult{}, ErrInternal
	}

	if n, err := u.jobs.MarkMatched(ctx, tx, o.JobID, now); err != nil {
		u.logger.Printf("Job match mark failed | job=%s err=%v", o.JobID, err)
		return AcceptResult{}, ErrInternal
	} else if n == 0 {
		u.logger.Printf("Job already left open state | job=%s", o.JobID)
	}

	if _, err := u.offers.RescindOpenByJob(ctx, tx, o.JobID, o.ID); err != nil {
		u.logger.Printf("Sibling rescind failed | job=%s err=%v", o.JobID, err)
		return AcceptResult{}, ErrInternal
	}

	if err := tx.Commit(ctx); err != nil {
		u.logger.Printf("Accept tx commit failed | job=%s err=%v", o.JobID, err)
		return AcceptResult{}, ErrInternal
	}
	committed = true

	if u.emitter != nil {
		u.emitter.MatchConfirmed(context.WithoutCancel(ctx), m)
	}

	return AcceptResult{MatchID: m.ID, JobID: m.JobID, AcceptedAt: now}, nil
}

func (u *OfferAccept) classifyClosedOffer(ctx context.Context, o offer.Offer) error {
	if existing, matched, err := u.matches.FindByJobID(ctx, o.JobID); err == nil && matched {
		return &AlreadyMatchedError{BySelf: existing.EscortID == o.EscortID}
	}
	if cur, found, err := u.offers.GetByID(ctx, o.ID); err == nil && found {
		return &OfferUnavailableError{Status: cur.Status}
	}
	return ErrOfferNotFound
}
