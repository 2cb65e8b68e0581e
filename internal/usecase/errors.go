package usecase

import (
	"errors"
	"fmt"

	"haul-dispatch/internal/domain/offer"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInternal     = errors.New("internal error")

	ErrJobNotFound  = errors.New("job not found")
	ErrJobNotOpen   = errors.New("job not open")
	ErrJobCancelled = errors.New("job cancelled")

	ErrOfferNotFound  = errors.New("offer not found")
	ErrOfferForbidden = errors.New("offer belongs to another operator")
	ErrOfferExpired   = errors.New("offer expired")

	// ErrRaceLost reports that another escort's accept committed between
	// this request's match pre-check and its insert; the job is taken and
	// retrying the same offer is futile.
	ErrRaceLost = errors.New("job just matched by another escort")
)

// OfferUnavailableError rejects an accept or decline against an offer that
// already went terminal. The response names the terminal state.
type OfferUnavailableError struct {
	Status offer.Status
}

func (e *OfferUnavailableError) Error() string {
	return fmt.Sprintf("offer not available: %s", e.Status)
}

// AlreadyMatchedError rejects an accept for a job that already has its
// match. BySelf distinguishes an idempotent retry from a lost race.
type AlreadyMatchedError struct {
	BySelf bool
}

func (e *AlreadyMatchedError) Error() string {
	if e.BySelf {
		return "you already accepted this job"
	}
	return "job already matched by another escort"
}
