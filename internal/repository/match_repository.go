package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"haul-dispatch/internal/database"
	"haul-dispatch/internal/domain/match"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrDuplicateJobMatch reports a violation of the matches(job_id)
// uniqueness constraint: another accept committed first. This is the
// storage-enforced safety net of the booking protocol.
var ErrDuplicateJobMatch = errors.New("job already matched")

type MatchRepository interface {
	FindByJobID(ctx context.Context, jobID uuid.UUID) (match.Match, bool, error)

	// Insert creates the match row inside the booking transaction and
	// returns ErrDuplicateJobMatch on a unique violation.
	Insert(ctx context.Context, q database.Queryer, m match.Match) error
}

type PostgresMatchRepository struct {
	db database.DB
}

func NewPostgresMatchRepository(db database.DB) *PostgresMatchRepository {
	return &PostgresMatchRepository{db: db}
}

func (r *PostgresMatchRepository) FindByJobID(ctx context.Context, jobID uuid.UUID) (match.Match, bool, error) {
	var m match.Match
	err := r.db.QueryRow(ctx,
		`SELECT id, job_id, broker_id, escort_id, accepted_offer_id, accepted_at, payout_status
		 FROM matches WHERE job_id = $1`,
		jobID,
	).Scan(&m.ID, &m.JobID, &m.BrokerID, &m.EscortID, &m.AcceptedOfferID, &m.AcceptedAt, &m.PayoutStatus)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return match.Match{}, false, nil
		}
		return match.Match{}, false, err
	}
	return m, true, nil
}

func (r *PostgresMatchRepository) Insert(ctx context.Context, q database.Queryer, m match.Match) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.AcceptedAt.IsZero() {
		m.AcceptedAt = time.Now().UTC()
	}
	if m.PayoutStatus == "" {
		m.PayoutStatus = match.PayoutNone
	}

	_, err := q.Exec(ctx,
		`INSERT INTO matches (id, job_id, broker_id, escort_id, accepted_offer_id, accepted_at, payout_status)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		m.ID, m.JobID, m.BrokerID, m.EscortID, m.AcceptedOfferID, m.AcceptedAt, m.PayoutStatus,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: job=%s", ErrDuplicateJobMatch, m.JobID)
		}
		return err
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
