package repository

import (
	"context"
	"errors"
	"time"

	"haul-dispatch/internal/database"
	"haul-dispatch/internal/domain/offer"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type OfferRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (offer.Offer, bool, error)

	// InsertWave creates one wave of offers. Rows violating the
	// (job, escort, wave) uniqueness are skipped, so re-broadcasting a
	// wave is idempotent. Returns the number of offers created.
	InsertWave(ctx context.Context, offers []offer.Offer) (int, error)

	// ListLiveEscortIDs reports escorts that already hold an offered,
	// viewed, or accepted offer on the job, across all waves.
	ListLiveEscortIDs(ctx context.Context, jobID uuid.UUID) (map[uuid.UUID]struct{}, error)

	MarkViewed(ctx context.Context, id uuid.UUID) (int64, error)
	MarkDeclined(ctx context.Context, id uuid.UUID, at time.Time) (int64, error)
	MarkExpired(ctx context.Context, id uuid.UUID) error

	// AcceptIfOpen conditionally transitions the offer to accepted only
	// while it is still offered or viewed. Runs inside the booking
	// transaction; a zero row count means the offer went terminal first.
	AcceptIfOpen(ctx context.Context, q database.Queryer, id uuid.UUID, at time.Time) (int64, error)

	// RescindOpenByJob bulk-transitions every other open offer on the job
	// to rescinded, inside the booking transaction.
	RescindOpenByJob(ctx context.Context, q database.Queryer, jobID, exceptID uuid.UUID) (int64, error)

	// ExpireOverdue is housekeeping; lazy expiry at accept time is the
	// correctness path.
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)
}

type PostgresOfferRepository struct {
	db database.DB
}

func NewPostgresOfferRepository(db database.DB) *PostgresOfferRepository {
	return &PostgresOfferRepository{db: db}
}

const offerColumns = `id, job_id, broker_id, escort_id, status, offered_rate,
	offer_rank, wave, offered_at, expires_at, responded_at`

func (r *PostgresOfferRepository) GetByID(ctx context.Context, id uuid.UUID) (offer.Offer, bool, error) {
	var o offer.Offer
	err := r.db.QueryRow(ctx,
		`SELECT `+offerColumns+` FROM match_offers WHERE id = $1`,
		id,
	).Scan(
		&o.ID, &o.JobID, &o.BrokerID, &o.EscortID, &o.Status, &o.OfferedRate,
		&o.Rank, &o.Wave, &o.OfferedAt, &o.ExpiresAt, &o.RespondedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return offer.Offer{}, false, nil
		}
		return offer.Offer{}, false, err
	}
	return o, true, nil
}

func (r *PostgresOfferRepository) InsertWave(ctx context.Context, offers []offer.Offer) (int, error) {
	created := 0
	for _, o := range offers {
		if o.ID == uuid.Nil {
			o.ID = uuid.New()
		}
		n, err := r.db.Exec(ctx,
			`INSERT INTO match_offers (id, job_id, broker_id, escort_id, status, offered_rate,
			                           offer_rank, wave, offered_at, expires_at)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
			 ON CONFLICT (job_id, escort_id, wave) DO NOTHING`,
			o.ID, o.JobID, o.BrokerID, o.EscortID, o.Status, o.OfferedRate,
			o.Rank, o.Wave, o.OfferedAt, o.ExpiresAt,
		)
		if err != nil {
			return created, err
		}
		created += int(n)
	}
	return created, nil
}

func (r *PostgresOfferRepository) ListLiveEscortIDs(ctx context.Context, jobID uuid.UUID) (map[uuid.UUID]struct{}, error) {
	rows, err := r.db.Query(ctx,
		`SELECT escort_id FROM match_offers
		 WHERE job_id = $1 AND status IN ($2, $3, $4)`,
		jobID, offer.StatusOffered, offer.StatusViewed, offer.StatusAccepted,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[uuid.UUID]struct{}{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = struct{}{}
	}
	return out, rows.Err()
}

func (r *PostgresOfferRepository) MarkViewed(ctx context.Context, id uuid.UUID) (int64, error) {
	return r.db.Exec(ctx,
		`UPDATE match_offers SET status = $2 WHERE id = $1 AND status = $3`,
		id, offer.StatusViewed, offer.StatusOffered,
	)
}

func (r *PostgresOfferRepository) MarkDeclined(ctx context.Context, id uuid.UUID, at time.Time) (int64, error) {
	return r.db.Exec(ctx,
		`UPDATE match_offers SET status = $2, responded_at = $3
		 WHERE id = $1 AND status IN ($4, $5)`,
		id, offer.StatusDeclined, at, offer.StatusOffered, offer.StatusViewed,
	)
}

func (r *PostgresOfferRepository) MarkExpired(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx,
		`UPDATE match_offers SET status = $2 WHERE id = $1 AND status IN ($3, $4)`,
		id, offer.StatusExpired, offer.StatusOffered, offer.StatusViewed,
	)
	return err
}

func (r *PostgresOfferRepository) AcceptIfOpen(ctx context.Context, q database.Queryer, id uuid.UUID, at time.Time) (int64, error) {
	return q.Exec(ctx,
		`UPDATE match_offers SET status = $2, responded_at = $3
		 WHERE id = $1 AND status IN ($4, $5)`,
		id, offer.StatusAccepted, at, offer.StatusOffered, offer.StatusViewed,
	)
}

func (r *PostgresOfferRepository) RescindOpenByJob(ctx context.Context, q database.Queryer, jobID, exceptID uuid.UUID) (int64, error) {
	return q.Exec(ctx,
		`UPDATE match_offers SET status = $3
		 WHERE job_id = $1 AND id <> $2 AND status IN ($4, $5)`,
		jobID, exceptID, offer.StatusRescinded, offer.StatusOffered, offer.StatusViewed,
	)
}

func (r *PostgresOfferRepository) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	return r.db.Exec(ctx,
		`UPDATE match_offers SET status = $2
		 WHERE status IN ($3, $4) AND expires_at < $1`,
		now, offer.StatusExpired, offer.StatusOffered, offer.StatusViewed,
	)
}
