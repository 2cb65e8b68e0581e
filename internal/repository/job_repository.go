package repository

import (
	"context"
	"errors"
	"time"

	"haul-dispatch/internal/database"
	"haul-dispatch/internal/domain/job"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type JobRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (job.Job, bool, error)
	Create(ctx context.Context, j job.Job) error

	// MarkMatched flips an open job to matched inside the booking
	// transaction. Returns the number of rows updated.
	MarkMatched(ctx context.Context, q database.Queryer, id uuid.UUID, at time.Time) (int64, error)
}

type PostgresJobRepository struct {
	db database.DB
}

func NewPostgresJobRepository(db database.DB) *PostgresJobRepository {
	return &PostgresJobRepository{db: db}
}

func (r *PostgresJobRepository) GetByID(ctx context.Context, id uuid.UUID) (job.Job, bool, error) {
	var j job.Job
	err := r.db.QueryRow(ctx,
		`SELECT id, broker_id, origin_region, dest_region, load_type,
		        budget_max, required_at, status, created_at, updated_at
		 FROM jobs WHERE id = $1`,
		id,
	).Scan(
		&j.ID, &j.BrokerID, &j.OriginRegion, &j.DestRegion, &j.LoadType,
		&j.BudgetMax, &j.RequiredAt, &j.Status, &j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return job.Job{}, false, nil
		}
		return job.Job{}, false, err
	}
	return j, true, nil
}

func (r *PostgresJobRepository) Create(ctx context.Context, j job.Job) error {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	now := time.Now().UTC()
	if j.CreatedAt.IsZero() {
		j.CreatedAt = now
	}
	if j.UpdatedAt.IsZero() {
		j.UpdatedAt = now
	}
	if j.Status == "" {
		j.Status = job.StatusOpen
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO jobs (id, broker_id, origin_region, dest_region, load_type,
		                   budget_max, required_at, status, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		j.ID, j.BrokerID, j.OriginRegion, j.DestRegion, j.LoadType,
		j.BudgetMax, j.RequiredAt, j.Status, j.CreatedAt, j.UpdatedAt,
	)
	return err
}

func (r *PostgresJobRepository) MarkMatched(ctx context.Context, q database.Queryer, id uuid.UUID, at time.Time) (int64, error) {
	return q.Exec(ctx,
		`UPDATE jobs SET status = $2, updated_at = $3 WHERE id = $1 AND status = $4`,
		id, job.StatusMatched, at, job.StatusOpen,
	)
}
