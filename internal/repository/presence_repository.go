package repository

import (
	"context"
	"time"

	"haul-dispatch/internal/database"
	"haul-dispatch/internal/domain/presence"

	"github.com/google/uuid"
)

type PresenceRepository interface {
	SetStatus(ctx context.Context, escortID uuid.UUID, status presence.Status) error
	Upsert(ctx context.Context, p presence.Presence) error
}

type PostgresPresenceRepository struct {
	db database.DB
}

func NewPostgresPresenceRepository(db database.DB) *PostgresPresenceRepository {
	return &PostgresPresenceRepository{db: db}
}

func (r *PostgresPresenceRepository) SetStatus(ctx context.Context, escortID uuid.UUID, status presence.Status) error {
	_, err := r.db.Exec(ctx,
		`UPDATE operator_presence SET status = $2, updated_at = $3 WHERE escort_id = $1`,
		escortID, status, time.Now().UTC(),
	)
	return err
}

func (r *PostgresPresenceRepository) Upsert(ctx context.Context, p presence.Presence) error {
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now().UTC()
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO operator_presence (escort_id, status, updated_at)
		 VALUES ($1,$2,$3)
		 ON CONFLICT (escort_id) DO UPDATE SET
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at`,
		p.EscortID, p.Status, p.UpdatedAt,
	)
	return err
}
