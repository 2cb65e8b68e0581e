package repository

import (
	"context"
	"time"

	"haul-dispatch/internal/database"
	"haul-dispatch/internal/domain/presence"
	"haul-dispatch/internal/domain/scoring"

	"github.com/google/uuid"
)

type OperatorProfile struct {
	ID                 uuid.UUID
	Name               string
	TrustScore         float64
	AvgResponseMinutes *float64
	CompletedEscorts   int
	LicensedRegions    []string
	RatePerMile        *float64
	OnTimeRate         *float64
	DisputeCount       int
	CorridorMatchCount int
}

// OperatorRepository is the read model over the externally-maintained
// operator attribute store. The engine only consumes these attributes;
// how trust scores or response averages are computed lives elsewhere.
type OperatorRepository interface {
	// ListAvailableByRegion returns the candidate pool for a job:
	// available operators licensed for the origin region, best trust
	// first, capped at limit.
	ListAvailableByRegion(ctx context.Context, originRegion string, limit int) ([]scoring.Candidate, error)

	UpsertProfile(ctx context.Context, p OperatorProfile) error
}

type PostgresOperatorRepository struct {
	db database.DB
}

func NewPostgresOperatorRepository(db database.DB) *PostgresOperatorRepository {
	return &PostgresOperatorRepository{db: db}
}

func (r *PostgresOperatorRepository) ListAvailableByRegion(ctx context.Context, originRegion string, limit int) ([]scoring.Candidate, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}

	rows, err := r.db.Query(ctx,
		`SELECT p.id, p.full_name, p.trust_score, p.avg_response_minutes,
		        p.completed_escorts, p.licensed_regions, p.rate_per_mile,
		        p.on_time_rate, p.dispute_count, p.corridor_match_count
		 FROM operator_profiles p
		 JOIN operator_presence pr ON pr.escort_id = p.id
		 WHERE pr.status = $1
		   AND ($2 = '' OR $2 = ANY(p.licensed_regions))
		 ORDER BY p.trust_score DESC
		 LIMIT $3`,
		presence.StatusAvailable, originRegion, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]scoring.Candidate, 0, limit)
	for rows.Next() {
		var c scoring.Candidate
		if err := rows.Scan(
			&c.OperatorID, &c.Name, &c.TrustScore, &c.AvgResponseMinutes,
			&c.CompletedEscorts, &c.LicensedRegions, &c.RatePerMile,
			&c.OnTimeRate, &c.DisputeCount, &c.CorridorMatchCount,
		); err != nil {
			return nil, err
		}
		c.Available = true
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PostgresOperatorRepository) UpsertProfile(ctx context.Context, p OperatorProfile) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	_, err := r.db.Exec(ctx,
		`INSERT INTO operator_profiles (id, full_name, trust_score, avg_response_minutes,
		                                completed_escorts, licensed_regions, rate_per_mile,
		                                on_time_rate, dispute_count, corridor_match_count, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		 ON CONFLICT (id) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			trust_score = EXCLUDED.trust_score,
			avg_response_minutes = EXCLUDED.avg_response_minutes,
			completed_escorts = EXCLUDED.completed_escorts,
			licensed_regions = EXCLUDED.licensed_regions,
			rate_per_mile = EXCLUDED.rate_per_mile,
			on_time_rate = EXCLUDED.on_time_rate,
			dispute_count = EXCLUDED.dispute_count,
			corridor_match_count = EXCLUDED.corridor_match_count,
			updated_at = EXCLUDED.updated_at`,
		p.ID, p.Name, p.TrustScore, p.AvgResponseMinutes,
		p.CompletedEscorts, p.LicensedRegions, p.RatePerMile,
		p.OnTimeRate, p.DisputeCount, p.CorridorMatchCount, time.Now().UTC(),
	)
	return err
}
