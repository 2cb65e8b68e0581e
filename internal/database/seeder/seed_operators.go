package seeder

import (
	"context"
	"fmt"

	"haul-dispatch/internal/database"
	"haul-dispatch/internal/domain/presence"
)

type OperatorsSeeder struct{}

func (OperatorsSeeder) Name() string { return "operators" }

// Demo escort operators spanning the scoring spectrum: a high-trust
// veteran, a cheap fast responder, mid-tier regulars, and a low-trust
// newcomer who should never win the speed card.
func (OperatorsSeeder) Run(ctx context.Context, db database.DB) error {
	if err := EnsureTableColumns(ctx, db, "operator_profiles",
		"id", "full_name", "trust_score", "avg_response_minutes", "completed_escorts",
		"licensed_regions", "rate_per_mile", "on_time_rate", "dispute_count",
		"corridor_match_count"); err != nil {
		return err
	}
	if err := EnsureTableColumns(ctx, db, "operator_presence", "escort_id", "status"); err != nil {
		return err
	}

	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(context.Background())
	}()

	items := []struct {
		Name      string
		Trust     float64
		RespMin   float64
		Completed int
		Regions   string
		Rate      float64
		OnTime    float64
		Disputes  int
		Corridors int
		Presence  presence.Status
	}{
		{"Alma Reyes", 92, 12, 340, `{TX,OK,NM}`, 2.10, 0.97, 0, 18, presence.StatusAvailable},
		{"Boone Carter", 68, 6, 85, `{TX}`, 1.45, 0.82, 1, 5, presence.StatusAvailable},
		{"Cass Whitfield", 81, 25, 190, `{TX,LA}`, 2.60, 0.90, 0, 9, presence.StatusAvailable},
		{"Dov Marchetti", 74, 40, 120, `{OK,KS}`, 1.95, 0.88, 2, 11, presence.StatusAvailable},
		{"Etta Lindqvist", 88, 18, 260, `{TX,OK}`, 2.85, 0.94, 0, 21, presence.StatusBusy},
		{"Flo Okafor", 45, 8, 12, `{TX}`, 1.20, 0.70, 0, 1, presence.StatusAvailable},
	}

	for _, it := range items {
		_, err := tx.Exec(ctx,
			`INSERT INTO operator_profiles (id, full_name, trust_score, avg_response_minutes,
			                                completed_escorts, licensed_regions, rate_per_mile,
			                                on_time_rate, dispute_count, corridor_match_count)
			 SELECT gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7, $8, $9
			 WHERE NOT EXISTS (SELECT 1 FROM operator_profiles WHERE full_name = $1)`,
			it.Name, it.Trust, it.RespMin, it.Completed, it.Regions,
			it.Rate, it.OnTime, it.Disputes, it.Corridors,
		)
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx,
			`INSERT INTO operator_presence (escort_id, status)
			 SELECT id, $2 FROM operator_profiles WHERE full_name = $1
			 ON CONFLICT (escort_id) DO UPDATE SET status = EXCLUDED.status, updated_at = now()`,
			it.Name, it.Presence,
		)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
