package seeder

import (
	"context"
	"fmt"

	"haul-dispatch/internal/database"
	"haul-dispatch/internal/domain/job"
)

type JobsSeeder struct{}

func (JobsSeeder) Name() string { return "jobs" }

func (JobsSeeder) Run(ctx context.Context, db database.DB) error {
	if err := EnsureTableColumns(ctx, db, "jobs",
		"id", "broker_id", "origin_region", "dest_region", "load_type",
		"budget_max", "status"); err != nil {
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
		Origin string
		Dest   string
		Load   string
		Budget float64
	}{
		{"TX", "OK", "oversize", 4.00},
		{"TX", "LA", "superload", 5.50},
		{"OK", "KS", "oversize", 3.25},
	}

	for _, it := range items {
		_, err := tx.Exec(ctx,
			`INSERT INTO jobs (id, broker_id, origin_region, dest_region, load_type, budget_max, status)
			 SELECT gen_random_uuid(), gen_random_uuid(), $1, $2, $3, $4, $5
			 WHERE NOT EXISTS (
				SELECT 1 FROM jobs
				WHERE origin_region = $1 AND dest_region = $2 AND load_type = $3 AND status = $5
			 )`,
			it.Origin, it.Dest, it.Load, it.Budget, job.StatusOpen,
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
