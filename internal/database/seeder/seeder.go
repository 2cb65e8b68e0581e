package seeder

import (
	"context"

	"haul-dispatch/internal/database"
)

type Seeder interface {
	Name() string
	Run(ctx context.Context, db database.DB) error
}
