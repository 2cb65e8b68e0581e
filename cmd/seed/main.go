package main

import (
	"context"
	"log"
	"os"
	"time"

	"haul-dispatch/internal/app"
	"haul-dispatch/internal/config"
	"haul-dispatch/internal/database/seeder"
)

// Seeds demo operators and open jobs. Migrations run as part of container
// startup, so a fresh database works out of the box.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := log.New(os.Stdout, "", log.LstdFlags)

	c, err := app.NewContainer(cfg, logger)
	if err != nil {
		log.Fatalf("failed to init container: %v", err)
	}
	defer func() {
		_ = c.Close()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	r := seeder.Runner{Seeders: seeder.Defaults()}
	if err := r.Run(ctx, c.DB); err != nil {
		log.Fatalf("seeding failed: %v", err)
	}
	log.Printf("seeding complete")
}
