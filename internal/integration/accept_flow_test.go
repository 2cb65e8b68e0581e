package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"haul-dispatch/internal/config"
	"haul-dispatch/internal/database"
	"haul-dispatch/internal/database/migration"
	dbpostgres "haul-dispatch/internal/database/postgres"
	"haul-dispatch/internal/delivery/http/middleware"
	"haul-dispatch/internal/delivery/http/routes"
	"haul-dispatch/internal/domain/job"
	"haul-dispatch/internal/domain/offer"
	"haul-dispatch/internal/infrastructure/cache"
	"haul-dispatch/internal/pkg/jwt"
	"haul-dispatch/internal/repository"
	"haul-dispatch/internal/ws"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type semanticResponse struct {
	Status  int             `json:"status"`
	Code    string          `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type acceptData struct {
	MatchID uuid.UUID `json:"match_id"`
	JobID   uuid.UUID `json:"job_id"`
}

type conflictData struct {
	MatchedBySelf bool   `json:"matched_by_self"`
	OfferStatus   string `json:"offer_status"`
}

type seedState struct {
	jobID    uuid.UUID
	offer1ID uuid.UUID
	offer2ID uuid.UUID
	escortX  uuid.UUID
	escortY  uuid.UUID
}

func TestIntegration_AcceptFlow_SingleWinner(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	db := connectTestDB(t, ctx)
	defer func() { _ = db.Close() }()

	runMigrations(t, ctx, db)

	seed := seedAcceptScenario(t, ctx, db)
	defer cleanupSeed(t, ctx, db, seed)

	cfg := testConfig()
	app := newTestFiberApp(cfg, db)

	jwtSvc := jwt.NewHMACService(cfg.JWT.AccessSecret, cfg.JWT.RefreshSecret, cfg.JWT.AccessExpiresIn, cfg.JWT.RefreshExpiresIn)
	tokenX, err := jwtSvc.GenerateAccessToken(seed.escortX, jwt.RoleEscort)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	tokenY, err := jwtSvc.GenerateAccessToken(seed.escortY, jwt.RoleEscort)
	if err != nil {
		t.Fatalf("token: %v", err)
	}

	// Escort X wins the job.
	res := postJSON(t, app, "/api/v1/offers/"+seed.offer1ID.String()+"/accept", tokenX, nil)
	if res.Status != fiber.StatusOK || res.Code != "OK" {
		t.Fatalf("accept: status=%d code=%s message=%s", res.Status, res.Code, res.Message)
	}
	var won acceptData
	if err := json.Unmarshal(res.Data, &won); err != nil {
		t.Fatalf("accept data: %v", err)
	}
	if won.JobID != seed.jobID || won.MatchID == uuid.Nil {
		t.Fatalf("accept data: %+v", won)
	}

	// Retrying the same offer is an idempotent conflict.
	res = postJSON(t, app, "/api/v1/offers/"+seed.offer1ID.String()+"/accept", tokenX, nil)
	if res.Status != fiber.StatusConflict || res.Code != "ALREADY_MATCHED" {
		t.Fatalf("retry: status=%d code=%s", res.Status, res.Code)
	}
	var retry conflictData
	if err := json.Unmarshal(res.Data, &retry); err != nil {
		t.Fatalf("retry data: %v", err)
	}
	if !retry.MatchedBySelf {
		t.Fatal("retry: expected matched_by_self=true")
	}

	// Escort Y's sibling offer was rescinded by the winning transaction.
	res = postJSON(t, app, "/api/v1/offers/"+seed.offer2ID.String()+"/accept", tokenY, nil)
	if res.Status != fiber.StatusConflict || res.Code != "OFFER_UNAVAILABLE" {
		t.Fatalf("loser: status=%d code=%s", res.Status, res.Code)
	}
	var lost conflictData
	if err := json.Unmarshal(res.Data, &lost); err != nil {
		t.Fatalf("loser data: %v", err)
	}
	if lost.OfferStatus != string(offer.StatusRescinded) {
		t.Fatalf("loser offer status = %s, want rescinded", lost.OfferStatus)
	}

	// Storage reflects the booking invariant.
	jobRepo := repository.NewPostgresJobRepository(db)
	j, found, err := jobRepo.GetByID(ctx, seed.jobID)
	if err != nil || !found {
		t.Fatalf("job readback: found=%v err=%v", found, err)
	}
	if j.Status != job.StatusMatched {
		t.Fatalf("job status = %s, want matched", j.Status)
	}
	m, found, err := repository.NewPostgresMatchRepository(db).FindByJobID(ctx, seed.jobID)
	if err != nil || !found {
		t.Fatalf("match readback: found=%v err=%v", found, err)
	}
	if m.EscortID != seed.escortX {
		t.Fatalf("match escort = %s, want %s", m.EscortID, seed.escortX)
	}

	// A broker token cannot act on offers.
	brokerTok, err := jwtSvc.GenerateAccessToken(uuid.New(), jwt.RoleBroker)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	res = postJSON(t, app, "/api/v1/offers/"+seed.offer1ID.String()+"/accept", brokerTok, nil)
	if res.Status != fiber.StatusForbidden {
		t.Fatalf("broker on offer route: status=%d", res.Status)
	}
}

func connectTestDB(t *testing.T, ctx context.Context) database.DB {
	t.Helper()

	host := stringsOrDefault(os.Getenv("DISPATCH_TEST_DB_HOST"), os.Getenv("DB_HOST"))
	port := stringsOrDefault(os.Getenv("DISPATCH_TEST_DB_PORT"), os.Getenv("DB_PORT"))
	name := stringsOrDefault(os.Getenv("DISPATCH_TEST_DB_NAME"), os.Getenv("DB_NAME"))
	user := stringsOrDefault(os.Getenv("DISPATCH_TEST_DB_USER"), os.Getenv("DB_USER"))
	pass := stringsOrDefault(os.Getenv("DISPATCH_TEST_DB_PASSWORD"), os.Getenv("DB_PASSWORD"))
	ssl := stringsOrDefault(os.Getenv("DISPATCH_TEST_DB_SSL_MODE"), os.Getenv("DB_SSL_MODE"))

	if host == "" || port == "" || name == "" || user == "" {
		t.Skip("missing test DB env vars: set DISPATCH_TEST_DB_HOST/PORT/NAME/USER/PASSWORD (or DB_HOST/DB_PORT/DB_NAME/DB_USER/DB_PASSWORD)")
	}
	if ssl == "" {
		ssl = "disable"
	}

	db, err := dbpostgres.Connect(ctx, config.DatabaseConfig{
		DBHost:     host,
		DBPort:     port,
		DBName:     name,
		DBUser:     user,
		DBPassword: pass,
		DBSSLMode:  ssl,
	})
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	return db
}

func runMigrations(t *testing.T, ctx context.Context, db database.DB) {
	t.Helper()
	r := migration.Runner{Dir: migrationsDir()}
	if err := r.Run(ctx, db.SQLDB()); err != nil {
		t.Fatalf("migrations: %v", err)
	}
}

func migrationsDir() string {
	if d := os.Getenv("MIGRATIONS_DIR"); d != "" {
		return d
	}
	return "../../migrations"
}

func seedAcceptScenario(t *testing.T, ctx context.Context, db database.DB) seedState {
	t.Helper()

	s := seedState{
		jobID:   uuid.New(),
		escortX: uuid.New(),
		escortY: uuid.New(),
	}
	brokerID := uuid.New()

	jobRepo := repository.NewPostgresJobRepository(db)
	if err := jobRepo.Create(ctx, job.Job{
		ID:           s.jobID,
		BrokerID:     brokerID,
		OriginRegion: "TX",
		DestRegion:   "OK",
		LoadType:     "oversize",
		BudgetMax:    4.00,
		Status:       job.StatusOpen,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}); err != nil {
		t.Fatalf("seed job: %v", err)
	}

	now := time.Now().UTC()
	offerRepo := repository.NewPostgresOfferRepository(db)
	rows := []offer.Offer{
		{ID: uuid.New(), JobID: s.jobID, BrokerID: brokerID, EscortID: s.escortX,
			Status: offer.StatusOffered, OfferedRate: 4.00, Rank: 1, Wave: 1,
			OfferedAt: now, ExpiresAt: now.Add(3 * time.Minute)},
		{ID: uuid.New(), JobID: s.jobID, BrokerID: brokerID, EscortID: s.escortY,
			Status: offer.StatusOffered, OfferedRate: 4.00, Rank: 2, Wave: 1,
			OfferedAt: now, ExpiresAt: now.Add(3 * time.Minute)},
	}
	s.offer1ID = rows[0].ID
	s.offer2ID = rows[1].ID
	if created, err := offerRepo.InsertWave(ctx, rows); err != nil || created != 2 {
		t.Fatalf("seed offers: created=%d err=%v", created, err)
	}

	return s
}

func cleanupSeed(t *testing.T, ctx context.Context, db database.DB, s seedState) {
	t.Helper()
	// FK cascades clear offers and matches with the job.
	if _, err := db.Exec(ctx, `DELETE FROM jobs WHERE id = $1`, s.jobID); err != nil {
		t.Logf("cleanup: %v", err)
	}
}

func testConfig() config.Config {
	return config.Config{
		App: config.AppConfig{AppName: "haul-dispatch-test", HTTPPort: "0"},
		JWT: config.JWTConfig{
			AccessSecret:     "integration-access-secret",
			RefreshSecret:    "integration-refresh-secret",
			AccessExpiresIn:  15 * time.Minute,
			RefreshExpiresIn: time.Hour,
		},
	}
}

func newTestFiberApp(cfg config.Config, db database.DB) *fiber.App {
	logger := log.New(io.Discard, "", 0)
	app := fiber.New(fiber.Config{})
	app.Use(middleware.NewErrorMiddleware().Middleware())

	hub := ws.NewHub(logger)
	go hub.Run()

	routes.Register(app, routes.Deps{
		Config: cfg,
		DB:     db,
		Cache:  cache.NewRedis(cfg.Redis, logger),
		Hub:    hub,
		Logger: logger,
	})
	return app
}

func postJSON(t *testing.T, app *fiber.App, path, token string, body any) semanticResponse {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest("POST", path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, fiber.TestConfig{Timeout: 30 * time.Second})
	if err != nil {
		t.Fatalf("request %s: %v", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	var out semanticResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	if out.Status != resp.StatusCode {
		t.Fatalf("%s: envelope status %d != http %d", path, out.Status, resp.StatusCode)
	}
	return out
}

func stringsOrDefault(v, def string) string {
	if v != "" {
		return v
	}
	return def
}
