package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"haul-dispatch/internal/domain/scoring"

	"github.com/google/uuid"
)

func mustUUID(s string) uuid.UUID {
	return uuid.MustParse(s)
}

// memCardCache stores marshalled entries so a cache hit exercises the same
// JSON round-trip the redis path does.
type memCardCache struct {
	entries map[string][]byte
	gets    int
	sets    int
	failing bool
}

func newMemCardCache() *memCardCache {
	return &memCardCache{entries: make(map[string][]byte)}
}

func (c *memCardCache) GetJSON(_ context.Context, key string, out any) (bool, error) {
	c.gets++
	if c.failing {
		return false, errors.New("cache backend down")
	}
	raw, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, out)
}

func (c *memCardCache) SetJSON(_ context.Context, key string, value any, _ time.Duration) error {
	c.sets++
	if c.failing {
		return errors.New("cache backend down")
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = raw
	return nil
}

func generateParams() MatchGenerateParams {
	return MatchGenerateParams{
		OriginRegion: "tx",
		DestRegion:   "ok",
		LoadType:     "oversize",
		BudgetMax:    4.0,
	}
}

func generatePool() []scoring.Candidate {
	respA, rateA, onTimeA := 10.0, 2.0, 0.95
	respB, rateB, onTimeB := 5.0, 1.5, 0.80
	return []scoring.Candidate{
		{
			OperatorID:         mustUUID("6f9c2a14-5f5b-4a42-9f0e-0d8f2b1c3a01"),
			Name:               "Alma Reyes",
			TrustScore:         90,
			AvgResponseMinutes: &respA,
			LicensedRegions:    []string{"TX", "OK"},
			RatePerMile:        &rateA,
			OnTimeRate:         &onTimeA,
			CorridorMatchCount: 12,
			Available:          true,
		},
		{
			OperatorID:         mustUUID("6f9c2a14-5f5b-4a42-9f0e-0d8f2b1c3a02"),
			Name:               "Boone Carter",
			TrustScore:         65,
			AvgResponseMinutes: &respB,
			LicensedRegions:    []string{"TX"},
			RatePerMile:        &rateB,
			OnTimeRate:         &onTimeB,
			DisputeCount:       1,
			CorridorMatchCount: 4,
			Available:          true,
		},
	}
}

func TestGenerate_ProducesCardsAndNormalizesInput(t *testing.T) {
	operators := &stubOperatorRepo{pool: generatePool()}
	u := NewMatchGenerateUsecase(operators, nil, time.Minute, log.New(io.Discard, "", 0))

	res, err := u.Generate(context.Background(), generateParams())
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if res.CandidatePoolSize != 2 {
		t.Fatalf("pool size = %d, want 2", res.CandidatePoolSize)
	}
	if len(res.Cards) != 2 {
		t.Fatalf("card count = %d, want 2", len(res.Cards))
	}
	if res.Cards[0].Category != scoring.CategoryReliability {
		t.Fatalf("first card category = %s, want reliability-max", res.Cards[0].Category)
	}
	if res.Cards[1].Category != scoring.CategoryValue {
		t.Fatalf("second card category = %s, want value-max", res.Cards[1].Category)
	}
	if res.GeneratedAt.IsZero() {
		t.Fatal("GeneratedAt not stamped")
	}
}

func TestGenerate_RequiresOriginRegion(t *testing.T) {
	u := NewMatchGenerateUsecase(&stubOperatorRepo{}, nil, time.Minute, log.New(io.Discard, "", 0))
	p := generateParams()
	p.OriginRegion = "   "
	if _, err := u.Generate(context.Background(), p); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("error = %v, want ErrInvalidInput", err)
	}
}

func TestGenerate_SecondCallServedFromCache(t *testing.T) {
	operators := &stubOperatorRepo{pool: generatePool()}
	cache := newMemCardCache()
	u := NewMatchGenerateUsecase(operators, cache, time.Minute, log.New(io.Discard, "", 0))

	first, err := u.Generate(context.Background(), generateParams())
	if err != nil {
		t.Fatalf("first Generate failed: %v", err)
	}
	if cache.sets != 1 {
		t.Fatalf("cache writes = %d, want 1", cache.sets)
	}

	// Drop the pool: a second identical request must not reach storage.
	operators.pool = nil
	second, err := u.Generate(context.Background(), generateParams())
	if err != nil {
		t.Fatalf("second Generate failed: %v", err)
	}
	if second.CandidatePoolSize != first.CandidatePoolSize || len(second.Cards) != len(first.Cards) {
		t.Fatal("cached result differs from computed result")
	}
	if cache.sets != 1 {
		t.Fatalf("cache writes after hit = %d, want still 1", cache.sets)
	}
}

func TestGenerate_DistinctParamsMissCache(t *testing.T) {
	operators := &stubOperatorRepo{pool: generatePool()}
	cache := newMemCardCache()
	u := NewMatchGenerateUsecase(operators, cache, time.Minute, log.New(io.Discard, "", 0))

	if _, err := u.Generate(context.Background(), generateParams()); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	p := generateParams()
	p.BudgetMax = 6.0
	if _, err := u.Generate(context.Background(), p); err != nil {
		t.Fatalf("Generate with new budget failed: %v", err)
	}
	if cache.sets != 2 {
		t.Fatalf("cache writes = %d, want 2 distinct keys", cache.sets)
	}
}

func TestGenerate_SurvivesCacheOutage(t *testing.T) {
	operators := &stubOperatorRepo{pool: generatePool()}
	cache := newMemCardCache()
	cache.failing = true
	u := NewMatchGenerateUsecase(operators, cache, time.Minute, log.New(io.Discard, "", 0))

	res, err := u.Generate(context.Background(), generateParams())
	if err != nil {
		t.Fatalf("Generate failed during cache outage: %v", err)
	}
	if len(res.Cards) != 2 {
		t.Fatalf("card count = %d, want 2", len(res.Cards))
	}
}
