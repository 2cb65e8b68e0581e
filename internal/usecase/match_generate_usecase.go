package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"strings"
	"time"

	"haul-dispatch/internal/domain/scoring"
	"haul-dispatch/internal/repository"
)

const (
	defaultPoolLimit = 100
	maxPoolLimit     = 100
)

type MatchGenerateParams struct {
	OriginRegion string
	DestRegion   string
	LoadType     string
	RequiredAt   *time.Time
	BudgetMax    float64
	PoolLimit    int
}

type MatchGenerateResult struct {
	Cards             []scoring.Card
	Context           scoring.Context
	CandidatePoolSize int
	GeneratedAt       time.Time
}

type MatchGenerateUsecase interface {
	Generate(ctx context.Context, p MatchGenerateParams) (MatchGenerateResult, error)
}

// CardCache is the slice of the redis cache this usecase uses. A nil cache
// (or one whose backend is down) simply recomputes.
type CardCache interface {
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
}

type MatchGenerate struct {
	operators repository.OperatorRepository
	cache     CardCache
	cacheTTL  time.Duration
	logger    *log.Logger
	now       func() time.Time
}

func NewMatchGenerateUsecase(operators repository.OperatorRepository, cache CardCache, cacheTTL time.Duration, logger *log.Logger) *MatchGenerate {
	if logger == nil {
		logger = log.Default()
	}
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}
	return &MatchGenerate{
		operators: operators,
		cache:     cache,
		cacheTTL:  cacheTTL,
		logger:    logger,
		now:       time.Now,
	}
}

func (u *MatchGenerate) Generate(ctx context.Context, p MatchGenerateParams) (MatchGenerateResult, error) {
	p.OriginRegion = strings.ToUpper(strings.TrimSpace(p.OriginRegion))
	p.DestRegion = strings.ToUpper(strings.TrimSpace(p.DestRegion))
	if p.OriginRegion == "" {
		return MatchGenerateResult{}, ErrInvalidInput
	}
	if p.PoolLimit <= 0 || p.PoolLimit > maxPoolLimit {
		p.PoolLimit = defaultPoolLimit
	}

	key := cardCacheKey(p)
	if u.cache != nil {
		var cached MatchGenerateResult
		if hit, err := u.cache.GetJSON(ctx, key, &cached); err == nil && hit {
			return cached, nil
		}
	}

	pool, err := u.operators.ListAvailableByRegion(ctx, p.OriginRegion, p.PoolLimit)
	if err != nil {
		u.logger.Printf("Candidate pool fetch failed | origin=%s err=%v", p.OriginRegion, err)
		return MatchGenerateResult{}, ErrInternal
	}

	sctx := scoring.Context{
		OriginRegion: p.OriginRegion,
		DestRegion:   p.DestRegion,
		LoadType:     p.LoadType,
		RequiredAt:   p.RequiredAt,
		BudgetMax:    p.BudgetMax,
	}

	res := MatchGenerateResult{
		Cards:             scoring.Generate(sctx, pool),
		Context:           sctx,
		CandidatePoolSize: len(pool),
		GeneratedAt:       u.now().UTC(),
	}

	if u.cache != nil {
		if err := u.cache.SetJSON(ctx, key, res, u.cacheTTL); err != nil {
			u.logger.Printf("Card cache write failed | key=%s err=%v", key, err)
		}
	}

	return res, nil
}

func cardCacheKey(p MatchGenerateParams) string {
	requiredAt := ""
	if p.RequiredAt != nil {
		requiredAt = p.RequiredAt.UTC().Format(time.RFC3339)
	}
	canonical := fmt.Sprintf("%s|%s|%s|%s|%.2f|%d",
		p.OriginRegion, p.DestRegion, p.LoadType, requiredAt, p.BudgetMax, p.PoolLimit)
	sum := sha256.Sum256([]byte(canonical))
	return "match:cards:" + p.OriginRegion + ":" + hex.EncodeToString(sum[:8])
}
