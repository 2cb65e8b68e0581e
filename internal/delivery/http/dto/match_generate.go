package dto

import (
	"time"

	"github.com/google/uuid"
)

type MatchGenerateRequest struct {
	OriginRegion string     `json:"origin_region"`
	DestRegion   string     `json:"dest_region"`
	LoadType     string     `json:"load_type"`
	RequiredAt   *time.Time `json:"required_at"`
	BudgetMax    float64    `json:"budget_max"`
	PoolLimit    int        `json:"pool_limit"`
}

type RecommendationCardResponse struct {
	Category           string   `json:"category"`
	Label              string   `json:"label"`
	Tagline            string   `json:"tagline"`
	OperatorID         uuid.UUID `json:"operator_id"`
	OperatorName       string   `json:"operator_name"`
	TrustScore         float64  `json:"trust_score"`
	ResponseMinutes    *float64 `json:"response_minutes"`
	RatePerMile        *float64 `json:"rate_per_mile"`
	CorridorMatchCount int      `json:"corridor_match_count"`
	CompositeScore     float64  `json:"composite_score"`
	Confidence         string   `json:"confidence"`
	Reasoning          []string `json:"reasoning"`
}

// MatchContextResponse echoes the normalized request back so callers can
// correlate cards with the inputs that produced them.
type MatchContextResponse struct {
	OriginRegion string     `json:"origin_region"`
	DestRegion   string     `json:"dest_region,omitempty"`
	LoadType     string     `json:"load_type,omitempty"`
	RequiredAt   *time.Time `json:"required_at,omitempty"`
	BudgetMax    float64    `json:"budget_max,omitempty"`
}

type MatchGenerateResponse struct {
	Cards             []RecommendationCardResponse `json:"cards"`
	Context           MatchContextResponse         `json:"context"`
	CandidatePoolSize int                          `json:"candidate_pool_size"`
	GeneratedAt       time.Time                    `json:"generated_at"`
}
