package scoring

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

type Category string

const (
	CategoryReliability Category = "reliability-max"
	CategoryValue       Category = "value-max"
	CategorySpeed       Category = "speed-max"
)

type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// speedTrustFloor is a hard gate: operators below it are never eligible
// for the speed card regardless of response time.
const speedTrustFloor = 70

// Candidate is a read-only snapshot of one operator's scoring-relevant
// attributes, captured once per scoring pass. Nil pointer fields mean the
// attribute is unknown and a neutral default applies.
type Candidate struct {
	OperatorID         uuid.UUID
	Name               string
	TrustScore         float64
	AvgResponseMinutes *float64
	CompletedEscorts   int
	LicensedRegions    []string
	RatePerMile        *float64
	OnTimeRate         *float64
	DisputeCount       int
	CorridorMatchCount int
	Available          bool
}

// Context carries the job attributes the scorer needs.
type Context struct {
	OriginRegion string
	DestRegion   string
	LoadType     string
	RequiredAt   *time.Time

	// BudgetMax <= 0 means no ceiling; price sub-score falls back to 0.5.
	BudgetMax float64
}

type Card struct {
	Category Category
	Label    string
	Tagline  string

	OperatorID         uuid.UUID
	OperatorName       string
	TrustScore         float64
	ResponseMinutes    *float64
	RatePerMile        *float64
	CorridorMatchCount int

	CompositeScore float64
	Confidence     Confidence
	Reasoning      []string
}

// Composite weights.
const (
	wTrust     = 0.40
	wResponse  = 0.25
	wProximity = 0.15
	wPrice     = 0.15
	wCorridor  = 0.05
)

const (
	defaultResponseMinutes = 90
	defaultRatePerMile     = 3
	defaultOnTimeRate      = 0.5
)

// Generate produces up to three cards, each tagged with a distinct
// category and naming a distinct operator. Thin pools yield fewer cards;
// an empty stage is not an error. Pure function: no clock, no randomness.
func Generate(ctx Context, pool []Candidate) []Card {
	used := make(map[uuid.UUID]struct{}, 3)
	cards := make([]Card, 0, 3)

	if c := buildReliability(remaining(pool, used), ctx); c != nil {
		used[c.OperatorID] = struct{}{}
		cards = append(cards, *c)
	}
	if c := buildValue(remaining(pool, used), ctx); c != nil {
		used[c.OperatorID] = struct{}{}
		cards = append(cards, *c)
	}
	if c := buildSpeed(remaining(pool, used), ctx); c != nil {
		cards = append(cards, *c)
	}

	return cards
}

// BaseScore is the fixed convex combination of the five normalized
// sub-scores. Wave fan-out ranks the pool by it.
func BaseScore(ctx Context, c Candidate) float64 {
	tTrust := normTrust(c.TrustScore)
	tResponse := normResponse(responseOrDefault(c))
	tProx := 0.3
	if licensedFor(c, ctx.OriginRegion) {
		tProx = 1
	}
	tPrice := normPrice(rateOrDefault(c), ctx.BudgetMax)
	tCorridor := normCorridor(c.CorridorMatchCount)

	return tTrust*wTrust + tResponse*wResponse + tProx*wProximity +
		tPrice*wPrice + tCorridor*wCorridor
}

func buildReliability(pool []Candidate, ctx Context) *Card {
	winner, score, ok := top(pool, func(c Candidate) float64 {
		onTime := defaultOnTimeRate
		if c.OnTimeRate != nil {
			onTime = *c.OnTimeRate
		}
		return BaseScore(ctx, c) + 0.2*onTime - 0.05*float64(c.DisputeCount)
	})
	if !ok {
		return nil
	}

	conf := ConfidenceLow
	switch {
	case winner.TrustScore >= 80:
		conf = ConfidenceHigh
	case winner.TrustScore >= 60:
		conf = ConfidenceMedium
	}

	onTimeLine := "Verified operator"
	if winner.OnTimeRate != nil {
		onTimeLine = fmt.Sprintf("On-time rate: %d%%", int(math.Round(*winner.OnTimeRate*100)))
	}
	disputeLine := "Zero disputes"
	if winner.DisputeCount > 0 {
		disputeLine = fmt.Sprintf("%d dispute(s) on record", winner.DisputeCount)
	}

	card := newCard(CategoryReliability, "Sure Thing", "Highest reliability in this corridor", winner, score)
	card.Confidence = conf
	card.Reasoning = []string{
		fmt.Sprintf("Trust score: %d/100", int(math.Round(winner.TrustScore))),
		onTimeLine,
		disputeLine,
	}
	return card
}

func buildValue(pool []Candidate, ctx Context) *Card {
	winner, score, ok := top(pool, func(c Candidate) float64 {
		trustPerRate := c.TrustScore / 100
		if c.RatePerMile != nil && *c.RatePerMile > 0 {
			trustPerRate = (c.TrustScore / 100) / *c.RatePerMile
		}
		return 0.6*trustPerRate + 0.4*normResponse(responseOrDefault(c))
	})
	if !ok {
		return nil
	}

	rateLine := "Competitive rate"
	if winner.RatePerMile != nil {
		rateLine = fmt.Sprintf("Rate: $%.2f/mi", *winner.RatePerMile)
	}
	respLine := "Responsive operator"
	if winner.AvgResponseMinutes != nil {
		respLine = fmt.Sprintf("Responds in ~%dmin", int(math.Round(*winner.AvgResponseMinutes)))
	}

	card := newCard(CategoryValue, "Best Value", "Best trust-to-rate ratio available", winner, score)
	card.Confidence = ConfidenceMedium
	card.Reasoning = []string{
		rateLine,
		fmt.Sprintf("Trust score: %d/100", int(math.Round(winner.TrustScore))),
		respLine,
	}
	return card
}

func buildSpeed(pool []Candidate, ctx Context) *Card {
	eligible := make([]Candidate, 0, len(pool))
	for _, c := range pool {
		if c.TrustScore >= speedTrustFloor {
			eligible = append(eligible, c)
		}
	}

	winner, score, ok := top(eligible, func(c Candidate) float64 {
		return 0.75*normResponse(responseOrDefault(c)) + 0.25*normTrust(c.TrustScore)
	})
	if !ok {
		return nil
	}

	conf := ConfidenceMedium
	if winner.AvgResponseMinutes != nil && *winner.AvgResponseMinutes < 15 {
		conf = ConfidenceHigh
	}

	respLine := "Fast responder"
	if winner.AvgResponseMinutes != nil {
		respLine = fmt.Sprintf("Avg response: %dmin", int(math.Round(*winner.AvgResponseMinutes)))
	}
	availLine := "High availability"
	if winner.Available {
		availLine = "Available now"
	}

	card := newCard(CategorySpeed, "Speedster", "Fastest response, ready to move", winner, score)
	card.Confidence = conf
	card.Reasoning = []string{
		respLine,
		fmt.Sprintf("Trust score: %d/100 (min %d required)", int(math.Round(winner.TrustScore)), speedTrustFloor),
		availLine,
	}
	return card
}

func newCard(cat Category, label, tagline string, c Candidate, score float64) *Card {
	return &Card{
		Category:           cat,
		Label:              label,
		Tagline:            tagline,
		OperatorID:         c.OperatorID,
		OperatorName:       c.Name,
		TrustScore:         c.TrustScore,
		ResponseMinutes:    c.AvgResponseMinutes,
		RatePerMile:        c.RatePerMile,
		CorridorMatchCount: c.CorridorMatchCount,
		CompositeScore:     round4(score),
	}
}

// top returns the highest-scoring candidate. Equal scores keep the earlier
// pool entry so results stay deterministic for a given pool order.
func top(pool []Candidate, score func(Candidate) float64) (Candidate, float64, bool) {
	if len(pool) == 0 {
		return Candidate{}, 0, false
	}
	best := pool[0]
	bestScore := score(pool[0])
	for _, c := range pool[1:] {
		if s := score(c); s > bestScore {
			best = c
			bestScore = s
		}
	}
	return best, bestScore, true
}

func remaining(pool []Candidate, used map[uuid.UUID]struct{}) []Candidate {
	if len(used) == 0 {
		return pool
	}
	out := make([]Candidate, 0, len(pool))
	for _, c := range pool {
		if _, ok := used[c.OperatorID]; ok {
			continue
		}
		out = append(out, c)
	}
	return out
}

func licensedFor(c Candidate, region string) bool {
	if region == "" {
		return true
	}
	for _, r := range c.LicensedRegions {
		if r == region {
			return true
		}
	}
	return false
}

func responseOrDefault(c Candidate) float64 {
	if c.AvgResponseMinutes != nil {
		return *c.AvgResponseMinutes
	}
	return defaultResponseMinutes
}

func rateOrDefault(c Candidate) float64 {
	if c.RatePerMile != nil {
		return *c.RatePerMile
	}
	return defaultRatePerMile
}

func normTrust(v float64) float64 {
	return math.Min(v, 100) / 100
}

func normResponse(minutes float64) float64 {
	return math.Max(0, 1-minutes/120)
}

func normPrice(rate, budgetMax float64) float64 {
	if budgetMax <= 0 {
		return 0.5
	}
	return math.Max(0, 1-rate/budgetMax)
}

func normCorridor(n int) float64 {
	return math.Min(float64(n)/20, 1)
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
