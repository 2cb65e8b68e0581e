package handler

import (
	"errors"

	"haul-dispatch/internal/delivery/http/dto"
	"haul-dispatch/internal/delivery/http/middleware"
	"haul-dispatch/internal/pkg/response"
	"haul-dispatch/internal/usecase"

	"github.com/gofiber/fiber/v3"
)

type MatchHandler struct {
	uc usecase.MatchGenerateUsecase
}

func NewMatchHandler(uc usecase.MatchGenerateUsecase) *MatchHandler {
	return &MatchHandler{uc: uc}
}

func (h *MatchHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Post("/generate", h.Generate)
}

// Generate scores the available pool for a prospective job and returns up
// to three recommendation cards.
func (h *MatchHandler) Generate(c fiber.Ctx) error {
	var req dto.MatchGenerateRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, response.CodeValidation, "Bad request", nil, err)
	}

	res, err := h.uc.Generate(c.Context(), usecase.MatchGenerateParams{
		OriginRegion: req.OriginRegion,
		DestRegion:   req.DestRegion,
		LoadType:     req.LoadType,
		RequiredAt:   req.RequiredAt,
		BudgetMax:    req.BudgetMax,
		PoolLimit:    req.PoolLimit,
	})
	if err != nil {
		return mapMatchGenerateError(err)
	}

	out := dto.MatchGenerateResponse{
		Cards: make([]dto.RecommendationCardResponse, 0, len(res.Cards)),
		Context: dto.MatchContextResponse{
			OriginRegion: res.Context.OriginRegion,
			DestRegion:   res.Context.DestRegion,
			LoadType:     res.Context.LoadType,
			RequiredAt:   res.Context.RequiredAt,
			BudgetMax:    res.Context.BudgetMax,
		},
		CandidatePoolSize: res.CandidatePoolSize,
		GeneratedAt:       res.GeneratedAt,
	}
	for _, card := range res.Cards {
		out.Cards = append(out.Cards, dto.RecommendationCardResponse{
			Category:           string(card.Category),
			Label:              card.Label,
			Tagline:            card.Tagline,
			OperatorID:         card.OperatorID,
			OperatorName:       card.OperatorName,
			TrustScore:         card.TrustScore,
			ResponseMinutes:    card.ResponseMinutes,
			RatePerMile:        card.RatePerMile,
			CorridorMatchCount: card.CorridorMatchCount,
			CompositeScore:     card.CompositeScore,
			Confidence:         string(card.Confidence),
			Reasoning:          card.Reasoning,
		})
	}

	return response.Success(c, fiber.StatusOK, response.MessageOK, out)
}

func mapMatchGenerateError(err error) error {
	switch {
	case errors.Is(err, usecase.ErrInvalidInput):
		return middleware.NewAppError(fiber.StatusBadRequest, response.CodeValidation, "Origin region is required", nil, err)
	case errors.Is(err, usecase.ErrUnauthorized):
		return middleware.NewAppError(fiber.StatusUnauthorized, response.CodeUnauthorized, "Unauthorized", nil, err)
	default:
		return middleware.NewAppError(fiber.StatusInternalServerError, response.CodeInternal, response.MessageInternalServerError, nil, err)
	}
}
