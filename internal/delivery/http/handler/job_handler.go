package handler

import (
	"errors"

	"haul-dispatch/internal/delivery/http/dto"
	"haul-dispatch/internal/delivery/http/middleware"
	"haul-dispatch/internal/pkg/response"
	"haul-dispatch/internal/usecase"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

type JobHandler struct {
	lifecycle usecase.OfferLifecycleUsecase
}

func NewJobHandler(lifecycle usecase.OfferLifecycleUsecase) *JobHandler {
	return &JobHandler{lifecycle: lifecycle}
}

func (h *JobHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Post("/:job_id/broadcast", h.Broadcast)
}

// Broadcast fans one wave of offers out to the best available escorts.
func (h *JobHandler) Broadcast(c fiber.Ctx) error {
	if _, ok := c.Locals(middleware.CtxAccountIDKey).(uuid.UUID); !ok {
		return middleware.NewAppError(fiber.StatusUnauthorized, response.CodeUnauthorized, "Unauthorized", nil, nil)
	}

	jobID, err := uuid.Parse(c.Params("job_id"))
	if err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, response.CodeValidation, "Invalid job id", nil, err)
	}

	var req dto.BroadcastWaveRequest
	if err := c.Bind().Body(&req); err != nil {
		return middleware.NewAppError(fiber.StatusBadRequest, response.CodeValidation, "Bad request", nil, err)
	}

	res, err := h.lifecycle.BroadcastWave(c.Context(), jobID, req.Wave)
	if err != nil {
		return mapBroadcastError(err)
	}

	return response.Success(c, fiber.StatusOK, response.MessageOK, dto.BroadcastWaveResponse{
		JobID:                res.JobID,
		Wave:                 res.Wave,
		WaveSize:             res.WaveSize,
		OffersCreated:        res.OffersCreated,
		CandidatesConsidered: res.CandidatesConsidered,
		ExpiresAt:            res.ExpiresAt,
	})
}

func mapBroadcastError(err error) error {
	switch {
	case errors.Is(err, usecase.ErrInvalidInput):
		return middleware.NewAppError(fiber.StatusBadRequest, response.CodeValidation, "Bad request", nil, err)
	case errors.Is(err, usecase.ErrJobNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, response.CodeNotFound, "Job not found", nil, err)
	case errors.Is(err, usecase.ErrJobNotOpen):
		return middleware.NewAppError(fiber.StatusConflict, response.CodeAlreadyMatched, "Job is no longer open", nil, err)
	default:
		return middleware.NewAppError(fiber.StatusInternalServerError, response.CodeInternal, response.MessageInternalServerError, nil, err)
	}
}
