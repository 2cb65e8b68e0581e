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

type OfferHandler struct {
	accept    usecase.OfferAcceptUsecase
	lifecycle usecase.OfferLifecycleUsecase
}

func NewOfferHandler(accept usecase.OfferAcceptUsecase, lifecycle usecase.OfferLifecycleUsecase) *OfferHandler {
	return &OfferHandler{accept: accept, lifecycle: lifecycle}
}

func (h *OfferHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Post("/:offer_id/accept", h.Accept)
	r.Post("/:offer_id/viewed", h.MarkViewed)
	r.Post("/:offer_id/decline", h.Decline)
}

func (h *OfferHandler) Accept(c fiber.Ctx) error {
	escortID, offerID, appErr := h.offerCallContext(c)
	if appErr != nil {
		return appErr
	}

	res, err := h.accept.Accept(c.Context(), escortID, offerID)
	if err != nil {
		return mapOfferError(err)
	}

	return response.Success(c, fiber.StatusOK, "Job booked", dto.AcceptOfferResponse{
		MatchID:    res.MatchID,
		JobID:      res.JobID,
		AcceptedAt: res.AcceptedAt,
	})
}

func (h *OfferHandler) MarkViewed(c fiber.Ctx) error {
	escortID, offerID, appErr := h.offerCallContext(c)
	if appErr != nil {
		return appErr
	}

	if err := h.lifecycle.MarkViewed(c.Context(), escortID, offerID); err != nil {
		return mapOfferError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, nil)
}

func (h *OfferHandler) Decline(c fiber.Ctx) error {
	escortID, offerID, appErr := h.offerCallContext(c)
	if appErr != nil {
		return appErr
	}

	if err := h.lifecycle.Decline(c.Context(), escortID, offerID); err != nil {
		return mapOfferError(err)
	}
	return response.Success(c, fiber.StatusOK, response.MessageOK, nil)
}

func (h *OfferHandler) offerCallContext(c fiber.Ctx) (uuid.UUID, uuid.UUID, error) {
	escortID, ok := c.Locals(middleware.CtxAccountIDKey).(uuid.UUID)
	if !ok {
		return uuid.Nil, uuid.Nil, middleware.NewAppError(fiber.StatusUnauthorized, response.CodeUnauthorized, "Unauthorized", nil, nil)
	}
	offerID, err := uuid.Parse(c.Params("offer_id"))
	if err != nil {
		return uuid.Nil, uuid.Nil, middleware.NewAppError(fiber.StatusBadRequest, response.CodeValidation, "Invalid offer id", nil, err)
	}
	return escortID, offerID, nil
}

func mapOfferError(err error) error {
	var unavailable *usecase.OfferUnavailableError
	var already *usecase.AlreadyMatchedError

	switch {
	case errors.Is(err, usecase.ErrUnauthorized):
		return middleware.NewAppError(fiber.StatusUnauthorized, response.CodeUnauthorized, "Unauthorized", nil, err)
	case errors.Is(err, usecase.ErrOfferForbidden):
		return middleware.NewAppError(fiber.StatusForbidden, response.CodeForbidden, "Offer belongs to another operator", nil, err)
	case errors.Is(err, usecase.ErrOfferNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, response.CodeNotFound, "Offer not found", nil, err)
	case errors.Is(err, usecase.ErrJobNotFound):
		return middleware.NewAppError(fiber.StatusNotFound, response.CodeNotFound, "Job not found", nil, err)
	case errors.Is(err, usecase.ErrOfferExpired):
		return middleware.NewAppError(fiber.StatusGone, response.CodeOfferExpired, "Offer expired", nil, err)
	case errors.Is(err, usecase.ErrJobCancelled):
		return middleware.NewAppError(fiber.StatusConflict, response.CodeJobCancelled, "Job was cancelled", nil, err)
	case errors.Is(err, usecase.ErrRaceLost):
		return middleware.NewAppError(fiber.StatusConflict, response.CodeRaceLost, "Job was just booked by another escort", nil, err)
	case errors.As(err, &already):
		msg := "Job already matched"
		if already.BySelf {
			msg = "You already booked this job"
		}
		return middleware.NewAppError(fiber.StatusConflict, response.CodeAlreadyMatched, msg,
			map[string]any{"matched_by_self": already.BySelf}, err)
	case errors.As(err, &unavailable):
		return middleware.NewAppError(fiber.StatusConflict, response.CodeOfferUnavailable, "Offer is "+string(unavailable.Status),
			map[string]any{"offer_status": string(unavailable.Status)}, err)
	default:
		return middleware.NewAppError(fiber.StatusInternalServerError, response.CodeInternal, response.MessageInternalServerError, nil, err)
	}
}
