package response

import "github.com/gofiber/fiber/v3"

// Machine-readable codes surfaced alongside the HTTP status so dispatch
// clients can branch without parsing messages.
const (
	CodeOK               = "OK"
	CodeValidation       = "VALIDATION"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeForbidden        = "FORBIDDEN"
	CodeNotFound         = "NOT_FOUND"
	CodeOfferUnavailable = "OFFER_UNAVAILABLE"
	CodeOfferExpired     = "OFFER_EXPIRED"
	CodeAlreadyMatched   = "ALREADY_MATCHED"
	CodeRaceLost         = "RACE_LOST"
	CodeJobCancelled     = "JOB_CANCELLED"
	CodeInternal         = "INTERNAL"
)

type SemanticResponse struct {
	Status  int         `json:"status"`
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

const (
	MessageOK                  = "ok"
	MessageBadRequest          = "bad request"
	MessageUnauthorized        = "unauthorized"
	MessageForbidden           = "forbidden"
	MessageNotFound            = "not found"
	MessageConflict            = "conflict"
	MessageGone                = "gone"
	MessageInternalServerError = "internal server error"
	MessageError               = "error"
)

func Success(c fiber.Ctx, status int, message string, data interface{}) error {
	st := normalizeStatus(status)
	msg := normalizeMessage(message, st)
	return c.Status(st).JSON(SemanticResponse{Status: st, Code: CodeOK, Message: msg, Data: data})
}

func Error(c fiber.Ctx, status int, code, message string, data interface{}) error {
	st := normalizeStatus(status)
	msg := normalizeMessage(message, st)
	if code == "" {
		code = defaultCodeForStatus(st)
	}
	return c.Status(st).JSON(SemanticResponse{Status: st, Code: code, Message: msg, Data: data})
}

func normalizeStatus(status int) int {
	if status < 100 || status > 599 {
		return fiber.StatusInternalServerError
	}
	return status
}

func normalizeMessage(message string, status int) string {
	if message != "" {
		return message
	}
	return defaultMessageForStatus(status)
}

func defaultMessageForStatus(status int) string {
	switch status {
	case fiber.StatusOK:
		return MessageOK
	case fiber.StatusBadRequest:
		return MessageBadRequest
	case fiber.StatusUnauthorized:
		return MessageUnauthorized
	case fiber.StatusForbidden:
		return MessageForbidden
	case fiber.StatusNotFound:
		return MessageNotFound
	case fiber.StatusConflict:
		return MessageConflict
	case fiber.StatusGone:
		return MessageGone
	default:
		if status >= 500 {
			return MessageInternalServerError
		}
		return MessageError
	}
}

func defaultCodeForStatus(status int) string {
	switch status {
	case fiber.StatusBadRequest:
		return CodeValidation
	case fiber.StatusUnauthorized:
		return CodeUnauthorized
	case fiber.StatusForbidden:
		return CodeForbidden
	case fiber.StatusNotFound:
		return CodeNotFound
	case fiber.StatusGone:
		return CodeOfferExpired
	case fiber.StatusConflict:
		return CodeAlreadyMatched
	default:
		if status >= 500 {
			return CodeInternal
		}
		return CodeValidation
	}
}
