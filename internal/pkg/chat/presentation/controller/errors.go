package controller

import (
	"errors"
	"net/http"

	chat "tradechat/internal/pkg/chat/application/domain"
	"tradechat/internal/pkg/chat/application/usecase"
)

// statusFor maps use-case errors onto HTTP statuses. Validation and
// authorization failures surface directly; persistence failures (already
// retried where the operation allows it) become a 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, chat.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, chat.ErrNotParticipant):
		return http.StatusForbidden
	case errors.Is(err, usecase.ErrPersistence):
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}
