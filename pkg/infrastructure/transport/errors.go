package transport

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"novacart/pkg/domain/model"
	"novacart/pkg/domain/service"
)

// badRequest marks malformed input detected by a handler before any service call.
type badRequest string

func (e badRequest) Error() string { return string(e) }

type messageResponse struct {
	Message string `json:"message"`
}

var (
	notFoundErrors = []error{
		model.ErrProductNotFound,
		model.ErrOrderNotFound,
		model.ErrNotificationNotFound,
		model.ErrUserNotFound,
	}
	validationErrors = []error{
		model.ErrEmptyCart,
		model.ErrInvalidQuantity,
		model.ErrInvalidOrderStatus,
		model.ErrInvalidProduct,
		model.ErrInsufficientStock,
		model.ErrInvalidTransition,
		service.ErrPasswordTooShort,
		service.ErrInvalidUser,
	}
	conflictErrors = []error{
		model.ErrOrderStatusConflict,
		model.ErrEmailTaken,
	}
)

func statusFor(err error) int {
	var authErr *model.AuthError
	if errors.As(err, &authErr) {
		if authErr.Kind == model.AuthForbidden {
			return http.StatusForbidden
		}
		return http.StatusUnauthorized
	}
	var reqErr badRequest
	if errors.As(err, &reqErr) {
		return http.StatusBadRequest
	}
	if errors.Is(err, model.ErrInvalidCredentials) {
		return http.StatusUnauthorized
	}
	if matchesAny(err, notFoundErrors) {
		return http.StatusNotFound
	}
	if matchesAny(err, validationErrors) {
		return http.StatusBadRequest
	}
	if matchesAny(err, conflictErrors) {
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func matchesAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func messageFor(err error) string {
	var authErr *model.AuthError
	if errors.As(err, &authErr) {
		switch authErr.Kind {
		case model.AuthForbidden:
			return "admin access required"
		case model.AuthInvalid:
			return "invalid or expired session"
		default:
			return "authentication required"
		}
	}
	return err.Error()
}

func (s *server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	message := messageFor(err)
	if status == http.StatusInternalServerError {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"method": r.Method,
			"url":    r.URL.String(),
		}).Error("request failed")
		message = "internal server error"
	}
	s.writeJSON(w, status, messageResponse{Message: message})
}

func (s *server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.WithError(err).Error("write response")
	}
}

func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return badRequest("invalid JSON body")
	}
	return nil
}
