package http_common

import (
	"errors"
	"net/http"

	usecase_room "github.com/coderacer/core/internal/usecase/room"
)

type ErrorResponse struct {
	Message string `json:"message"`
}

// Status maps coordinator failures onto HTTP status codes.
func Status(err error) int {
	switch {
	case errors.Is(err, usecase_room.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, usecase_room.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, usecase_room.ErrConflict),
		errors.Is(err, usecase_room.ErrCapacity):
		return http.StatusConflict
	case errors.Is(err, usecase_room.ErrInvalidState):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func NewErrorResponse(err error) ErrorResponse {
	if Status(err) == http.StatusInternalServerError {
		return ErrorResponse{Message: "internal error"}
	}
	for _, typed := range []error{
		usecase_room.ErrNotFound,
		usecase_room.ErrForbidden,
		usecase_room.ErrConflict,
		usecase_room.ErrCapacity,
		usecase_room.ErrInvalidState,
	} {
		if errors.Is(err, typed) {
			return ErrorResponse{Message: typed.Error()}
		}
	}
	return ErrorResponse{Message: err.Error()}
}
