package response

import (
	"errors"
	"net/http"

	domainErrors "github.com/yuzvak/salesboard-service/internal/domain/errors"
)

type ErrorMapping struct {
	Err        error
	HTTPStatus int
	Status     Status
	Message    string
	Retryable  bool
}

// errorMappings is checked in order. ErrDataIntegrity wraps ErrItemNotFound, so it
// must come before the not-found entries.
var errorMappings = []ErrorMapping{
	{
		Err:        domainErrors.ErrDataIntegrity,
		HTTPStatus: http.StatusUnprocessableEntity,
		Status:     StatusUnprocessable,
		Message:    "Cart references an item that no longer exists",
	},
	{
		Err:        domainErrors.ErrCartLineNotFound,
		HTTPStatus: http.StatusNotFound,
		Status:     StatusNotFound,
		Message:    "Cart line not found",
	},
	{
		Err:        domainErrors.ErrItemNotFound,
		HTTPStatus: http.StatusNotFound,
		Status:     StatusNotFound,
		Message:    "Item not found",
	},
	{
		Err:        domainErrors.ErrNotFound,
		HTTPStatus: http.StatusNotFound,
		Status:     StatusNotFound,
		Message:    "Not found",
	},
	{
		Err:        domainErrors.ErrUnauthenticated,
		HTTPStatus: http.StatusUnauthorized,
		Status:     StatusUnauthorized,
		Message:    "Authentication required",
	},
	{
		Err:        domainErrors.ErrCheckoutInProgress,
		HTTPStatus: http.StatusConflict,
		Status:     StatusConflict,
		Message:    "Checkout already in progress for this cart",
		Retryable:  true,
	},
	{
		Err:        domainErrors.ErrConcurrencyConflict,
		HTTPStatus: http.StatusConflict,
		Status:     StatusConflict,
		Message:    "Data was modified concurrently, please retry",
		Retryable:  true,
	},
	{
		Err:        domainErrors.ErrInsufficientStock,
		HTTPStatus: http.StatusConflict,
		Status:     StatusConflict,
		Message:    "Insufficient stock",
	},
	{
		Err:        domainErrors.ErrValidation,
		HTTPStatus: http.StatusBadRequest,
		Status:     StatusValidationError,
		Message:    "Validation failed",
	},
}

func MapDomainError(err error) (int, *ErrorResponse) {
	var ve *domainErrors.ValidationError
	if errors.As(err, &ve) {
		return http.StatusBadRequest, &ErrorResponse{
			Status:  StatusValidationError,
			Message: "Validation failed",
			Errors:  ve.Fields,
			Input:   ve.Input,
		}
	}

	for _, mapping := range errorMappings {
		if errors.Is(err, mapping.Err) {
			resp := Error(mapping.Status, mapping.Message, err.Error())
			resp.Retryable = mapping.Retryable
			return mapping.HTTPStatus, resp
		}
	}

	// Internal details stay in the logs.
	return http.StatusInternalServerError, Error(StatusInternalError, "Internal server error")
}

func WriteDomainError(w http.ResponseWriter, err error) {
	statusCode, errorResponse := MapDomainError(err)
	WriteJSON(w, statusCode, errorResponse)
}
