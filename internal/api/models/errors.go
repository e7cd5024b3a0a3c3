package models

import (
	"net/http"

	"github.com/pkg/errors"

	"github.com/PxPatel/clob-exchange/internal/matching"
	"github.com/PxPatel/clob-exchange/internal/settlement"
)

// ErrorCode represents standard error codes. Engine failures use the
// engine's own code names.
type ErrorCode string

const (
	ErrInvalidRequest   ErrorCode = "INVALID_REQUEST"
	ErrInvalidOrderType ErrorCode = "INVALID_ORDER_TYPE"
	ErrInvalidSide      ErrorCode = "INVALID_SIDE"
	ErrInvalidPrice     ErrorCode = "INVALID_PRICE"
	ErrInvalidQuantity  ErrorCode = "INVALID_QUANTITY"
	ErrMissingPrice     ErrorCode = "MISSING_PRICE"
	ErrOrderNotFound    ErrorCode = "ORDER_NOT_FOUND"
	ErrMissingCaller    ErrorCode = "MISSING_CALLER"
	ErrInvalidAmount    ErrorCode = "INVALID_AMOUNT"
	ErrAssetLocked      ErrorCode = "ASSET_LOCKED"
	ErrInternalError    ErrorCode = "INTERNAL_ERROR"
)

// APIError represents a structured error response
type APIError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// HTTPError wraps an APIError with an HTTP status code
type HTTPError struct {
	StatusCode int
	Error      APIError
}

// NewHTTPError creates a new HTTP error
func NewHTTPError(statusCode int, code ErrorCode, message string, details map[string]interface{}) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Error: APIError{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

// Common error constructors

func ErrBadRequest(message string, details map[string]interface{}) *HTTPError {
	return NewHTTPError(http.StatusBadRequest, ErrInvalidRequest, message, details)
}

func ErrInvalidOrderTypeError(providedType string) *HTTPError {
	return NewHTTPError(http.StatusBadRequest, ErrInvalidOrderType,
		"Invalid order type, must be 'market' or 'limit'",
		map[string]interface{}{"provided_value": providedType})
}

func ErrInvalidSideError(providedSide string) *HTTPError {
	return NewHTTPError(http.StatusBadRequest, ErrInvalidSide,
		"Invalid side, must be 'buy' or 'sell'",
		map[string]interface{}{"provided_value": providedSide})
}

func ErrInvalidPriceError(price string) *HTTPError {
	return NewHTTPError(http.StatusBadRequest, ErrInvalidPrice,
		"Price must be greater than 0 for limit orders",
		map[string]interface{}{"field": "price", "provided_value": price})
}

func ErrInvalidQuantityError(quantity string) *HTTPError {
	return NewHTTPError(http.StatusBadRequest, ErrInvalidQuantity,
		"Quantity must be positive",
		map[string]interface{}{"field": "quantity", "provided_value": quantity})
}

func ErrMissingPriceError() *HTTPError {
	return NewHTTPError(http.StatusUnprocessableEntity, ErrMissingPrice,
		"Price is required for limit orders", nil)
}

func ErrOrderNotFoundError(orderID uint64) *HTTPError {
	return NewHTTPError(http.StatusNotFound, ErrOrderNotFound,
		"Order not found",
		map[string]interface{}{"order_id": orderID})
}

func ErrMissingCallerError() *HTTPError {
	return NewHTTPError(http.StatusUnauthorized, ErrMissingCaller,
		"Admin calls require the "+CallerHeader+" header", nil)
}

func ErrInternal(message string) *HTTPError {
	return NewHTTPError(http.StatusInternalServerError, ErrInternalError, message, nil)
}

var categoryStatus = map[matching.Category]int{
	matching.CategoryValidation:    http.StatusBadRequest,
	matching.CategoryStateMachine:  http.StatusConflict,
	matching.CategoryNotFound:      http.StatusNotFound,
	matching.CategoryAuthorization: http.StatusForbidden,
	matching.CategoryFunding:       http.StatusUnprocessableEntity,
	matching.CategoryInternal:      http.StatusInternalServerError,
}

// FromError maps an exchange or ledger error onto the HTTP error returned
// to clients. The message keeps the wrapped detail.
func FromError(err error) *HTTPError {
	var code matching.ErrorCode
	switch {
	case errors.As(err, &code):
		status, ok := categoryStatus[code.Category()]
		if !ok {
			status = http.StatusInternalServerError
		}
		return NewHTTPError(status, ErrorCode(code.Name()), err.Error(),
			map[string]interface{}{"category": code.Category().String()})
	case errors.Is(err, settlement.ErrInvalidAmount):
		return NewHTTPError(http.StatusBadRequest, ErrInvalidAmount, err.Error(), nil)
	case errors.Is(err, settlement.ErrWithdrawBlocked), errors.Is(err, settlement.ErrTransferBlocked):
		return NewHTTPError(http.StatusConflict, ErrAssetLocked, err.Error(), nil)
	}
	return ErrInternal(err.Error())
}
