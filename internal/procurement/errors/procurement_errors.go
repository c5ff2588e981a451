package procurementerrors

import (
	"net/http"

	"go-bizops/internal/shared/apperror"
)

var (
	ErrInvalidOrderID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid purchase order id",
		http.StatusBadRequest,
	)
	ErrInvalidActorID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid actor id",
		http.StatusBadRequest,
	)
	ErrInvalidUnitCost = apperror.New(
		apperror.CodeInvalidInput,
		"unit cost must be a non-negative decimal",
		http.StatusBadRequest,
	)
	ErrOrderNotFound = apperror.New(
		apperror.CodeNotFound,
		"purchase order not found",
		http.StatusNotFound,
	)
	ErrInvalidStatusTransition = apperror.New(
		apperror.CodeInvalidState,
		"action not allowed from the current status",
		http.StatusBadRequest,
	)
	ErrConcurrentUpdate = apperror.New(
		apperror.CodeConflict,
		"purchase order was modified concurrently, retry",
		http.StatusConflict,
	)
	ErrRejectionReasonRequired = apperror.New(
		apperror.CodeInvalidInput,
		"reason is required when rejecting",
		http.StatusBadRequest,
	)
)
