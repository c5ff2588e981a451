package payrollerrors

import (
	"net/http"

	"go-bizops/internal/shared/apperror"
)

var (
	ErrInvalidMonth = apperror.New(
		apperror.CodeInvalidInput,
		"month must be in YYYY-MM form",
		http.StatusBadRequest,
	)
	ErrInvalidActorID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid actor id",
		http.StatusBadRequest,
	)
	ErrRunNotFound = apperror.New(
		apperror.CodeNotFound,
		"payroll run not found",
		http.StatusNotFound,
	)
	ErrRunAlreadyExists = apperror.New(
		apperror.CodeConflict,
		"a payroll run already exists for this month",
		http.StatusConflict,
	)
)
