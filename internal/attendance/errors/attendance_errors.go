package attendanceerrors

import (
	"net/http"

	"go-bizops/internal/shared/apperror"
)

var (
	ErrInvalidEmployeeID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid employee id",
		http.StatusBadRequest,
	)
	ErrAlreadyClockedIn = apperror.New(
		apperror.CodeConflict,
		"already clocked in for today",
		http.StatusConflict,
	)
	ErrNotClockedIn = apperror.New(
		apperror.CodeNotFound,
		"clock in not found for today",
		http.StatusNotFound,
	)
	ErrAlreadyClockedOut = apperror.New(
		apperror.CodeConflict,
		"already clocked out for today",
		http.StatusConflict,
	)
)
