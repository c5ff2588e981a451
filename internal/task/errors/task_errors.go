package taskerrors

import (
	"net/http"

	"go-bizops/internal/shared/apperror"
)

var (
	ErrInvalidTaskID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid task id",
		http.StatusBadRequest,
	)
	ErrInvalidActorID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid actor id",
		http.StatusBadRequest,
	)
	ErrTaskNotFound = apperror.New(
		apperror.CodeNotFound,
		"task not found",
		http.StatusNotFound,
	)
	ErrInvalidStatusTransition = apperror.New(
		apperror.CodeInvalidState,
		"status change not allowed from the current status",
		http.StatusBadRequest,
	)
	ErrConcurrentUpdate = apperror.New(
		apperror.CodeConflict,
		"task was modified concurrently, retry",
		http.StatusConflict,
	)
)
