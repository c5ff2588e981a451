package inventoryerrors

import (
	"net/http"

	"go-bizops/internal/shared/apperror"
)

var (
	ErrInvalidItemID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid inventory item id",
		http.StatusBadRequest,
	)
	ErrItemNotFound = apperror.New(
		apperror.CodeNotFound,
		"inventory item not found",
		http.StatusNotFound,
	)
	ErrDuplicateItemCode = apperror.New(
		apperror.CodeConflict,
		"item code already exists",
		http.StatusConflict,
	)
	ErrZeroDelta = apperror.New(
		apperror.CodeInvalidInput,
		"adjustment delta must be non-zero",
		http.StatusBadRequest,
	)
)
