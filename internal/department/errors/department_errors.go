package departmenterrors

import (
	"net/http"

	"go-bizops/internal/shared/apperror"
)

var (
	ErrDepartmentNotFound = apperror.New(
		apperror.CodeNotFound,
		"department not found",
		http.StatusNotFound,
	)
	ErrDuplicateName = apperror.New(
		apperror.CodeConflict,
		"a department with this name already exists",
		http.StatusConflict,
	)
)
