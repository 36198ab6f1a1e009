package services

import "errors"

var (
	ErrValidation          = errors.New("validation failed")
	ErrNameConflict        = errors.New("category already exists")
	ErrNotFound            = errors.New("expense not found")
	ErrCategoryNotFound    = errors.New("category not found")
	ErrConflict            = errors.New("expense was modified concurrently")
	ErrReferentialConflict = errors.New("category is still referenced by expenses")
)
