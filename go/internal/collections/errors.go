package collections

import "errors"

var (
	ErrNotFound       = errors.New("item not found")
	ErrMissingKey     = errors.New("record is missing its key field")
	ErrInvalidName    = errors.New("user name is required")
	ErrNameTaken      = errors.New("user name already belongs to another user")
	ErrInvalidUser    = errors.New("user record has invalid fields")
	ErrCategoryLocked = errors.New("category is locked")
)
