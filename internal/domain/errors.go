package domain

import "errors"

var (
	ErrInvalidRequest        = errors.New("invalid booking request")
	ErrInsufficientInventory = errors.New("not enough seats left in fare class")
	ErrSeatConflict          = errors.New("seat is already taken")
	ErrPersistence           = errors.New("persistence failure")
	ErrNotFound              = errors.New("not found")
)
