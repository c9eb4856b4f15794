package data

import "errors"

var (
	ErrNotFound        = errors.New("record not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrMutateDisabled  = errors.New("mutation disabled")
)
