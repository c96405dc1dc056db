package model

import "errors"

var (
	// ErrInvalidAddress marks input that is not a hex account address.
	ErrInvalidAddress = errors.New("invalid address")
	// ErrNotFound marks a missing block, contract, or price identifier.
	ErrNotFound = errors.New("not found")
)
