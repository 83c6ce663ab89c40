package services

import "errors"

// ErrInvalidInput marks requests rejected before any collaborator is called.
var ErrInvalidInput = errors.New("invalid input")
