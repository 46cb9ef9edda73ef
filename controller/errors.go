package controller

import "errors"

var (
	ErrInvalidConfig = errors.New("controller: invalid config")
	ErrNilBody       = errors.New("controller: motion primitive is nil")
)
