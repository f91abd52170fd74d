package models

import "errors"

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrDetection    = errors.New("detection failed")
	ErrStorage      = errors.New("storage failure")
	ErrNotFound     = errors.New("result not found")
)
