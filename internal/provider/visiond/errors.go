package visiond

import "errors"

var (
	ErrVisiondUnavailable = errors.New("visiond service unavailable")
	ErrInvalidResponse    = errors.New("invalid response from visiond")
)
