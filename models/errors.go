package models

import "errors"

var (
	ErrInvalidTransition = errors.New("status transition not allowed")
	ErrNotModifiable     = errors.New("resource can no longer be modified")
	ErrAlreadyReviewed   = errors.New("target already reviewed by this user")
)
