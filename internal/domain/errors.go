package domain

import "errors"

var (
	ErrInvalidRole = errors.New("invalid message role")
	ErrEmptyQuery  = errors.New("query is empty")
)
