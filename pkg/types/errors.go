package types

import "errors"

var (
	ErrInvalidTitle    = errors.New("title must be 1-200 characters")
	ErrInvalidNickname = errors.New("nickname must be 1-50 characters")
)
