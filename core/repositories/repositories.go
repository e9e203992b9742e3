// Package repositories holds what the entity repositories share.
package repositories

import (
	"errors"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrAlreadyExists = errors.New("record already exists")
)
