package model

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrFileTooLarge matches a StatusError with status 409, which providers use
// for files too large to diff.
var ErrFileTooLarge = errors.New("file too large")

// StatusError is a provider failure with an HTTP-like status.
type StatusError struct {
	Status int
	Text   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%d %s", e.Status, e.Text)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrFileTooLarge && e.Status == http.StatusConflict
}
