package client

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrSessionInitiation  = errors.New("session initiation failed")
	ErrChunkUpload        = errors.New("chunk upload failed")
	ErrNetwork            = errors.New("network error")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrPreconditionFailed = errors.New("precondition failed")
)

// StatusError carries the http status and the server's structured error
// message, retrievable through errors.As.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if len(e.Message) == 0 {
		return fmt.Sprintf("server error, code:%d", e.StatusCode)
	}
	return fmt.Sprintf("server error, code:%d, msg:%s", e.StatusCode, e.Message)
}

func sentinelForStatus(code int) error {
	switch code {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrConflict
	case http.StatusPreconditionFailed:
		return ErrPreconditionFailed
	}
	return nil
}

func wrapStatusError(code int, msg string) error {
	serr := &StatusError{StatusCode: code, Message: msg}
	if sentinel := sentinelForStatus(code); sentinel != nil {
		return fmt.Errorf("%w: %w", sentinel, serr)
	}
	return serr
}
