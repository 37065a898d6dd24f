// Package common defines shared constants, sentinel errors and the Selector
// type used across client and server layers of viewkeeper. Callers should use
// errors.Is to match the error values.
package common

import "errors"

var (
	// Store-level errors.
	ErrorNotFound = errors.New("not found")

	// ErrRemoteUnavailable covers transport, auth and 5xx failures of the
	// Counter API or the document store behind it.
	ErrRemoteUnavailable = errors.New("remote unavailable")

	// ErrStorageUnavailable covers local persistence read/write failures.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// Request validation errors.
	ErrorInvalidAction   = errors.New("invalid action")
	ErrorInvalidSelector = errors.New("invalid selector")
)
