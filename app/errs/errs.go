// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

var (
	// ErrMalformedPayload indicates an unparseable or incomplete QR payload.
	// Rejected before any storage access.
	ErrMalformedPayload = errors.New("malformed QR payload")

	// ErrTokenInvalid indicates no matching unexpired token was found.
	ErrTokenInvalid = errors.New("QR code is invalid or has expired")

	// ErrTokenUsed indicates this user already punched with this code.
	ErrTokenUsed = errors.New("QR code already used")

	// ErrAlreadyIn indicates an IN punch while already checked in.
	ErrAlreadyIn = errors.New("already checked in")

	// ErrAlreadyOut indicates an OUT punch while already checked out.
	ErrAlreadyOut = errors.New("already checked out")

	// ErrVersionConflict indicates optimistic concurrency failure on the
	// attendance record (a concurrent punch won the write).
	ErrVersionConflict = errors.New("version conflict")
)
