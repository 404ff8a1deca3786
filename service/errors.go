package service

import "errors"

// Failures surfaced to callers. Every operation checks its preconditions
// before mutating anything and wraps one of these with context, so callers
// match with errors.Is and may show the message verbatim.
var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrEventNotOpen      = errors.New("event is not open")
	ErrDuplicateEntry    = errors.New("user already has an entry")
	ErrOfferNotOpen      = errors.New("offer is not open")
	ErrSelfMatch         = errors.New("cannot match your own offer")
	ErrBelowMinimumMatch = errors.New("match stake is below the offer minimum")
	ErrNotAuthorized     = errors.New("not authorized")
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrAlreadySettled    = errors.New("event already settled")
	ErrNotFound          = errors.New("not found")

	ErrInvalidStake   = errors.New("invalid stake")
	ErrInvalidOutcome = errors.New("invalid outcome")
	ErrEventFull      = errors.New("event is full")
	ErrUsernameTaken  = errors.New("username already taken")
	ErrInvalidInput   = errors.New("invalid input")
)

// ErrUniqueViolation is returned by repositories when an insert collides
// with a unique index. Services translate it into a domain error.
var ErrUniqueViolation = errors.New("unique constraint violation")
