package port

import "errors"

// Sentinel errors used across ports.
var (
	ErrNoFaceDetected       = errors.New("no face detected")
	ErrDuplicateIdentity    = errors.New("cedula or email already registered")
	ErrNoUsableFace         = errors.New("no clear face found in the enrollment images")
	ErrNoActiveSession      = errors.New("no active session")
	ErrAssistantUnavailable = errors.New("assistant model is not configured")
	ErrUpstream             = errors.New("upstream service error")
	ErrNoDocument           = errors.New("identity has no RUT document")
	ErrInvalidField         = errors.New("invalid form field")
	ErrFieldNotFound        = errors.New("form field not found in document")
	ErrStorage              = errors.New("storage error")
	ErrIdentityNotFound     = errors.New("identity not found")
	ErrInvalidImage         = errors.New("invalid image payload")
	ErrInvalidRating        = errors.New("rating must be between 1 and 5")
)
