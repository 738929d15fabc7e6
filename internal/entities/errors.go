package entities

import "errors"

// Error taxonomy surfaced to the interactive layers. Wrap with fmt.Errorf("...: %w", ...)
// and match with errors.Is.
var (
	ErrDuplicateUsername  = errors.New("username already exists")
	ErrAuthenticationFailed = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")

	// ErrQuotaExceeded routes the session to the paywall; it is informational, not fatal.
	ErrQuotaExceeded = errors.New("free quota exhausted")

	ErrPaymentUsernameMismatch = errors.New("payment username does not match session")
	ErrPaymentInvalidCard      = errors.New("invalid card details")
	ErrPaymentNotRequired      = errors.New("payment not required")

	ErrGeocodeNotFound = errors.New("location not found")

	ErrReferenceAmbiguous = errors.New("multiple reference articles match")
	ErrReferenceNotFound  = errors.New("no reference article found")
	ErrReferenceOther     = errors.New("reference lookup failed")

	// ErrUpstream covers language-model and POI failures, which are not retried.
	ErrUpstream = errors.New("upstream service failure")
)
