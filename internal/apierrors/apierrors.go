package apierrors

import "errors"

var (
	ErrNotFound = errors.New("not found")

	// ErrConfiguration indicates the stored organization MFA settings are
	// structurally malformed. Operator-facing, never shown verbatim to users.
	ErrConfiguration = errors.New("invalid MFA organization settings")

	// ErrCredentialMissing indicates a required provider credential is not
	// present in the resolved settings.
	ErrCredentialMissing = errors.New("provider credential missing")

	ErrAlreadySetup    = errors.New("provider already set up for this account")
	ErrAlreadyVerified = errors.New("session already verified")
	ErrNotRequired     = errors.New("multi-factor authentication not required")

	// ErrProviderRejected is returned when the provider declined the submitted
	// response. Intentionally carries no detail about why.
	ErrProviderRejected = errors.New("invalid code or response")
)
