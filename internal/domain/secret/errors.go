package secret

import "errors"

var (
	// ErrTenantNotFound indicates the tenant doesn't exist.
	ErrTenantNotFound = errors.New("tenant not found")
	// ErrProjectNotFound indicates the project doesn't exist.
	ErrProjectNotFound = errors.New("project not found")
	// ErrAnimaNotFound indicates the secret doesn't exist.
	ErrAnimaNotFound = errors.New("anima not found")
	// ErrInvalidEnvironment indicates an environment value outside the closed set.
	ErrInvalidEnvironment = errors.New("invalid environment")
	// ErrInvalidInput indicates invalid creation or update input.
	ErrInvalidInput = errors.New("invalid input")
	// ErrDataIntegrity indicates stored data that no longer parses against the
	// domain model. Fatal, never recovered at this layer.
	ErrDataIntegrity = errors.New("data integrity violation")
)
