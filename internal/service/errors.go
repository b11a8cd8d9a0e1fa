package service

import "errors"

var (
	// ErrMissingFields is returned when method, amount or order items are absent.
	ErrMissingFields = errors.New("missing required fields")

	// ErrMissingCustomer is returned when neither a phone number nor a group ID is given.
	ErrMissingCustomer = errors.New("either phone number or group ID is required")

	// ErrMissingReference is returned when a status check has no reference.
	ErrMissingReference = errors.New("missing transaction reference")

	// ErrTransactionNotFound is returned when the gateway does not know a reference.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrInvalidSignature is returned when a callback signature does not match.
	ErrInvalidSignature = errors.New("invalid signature")

	// ErrInvalidCallbackPayload is returned when a signed callback body is not JSON.
	ErrInvalidCallbackPayload = errors.New("invalid JSON payload")

	// ErrMissingIdentifier is returned when a lookup has no phone number or group ID.
	ErrMissingIdentifier = errors.New("missing identifier")

	// ErrInvalidCustomerType is returned when a lookup type is neither user nor group.
	ErrInvalidCustomerType = errors.New("invalid identifier type")

	// ErrUserNotFound is returned when a phone number is not a bot user.
	ErrUserNotFound = errors.New("user not found")

	// ErrGroupNotFound is returned when a group ID is not a bot group.
	ErrGroupNotFound = errors.New("group not found")

	// ErrDatabaseUnavailable is returned by operations that need the server-side store when none is configured.
	ErrDatabaseUnavailable = errors.New("database not available")
)
