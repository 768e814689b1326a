// Package sentinel defines the infrastructure-level error facts shared by the
// stores. Stores return these (optionally wrapped); services translate them
// into coded domain errors at the boundary. Validation failures never use
// sentinels, they go straight to pkg/domain-errors.
package sentinel

import "errors"

var (
	// ErrNotFound: the record does not exist in the store.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyUsed: a unique value (email, registration number) is taken.
	ErrAlreadyUsed = errors.New("already used")
	// ErrExpired: a TTL-bound token is unknown or past its deadline.
	ErrExpired = errors.New("expired")
)
