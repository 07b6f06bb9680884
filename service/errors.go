package service

import (
	"errors"
)

// Core error taxonomy. Repositories and services wrap these with context via
// fmt.Errorf("...: %w", err); callers test with errors.Is.
var (
	// ErrDuplicateName is returned when creating a point whose name is
	// already taken.
	ErrDuplicateName = errors.New("point name already exists")

	// ErrAlreadyMember is returned by the idempotency guard on member
	// creation for an existing (point, user) pair.
	ErrAlreadyMember = errors.New("user is already a member of this point")

	// ErrMemberNotFound is returned when the referenced member no longer
	// exists, e.g. its point was deleted mid-flow.
	ErrMemberNotFound = errors.New("member not found")

	// ErrPointNotFound is returned for lookups of a deleted or never
	// existing point id.
	ErrPointNotFound = errors.New("point not found")

	// ErrRecipientUnreachable is returned when an approval prompt cannot
	// be delivered to the point owner.
	ErrRecipientUnreachable = errors.New("recipient unreachable")

	// ErrInvalidInput is returned for conversational input that is not a
	// non-negative whole number. It never reaches the ledger.
	ErrInvalidInput = errors.New("input must be a non-negative whole number")

	// ErrNotAdmin is returned when a non-administrative identity invokes
	// an administrative operation.
	ErrNotAdmin = errors.New("administrative access required")
)
