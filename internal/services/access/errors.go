package access

import "errors"

var (
	// ErrNotFound covers missing resources, archived projects and, when
	// concealment is on, private projects the caller cannot read.
	ErrNotFound = errors.New("resource not found")
	// ErrForbidden never carries the tier that was missing.
	ErrForbidden = errors.New("access denied")

	ErrSelfRoleChange      = errors.New("members cannot change their own role")
	ErrOwnerImmutable      = errors.New("the project owner cannot be removed or given a role")
	ErrCommentsDisabled    = errors.New("comments are disabled on this board")
	ErrAssignmentsDisabled = errors.New("assignments are disabled on this board")
	ErrAttachmentsDisabled = errors.New("attachments are disabled on this board")
	ErrInactiveIdentity    = errors.New("identity is deactivated")
)
