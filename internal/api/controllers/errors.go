package controllers

import (
	"errors"

	"github.com/curaious/taskboard/internal/perrors"
	"github.com/curaious/taskboard/internal/services/access"
	"github.com/curaious/taskboard/internal/services/board"
	"github.com/curaious/taskboard/internal/services/invitation"
	"github.com/curaious/taskboard/internal/services/project"
	"github.com/curaious/taskboard/internal/services/task"
	"github.com/curaious/taskboard/internal/services/user"
)

type errorMapping struct {
	targets []error
	code    perrors.ErrCode
	message string
}

// Mappings with an empty message surface the sentinel text to the client.
var errorMappings = []errorMapping{
	{
		targets: []error{
			access.ErrNotFound, project.ErrProjectNotFound, project.ErrMemberNotFound,
			board.ErrBoardNotFound, task.ErrTaskNotFound, task.ErrCommentNotFound,
			user.ErrUserNotFound, invitation.ErrInvitationNotFound,
		},
		code:    perrors.ErrCodeNotFound,
		message: "Resource not found",
	},
	{
		targets: []error{access.ErrForbidden, access.ErrSelfRoleChange, invitation.ErrEmailMismatch, user.ErrNotAllowed},
		code:    perrors.ErrCodeForbidden,
		message: "Access denied",
	},
	{
		targets: []error{project.ErrAlreadyMember, project.ErrVersionConflict, user.ErrEmailTaken},
		code:    perrors.ErrCodeConflict,
	},
	{
		targets: []error{board.ErrCapacityExceeded},
		code:    perrors.ErrCodeCapacityExceeded,
	},
	{
		targets: []error{user.ErrInvalidCredentials, user.ErrUserInactive},
		code:    perrors.ErrCodeUnauthorized,
		message: "Invalid credentials",
	},
	{
		targets: []error{
			access.ErrOwnerImmutable, access.ErrInactiveIdentity,
			access.ErrCommentsDisabled, access.ErrAssignmentsDisabled, access.ErrAttachmentsDisabled,
			project.ErrInvalidRole, project.ErrNameRequired, project.ErrNameTooLong,
			board.ErrNameRequired, board.ErrNameTooLong, board.ErrInvalidMaxTasks, board.ErrInvalidPosition,
			task.ErrTitleRequired, task.ErrTitleTooLong, task.ErrInvalidPriority, task.ErrInvalidStatus, task.ErrInvalidPosition, task.ErrEmptyComment,
			user.ErrInvalidEmail, user.ErrWeakPassword, user.ErrNameRequired,
			invitation.ErrInvalidEmail,
		},
		code: perrors.ErrCodeInvalidRequest,
	},
}

// toPerror maps service errors onto the API error taxonomy. Errors that are
// already perrors pass through; anything unrecognised is an internal error.
func toPerror(fallback string, err error) error {
	var perr perrors.Err
	if errors.As(err, &perr) {
		return perr
	}

	for _, m := range errorMappings {
		for _, target := range m.targets {
			if !errors.Is(err, target) {
				continue
			}
			msg := m.message
			if msg == "" {
				msg = target.Error()
			}
			if m.code == perrors.ErrCodeForbidden {
				return perrors.NewErrForbidden(err)
			}
			return perrors.New(m.code, msg, err)
		}
	}

	return perrors.NewErrInternalServerError(fallback, err)
}
