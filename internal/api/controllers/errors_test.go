package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curaious/taskboard/internal/perrors"
	"github.com/curaious/taskboard/internal/services/access"
	"github.com/curaious/taskboard/internal/services/board"
	"github.com/curaious/taskboard/internal/services/project"
	"github.com/curaious/taskboard/internal/services/task"
	"github.com/curaious/taskboard/internal/services/user"
)

func TestToPerror(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"not found", access.ErrNotFound, http.StatusNotFound, "Resource not found"},
		{"wrapped not found", fmt.Errorf("get task: %w", task.ErrTaskNotFound), http.StatusNotFound, "Resource not found"},
		{"forbidden", access.ErrForbidden, http.StatusForbidden, "Access denied"},
		{"self role change", access.ErrSelfRoleChange, http.StatusForbidden, "Access denied"},
		{"version conflict", project.ErrVersionConflict, http.StatusConflict, project.ErrVersionConflict.Error()},
		{"already member", project.ErrAlreadyMember, http.StatusConflict, project.ErrAlreadyMember.Error()},
		{"capacity", board.ErrCapacityExceeded, http.StatusUnprocessableEntity, board.ErrCapacityExceeded.Error()},
		{"inactive login", user.ErrUserInactive, http.StatusUnauthorized, "Invalid credentials"},
		{"owner immutable", access.ErrOwnerImmutable, http.StatusBadRequest, access.ErrOwnerImmutable.Error()},
		{"wrapped validation", fmt.Errorf("create: %w", task.ErrTitleRequired), http.StatusBadRequest, task.ErrTitleRequired.Error()},
		{"project name too long", project.ErrNameTooLong, http.StatusBadRequest, project.ErrNameTooLong.Error()},
		{"board name too long", fmt.Errorf("update: %w", board.ErrNameTooLong), http.StatusBadRequest, board.ErrNameTooLong.Error()},
		{"task title too long", task.ErrTitleTooLong, http.StatusBadRequest, task.ErrTitleTooLong.Error()},
		{"comments disabled", access.ErrCommentsDisabled, http.StatusBadRequest, access.ErrCommentsDisabled.Error()},
		{"unknown", errors.New("connection refused"), http.StatusInternalServerError, "fallback"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := toPerror("fallback", tt.err)

			var perr perrors.Err
			require.True(t, errors.As(got, &perr))
			assert.Equal(t, tt.status, perr.HttpStatus())
			assert.Equal(t, tt.message, perr.Error())
		})
	}
}

func TestToPerror_PassesThroughPerrors(t *testing.T) {
	in := perrors.NewErrInvalidRequest("Invalid request body", errors.New("unexpected EOF"))

	got := toPerror("fallback", in)

	assert.Equal(t, in, got)
}

func TestToPerror_CauseIsNotExposed(t *testing.T) {
	got := toPerror("Failed to list projects", errors.New("pq: password authentication failed"))

	var perr perrors.Err
	require.True(t, errors.As(got, &perr))
	assert.Equal(t, "Failed to list projects", perr.Err)
	assert.Empty(t, perr.Args)
	assert.Contains(t, perr.Cause, "password authentication failed")
}
