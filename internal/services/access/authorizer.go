package access

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/curaious/taskboard/internal/services/board"
	"github.com/curaious/taskboard/internal/services/project"
	"github.com/curaious/taskboard/internal/services/task"
	"github.com/curaious/taskboard/internal/services/user"
)

// Authorizer resolves a resource to its owning project and applies the
// membership policy. Boards and tasks are always judged by the project
// stored on the record, never by anything the caller sent.
type Authorizer struct {
	users    *user.UserService
	projects *project.ProjectService
	boards   *board.BoardService
	tasks    *task.TaskService
	conceal  bool
}

func NewAuthorizer(users *user.UserService, projects *project.ProjectService, boards *board.BoardService, tasks *task.TaskService, conceal bool) *Authorizer {
	return &Authorizer{users: users, projects: projects, boards: boards, tasks: tasks, conceal: conceal}
}

// Caller loads the identity behind a token. A deactivated or deleted
// identity is forbidden everywhere, whatever memberships it still holds.
func (a *Authorizer) Caller(ctx context.Context, caller uuid.UUID) (*user.User, error) {
	u, err := a.users.GetActive(ctx, caller)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) || errors.Is(err, user.ErrUserInactive) {
			return nil, ErrForbidden
		}
		return nil, err
	}
	return u, nil
}

// Project loads projectID and checks that caller holds at least need.
// TierViewer is satisfied by public projects as well.
func (a *Authorizer) Project(ctx context.Context, caller, projectID uuid.UUID, need project.Tier) (*project.Project, error) {
	if _, err := a.Caller(ctx, caller); err != nil {
		return nil, err
	}
	return a.project(ctx, caller, projectID, need)
}

func (a *Authorizer) project(ctx context.Context, caller, projectID uuid.UUID, need project.Tier) (*project.Project, error) {
	p, err := a.projects.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, project.ErrProjectNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if p.IsArchived {
		return nil, ErrNotFound
	}
	if err := a.check(p, caller, need); err != nil {
		return nil, err
	}
	return p, nil
}

func (a *Authorizer) check(p *project.Project, caller uuid.UUID, need project.Tier) error {
	if need <= project.TierViewer && p.CanRead(caller) {
		return nil
	}
	if p.RoleOf(caller).AtLeast(need) {
		return nil
	}
	if a.conceal && !p.CanRead(caller) {
		return ErrNotFound
	}
	return ErrForbidden
}

// Board resolves boardID through its stored project.
func (a *Authorizer) Board(ctx context.Context, caller, boardID uuid.UUID, need project.Tier) (*board.Board, *project.Project, error) {
	if _, err := a.Caller(ctx, caller); err != nil {
		return nil, nil, err
	}
	return a.board(ctx, caller, boardID, need)
}

func (a *Authorizer) board(ctx context.Context, caller, boardID uuid.UUID, need project.Tier) (*board.Board, *project.Project, error) {
	b, err := a.boards.GetByID(ctx, boardID)
	if err != nil {
		if errors.Is(err, board.ErrBoardNotFound) {
			return nil, nil, ErrNotFound
		}
		return nil, nil, err
	}
	p, err := a.project(ctx, caller, b.ProjectID, need)
	if err != nil {
		return nil, nil, err
	}
	return b, p, nil
}

// Task resolves taskID two hops up: task, then board, then project.
func (a *Authorizer) Task(ctx context.Context, caller, taskID uuid.UUID, need project.Tier) (*task.Task, *board.Board, *project.Project, error) {
	if _, err := a.Caller(ctx, caller); err != nil {
		return nil, nil, nil, err
	}
	t, err := a.tasks.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, task.ErrTaskNotFound) {
			return nil, nil, nil, ErrNotFound
		}
		return nil, nil, nil, err
	}
	b, p, err := a.board(ctx, caller, t.BoardID, need)
	if err != nil {
		return nil, nil, nil, err
	}
	return t, b, p, nil
}
