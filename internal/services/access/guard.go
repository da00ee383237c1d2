package access

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/curaious/taskboard/internal/pubsub"
	"github.com/curaious/taskboard/internal/services/activity"
	"github.com/curaious/taskboard/internal/services/board"
	"github.com/curaious/taskboard/internal/services/invitation"
	"github.com/curaious/taskboard/internal/services/project"
	"github.com/curaious/taskboard/internal/services/task"
	"github.com/curaious/taskboard/internal/services/user"
)

var tracer = otel.Tracer("Guard")

const acceptAttempts = 3

// Publisher is informed after a guarded write succeeds.
type Publisher interface {
	Publish(ctx context.Context, event pubsub.Event) error
}

// ActivityReader serves a project's activity feed.
type ActivityReader interface {
	ListForProject(ctx context.Context, projectID uuid.UUID, limit int) ([]activity.Entry, error)
}

// Guard is the only way the HTTP layer reaches the trusted services. Every
// method authorizes once, before its first write, and publishes an event
// after the write succeeds.
type Guard struct {
	authz       *Authorizer
	projects    *project.ProjectService
	boards      *board.BoardService
	tasks       *task.TaskService
	users       *user.UserService
	invitations *invitation.InvitationService
	publisher   Publisher
	activity    ActivityReader
	now         func() time.Time
}

type GuardOptions struct {
	Authorizer  *Authorizer
	Projects    *project.ProjectService
	Boards      *board.BoardService
	Tasks       *task.TaskService
	Users       *user.UserService
	Invitations *invitation.InvitationService
	// Publisher and Activity are optional
	Publisher Publisher
	Activity  ActivityReader
}

func NewGuard(opts GuardOptions) *Guard {
	return &Guard{
		authz:       opts.Authorizer,
		projects:    opts.Projects,
		boards:      opts.Boards,
		tasks:       opts.Tasks,
		users:       opts.Users,
		invitations: opts.Invitations,
		publisher:   opts.Publisher,
		activity:    opts.Activity,
		now:         time.Now,
	}
}

func (g *Guard) start(ctx context.Context, name string, caller uuid.UUID) (context.Context, trace.Span) {
	ctx, span := tracer.Start(ctx, "Guard."+name)
	span.SetAttributes(attribute.String("caller.id", caller.String()))
	return ctx, span
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (g *Guard) publish(ctx context.Context, typ pubsub.EventType, projectID, resourceID, actorID uuid.UUID) {
	if g.publisher == nil {
		return
	}
	err := g.publisher.Publish(ctx, pubsub.Event{
		Type:       typ,
		ProjectID:  projectID,
		ResourceID: resourceID,
		ActorID:    actorID,
		At:         g.now().UTC(),
	})
	if err != nil {
		slog.WarnContext(ctx, "Failed to publish event", slog.String("type", string(typ)), slog.Any("error", err))
	}
}

// Projects

func (g *Guard) CreateProject(ctx context.Context, caller uuid.UUID, req *project.CreateProjectRequest) (_ *project.Project, err error) {
	ctx, span := g.start(ctx, "CreateProject", caller)
	defer func() { endSpan(span, err) }()

	if _, err := g.authz.Caller(ctx, caller); err != nil {
		return nil, err
	}
	p, err := g.projects.Create(ctx, caller, req)
	if err != nil {
		return nil, err
	}
	g.publish(ctx, pubsub.EventProjectCreated, p.ID, p.ID, caller)
	return p, nil
}

func (g *Guard) ListProjects(ctx context.Context, caller uuid.UUID) (_ []*project.Project, err error) {
	ctx, span := g.start(ctx, "ListProjects", caller)
	defer func() { endSpan(span, err) }()

	if _, err := g.authz.Caller(ctx, caller); err != nil {
		return nil, err
	}
	return g.projects.ListForUser(ctx, caller)
}

func (g *Guard) GetProject(ctx context.Context, caller, projectID uuid.UUID) (_ *project.Project, err error) {
	ctx, span := g.start(ctx, "GetProject", caller)
	defer func() { endSpan(span, err) }()

	return g.authz.Project(ctx, caller, projectID, project.TierViewer)
}

func (g *Guard) UpdateProject(ctx context.Context, caller, projectID uuid.UUID, req *project.UpdateProjectRequest) (_ *project.Project, err error) {
	ctx, span := g.start(ctx, "UpdateProject", caller)
	defer func() { endSpan(span, err) }()

	if _, err := g.authz.Project(ctx, caller, projectID, project.TierAdmin); err != nil {
		return nil, err
	}
	p, err := g.projects.Update(ctx, projectID, req)
	if err != nil {
		if errors.Is(err, project.ErrProjectNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	g.publish(ctx, pubsub.EventProjectUpdated, p.ID, p.ID, caller)
	return p, nil
}

// ArchiveProject is one-way; afterwards the project behaves as missing.
func (g *Guard) ArchiveProject(ctx context.Context, caller, projectID uuid.UUID) (err error) {
	ctx, span := g.start(ctx, "ArchiveProject", caller)
	defer func() { endSpan(span, err) }()

	if _, err := g.authz.Project(ctx, caller, projectID, project.TierOwner); err != nil {
		return err
	}
	if err := g.projects.Archive(ctx, projectID); err != nil {
		if errors.Is(err, project.ErrProjectNotFound) {
			return ErrNotFound
		}
		return err
	}
	g.publish(ctx, pubsub.EventProjectArchived, projectID, projectID, caller)
	return nil
}

// Membership

func (g *Guard) ListMembers(ctx context.Context, caller, projectID uuid.UUID) (_ []project.Member, err error) {
	ctx, span := g.start(ctx, "ListMembers", caller)
	defer func() { endSpan(span, err) }()

	p, err := g.authz.Project(ctx, caller, projectID, project.TierViewer)
	if err != nil {
		return nil, err
	}
	return p.Members, nil
}

func (g *Guard) AddMember(ctx context.Context, caller, projectID uuid.UUID, req *project.AddMemberRequest) (_ *project.Project, err error) {
	ctx, span := g.start(ctx, "AddMember", caller)
	defer func() { endSpan(span, err) }()

	p, err := g.authz.Project(ctx, caller, projectID, project.TierAdmin)
	if err != nil {
		return nil, err
	}
	if !req.Role.IsValid() {
		return nil, project.ErrInvalidRole
	}
	target, err := g.users.GetByID(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if !target.IsActive {
		return nil, ErrInactiveIdentity
	}

	updated, err := g.projects.AddMember(ctx, p, target.ID, req.Role)
	if err != nil {
		return nil, err
	}
	g.publish(ctx, pubsub.EventMemberAdded, p.ID, target.ID, caller)
	return updated, nil
}

// RemoveMember needs admin, except when callers remove themselves, which is
// how a member leaves a project.
func (g *Guard) RemoveMember(ctx context.Context, caller, projectID, target uuid.UUID) (_ *project.Project, err error) {
	ctx, span := g.start(ctx, "RemoveMember", caller)
	defer func() { endSpan(span, err) }()

	need := project.TierAdmin
	if caller == target {
		need = project.TierViewer
	}
	p, err := g.authz.Project(ctx, caller, projectID, need)
	if err != nil {
		return nil, err
	}
	if p.IsOwner(target) {
		return nil, ErrOwnerImmutable
	}

	updated, err := g.projects.RemoveMember(ctx, p, target)
	if err != nil {
		return nil, err
	}
	if len(updated.Members) != len(p.Members) {
		g.publish(ctx, pubsub.EventMemberRemoved, p.ID, target, caller)
	}
	return updated, nil
}

func (g *Guard) UpdateMemberRole(ctx context.Context, caller, projectID, target uuid.UUID, req *project.UpdateMemberRoleRequest) (_ *project.Project, err error) {
	ctx, span := g.start(ctx, "UpdateMemberRole", caller)
	defer func() { endSpan(span, err) }()

	p, err := g.authz.Project(ctx, caller, projectID, project.TierAdmin)
	if err != nil {
		return nil, err
	}
	if p.IsOwner(target) {
		return nil, ErrOwnerImmutable
	}
	if caller == target {
		return nil, ErrSelfRoleChange
	}

	updated, err := g.projects.UpdateMemberRole(ctx, p, target, req.Role)
	if err != nil {
		return nil, err
	}
	g.publish(ctx, pubsub.EventMemberUpdated, p.ID, target, caller)
	return updated, nil
}

// Invitations

func (g *Guard) CreateInvitation(ctx context.Context, caller, projectID uuid.UUID, req *invitation.CreateInvitationRequest) (_ *invitation.Invitation, err error) {
	ctx, span := g.start(ctx, "CreateInvitation", caller)
	defer func() { endSpan(span, err) }()

	if _, err := g.authz.Project(ctx, caller, projectID, project.TierAdmin); err != nil {
		return nil, err
	}
	return g.invitations.Create(ctx, projectID, caller, req)
}

func (g *Guard) RevokeInvitation(ctx context.Context, caller, projectID uuid.UUID, token string) (err error) {
	ctx, span := g.start(ctx, "RevokeInvitation", caller)
	defer func() { endSpan(span, err) }()

	if _, err := g.authz.Project(ctx, caller, projectID, project.TierAdmin); err != nil {
		return err
	}
	return g.invitations.Revoke(ctx, projectID, token)
}

// AcceptInvitation authorizes by identity and email alone. The inviter's
// tier is not checked again.
func (g *Guard) AcceptInvitation(ctx context.Context, caller uuid.UUID, token string) (_ *project.Project, err error) {
	ctx, span := g.start(ctx, "AcceptInvitation", caller)
	defer func() { endSpan(span, err) }()

	redeemer, err := g.authz.Caller(ctx, caller)
	if err != nil {
		return nil, err
	}
	inv, err := g.invitations.Redeem(ctx, token, redeemer)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("project.id", inv.ProjectID.String()))

	// The token is already spent, so a concurrent membership change is
	// retried instead of surfaced.
	for attempt := 1; ; attempt++ {
		p, err := g.projects.GetByID(ctx, inv.ProjectID)
		if err != nil {
			if errors.Is(err, project.ErrProjectNotFound) {
				return nil, ErrNotFound
			}
			return nil, err
		}
		if p.IsArchived {
			return nil, ErrNotFound
		}

		updated, err := g.projects.AddMember(ctx, p, redeemer.ID, inv.Role)
		if errors.Is(err, project.ErrVersionConflict) && attempt < acceptAttempts {
			continue
		}
		if err != nil {
			return nil, err
		}
		g.publish(ctx, pubsub.EventMemberAdded, p.ID, redeemer.ID, caller)
		return updated, nil
	}
}

func (g *Guard) ListActivity(ctx context.Context, caller, projectID uuid.UUID, limit int) (_ []activity.Entry, err error) {
	ctx, span := g.start(ctx, "ListActivity", caller)
	defer func() { endSpan(span, err) }()

	if _, err := g.authz.Project(ctx, caller, projectID, project.TierViewer); err != nil {
		return nil, err
	}
	if g.activity == nil {
		return []activity.Entry{}, nil
	}
	return g.activity.ListForProject(ctx, projectID, limit)
}

// Boards

func (g *Guard) CreateBoard(ctx context.Context, caller, projectID uuid.UUID, req *board.CreateBoardRequest) (_ *board.Board, err error) {
	ctx, span := g.start(ctx, "CreateBoard", caller)
	defer func() { endSpan(span, err) }()

	if _, err := g.authz.Project(ctx, caller, projectID, project.TierMember); err != nil {
		return nil, err
	}
	b, err := g.boards.Create(ctx, projectID, req)
	if err != nil {
		return nil, err
	}
	g.publish(ctx, pubsub.EventBoardCreated, projectID, b.ID, caller)
	return b, nil
}

func (g *Guard) ListBoards(ctx context.Context, caller, projectID uuid.UUID) (_ []*board.Board, err error) {
	ctx, span := g.start(ctx, "ListBoards", caller)
	defer func() { endSpan(span, err) }()

	if _, err := g.authz.Project(ctx, caller, projectID, project.TierViewer); err != nil {
		return nil, err
	}
	return g.boards.ListByProject(ctx, projectID)
}

func (g *Guard) GetBoard(ctx context.Context, caller, boardID uuid.UUID) (_ *board.Board, err error) {
	ctx, span := g.start(ctx, "GetBoard", caller)
	defer func() { endSpan(span, err) }()

	b, _, err := g.authz.Board(ctx, caller, boardID, project.TierViewer)
	return b, err
}

func (g *Guard) UpdateBoard(ctx context.Context, caller, boardID uuid.UUID, req *board.UpdateBoardRequest) (_ *board.Board, err error) {
	ctx, span := g.start(ctx, "UpdateBoard", caller)
	defer func() { endSpan(span, err) }()

	b, p, err := g.authz.Board(ctx, caller, boardID, project.TierMember)
	if err != nil {
		return nil, err
	}
	updated, err := g.boards.Update(ctx, b, req)
	if err != nil {
		return nil, err
	}
	g.publish(ctx, pubsub.EventBoardUpdated, p.ID, b.ID, caller)
	return updated, nil
}

func (g *Guard) DeleteBoard(ctx context.Context, caller, boardID uuid.UUID) (err error) {
	ctx, span := g.start(ctx, "DeleteBoard", caller)
	defer func() { endSpan(span, err) }()

	b, p, err := g.authz.Board(ctx, caller, boardID, project.TierMember)
	if err != nil {
		return err
	}
	if err := g.boards.Delete(ctx, b.ID); err != nil {
		return err
	}
	g.publish(ctx, pubsub.EventBoardDeleted, p.ID, b.ID, caller)
	return nil
}

// Tasks

func (g *Guard) CreateTask(ctx context.Context, caller, boardID uuid.UUID, req *task.CreateTaskRequest) (_ *task.Task, err error) {
	ctx, span := g.start(ctx, "CreateTask", caller)
	defer func() { endSpan(span, err) }()

	b, p, err := g.authz.Board(ctx, caller, boardID, project.TierMember)
	if err != nil {
		return nil, err
	}
	if len(req.Assignees) > 0 && !b.AllowAssignments {
		return nil, ErrAssignmentsDisabled
	}
	if err := g.boards.EnsureCapacity(ctx, b); err != nil {
		return nil, err
	}

	t, err := g.tasks.Create(ctx, b.ID, caller, req)
	if err != nil {
		return nil, err
	}
	g.publish(ctx, pubsub.EventTaskCreated, p.ID, t.ID, caller)
	return t, nil
}

func (g *Guard) ListTasks(ctx context.Context, caller, boardID uuid.UUID) (_ []*task.Task, err error) {
	ctx, span := g.start(ctx, "ListTasks", caller)
	defer func() { endSpan(span, err) }()

	b, _, err := g.authz.Board(ctx, caller, boardID, project.TierViewer)
	if err != nil {
		return nil, err
	}
	return g.tasks.ListByBoard(ctx, b.ID)
}

func (g *Guard) GetTask(ctx context.Context, caller, taskID uuid.UUID) (_ *task.Task, err error) {
	ctx, span := g.start(ctx, "GetTask", caller)
	defer func() { endSpan(span, err) }()

	t, _, _, err := g.authz.Task(ctx, caller, taskID, project.TierViewer)
	return t, err
}

func (g *Guard) UpdateTask(ctx context.Context, caller, taskID uuid.UUID, req *task.UpdateTaskRequest) (_ *task.Task, err error) {
	ctx, span := g.start(ctx, "UpdateTask", caller)
	defer func() { endSpan(span, err) }()

	t, b, p, err := g.authz.Task(ctx, caller, taskID, project.TierMember)
	if err != nil {
		return nil, err
	}
	if req.Assignees != nil && len(*req.Assignees) > 0 && !b.AllowAssignments {
		return nil, ErrAssignmentsDisabled
	}
	if req.Attachments != nil && len(*req.Attachments) > 0 && !b.AllowAttachments {
		return nil, ErrAttachmentsDisabled
	}

	updated, err := g.tasks.Update(ctx, t, caller, req)
	if err != nil {
		return nil, err
	}
	g.publish(ctx, pubsub.EventTaskUpdated, p.ID, t.ID, caller)
	return updated, nil
}

func (g *Guard) DeleteTask(ctx context.Context, caller, taskID uuid.UUID) (err error) {
	ctx, span := g.start(ctx, "DeleteTask", caller)
	defer func() { endSpan(span, err) }()

	t, _, p, err := g.authz.Task(ctx, caller, taskID, project.TierMember)
	if err != nil {
		return err
	}
	if err := g.tasks.Delete(ctx, t.ID); err != nil {
		return err
	}
	g.publish(ctx, pubsub.EventTaskDeleted, p.ID, t.ID, caller)
	return nil
}

// MoveTask checks the source and destination chains independently. Passing
// the source check grants nothing on the destination.
func (g *Guard) MoveTask(ctx context.Context, caller, taskID uuid.UUID, req *task.MoveTaskRequest) (_ *task.Task, err error) {
	ctx, span := g.start(ctx, "MoveTask", caller)
	defer func() { endSpan(span, err) }()

	t, from, _, err := g.authz.Task(ctx, caller, taskID, project.TierMember)
	if err != nil {
		return nil, err
	}
	to, dest, err := g.authz.Board(ctx, caller, req.BoardID, project.TierMember)
	if err != nil {
		return nil, err
	}
	if to.ID != from.ID {
		if err := g.boards.EnsureCapacity(ctx, to); err != nil {
			return nil, err
		}
	}

	moved, err := g.tasks.Move(ctx, t, to.ID, req.Position)
	if err != nil {
		return nil, err
	}
	g.publish(ctx, pubsub.EventTaskMoved, dest.ID, t.ID, caller)
	return moved, nil
}

func (g *Guard) SetTaskCompletion(ctx context.Context, caller, taskID uuid.UUID, completed bool) (_ *task.Task, err error) {
	ctx, span := g.start(ctx, "SetTaskCompletion", caller)
	defer func() { endSpan(span, err) }()

	t, _, p, err := g.authz.Task(ctx, caller, taskID, project.TierMember)
	if err != nil {
		return nil, err
	}
	updated, err := g.tasks.SetCompletion(ctx, t, caller, completed)
	if err != nil {
		return nil, err
	}

	typ := pubsub.EventTaskReopened
	if completed {
		typ = pubsub.EventTaskCompleted
	}
	g.publish(ctx, typ, p.ID, t.ID, caller)
	return updated, nil
}

// Comments

func (g *Guard) AddComment(ctx context.Context, caller, taskID uuid.UUID, req *task.AddCommentRequest) (_ *task.Comment, err error) {
	ctx, span := g.start(ctx, "AddComment", caller)
	defer func() { endSpan(span, err) }()

	t, b, p, err := g.authz.Task(ctx, caller, taskID, project.TierMember)
	if err != nil {
		return nil, err
	}
	if !b.AllowComments {
		return nil, ErrCommentsDisabled
	}

	c, err := g.tasks.AddComment(ctx, t.ID, caller, req.Content)
	if err != nil {
		return nil, err
	}
	g.publish(ctx, pubsub.EventCommentAdded, p.ID, c.ID, caller)
	return c, nil
}

// DeleteComment is allowed for project admins and for the comment's author
// while they are still a member.
func (g *Guard) DeleteComment(ctx context.Context, caller, taskID, commentID uuid.UUID) (err error) {
	ctx, span := g.start(ctx, "DeleteComment", caller)
	defer func() { endSpan(span, err) }()

	t, _, p, err := g.authz.Task(ctx, caller, taskID, project.TierViewer)
	if err != nil {
		return err
	}
	// Readers of a public project must not learn which comment ids exist.
	if !p.IsMember(caller) {
		return ErrForbidden
	}
	c, err := g.tasks.GetComment(ctx, t.ID, commentID)
	if err != nil {
		return err
	}
	if !p.IsAdmin(caller) && c.AuthorID != caller {
		return ErrForbidden
	}

	if err := g.tasks.DeleteComment(ctx, c.ID); err != nil {
		return err
	}
	g.publish(ctx, pubsub.EventCommentDeleted, p.ID, c.ID, caller)
	return nil
}
