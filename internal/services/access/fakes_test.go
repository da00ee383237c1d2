package access

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/curaious/taskboard/internal/pubsub"
	"github.com/curaious/taskboard/internal/services/board"
	"github.com/curaious/taskboard/internal/services/invitation"
	"github.com/curaious/taskboard/internal/services/project"
	"github.com/curaious/taskboard/internal/services/task"
	"github.com/curaious/taskboard/internal/services/user"
)

type fakeProjects struct {
	mu   sync.Mutex
	rows map[uuid.UUID]project.Project
}

func (f *fakeProjects) copyOf(p project.Project) *project.Project {
	p.Members = append([]project.Member{}, p.Members...)
	return &p
}

func (f *fakeProjects) Create(_ context.Context, p *project.Project) (*project.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row := *p
	row.ID = uuid.New()
	row.Members = []project.Member{}
	row.Version = 1
	f.rows[row.ID] = row
	return f.copyOf(row), nil
}

func (f *fakeProjects) GetByID(_ context.Context, id uuid.UUID) (*project.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return nil, project.ErrProjectNotFound
	}
	return f.copyOf(row), nil
}

func (f *fakeProjects) ListForUser(_ context.Context, userID uuid.UUID) ([]*project.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*project.Project{}
	for _, row := range f.rows {
		if !row.IsArchived && row.IsMember(userID) {
			out = append(out, f.copyOf(row))
		}
	}
	return out, nil
}

func (f *fakeProjects) Update(_ context.Context, id uuid.UUID, req *project.UpdateProjectRequest) (*project.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok || row.IsArchived {
		return nil, project.ErrProjectNotFound
	}
	if req.Name != nil {
		row.Name = *req.Name
	}
	if req.Description != nil {
		row.Description = *req.Description
	}
	if req.IsPublic != nil {
		row.IsPublic = *req.IsPublic
	}
	f.rows[id] = row
	return f.copyOf(row), nil
}

func (f *fakeProjects) Archive(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok || row.IsArchived {
		return project.ErrProjectNotFound
	}
	row.IsArchived = true
	f.rows[id] = row
	return nil
}

func (f *fakeProjects) SaveMembers(_ context.Context, p *project.Project) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[p.ID]
	if !ok || row.IsArchived || row.Version != p.Version {
		return project.ErrVersionConflict
	}
	row.Members = append([]project.Member{}, p.Members...)
	row.Version++
	f.rows[p.ID] = row
	p.Version++
	return nil
}

type fakeBoards struct {
	mu    sync.Mutex
	rows  map[uuid.UUID]board.Board
	tasks *fakeTasks
}

func (f *fakeBoards) Create(_ context.Context, b *board.Board) (*board.Board, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row := *b
	row.ID = uuid.New()
	row.Position = 1
	for _, other := range f.rows {
		if other.ProjectID == row.ProjectID && other.Position >= row.Position {
			row.Position = other.Position + 1
		}
	}
	f.rows[row.ID] = row
	return &row, nil
}

func (f *fakeBoards) GetByID(_ context.Context, id uuid.UUID) (*board.Board, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return nil, board.ErrBoardNotFound
	}
	return &row, nil
}

func (f *fakeBoards) ListByProject(_ context.Context, projectID uuid.UUID) ([]*board.Board, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*board.Board{}
	for _, row := range f.rows {
		if row.ProjectID == projectID {
			row := row
			out = append(out, &row)
		}
	}
	return out, nil
}

func (f *fakeBoards) Update(_ context.Context, b *board.Board) (*board.Board, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[b.ID]; !ok {
		return nil, board.ErrBoardNotFound
	}
	f.rows[b.ID] = *b
	row := *b
	return &row, nil
}

func (f *fakeBoards) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[id]; !ok {
		return board.ErrBoardNotFound
	}
	delete(f.rows, id)
	return nil
}

func (f *fakeBoards) CountTasks(_ context.Context, boardID uuid.UUID) (int, error) {
	return f.tasks.count(boardID), nil
}

type fakeTasks struct {
	mu       sync.Mutex
	rows     map[uuid.UUID]task.Task
	comments map[uuid.UUID]task.Comment
}

func (f *fakeTasks) count(boardID uuid.UUID) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, row := range f.rows {
		if row.BoardID == boardID {
			n++
		}
	}
	return n
}

func (f *fakeTasks) Create(_ context.Context, t *task.Task) (*task.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row := *t
	row.ID = uuid.New()
	row.Comments = []task.Comment{}
	f.rows[row.ID] = row
	return &row, nil
}

func (f *fakeTasks) GetByID(_ context.Context, id uuid.UUID) (*task.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return nil, task.ErrTaskNotFound
	}
	row.Comments = []task.Comment{}
	for _, c := range f.comments {
		if c.TaskID == id {
			row.Comments = append(row.Comments, c)
		}
	}
	return &row, nil
}

func (f *fakeTasks) ListByBoard(_ context.Context, boardID uuid.UUID) ([]*task.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*task.Task{}
	for _, row := range f.rows {
		if row.BoardID == boardID {
			row := row
			out = append(out, &row)
		}
	}
	return out, nil
}

func (f *fakeTasks) Update(_ context.Context, t *task.Task) (*task.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[t.ID]; !ok {
		return nil, task.ErrTaskNotFound
	}
	f.rows[t.ID] = *t
	row := *t
	return &row, nil
}

func (f *fakeTasks) Move(_ context.Context, id, boardID uuid.UUID, position *int) (*task.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return nil, task.ErrTaskNotFound
	}
	row.BoardID = boardID
	if position != nil {
		row.Position = *position
	}
	f.rows[id] = row
	return &row, nil
}

func (f *fakeTasks) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[id]; !ok {
		return task.ErrTaskNotFound
	}
	delete(f.rows, id)
	return nil
}

func (f *fakeTasks) AddComment(_ context.Context, c *task.Comment) (*task.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row := *c
	row.ID = uuid.New()
	row.CreatedAt = time.Now()
	f.comments[row.ID] = row
	return &row, nil
}

func (f *fakeTasks) GetComment(_ context.Context, taskID, commentID uuid.UUID) (*task.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.comments[commentID]
	if !ok || c.TaskID != taskID {
		return nil, task.ErrCommentNotFound
	}
	return &c, nil
}

func (f *fakeTasks) DeleteComment(_ context.Context, commentID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.comments[commentID]; !ok {
		return task.ErrCommentNotFound
	}
	delete(f.comments, commentID)
	return nil
}

type fakeUsers struct {
	mu   sync.Mutex
	rows map[uuid.UUID]user.User
}

func (f *fakeUsers) Create(_ context.Context, u *user.User) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.rows {
		if row.Email == u.Email {
			return nil, user.ErrEmailTaken
		}
	}
	row := *u
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	f.rows[row.ID] = row
	return &row, nil
}

func (f *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return &row, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*user.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.rows {
		if row.Email == email {
			return &row, nil
		}
	}
	return nil, user.ErrUserNotFound
}

func (f *fakeUsers) UpdatePasswordHash(_ context.Context, id uuid.UUID, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return user.ErrUserNotFound
	}
	row.PasswordHash = hash
	f.rows[id] = row
	return nil
}

func (f *fakeUsers) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return user.ErrUserNotFound
	}
	row.IsActive = active
	f.rows[id] = row
	return nil
}

type fakeInvitations struct {
	mu   sync.Mutex
	rows map[string]invitation.Invitation
}

func (f *fakeInvitations) Save(_ context.Context, inv *invitation.Invitation, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[inv.Token] = *inv
	return nil
}

func (f *fakeInvitations) Take(_ context.Context, token string) (*invitation.Invitation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.rows[token]
	if !ok {
		return nil, invitation.ErrInvitationNotFound
	}
	delete(f.rows, token)
	return &inv, nil
}

func (f *fakeInvitations) Get(_ context.Context, token string) (*invitation.Invitation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.rows[token]
	if !ok {
		return nil, invitation.ErrInvitationNotFound
	}
	return &inv, nil
}

func (f *fakeInvitations) Delete(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rows, token)
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []pubsub.Event
}

func (r *recordingPublisher) Publish(_ context.Context, event pubsub.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingPublisher) types() []pubsub.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]pubsub.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}
