package task

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRepo struct {
	tasks    map[uuid.UUID]Task
	comments map[uuid.UUID]Comment
}

func newMemRepo() *memRepo {
	return &memRepo{tasks: map[uuid.UUID]Task{}, comments: map[uuid.UUID]Comment{}}
}

func (m *memRepo) Create(_ context.Context, t *Task) (*Task, error) {
	c := *t
	c.ID = uuid.New()
	c.Position = len(m.tasks) + 1
	m.tasks[c.ID] = c
	return &c, nil
}

func (m *memRepo) GetByID(_ context.Context, id uuid.UUID) (*Task, error) {
	t, ok := m.tasks[id]
	if !ok {
		return nil, ErrTaskNotFound
	}
	return &t, nil
}

func (m *memRepo) ListByBoard(_ context.Context, boardID uuid.UUID) ([]*Task, error) {
	out := []*Task{}
	for _, t := range m.tasks {
		if t.BoardID == boardID {
			t := t
			out = append(out, &t)
		}
	}
	return out, nil
}

func (m *memRepo) Update(_ context.Context, t *Task) (*Task, error) {
	if _, ok := m.tasks[t.ID]; !ok {
		return nil, ErrTaskNotFound
	}
	m.tasks[t.ID] = *t
	c := *t
	return &c, nil
}

func (m *memRepo) Move(_ context.Context, id, boardID uuid.UUID, position *int) (*Task, error) {
	t, ok := m.tasks[id]
	if !ok {
		return nil, ErrTaskNotFound
	}
	t.BoardID = boardID
	if position != nil {
		t.Position = *position
	}
	m.tasks[id] = t
	return &t, nil
}

func (m *memRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.tasks[id]; !ok {
		return ErrTaskNotFound
	}
	delete(m.tasks, id)
	return nil
}

func (m *memRepo) AddComment(_ context.Context, c *Comment) (*Comment, error) {
	row := *c
	row.ID = uuid.New()
	m.comments[row.ID] = row
	return &row, nil
}

func (m *memRepo) GetComment(_ context.Context, taskID, commentID uuid.UUID) (*Comment, error) {
	c, ok := m.comments[commentID]
	if !ok || c.TaskID != taskID {
		return nil, ErrCommentNotFound
	}
	return &c, nil
}

func (m *memRepo) DeleteComment(_ context.Context, commentID uuid.UUID) error {
	delete(m.comments, commentID)
	return nil
}

func fixedClock(svc *TaskService) time.Time {
	now := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	return now
}

func TestTaskService_CreateDefaults(t *testing.T) {
	svc := NewTaskService(newMemRepo())
	ctx := context.Background()
	boardID, creator := uuid.New(), uuid.New()
	assignee := uuid.New()

	_, err := svc.Create(ctx, boardID, creator, &CreateTaskRequest{Title: "  "})
	assert.ErrorIs(t, err, ErrTitleRequired)

	_, err = svc.Create(ctx, boardID, creator, &CreateTaskRequest{Title: "x", Priority: "critical"})
	assert.ErrorIs(t, err, ErrInvalidPriority)

	_, err = svc.Create(ctx, boardID, creator, &CreateTaskRequest{Title: "x", Status: "blocked"})
	assert.ErrorIs(t, err, ErrInvalidStatus)

	tk, err := svc.Create(ctx, boardID, creator, &CreateTaskRequest{
		Title:     "Ship it",
		Assignees: []uuid.UUID{assignee, assignee},
	})
	require.NoError(t, err)
	assert.Equal(t, PriorityMedium, tk.Priority)
	assert.Equal(t, StatusTodo, tk.Status)
	assert.Equal(t, creator, tk.CreatedBy)
	assert.Equal(t, IDList{assignee}, tk.Assignees)
	assert.False(t, tk.IsCompleted)
}

func TestTaskService_CreateDoneStampsCompletion(t *testing.T) {
	svc := NewTaskService(newMemRepo())
	now := fixedClock(svc)
	creator := uuid.New()

	tk, err := svc.Create(context.Background(), uuid.New(), creator, &CreateTaskRequest{Title: "Already done", Status: StatusDone})
	require.NoError(t, err)
	assert.True(t, tk.IsCompleted)
	require.NotNil(t, tk.CompletedBy)
	assert.Equal(t, creator, *tk.CompletedBy)
	assert.Equal(t, now, *tk.CompletedAt)
}

func TestTaskService_UpdateKeepsCompletionInStep(t *testing.T) {
	svc := NewTaskService(newMemRepo())
	fixedClock(svc)
	ctx := context.Background()
	actor := uuid.New()

	tk, err := svc.Create(ctx, uuid.New(), uuid.New(), &CreateTaskRequest{Title: "Review"})
	require.NoError(t, err)

	done := StatusDone
	tk, err = svc.Update(ctx, tk, actor, &UpdateTaskRequest{Status: &done})
	require.NoError(t, err)
	assert.True(t, tk.IsCompleted)
	assert.Equal(t, actor, *tk.CompletedBy)

	review := StatusReview
	tk, err = svc.Update(ctx, tk, actor, &UpdateTaskRequest{Status: &review})
	require.NoError(t, err)
	assert.False(t, tk.IsCompleted)
	assert.Nil(t, tk.CompletedAt)
	assert.Nil(t, tk.CompletedBy)
}

func TestTaskService_UpdateFields(t *testing.T) {
	svc := NewTaskService(newMemRepo())
	now := fixedClock(svc)
	ctx := context.Background()
	actor := uuid.New()

	due := now.Add(48 * time.Hour)
	tk, err := svc.Create(ctx, uuid.New(), uuid.New(), &CreateTaskRequest{Title: "Plan", DueDate: &due, Labels: []string{"q3"}})
	require.NoError(t, err)

	labels := []string{"q3", "infra"}
	attachments := Attachments{{Name: "plan.md", URL: "https://files.example.com/plan.md", Size: 120}}
	updated, err := svc.Update(ctx, tk, actor, &UpdateTaskRequest{
		ClearDueDate: true,
		Labels:       &labels,
		Attachments:  &attachments,
	})
	require.NoError(t, err)

	assert.Nil(t, updated.DueDate)
	assert.Equal(t, []string{"q3", "infra"}, []string(updated.Labels))
	require.Len(t, updated.Attachments, 1)
	assert.Equal(t, actor, updated.Attachments[0].UploadedBy)
	assert.Equal(t, now, updated.Attachments[0].UploadedAt)
	assert.Equal(t, tk.BoardID, updated.BoardID)

	empty := ""
	_, err = svc.Update(ctx, tk, actor, &UpdateTaskRequest{Title: &empty})
	assert.ErrorIs(t, err, ErrTitleRequired)
}

func TestTaskService_Move(t *testing.T) {
	svc := NewTaskService(newMemRepo())
	ctx := context.Background()

	tk, err := svc.Create(ctx, uuid.New(), uuid.New(), &CreateTaskRequest{Title: "Move me"})
	require.NoError(t, err)

	zero := 0
	_, err = svc.Move(ctx, tk, uuid.New(), &zero)
	assert.ErrorIs(t, err, ErrInvalidPosition)

	dest := uuid.New()
	moved, err := svc.Move(ctx, tk, dest, nil)
	require.NoError(t, err)
	assert.Equal(t, dest, moved.BoardID)
}

func TestTaskService_Comments(t *testing.T) {
	svc := NewTaskService(newMemRepo())
	ctx := context.Background()
	taskID, author := uuid.New(), uuid.New()

	_, err := svc.AddComment(ctx, taskID, author, "   ")
	assert.ErrorIs(t, err, ErrEmptyComment)

	c, err := svc.AddComment(ctx, taskID, author, " nice work ")
	require.NoError(t, err)
	assert.Equal(t, "nice work", c.Content)

	_, err = svc.GetComment(ctx, uuid.New(), c.ID)
	assert.ErrorIs(t, err, ErrCommentNotFound)

	got, err := svc.GetComment(ctx, taskID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, author, got.AuthorID)
}

func TestIDList_Contains(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	l := IDList{a}
	assert.True(t, l.Contains(a))
	assert.False(t, l.Contains(b))
}

func TestTaskService_TitleLength(t *testing.T) {
	svc := NewTaskService(newMemRepo())
	ctx := context.Background()
	existing, err := svc.Create(ctx, uuid.New(), uuid.New(), &CreateTaskRequest{Title: "Plan"})
	require.NoError(t, err)

	tests := []struct {
		name  string
		title string
		want  error
	}{
		{"at limit", strings.Repeat("t", 500), nil},
		{"over limit", strings.Repeat("t", 501), ErrTitleTooLong},
		{"multibyte under limit", strings.Repeat("é", 400), nil},
		{"multibyte over limit", strings.Repeat("é", 501), ErrTitleTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, existing.BoardID, uuid.New(), &CreateTaskRequest{Title: tt.title})
			_, updateErr := svc.Update(ctx, existing, uuid.New(), &UpdateTaskRequest{Title: &tt.title})
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
				assert.ErrorIs(t, updateErr, tt.want)
				return
			}
			require.NoError(t, err)
			require.NoError(t, updateErr)
		})
	}
}
