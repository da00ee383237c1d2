package task

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

var (
	ErrTitleRequired   = errors.New("task title is required")
	ErrTitleTooLong    = fmt.Errorf("task title exceeds %d characters", maxTitleLength)
	ErrInvalidPriority = errors.New("invalid task priority")
	ErrInvalidStatus   = errors.New("invalid task status")
	ErrInvalidPosition = errors.New("position must be positive")
	ErrEmptyComment    = errors.New("comment content is required")
)

const maxTitleLength = 500

func normalizeTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", ErrTitleRequired
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return "", ErrTitleTooLong
	}
	return title, nil
}

// TaskService persists tasks and comments. Authorization is the caller's job.
type TaskService struct {
	repo Repository
	now  func() time.Time
}

func NewTaskService(repo Repository) *TaskService {
	return &TaskService{repo: repo, now: time.Now}
}

func (s *TaskService) Create(ctx context.Context, boardID, creatorID uuid.UUID, req *CreateTaskRequest) (*Task, error) {
	title, err := normalizeTitle(req.Title)
	if err != nil {
		return nil, err
	}

	t := &Task{
		BoardID:     boardID,
		Title:       title,
		Description: req.Description,
		CreatedBy:   creatorID,
		Assignees:   IDList(dedupe(req.Assignees)),
		Priority:    PriorityMedium,
		Status:      StatusTodo,
		DueDate:     req.DueDate,
		Labels:      append([]string{}, req.Labels...),
		Attachments: Attachments{},
	}
	if req.Priority != "" {
		if !req.Priority.IsValid() {
			return nil, ErrInvalidPriority
		}
		t.Priority = req.Priority
	}
	if req.Status != "" {
		if !req.Status.IsValid() {
			return nil, ErrInvalidStatus
		}
		t.Status = req.Status
	}

	created, err := s.repo.Create(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	// Completion is stamped after insert so CreatedBy is recorded as completer.
	if created.Status == StatusDone {
		s.markCompleted(created, creatorID, true)
		return s.repo.Update(ctx, created)
	}
	return created, nil
}

func (s *TaskService) GetByID(ctx context.Context, id uuid.UUID) (*Task, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrTaskNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return t, nil
}

func (s *TaskService) ListByBoard(ctx context.Context, boardID uuid.UUID) ([]*Task, error) {
	return s.repo.ListByBoard(ctx, boardID)
}

// Update applies req to t. Moving status onto or off done keeps the
// completion fields in step.
func (s *TaskService) Update(ctx context.Context, t *Task, actorID uuid.UUID, req *UpdateTaskRequest) (*Task, error) {
	next := *t
	if req.Title != nil {
		title, err := normalizeTitle(*req.Title)
		if err != nil {
			return nil, err
		}
		next.Title = title
	}
	if req.Description != nil {
		next.Description = *req.Description
	}
	if req.Priority != nil {
		if !req.Priority.IsValid() {
			return nil, ErrInvalidPriority
		}
		next.Priority = *req.Priority
	}
	if req.Status != nil {
		if !req.Status.IsValid() {
			return nil, ErrInvalidStatus
		}
		next.Status = *req.Status
		s.markCompleted(&next, actorID, next.Status == StatusDone)
	}
	if req.ClearDueDate {
		next.DueDate = nil
	} else if req.DueDate != nil {
		next.DueDate = req.DueDate
	}
	if req.Position != nil {
		if *req.Position < 1 {
			return nil, ErrInvalidPosition
		}
		next.Position = *req.Position
	}
	if req.Assignees != nil {
		next.Assignees = IDList(dedupe(*req.Assignees))
	}
	if req.Labels != nil {
		next.Labels = append([]string{}, (*req.Labels)...)
	}
	if req.Attachments != nil {
		next.Attachments = append(Attachments{}, (*req.Attachments)...)
		for i := range next.Attachments {
			if next.Attachments[i].UploadedBy == uuid.Nil {
				next.Attachments[i].UploadedBy = actorID
			}
			if next.Attachments[i].UploadedAt.IsZero() {
				next.Attachments[i].UploadedAt = s.now().UTC()
			}
		}
	}

	updated, err := s.repo.Update(ctx, &next)
	if err != nil {
		if errors.Is(err, ErrTaskNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	return updated, nil
}

// SetCompletion toggles the completion flag and records who completed it.
func (s *TaskService) SetCompletion(ctx context.Context, t *Task, actorID uuid.UUID, completed bool) (*Task, error) {
	next := *t
	s.markCompleted(&next, actorID, completed)
	if completed {
		next.Status = StatusDone
	} else if next.Status == StatusDone {
		next.Status = StatusTodo
	}
	return s.repo.Update(ctx, &next)
}

func (s *TaskService) markCompleted(t *Task, actorID uuid.UUID, completed bool) {
	if !completed {
		t.IsCompleted = false
		t.CompletedAt = nil
		t.CompletedBy = nil
		return
	}
	if t.IsCompleted {
		return
	}
	now := s.now().UTC()
	actor := actorID
	t.IsCompleted = true
	t.CompletedAt = &now
	t.CompletedBy = &actor
}

func (s *TaskService) Move(ctx context.Context, t *Task, toBoardID uuid.UUID, position *int) (*Task, error) {
	if position != nil && *position < 1 {
		return nil, ErrInvalidPosition
	}
	moved, err := s.repo.Move(ctx, t.ID, toBoardID, position)
	if err != nil {
		if errors.Is(err, ErrTaskNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to move task: %w", err)
	}
	return moved, nil
}

func (s *TaskService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrTaskNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

// AddComment appends a comment as a single write.
func (s *TaskService) AddComment(ctx context.Context, taskID, authorID uuid.UUID, content string) (*Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyComment
	}
	return s.repo.AddComment(ctx, &Comment{TaskID: taskID, AuthorID: authorID, Content: content})
}

func (s *TaskService) GetComment(ctx context.Context, taskID, commentID uuid.UUID) (*Comment, error) {
	return s.repo.GetComment(ctx, taskID, commentID)
}

func (s *TaskService) DeleteComment(ctx context.Context, commentID uuid.UUID) error {
	return s.repo.DeleteComment(ctx, commentID)
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
