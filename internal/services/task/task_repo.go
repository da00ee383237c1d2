package task

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var (
	ErrTaskNotFound    = errors.New("task not found")
	ErrCommentNotFound = errors.New("comment not found")
)

// Repository is the persistence contract TaskService depends on.
type Repository interface {
	Create(ctx context.Context, t *Task) (*Task, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Task, error)
	ListByBoard(ctx context.Context, boardID uuid.UUID) ([]*Task, error)
	Update(ctx context.Context, t *Task) (*Task, error)
	Move(ctx context.Context, id, boardID uuid.UUID, position *int) (*Task, error)
	Delete(ctx context.Context, id uuid.UUID) error
	AddComment(ctx context.Context, c *Comment) (*Comment, error)
	GetComment(ctx context.Context, taskID, commentID uuid.UUID) (*Comment, error)
	DeleteComment(ctx context.Context, commentID uuid.UUID) error
}

type TaskRepo struct {
	db *sqlx.DB
}

func NewTaskRepo(db *sqlx.DB) *TaskRepo {
	return &TaskRepo{db: db}
}

const taskColumns = `id, board_id, title, description, created_by, assignees, priority, status,
	is_completed, completed_at, completed_by, due_date, position, labels, attachments, created_at, updated_at`

// Create appends the task after the board's last task.
func (r *TaskRepo) Create(ctx context.Context, t *Task) (*Task, error) {
	query := `
		INSERT INTO tasks (board_id, title, description, created_by, assignees, priority, status, due_date, position, labels, attachments)
		SELECT $1, $2, $3, $4, $5, $6, $7, $8, COALESCE(MAX(position), 0) + 1, $9, $10
		FROM tasks WHERE board_id = $1
		RETURNING ` + taskColumns

	var created Task
	err := r.db.GetContext(ctx, &created, query,
		t.BoardID, t.Title, t.Description, t.CreatedBy, t.Assignees,
		t.Priority, t.Status, t.DueDate, t.Labels, t.Attachments,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	created.Comments = []Comment{}
	return &created, nil
}

func (r *TaskRepo) GetByID(ctx context.Context, id uuid.UUID) (*Task, error) {
	var t Task
	err := r.db.GetContext(ctx, &t, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	t.Comments = []Comment{}
	err = r.db.SelectContext(ctx, &t.Comments, `
		SELECT id, task_id, author_id, content, created_at
		FROM task_comments
		WHERE task_id = $1
		ORDER BY created_at ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load task comments: %w", err)
	}
	return &t, nil
}

// ListByBoard returns tasks without their comments.
func (r *TaskRepo) ListByBoard(ctx context.Context, boardID uuid.UUID) ([]*Task, error) {
	var tasks []*Task
	err := r.db.SelectContext(ctx, &tasks, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE board_id = $1
		ORDER BY position ASC, created_at ASC
	`, boardID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// Update writes every mutable column except board_id.
func (r *TaskRepo) Update(ctx context.Context, t *Task) (*Task, error) {
	var updated Task
	err := r.db.GetContext(ctx, &updated, `
		UPDATE tasks
		SET title = $1, description = $2, assignees = $3, priority = $4, status = $5,
		    is_completed = $6, completed_at = $7, completed_by = $8, due_date = $9,
		    position = $10, labels = $11, attachments = $12, updated_at = NOW()
		WHERE id = $13
		RETURNING `+taskColumns,
		t.Title, t.Description, t.Assignees, t.Priority, t.Status,
		t.IsCompleted, t.CompletedAt, t.CompletedBy, t.DueDate,
		t.Position, t.Labels, t.Attachments, t.ID,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to update task: %w", err)
	}
	updated.Comments = t.Comments
	return &updated, nil
}

// Move reassigns the task to boardID. A nil position appends it.
func (r *TaskRepo) Move(ctx context.Context, id, boardID uuid.UUID, position *int) (*Task, error) {
	var moved Task
	err := r.db.GetContext(ctx, &moved, `
		UPDATE tasks
		SET board_id = $1,
		    position = COALESCE($2::int, (SELECT COALESCE(MAX(position), 0) + 1 FROM tasks WHERE board_id = $1)),
		    updated_at = NOW()
		WHERE id = $3
		RETURNING `+taskColumns,
		boardID, position, id,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to move task: %w", err)
	}
	return &moved, nil
}

func (r *TaskRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrTaskNotFound
	}
	return nil
}

func (r *TaskRepo) AddComment(ctx context.Context, c *Comment) (*Comment, error) {
	var created Comment
	err := r.db.GetContext(ctx, &created, `
		INSERT INTO task_comments (task_id, author_id, content)
		VALUES ($1, $2, $3)
		RETURNING id, task_id, author_id, content, created_at
	`, c.TaskID, c.AuthorID, c.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}
	return &created, nil
}

func (r *TaskRepo) GetComment(ctx context.Context, taskID, commentID uuid.UUID) (*Comment, error) {
	var c Comment
	err := r.db.GetContext(ctx, &c, `
		SELECT id, task_id, author_id, content, created_at
		FROM task_comments
		WHERE id = $1 AND task_id = $2
	`, commentID, taskID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrCommentNotFound
		}
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	return &c, nil
}

func (r *TaskRepo) DeleteComment(ctx context.Context, commentID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM task_comments WHERE id = $1`, commentID)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrCommentNotFound
	}
	return nil
}
