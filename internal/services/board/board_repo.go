package board

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

var ErrBoardNotFound = errors.New("board not found")

// Repository is the persistence contract BoardService depends on.
type Repository interface {
	Create(ctx context.Context, b *Board) (*Board, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Board, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]*Board, error)
	Update(ctx context.Context, b *Board) (*Board, error)
	Delete(ctx context.Context, id uuid.UUID) error
	CountTasks(ctx context.Context, boardID uuid.UUID) (int, error)
}

type BoardRepo struct {
	db *sqlx.DB
}

func NewBoardRepo(db *sqlx.DB) *BoardRepo {
	return &BoardRepo{db: db}
}

const boardColumns = `id, project_id, name, description, position, allow_comments, allow_attachments, allow_assignments, max_tasks, created_at, updated_at`

// Create places the board after the project's last board. Position is read
// and written in one statement, but two concurrent inserts may still land on
// the same value.
func (r *BoardRepo) Create(ctx context.Context, b *Board) (*Board, error) {
	query := `
		INSERT INTO boards (project_id, name, description, position, allow_comments, allow_attachments, allow_assignments, max_tasks)
		SELECT $1, $2, $3, COALESCE(MAX(position), 0) + 1, $4, $5, $6, $7
		FROM boards WHERE project_id = $1
		RETURNING ` + boardColumns

	var created Board
	err := r.db.GetContext(ctx, &created, query,
		b.ProjectID, b.Name, b.Description,
		b.AllowComments, b.AllowAttachments, b.AllowAssignments, b.MaxTasks,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create board: %w", err)
	}
	return &created, nil
}

func (r *BoardRepo) GetByID(ctx context.Context, id uuid.UUID) (*Board, error) {
	var b Board
	err := r.db.GetContext(ctx, &b, `SELECT `+boardColumns+` FROM boards WHERE id = $1`, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrBoardNotFound
		}
		return nil, fmt.Errorf("failed to get board: %w", err)
	}
	return &b, nil
}

func (r *BoardRepo) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*Board, error) {
	var boards []*Board
	err := r.db.SelectContext(ctx, &boards, `
		SELECT `+boardColumns+`
		FROM boards
		WHERE project_id = $1
		ORDER BY position ASC, created_at ASC
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list boards: %w", err)
	}
	return boards, nil
}

// Update writes every mutable column; project_id is never written.
func (r *BoardRepo) Update(ctx context.Context, b *Board) (*Board, error) {
	var updated Board
	err := r.db.GetContext(ctx, &updated, `
		UPDATE boards
		SET name = $1, description = $2, position = $3,
		    allow_comments = $4, allow_attachments = $5, allow_assignments = $6, max_tasks = $7,
		    updated_at = NOW()
		WHERE id = $8
		RETURNING `+boardColumns,
		b.Name, b.Description, b.Position,
		b.AllowComments, b.AllowAttachments, b.AllowAssignments, b.MaxTasks,
		b.ID,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrBoardNotFound
		}
		return nil, fmt.Errorf("failed to update board: %w", err)
	}
	return &updated, nil
}

// Delete removes the board; its tasks and comments cascade.
func (r *BoardRepo) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM boards WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete board: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrBoardNotFound
	}
	return nil
}

func (r *BoardRepo) CountTasks(ctx context.Context, boardID uuid.UUID) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM tasks WHERE board_id = $1`, boardID); err != nil {
		return 0, err
	}
	return count, nil
}
