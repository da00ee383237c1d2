package project

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var (
	ErrProjectNotFound = errors.New("project not found")
	ErrVersionConflict = errors.New("project was modified concurrently")
)

// Repository is the persistence contract ProjectService depends on.
type Repository interface {
	Create(ctx context.Context, p *Project) (*Project, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Project, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*Project, error)
	Update(ctx context.Context, id uuid.UUID, req *UpdateProjectRequest) (*Project, error)
	Archive(ctx context.Context, id uuid.UUID) error
	SaveMembers(ctx context.Context, p *Project) error
}

// ProjectRepo handles database operations for projects
type ProjectRepo struct {
	db *sqlx.DB
}

// NewProjectRepo creates a new project repository
func NewProjectRepo(db *sqlx.DB) *ProjectRepo {
	return &ProjectRepo{db: db}
}

const projectColumns = `id, name, description, owner_id, is_public, is_archived, version, created_at, updated_at`

// Create inserts the project row. The owner is not written to project_members.
func (r *ProjectRepo) Create(ctx context.Context, p *Project) (*Project, error) {
	query := `
        INSERT INTO projects (name, description, owner_id, is_public)
        VALUES ($1, $2, $3, $4)
        RETURNING ` + projectColumns

	var created Project
	err := r.db.GetContext(ctx, &created, query, p.Name, p.Description, p.OwnerID, p.IsPublic)
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	created.Members = []Member{}

	return &created, nil
}

// GetByID retrieves a project and its members. Archived projects are
// returned; hiding them is the caller's decision.
func (r *ProjectRepo) GetByID(ctx context.Context, id uuid.UUID) (*Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`

	var project Project
	err := r.db.GetContext(ctx, &project, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	if err := r.loadMembers(ctx, []*Project{&project}); err != nil {
		return nil, err
	}

	return &project, nil
}

// ListForUser returns non-archived projects the user owns or belongs to.
func (r *ProjectRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]*Project, error) {
	query := `
        SELECT ` + projectColumns + `
        FROM projects
        WHERE is_archived = FALSE
          AND (owner_id = $1 OR id IN (SELECT project_id FROM project_members WHERE user_id = $1))
        ORDER BY created_at DESC
    `

	var projects []*Project
	err := r.db.SelectContext(ctx, &projects, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	if err := r.loadMembers(ctx, projects); err != nil {
		return nil, err
	}

	return projects, nil
}

type memberRow struct {
	ProjectID uuid.UUID `db:"project_id"`
	Member
}

func (r *ProjectRepo) loadMembers(ctx context.Context, projects []*Project) error {
	if len(projects) == 0 {
		return nil
	}

	ids := make([]string, 0, len(projects))
	byID := make(map[uuid.UUID]*Project, len(projects))
	for _, p := range projects {
		p.Members = []Member{}
		ids = append(ids, p.ID.String())
		byID[p.ID] = p
	}

	var rows []memberRow
	err := r.db.SelectContext(ctx, &rows, `
        SELECT project_id, user_id, role, joined_at
        FROM project_members
        WHERE project_id = ANY($1::uuid[])
        ORDER BY joined_at ASC, user_id ASC
    `, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to load project members: %w", err)
	}

	for _, row := range rows {
		if p := byID[row.ProjectID]; p != nil {
			p.Members = append(p.Members, row.Member)
		}
	}
	return nil
}

// Update updates project settings
func (r *ProjectRepo) Update(ctx context.Context, id uuid.UUID, req *UpdateProjectRequest) (*Project, error) {
	setParts := []string{}
	args := []interface{}{}

	if req.Name != nil {
		setParts = append(setParts, fmt.Sprintf("name = $%d", len(args)+1))
		args = append(args, *req.Name)
	}

	if req.Description != nil {
		setParts = append(setParts, fmt.Sprintf("description = $%d", len(args)+1))
		args = append(args, *req.Description)
	}

	if req.IsPublic != nil {
		setParts = append(setParts, fmt.Sprintf("is_public = $%d", len(args)+1))
		args = append(args, *req.IsPublic)
	}

	if len(setParts) == 0 {
		return r.GetByID(ctx, id)
	}

	setParts = append(setParts, "updated_at = NOW()")
	args = append(args, id)

	query := fmt.Sprintf(`
        UPDATE projects
        SET %s
        WHERE id = $%d AND is_archived = FALSE
    `, strings.Join(setParts, ", "), len(args))

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}
	if err := expectOneRow(result); err != nil {
		return nil, err
	}

	return r.GetByID(ctx, id)
}

// Archive soft-deletes a project. There is no reverse operation.
func (r *ProjectRepo) Archive(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `
        UPDATE projects SET is_archived = TRUE, updated_at = NOW()
        WHERE id = $1 AND is_archived = FALSE
    `, id)
	if err != nil {
		return fmt.Errorf("failed to archive project: %w", err)
	}
	return expectOneRow(result)
}

// SaveMembers replaces the membership rows of p, guarded by a compare-and-swap
// on projects.version. p.Version is advanced on success.
func (r *ProjectRepo) SaveMembers(ctx context.Context, p *Project) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
        UPDATE projects SET version = version + 1, updated_at = NOW()
        WHERE id = $1 AND version = $2 AND is_archived = FALSE
    `, p.ID, p.Version)
	if err != nil {
		return fmt.Errorf("failed to bump project version: %w", err)
	}
	if rows, err := result.RowsAffected(); err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	} else if rows == 0 {
		return ErrVersionConflict
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM project_members WHERE project_id = $1`, p.ID); err != nil {
		return fmt.Errorf("failed to clear project members: %w", err)
	}

	for _, m := range p.Members {
		_, err = tx.ExecContext(ctx, `
            INSERT INTO project_members (project_id, user_id, role, joined_at)
            VALUES ($1, $2, $3, $4)
        `, p.ID, m.UserID, m.Role, m.JoinedAt)
		if err != nil {
			return fmt.Errorf("failed to add project member: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	p.Version++
	return nil
}

func expectOneRow(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrProjectNotFound
	}

	return nil
}
