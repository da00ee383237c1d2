package board

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

var (
	ErrNameRequired    = errors.New("board name is required")
	ErrNameTooLong     = fmt.Errorf("board name exceeds %d characters", maxNameLength)
	ErrInvalidMaxTasks = errors.New("max_tasks must be zero or positive")
	ErrInvalidPosition = errors.New("position must be positive")
)

const maxNameLength = 255

func normalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrNameRequired
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return "", ErrNameTooLong
	}
	return name, nil
}

// BoardService persists boards. Callers authorize against the parent
// project before invoking it.
type BoardService struct {
	repo Repository
}

func NewBoardService(repo Repository) *BoardService {
	return &BoardService{repo: repo}
}

func (s *BoardService) Create(ctx context.Context, projectID uuid.UUID, req *CreateBoardRequest) (*Board, error) {
	name, err := normalizeName(req.Name)
	if err != nil {
		return nil, err
	}

	settings := DefaultSettings().apply(req.Settings)
	if settings.MaxTasks < 0 {
		return nil, ErrInvalidMaxTasks
	}

	b, err := s.repo.Create(ctx, &Board{
		ProjectID:   projectID,
		Name:        name,
		Description: req.Description,
		Settings:    settings,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create board: %w", err)
	}
	return b, nil
}

func (s *BoardService) GetByID(ctx context.Context, id uuid.UUID) (*Board, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrBoardNotFound) {
			return nil, ErrBoardNotFound
		}
		return nil, fmt.Errorf("failed to get board: %w", err)
	}
	return b, nil
}

func (s *BoardService) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*Board, error) {
	return s.repo.ListByProject(ctx, projectID)
}

// Update applies req to an already loaded board.
func (s *BoardService) Update(ctx context.Context, b *Board, req *UpdateBoardRequest) (*Board, error) {
	next := *b
	if req.Name != nil {
		name, err := normalizeName(*req.Name)
		if err != nil {
			return nil, err
		}
		next.Name = name
	}
	if req.Description != nil {
		next.Description = *req.Description
	}
	if req.Position != nil {
		if *req.Position < 1 {
			return nil, ErrInvalidPosition
		}
		next.Position = *req.Position
	}
	next.Settings = next.Settings.apply(req.Settings)
	if next.MaxTasks < 0 {
		return nil, ErrInvalidMaxTasks
	}

	updated, err := s.repo.Update(ctx, &next)
	if err != nil {
		if errors.Is(err, ErrBoardNotFound) {
			return nil, ErrBoardNotFound
		}
		return nil, fmt.Errorf("failed to update board: %w", err)
	}
	return updated, nil
}

func (s *BoardService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrBoardNotFound) {
			return ErrBoardNotFound
		}
		return fmt.Errorf("failed to delete board: %w", err)
	}
	return nil
}
