package board

import (
	"context"
	"errors"
	"fmt"
)

var ErrCapacityExceeded = errors.New("board has reached its maximum number of tasks")

// HasReachedMaxTasks reports whether a board holding count tasks is full.
// The check is advisory: concurrent creators can both pass it.
func HasReachedMaxTasks(b *Board, count int) bool {
	if b.MaxTasks == 0 {
		return false
	}
	return count >= b.MaxTasks
}

// HasReachedMaxTasks counts the board's tasks and applies the limit.
func (s *BoardService) HasReachedMaxTasks(ctx context.Context, b *Board) (bool, error) {
	if b.MaxTasks == 0 {
		return false, nil
	}
	count, err := s.repo.CountTasks(ctx, b.ID)
	if err != nil {
		return false, fmt.Errorf("failed to count board tasks: %w", err)
	}
	return HasReachedMaxTasks(b, count), nil
}

// EnsureCapacity returns ErrCapacityExceeded when b cannot take another task.
func (s *BoardService) EnsureCapacity(ctx context.Context, b *Board) error {
	full, err := s.HasReachedMaxTasks(ctx, b)
	if err != nil {
		return err
	}
	if full {
		return ErrCapacityExceeded
	}
	return nil
}
