package project

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
	ErrNameRequired = errors.New("project name is required")
	ErrNameTooLong  = fmt.Errorf("project name exceeds %d characters", maxNameLength)
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

// ProjectService persists projects and memberships. It trusts its caller:
// authorization happens before any of these methods run.
type ProjectService struct {
	repo Repository
	now  func() time.Time
}

// NewProjectService constructs a new ProjectService
func NewProjectService(repo Repository) *ProjectService {
	return &ProjectService{repo: repo, now: time.Now}
}

// Create registers a new project owned by ownerID.
func (s *ProjectService) Create(ctx context.Context, ownerID uuid.UUID, req *CreateProjectRequest) (*Project, error) {
	name, err := normalizeName(req.Name)
	if err != nil {
		return nil, err
	}

	project, err := s.repo.Create(ctx, &Project{
		Name:        name,
		Description: req.Description,
		OwnerID:     ownerID,
		IsPublic:    req.IsPublic,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	return project, nil
}

// GetByID fetches a project by its identifier
func (s *ProjectService) GetByID(ctx context.Context, id uuid.UUID) (*Project, error) {
	project, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrProjectNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	return project, nil
}

// ListForUser returns the caller's active projects
func (s *ProjectService) ListForUser(ctx context.Context, userID uuid.UUID) ([]*Project, error) {
	projects, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	return projects, nil
}

// Update modifies project settings
func (s *ProjectService) Update(ctx context.Context, id uuid.UUID, req *UpdateProjectRequest) (*Project, error) {
	if req.Name != nil {
		name, err := normalizeName(*req.Name)
		if err != nil {
			return nil, err
		}
		req.Name = &name
	}

	project, err := s.repo.Update(ctx, id, req)
	if err != nil {
		if errors.Is(err, ErrProjectNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to update project: %w", err)
	}

	return project, nil
}

// Archive hides a project from every read and mutation path.
func (s *ProjectService) Archive(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Archive(ctx, id); err != nil {
		if errors.Is(err, ErrProjectNotFound) {
			return ErrProjectNotFound
		}
		return fmt.Errorf("failed to archive project: %w", err)
	}

	return nil
}

// AddMember adds userID to the project p was loaded as. A concurrent
// membership change since p was loaded yields ErrVersionConflict.
func (s *ProjectService) AddMember(ctx context.Context, p *Project, userID uuid.UUID, role MemberRole) (*Project, error) {
	next := p.clone()
	if err := next.AddMember(userID, role, s.now().UTC()); err != nil {
		return nil, err
	}
	if err := s.repo.SaveMembers(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}

// RemoveMember is a no-op when userID is not a member.
func (s *ProjectService) RemoveMember(ctx context.Context, p *Project, userID uuid.UUID) (*Project, error) {
	next := p.clone()
	if !next.RemoveMember(userID) {
		return next, nil
	}
	if err := s.repo.SaveMembers(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}

func (s *ProjectService) UpdateMemberRole(ctx context.Context, p *Project, userID uuid.UUID, role MemberRole) (*Project, error) {
	next := p.clone()
	if err := next.UpdateMemberRole(userID, role); err != nil {
		return nil, err
	}
	if err := s.repo.SaveMembers(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}

func (p *Project) clone() *Project {
	c := *p
	c.Members = append([]Member(nil), p.Members...)
	return &c
}
