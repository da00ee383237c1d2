package user

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserInactive       = errors.New("user is deactivated")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrNameRequired       = errors.New("name is required")
	ErrNotAllowed         = errors.New("not allowed")
)

const minPasswordLength = 8

type UserService struct {
	repo Repository
	cost int
}

func NewUserService(repo Repository) *UserService {
	return &UserService{repo: repo, cost: bcrypt.DefaultCost}
}

// NormalizeEmail is the single place emails are canonicalised; uniqueness is
// enforced on the normalised form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *UserService) Register(ctx context.Context, req *RegisterRequest) (*User, error) {
	email := NormalizeEmail(req.Email)
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, ErrInvalidEmail
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	if len(req.Password) < minPasswordLength {
		return nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	return s.create(ctx, name, email, string(hash))
}

// RegisterExternal creates an identity authenticated elsewhere (SSO). It has
// no usable password hash.
func (s *UserService) RegisterExternal(ctx context.Context, name, email string) (*User, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, ErrInvalidEmail
	}
	if strings.TrimSpace(name) == "" {
		name = email
	}
	return s.create(ctx, name, email, "")
}

func (s *UserService) create(ctx context.Context, name, email, hash string) (*User, error) {
	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("failed to validate email: %w", err)
	}

	return s.repo.Create(ctx, &User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		IsActive:     true,
		Role:         RoleUser,
	})
}

func (s *UserService) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.GetByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if user.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password))
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	// Checked after the password so a wrong guess never reveals the account state.
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*User, error) {
	return s.repo.GetByEmail(ctx, NormalizeEmail(email))
}

// GetActive resolves an identity that may act in the system.
func (s *UserService) GetActive(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, ErrUserInactive
	}
	return u, nil
}

func (s *UserService) ChangePassword(ctx context.Context, id uuid.UUID, req *ChangePasswordRequest) error {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if u.PasswordHash != "" {
		if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.CurrentPassword)); err != nil {
			return ErrInvalidCredentials
		}
	}
	if len(req.NewPassword) < minPasswordLength {
		return ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.cost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return s.repo.UpdatePasswordHash(ctx, id, string(hash))
}

// Deactivate soft-deletes an identity. Callers may deactivate themselves;
// global admins may deactivate anyone.
func (s *UserService) Deactivate(ctx context.Context, callerID, targetID uuid.UUID) error {
	if callerID != targetID {
		caller, err := s.repo.GetByID(ctx, callerID)
		if err != nil {
			return err
		}
		if !caller.IsActive || caller.Role != RoleAdmin {
			return ErrNotAllowed
		}
	}
	return s.repo.SetActive(ctx, targetID, false)
}
