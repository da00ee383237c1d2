package invitation

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"

	"github.com/curaious/taskboard/internal/services/project"
	"github.com/curaious/taskboard/internal/services/user"
)

var (
	ErrInvalidEmail  = errors.New("invalid invitee email")
	ErrEmailMismatch = errors.New("invitation was issued to a different email")
)

const defaultTTL = 72 * time.Hour

// InvitationService issues and redeems invitation tokens. It does not add
// members itself; redemption hands the invitation back to the caller.
type InvitationService struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
}

func NewInvitationService(store Store, ttl time.Duration) *InvitationService {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &InvitationService{store: store, ttl: ttl, now: time.Now}
}

func (s *InvitationService) Create(ctx context.Context, projectID, inviterID uuid.UUID, req *CreateInvitationRequest) (*Invitation, error) {
	email := user.NormalizeEmail(req.Email)
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		return nil, ErrInvalidEmail
	}
	role := req.Role
	if role == "" {
		role = project.RoleMember
	}
	if !role.IsValid() {
		return nil, project.ErrInvalidRole
	}

	token, err := generateToken()
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	inv := &Invitation{
		Token:     token,
		ProjectID: projectID,
		Email:     email,
		Role:      role,
		InviterID: inviterID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.store.Save(ctx, inv, s.ttl); err != nil {
		return nil, err
	}
	return inv, nil
}

// Revoke deletes an invitation of projectID. Tokens of other projects are
// reported as not found.
func (s *InvitationService) Revoke(ctx context.Context, projectID uuid.UUID, token string) error {
	inv, err := s.store.Get(ctx, token)
	if err != nil {
		return err
	}
	if inv.ProjectID != projectID {
		return ErrInvitationNotFound
	}
	return s.store.Delete(ctx, token)
}

// Redeem consumes the token for redeemer. A mismatched email leaves the
// invitation in place.
func (s *InvitationService) Redeem(ctx context.Context, token string, redeemer *user.User) (*Invitation, error) {
	inv, err := s.store.Get(ctx, token)
	if err != nil {
		return nil, err
	}
	// An expired token is gone for everyone, whoever presents it.
	if s.now().After(inv.ExpiresAt) {
		_ = s.store.Delete(ctx, token)
		return nil, ErrInvitationNotFound
	}
	if inv.Email != user.NormalizeEmail(redeemer.Email) {
		return nil, ErrEmailMismatch
	}
	// Take makes redemption single use even when two requests race past Get.
	return s.store.Take(ctx, token)
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString(b), nil
}
