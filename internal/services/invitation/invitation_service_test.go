package invitation

import (
	"context"
	"encoding/base64"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curaious/taskboard/internal/services/project"
	"github.com/curaious/taskboard/internal/services/user"
)

type memStore struct {
	rows map[string]Invitation
	ttls map[string]time.Duration
}

func newMemStore() *memStore {
	return &memStore{rows: map[string]Invitation{}, ttls: map[string]time.Duration{}}
}

func (m *memStore) Save(_ context.Context, inv *Invitation, ttl time.Duration) error {
	m.rows[inv.Token] = *inv
	m.ttls[inv.Token] = ttl
	return nil
}

func (m *memStore) Take(ctx context.Context, token string) (*Invitation, error) {
	inv, err := m.Get(ctx, token)
	if err != nil {
		return nil, err
	}
	delete(m.rows, token)
	return inv, nil
}

func (m *memStore) Get(_ context.Context, token string) (*Invitation, error) {
	inv, ok := m.rows[token]
	if !ok {
		return nil, ErrInvitationNotFound
	}
	return &inv, nil
}

func (m *memStore) Delete(_ context.Context, token string) error {
	if _, ok := m.rows[token]; !ok {
		return ErrInvitationNotFound
	}
	delete(m.rows, token)
	return nil
}

func TestInvitationService_Create(t *testing.T) {
	store := newMemStore()
	svc := NewInvitationService(store, 0)
	ctx := context.Background()
	projectID, inviter := uuid.New(), uuid.New()

	_, err := svc.Create(ctx, projectID, inviter, &CreateInvitationRequest{Email: "nope"})
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, err = svc.Create(ctx, projectID, inviter, &CreateInvitationRequest{Email: "a@example.com", Role: "owner"})
	assert.ErrorIs(t, err, project.ErrInvalidRole)

	inv, err := svc.Create(ctx, projectID, inviter, &CreateInvitationRequest{Email: " Guest@Example.com "})
	require.NoError(t, err)
	assert.Equal(t, "guest@example.com", inv.Email)
	assert.Equal(t, project.RoleMember, inv.Role)
	assert.Equal(t, 72*time.Hour, store.ttls[inv.Token])
	assert.Equal(t, inv.CreatedAt.Add(72*time.Hour), inv.ExpiresAt)

	raw, err := base64.RawURLEncoding.DecodeString(inv.Token)
	require.NoError(t, err)
	assert.Len(t, raw, 32)

	other, err := svc.Create(ctx, projectID, inviter, &CreateInvitationRequest{Email: "guest@example.com"})
	require.NoError(t, err)
	assert.NotEqual(t, inv.Token, other.Token)
}

func TestInvitationService_Redeem(t *testing.T) {
	svc := NewInvitationService(newMemStore(), time.Hour)
	ctx := context.Background()

	inv, err := svc.Create(ctx, uuid.New(), uuid.New(), &CreateInvitationRequest{Email: "guest@example.com", Role: project.RoleAdmin})
	require.NoError(t, err)

	_, err = svc.Redeem(ctx, inv.Token, &user.User{Email: "someone@example.com"})
	assert.ErrorIs(t, err, ErrEmailMismatch)

	got, err := svc.Redeem(ctx, inv.Token, &user.User{Email: "GUEST@example.com"})
	require.NoError(t, err)
	assert.Equal(t, project.RoleAdmin, got.Role)

	_, err = svc.Redeem(ctx, inv.Token, &user.User{Email: "guest@example.com"})
	assert.ErrorIs(t, err, ErrInvitationNotFound)
}

func TestInvitationService_RedeemExpired(t *testing.T) {
	store := newMemStore()
	svc := NewInvitationService(store, time.Hour)
	ctx := context.Background()

	inv, err := svc.Create(ctx, uuid.New(), uuid.New(), &CreateInvitationRequest{Email: "guest@example.com"})
	require.NoError(t, err)

	svc.now = func() time.Time { return inv.ExpiresAt.Add(time.Second) }
	_, err = svc.Redeem(ctx, inv.Token, &user.User{Email: "guest@example.com"})
	assert.ErrorIs(t, err, ErrInvitationNotFound)
	assert.Empty(t, store.rows)
}

func TestInvitationService_RedeemExpiredIgnoresEmail(t *testing.T) {
	tests := []struct {
		name  string
		email string
	}{
		{"invited address", "guest@example.com"},
		{"other address", "intruder@example.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			svc := NewInvitationService(store, time.Hour)
			ctx := context.Background()

			inv, err := svc.Create(ctx, uuid.New(), uuid.New(), &CreateInvitationRequest{Email: "guest@example.com"})
			require.NoError(t, err)

			svc.now = func() time.Time { return inv.ExpiresAt.Add(time.Second) }
			_, err = svc.Redeem(ctx, inv.Token, &user.User{Email: tt.email})
			assert.ErrorIs(t, err, ErrInvitationNotFound)
			assert.NotErrorIs(t, err, ErrEmailMismatch)
			assert.Empty(t, store.rows)
		})
	}
}

func TestInvitationService_Revoke(t *testing.T) {
	store := newMemStore()
	svc := NewInvitationService(store, time.Hour)
	ctx := context.Background()
	projectID := uuid.New()

	inv, err := svc.Create(ctx, projectID, uuid.New(), &CreateInvitationRequest{Email: "guest@example.com"})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Revoke(ctx, uuid.New(), inv.Token), ErrInvitationNotFound)
	require.NoError(t, svc.Revoke(ctx, projectID, inv.Token))

	_, err = store.Get(ctx, inv.Token)
	assert.ErrorIs(t, err, ErrInvitationNotFound)
}
