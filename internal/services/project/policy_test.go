package project

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProject(members ...Member) *Project {
	return &Project{ID: uuid.New(), Name: "Launch", OwnerID: uuid.New(), Members: members}
}

func TestTier_Ordering(t *testing.T) {
	tiers := []Tier{TierNone, TierViewer, TierMember, TierAdmin, TierOwner}
	for i, lower := range tiers {
		for _, higher := range tiers[i:] {
			assert.True(t, higher.AtLeast(lower), "%s should satisfy %s", higher, lower)
		}
		for _, higher := range tiers[i+1:] {
			assert.False(t, lower.AtLeast(higher), "%s should not satisfy %s", lower, higher)
		}
	}
}

func TestProject_RoleOf(t *testing.T) {
	admin, member, viewer := uuid.New(), uuid.New(), uuid.New()
	p := newProject(
		Member{UserID: admin, Role: RoleAdmin},
		Member{UserID: member, Role: RoleMember},
		Member{UserID: viewer, Role: RoleViewer},
	)

	tests := []struct {
		name string
		user uuid.UUID
		want Tier
	}{
		{"owner", p.OwnerID, TierOwner},
		{"admin", admin, TierAdmin},
		{"member", member, TierMember},
		{"viewer", viewer, TierViewer},
		{"stranger", uuid.New(), TierNone},
		{"nil identity", uuid.Nil, TierNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.RoleOf(tt.user))
		})
	}
}

func TestProject_TierMonotonicity(t *testing.T) {
	admin, member, viewer := uuid.New(), uuid.New(), uuid.New()
	p := newProject(
		Member{UserID: admin, Role: RoleAdmin},
		Member{UserID: member, Role: RoleMember},
		Member{UserID: viewer, Role: RoleViewer},
	)

	for _, u := range []uuid.UUID{p.OwnerID, admin, member, viewer, uuid.New()} {
		if p.IsOwner(u) {
			assert.True(t, p.IsAdmin(u))
		}
		if p.IsAdmin(u) {
			assert.True(t, p.IsMember(u))
		}
	}
}

func TestProject_OwnerWithoutMembers(t *testing.T) {
	p := newProject()

	assert.True(t, p.IsMember(p.OwnerID))
	assert.True(t, p.IsAdmin(p.OwnerID))
	assert.True(t, p.IsOwner(p.OwnerID))
	assert.Equal(t, TierOwner, p.RoleOf(p.OwnerID))
	assert.True(t, p.CanArchive(p.OwnerID))
}

func TestProject_OwnerDuplicatedIntoMembers(t *testing.T) {
	p := newProject()
	p.Members = []Member{{UserID: p.OwnerID, Role: RoleViewer}}

	assert.Equal(t, TierOwner, p.RoleOf(p.OwnerID))
	assert.True(t, p.CanMutateMembership(p.OwnerID))
}

func TestProject_Capabilities(t *testing.T) {
	admin, member, viewer, stranger := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	p := newProject(
		Member{UserID: admin, Role: RoleAdmin},
		Member{UserID: member, Role: RoleMember},
		Member{UserID: viewer, Role: RoleViewer},
	)

	tests := []struct {
		name                                string
		user                                uuid.UUID
		read, settings, membership, archive bool
		content                             bool
	}{
		{"owner", p.OwnerID, true, true, true, true, true},
		{"admin", admin, true, true, true, false, true},
		{"member", member, true, false, false, false, true},
		{"viewer", viewer, true, false, false, false, false},
		{"stranger", stranger, false, false, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.read, p.CanRead(tt.user))
			assert.Equal(t, tt.settings, p.CanMutateSettings(tt.user))
			assert.Equal(t, tt.membership, p.CanMutateMembership(tt.user))
			assert.Equal(t, tt.archive, p.CanArchive(tt.user))
			assert.Equal(t, tt.content, p.CanMutateContent(tt.user))
		})
	}

	t.Run("public project", func(t *testing.T) {
		p.IsPublic = true
		assert.True(t, p.CanRead(stranger))
		assert.False(t, p.IsMember(stranger))
		assert.False(t, p.CanMutateContent(stranger))
	})
}

func TestProject_AddMember(t *testing.T) {
	p := newProject()
	m := uuid.New()
	now := time.Now()

	require.NoError(t, p.AddMember(m, RoleMember, now))
	assert.ErrorIs(t, p.AddMember(m, RoleAdmin, now), ErrAlreadyMember)
	assert.ErrorIs(t, p.AddMember(p.OwnerID, RoleAdmin, now), ErrAlreadyMember)
	assert.ErrorIs(t, p.AddMember(uuid.New(), MemberRole("owner"), now), ErrInvalidRole)

	require.Len(t, p.Members, 1)
	assert.Equal(t, RoleMember, p.Members[0].Role)
	for _, member := range p.Members {
		assert.NotEqual(t, p.OwnerID, member.UserID)
	}
}

func TestProject_RemoveMember(t *testing.T) {
	m := uuid.New()
	p := newProject(Member{UserID: m, Role: RoleMember})

	assert.False(t, p.RemoveMember(uuid.New()))
	assert.Len(t, p.Members, 1)

	assert.True(t, p.RemoveMember(m))
	assert.Empty(t, p.Members)
	assert.False(t, p.RemoveMember(m))
}

func TestProject_UpdateMemberRole(t *testing.T) {
	joined := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	m := uuid.New()
	p := newProject(Member{UserID: m, Role: RoleViewer, JoinedAt: joined})

	assert.ErrorIs(t, p.UpdateMemberRole(uuid.New(), RoleAdmin), ErrMemberNotFound)
	assert.ErrorIs(t, p.UpdateMemberRole(m, "superuser"), ErrInvalidRole)

	require.NoError(t, p.UpdateMemberRole(m, RoleAdmin))
	assert.Equal(t, Member{UserID: m, Role: RoleAdmin, JoinedAt: joined}, p.Members[0])
}
