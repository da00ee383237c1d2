package project

import "github.com/google/uuid"

// Tier is a caller's effective permission level on a project. Values are
// ordered so that a higher tier satisfies every lower requirement.
type Tier int

const (
	TierNone Tier = iota
	TierViewer
	TierMember
	TierAdmin
	TierOwner
)

func (t Tier) String() string {
	switch t {
	case TierViewer:
		return "viewer"
	case TierMember:
		return "member"
	case TierAdmin:
		return "admin"
	case TierOwner:
		return "owner"
	}
	return "none"
}

// AtLeast reports whether t satisfies the required tier.
func (t Tier) AtLeast(required Tier) bool {
	return t >= required
}

// RoleOf resolves userID's tier. The owner comparison runs before the
// member scan so a stray owner row in Members can never downgrade the owner.
func (p *Project) RoleOf(userID uuid.UUID) Tier {
	if userID == uuid.Nil {
		return TierNone
	}
	if p.OwnerID == userID {
		return TierOwner
	}
	if m, ok := p.member(userID); ok {
		return m.Role.Tier()
	}
	return TierNone
}

func (p *Project) IsOwner(userID uuid.UUID) bool {
	return p.RoleOf(userID) == TierOwner
}

func (p *Project) IsAdmin(userID uuid.UUID) bool {
	return p.RoleOf(userID).AtLeast(TierAdmin)
}

func (p *Project) IsMember(userID uuid.UUID) bool {
	return p.RoleOf(userID) != TierNone
}

// CanRead: public projects are readable by any identity.
func (p *Project) CanRead(userID uuid.UUID) bool {
	return p.IsPublic || p.IsMember(userID)
}

func (p *Project) CanMutateSettings(userID uuid.UUID) bool {
	return p.IsAdmin(userID)
}

func (p *Project) CanMutateMembership(userID uuid.UUID) bool {
	return p.IsAdmin(userID)
}

// CanArchive is owner-only; admins cannot archive.
func (p *Project) CanArchive(userID uuid.UUID) bool {
	return p.IsOwner(userID)
}

// CanMutateContent covers boards, tasks and comments.
func (p *Project) CanMutateContent(userID uuid.UUID) bool {
	return p.RoleOf(userID).AtLeast(TierMember)
}

func (p *Project) member(userID uuid.UUID) (Member, bool) {
	for _, m := range p.Members {
		if m.UserID == userID {
			return m, true
		}
	}
	return Member{}, false
}
