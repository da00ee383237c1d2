package project

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrAlreadyMember  = errors.New("user is already a member of the project")
	ErrMemberNotFound = errors.New("user is not a member of the project")
	ErrInvalidRole    = errors.New("invalid project role")
)

// AddMember appends a membership. It performs no authorization.
func (p *Project) AddMember(userID uuid.UUID, role MemberRole, now time.Time) error {
	if !role.IsValid() {
		return ErrInvalidRole
	}
	if userID == p.OwnerID {
		return ErrAlreadyMember
	}
	if _, ok := p.member(userID); ok {
		return ErrAlreadyMember
	}
	p.Members = append(p.Members, Member{UserID: userID, Role: role, JoinedAt: now})
	return nil
}

// RemoveMember is idempotent and reports whether a row was removed.
func (p *Project) RemoveMember(userID uuid.UUID) bool {
	for i, m := range p.Members {
		if m.UserID == userID {
			p.Members = append(p.Members[:i], p.Members[i+1:]...)
			return true
		}
	}
	return false
}

// UpdateMemberRole replaces the role of an existing member and nothing else.
func (p *Project) UpdateMemberRole(userID uuid.UUID, role MemberRole) error {
	if !role.IsValid() {
		return ErrInvalidRole
	}
	for i := range p.Members {
		if p.Members[i].UserID == userID {
			p.Members[i].Role = role
			return nil
		}
	}
	return ErrMemberNotFound
}
