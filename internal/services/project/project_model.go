package project

import (
	"time"

	"github.com/google/uuid"
)

// MemberRole is the role stored on a membership row. There is no owner
// role: ownership is the OwnerID relation and never a member entry.
type MemberRole string

const (
	RoleAdmin  MemberRole = "admin"
	RoleMember MemberRole = "member"
	RoleViewer MemberRole = "viewer"
)

func (r MemberRole) IsValid() bool {
	switch r {
	case RoleAdmin, RoleMember, RoleViewer:
		return true
	}
	return false
}

// Tier returns the effective tier a member with this role holds.
func (r MemberRole) Tier() Tier {
	switch r {
	case RoleAdmin:
		return TierAdmin
	case RoleMember:
		return TierMember
	case RoleViewer:
		return TierViewer
	}
	return TierNone
}

type Member struct {
	UserID   uuid.UUID  `json:"user_id" db:"user_id"`
	Role     MemberRole `json:"role" db:"role"`
	JoinedAt time.Time  `json:"joined_at" db:"joined_at"`
}

// Project is the top-level container. Members are loaded from
// project_members in join order.
type Project struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	OwnerID     uuid.UUID `json:"owner_id" db:"owner_id"`
	Members     []Member  `json:"members" db:"-"`
	IsPublic    bool      `json:"is_public" db:"is_public"`
	IsArchived  bool      `json:"is_archived" db:"is_archived"`
	Version     int64     `json:"version" db:"version"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// CreateProjectRequest captures payload for creating a project
type CreateProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsPublic    bool   `json:"is_public"`
}

// UpdateProjectRequest captures payload for updating project settings
type UpdateProjectRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	IsPublic    *bool   `json:"is_public,omitempty"`
}

type AddMemberRequest struct {
	UserID uuid.UUID  `json:"user_id"`
	Role   MemberRole `json:"role"`
}

type UpdateMemberRoleRequest struct {
	Role MemberRole `json:"role"`
}
