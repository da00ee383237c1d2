package invitation

import (
	"time"

	"github.com/google/uuid"

	"github.com/curaious/taskboard/internal/services/project"
)

// Invitation grants whoever holds Token and owns Email a membership of
// ProjectID with Role, until ExpiresAt.
type Invitation struct {
	Token     string             `json:"token"`
	ProjectID uuid.UUID          `json:"project_id"`
	Email     string             `json:"email"`
	Role      project.MemberRole `json:"role"`
	InviterID uuid.UUID          `json:"inviter_id"`
	CreatedAt time.Time          `json:"created_at"`
	ExpiresAt time.Time          `json:"expires_at"`
}

type CreateInvitationRequest struct {
	Email string             `json:"email"`
	Role  project.MemberRole `json:"role"`
}
