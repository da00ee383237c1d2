package board

import (
	"time"

	"github.com/google/uuid"
)

// Settings are stored inline on the board row.
type Settings struct {
	AllowComments    bool `json:"allow_comments" db:"allow_comments"`
	AllowAttachments bool `json:"allow_attachments" db:"allow_attachments"`
	AllowAssignments bool `json:"allow_assignments" db:"allow_assignments"`
	// MaxTasks of 0 means unlimited.
	MaxTasks int `json:"max_tasks" db:"max_tasks"`
}

func DefaultSettings() Settings {
	return Settings{AllowComments: true, AllowAttachments: true, AllowAssignments: true}
}

// Board has no access list of its own; ProjectID decides who may touch it.
type Board struct {
	ID          uuid.UUID `json:"id" db:"id"`
	ProjectID   uuid.UUID `json:"project_id" db:"project_id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Position    int       `json:"position" db:"position"`
	Settings
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type SettingsPatch struct {
	AllowComments    *bool `json:"allow_comments,omitempty"`
	AllowAttachments *bool `json:"allow_attachments,omitempty"`
	AllowAssignments *bool `json:"allow_assignments,omitempty"`
	MaxTasks         *int  `json:"max_tasks,omitempty"`
}

type CreateBoardRequest struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Settings    *SettingsPatch `json:"settings,omitempty"`
}

type UpdateBoardRequest struct {
	Name        *string        `json:"name,omitempty"`
	Description *string        `json:"description,omitempty"`
	Position    *int           `json:"position,omitempty"`
	Settings    *SettingsPatch `json:"settings,omitempty"`
}

func (s Settings) apply(patch *SettingsPatch) Settings {
	if patch == nil {
		return s
	}
	if patch.AllowComments != nil {
		s.AllowComments = *patch.AllowComments
	}
	if patch.AllowAttachments != nil {
		s.AllowAttachments = *patch.AllowAttachments
	}
	if patch.AllowAssignments != nil {
		s.AllowAssignments = *patch.AllowAssignments
	}
	if patch.MaxTasks != nil {
		s.MaxTasks = *patch.MaxTasks
	}
	return s
}
