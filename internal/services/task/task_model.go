package task

import (
	"database/sql/driver"
	"fmt"
	"time"

	json "github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusReview     Status = "review"
	StatusDone       Status = "done"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusReview, StatusDone:
		return true
	}
	return false
}

// Attachment is metadata only; the bytes live elsewhere.
type Attachment struct {
	Name        string    `json:"name"`
	URL         string    `json:"url"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	UploadedBy  uuid.UUID `json:"uploaded_by"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// Attachments is stored in a JSONB column
type Attachments []Attachment

// Scan implements the sql.Scanner interface for database/sql
func (a *Attachments) Scan(value interface{}) error {
	if value == nil {
		*a = Attachments{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into Attachments", value)
	}

	return json.Unmarshal(bytes, a)
}

// Value implements the driver.Valuer interface for database/sql
func (a Attachments) Value() (driver.Value, error) {
	if a == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Attachment(a))
}

// IDList is stored in a uuid[] column.
type IDList []uuid.UUID

func (l *IDList) Scan(value interface{}) error {
	var ids []uuid.UUID
	if err := (pq.GenericArray{A: &ids}).Scan(value); err != nil {
		return err
	}
	if ids == nil {
		ids = []uuid.UUID{}
	}
	*l = ids
	return nil
}

func (l IDList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "{}", nil
	}
	return pq.GenericArray{A: []uuid.UUID(l)}.Value()
}

func (l IDList) Contains(id uuid.UUID) bool {
	for _, v := range l {
		if v == id {
			return true
		}
	}
	return false
}

// Task belongs to exactly one board at a time; it only changes board
// through a move.
type Task struct {
	ID          uuid.UUID      `json:"id" db:"id"`
	BoardID     uuid.UUID      `json:"board_id" db:"board_id"`
	Title       string         `json:"title" db:"title"`
	Description string         `json:"description" db:"description"`
	CreatedBy   uuid.UUID      `json:"created_by" db:"created_by"`
	Assignees   IDList         `json:"assignees" db:"assignees"`
	Priority    Priority       `json:"priority" db:"priority"`
	Status      Status         `json:"status" db:"status"`
	IsCompleted bool           `json:"is_completed" db:"is_completed"`
	CompletedAt *time.Time     `json:"completed_at,omitempty" db:"completed_at"`
	CompletedBy *uuid.UUID     `json:"completed_by,omitempty" db:"completed_by"`
	DueDate     *time.Time     `json:"due_date,omitempty" db:"due_date"`
	Position    int            `json:"position" db:"position"`
	Labels      pq.StringArray `json:"labels" db:"labels"`
	Attachments Attachments    `json:"attachments" db:"attachments"`
	Comments    []Comment      `json:"comments" db:"-"`
	CreatedAt   time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at" db:"updated_at"`
}

type Comment struct {
	ID        uuid.UUID `json:"id" db:"id"`
	TaskID    uuid.UUID `json:"task_id" db:"task_id"`
	AuthorID  uuid.UUID `json:"author_id" db:"author_id"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type CreateTaskRequest struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Priority    Priority    `json:"priority,omitempty"`
	Status      Status      `json:"status,omitempty"`
	DueDate     *time.Time  `json:"due_date,omitempty"`
	Assignees   []uuid.UUID `json:"assignees,omitempty"`
	Labels      []string    `json:"labels,omitempty"`
}

type UpdateTaskRequest struct {
	Title        *string      `json:"title,omitempty"`
	Description  *string      `json:"description,omitempty"`
	Priority     *Priority    `json:"priority,omitempty"`
	Status       *Status      `json:"status,omitempty"`
	DueDate      *time.Time   `json:"due_date,omitempty"`
	ClearDueDate bool         `json:"clear_due_date,omitempty"`
	Position     *int         `json:"position,omitempty"`
	Assignees    *[]uuid.UUID `json:"assignees,omitempty"`
	Labels       *[]string    `json:"labels,omitempty"`
	Attachments  *Attachments `json:"attachments,omitempty"`
}

type MoveTaskRequest struct {
	BoardID  uuid.UUID `json:"board_id"`
	Position *int      `json:"position,omitempty"`
}

type CompletionRequest struct {
	Completed bool `json:"completed"`
}

type AddCommentRequest struct {
	Content string `json:"content"`
}
