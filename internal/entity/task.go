package entity

import (
	"strings"
	"time"
)

type TaskStatus string

const (
	StatusTodo       TaskStatus = "TODO"
	StatusInProgress TaskStatus = "IN_PROGRESS"
	StatusDone       TaskStatus = "DONE"
)

var knownStatuses = []TaskStatus{StatusTodo, StatusInProgress, StatusDone}

// ParseStatus accepts any letter case: "in_progress" parses as IN_PROGRESS.
func ParseStatus(raw string) (TaskStatus, bool) {
	s := TaskStatus(strings.ToUpper(strings.TrimSpace(raw)))
	for _, known := range knownStatuses {
		if s == known {
			return s, true
		}
	}
	return "", false
}

type TaskPriority string

const (
	PriorityLow    TaskPriority = "LOW"
	PriorityMedium TaskPriority = "MEDIUM"
	PriorityHigh   TaskPriority = "HIGH"
)

var knownPriorities = []TaskPriority{PriorityLow, PriorityMedium, PriorityHigh}

func ParsePriority(raw string) (TaskPriority, bool) {
	p := TaskPriority(strings.ToUpper(strings.TrimSpace(raw)))
	for _, known := range knownPriorities {
		if p == known {
			return p, true
		}
	}
	return "", false
}

// Task is a stored task record. Nullable columns are pointers.
type Task struct {
	ID            int64         `json:"id"`
	Title         string        `json:"title"`
	Description   *string       `json:"description"`
	DueDate       *time.Time    `json:"due_date"`
	Priority      *TaskPriority `json:"priority"`
	Status        *TaskStatus   `json:"status"`
	Completed     *bool         `json:"completed"`
	OwnerUsername string        `json:"owner_username"`
	Attachment    *string       `json:"attachment_base64"`
	CreatedAt     time.Time     `json:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// IsCompleted treats a missing value as false.
func (t *Task) IsCompleted() bool {
	return t.Completed != nil && *t.Completed
}

// TaskDraft is the input of a create. OwnerUsername is only honored for admins.
type TaskDraft struct {
	Title         string
	Description   *string
	DueDate       *time.Time
	Priority      *TaskPriority
	Status        *TaskStatus
	Completed     *bool
	OwnerUsername string
	Attachment    *string
}

// TaskPatch is a full replacement of the mutable fields: a nil field clears
// the stored value. OwnerUsername is only honored for admins.
type TaskPatch struct {
	Title         string
	Description   *string
	DueDate       *time.Time
	Priority      *TaskPriority
	Status        *TaskStatus
	Completed     *bool
	OwnerUsername string
	Attachment    *string
}

// TaskFilter holds raw filter values as received from a caller.
type TaskFilter struct {
	Status        *string
	Priority      *string
	DueDateBefore *time.Time
	DueDateAfter  *time.Time
}

// TaskCriteria is a query intent for the repository. Zero values match
// everything; an empty Owner means no owner restriction.
type TaskCriteria struct {
	Owner     string
	Status    *TaskStatus
	Priority  *TaskPriority
	DueBefore *time.Time
	DueAfter  *time.Time
}

// Matches reports whether t satisfies every constraint in c.
func (c TaskCriteria) Matches(t *Task) bool {
	if c.Owner != "" && t.OwnerUsername != c.Owner {
		return false
	}
	if c.Status != nil && (t.Status == nil || *t.Status != *c.Status) {
		return false
	}
	if c.Priority != nil && (t.Priority == nil || *t.Priority != *c.Priority) {
		return false
	}
	if c.DueBefore != nil && (t.DueDate == nil || !t.DueDate.Before(*c.DueBefore)) {
		return false
	}
	if c.DueAfter != nil && (t.DueDate == nil || !t.DueDate.After(*c.DueAfter)) {
		return false
	}
	return true
}

// Clone returns a deep copy so callers can mutate without aliasing.
func (t *Task) Clone() *Task {
	c := *t
	if t.Description != nil {
		v := *t.Description
		c.Description = &v
	}
	if t.DueDate != nil {
		v := *t.DueDate
		c.DueDate = &v
	}
	if t.Priority != nil {
		v := *t.Priority
		c.Priority = &v
	}
	if t.Status != nil {
		v := *t.Status
		c.Status = &v
	}
	if t.Completed != nil {
		v := *t.Completed
		c.Completed = &v
	}
	if t.Attachment != nil {
		v := *t.Attachment
		c.Attachment = &v
	}
	return &c
}
