package handlers

import (
	"encoding/base64"
	"strings"
	"time"

	"github.com/St1cky1/todo-service/internal/entity"
)

// taskRequest - тело POST/PUT запроса задачи
type taskRequest struct {
	Title            *string `json:"title"`
	Description      *string `json:"description"`
	DueDate          *string `json:"dueDate"`
	Priority         *string `json:"priority"`
	Status           *string `json:"status"`
	Completed        *bool   `json:"completed"`
	OwnerUsername    *string `json:"ownerUsername"`
	AttachmentBase64 *string `json:"attachmentBase64"`
}

type taskResponse struct {
	ID               int64   `json:"id"`
	Title            string  `json:"title"`
	Description      *string `json:"description"`
	DueDate          *string `json:"dueDate"`
	Priority         *string `json:"priority"`
	Status           *string `json:"status"`
	Completed        *bool   `json:"completed"`
	OwnerUsername    string  `json:"ownerUsername"`
	AttachmentBase64 *string `json:"attachmentBase64"`
}

// taskFields are the validated values shared by create and update.
type taskFields struct {
	title         string
	description   *string
	dueDate       *time.Time
	priority      *entity.TaskPriority
	status        *entity.TaskStatus
	completed     *bool
	ownerUsername string
	attachment    *string
}

func (req *taskRequest) validate() (*taskFields, error) {
	if req.Title == nil || strings.TrimSpace(*req.Title) == "" {
		return nil, &entity.ValidationError{Field: "title"}
	}

	fields := &taskFields{
		title:       *req.Title,
		description: req.Description,
		completed:   req.Completed,
		attachment:  req.AttachmentBase64,
	}
	if req.OwnerUsername != nil {
		fields.ownerUsername = strings.TrimSpace(*req.OwnerUsername)
	}

	if req.DueDate != nil {
		due, err := parseDate(*req.DueDate)
		if err != nil {
			return nil, &entity.ValidationError{Field: "dueDate", Message: "expected YYYY-MM-DD"}
		}
		fields.dueDate = &due
	}
	if req.Priority != nil {
		priority, ok := entity.ParsePriority(*req.Priority)
		if !ok {
			return nil, &entity.ValidationError{Field: "priority", Message: "unknown value " + *req.Priority}
		}
		fields.priority = &priority
	}
	if req.Status != nil {
		status, ok := entity.ParseStatus(*req.Status)
		if !ok {
			return nil, &entity.ValidationError{Field: "status", Message: "unknown value " + *req.Status}
		}
		fields.status = &status
	}
	if req.AttachmentBase64 != nil {
		if _, err := base64.StdEncoding.DecodeString(*req.AttachmentBase64); err != nil {
			return nil, &entity.ValidationError{Field: "attachmentBase64", Message: "not valid base64"}
		}
	}

	return fields, nil
}

func (f *taskFields) draft() entity.TaskDraft {
	return entity.TaskDraft{
		Title:         f.title,
		Description:   f.description,
		DueDate:       f.dueDate,
		Priority:      f.priority,
		Status:        f.status,
		Completed:     f.completed,
		OwnerUsername: f.ownerUsername,
		Attachment:    f.attachment,
	}
}

func (f *taskFields) patch() entity.TaskPatch {
	return entity.TaskPatch{
		Title:         f.title,
		Description:   f.description,
		DueDate:       f.dueDate,
		Priority:      f.priority,
		Status:        f.status,
		Completed:     f.completed,
		OwnerUsername: f.ownerUsername,
		Attachment:    f.attachment,
	}
}

func parseDate(raw string) (time.Time, error) {
	return time.Parse(time.DateOnly, strings.TrimSpace(raw))
}

func toTaskResponse(t *entity.Task) taskResponse {
	resp := taskResponse{
		ID:               t.ID,
		Title:            t.Title,
		Description:      t.Description,
		Completed:        t.Completed,
		OwnerUsername:    t.OwnerUsername,
		AttachmentBase64: t.Attachment,
	}
	if t.DueDate != nil {
		due := t.DueDate.Format(time.DateOnly)
		resp.DueDate = &due
	}
	if t.Priority != nil {
		priority := string(*t.Priority)
		resp.Priority = &priority
	}
	if t.Status != nil {
		status := string(*t.Status)
		resp.Status = &status
	}
	return resp
}

func toTaskResponses(tasks []entity.Task) []taskResponse {
	out := make([]taskResponse, len(tasks))
	for i := range tasks {
		out[i] = toTaskResponse(&tasks[i])
	}
	return out
}
