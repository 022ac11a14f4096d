package grpc

import (
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/St1cky1/todo-service/internal/entity"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

func taskToMap(t *entity.Task) map[string]any {
	m := map[string]any{
		"id":               t.ID,
		"title":            t.Title,
		"description":      nil,
		"dueDate":          nil,
		"priority":         nil,
		"status":           nil,
		"completed":        nil,
		"ownerUsername":    t.OwnerUsername,
		"attachmentBase64": nil,
	}
	if t.Description != nil {
		m["description"] = *t.Description
	}
	if t.DueDate != nil {
		m["dueDate"] = t.DueDate.Format(time.DateOnly)
	}
	if t.Priority != nil {
		m["priority"] = string(*t.Priority)
	}
	if t.Status != nil {
		m["status"] = string(*t.Status)
	}
	if t.Completed != nil {
		m["completed"] = *t.Completed
	}
	if t.Attachment != nil {
		m["attachmentBase64"] = *t.Attachment
	}
	return m
}

func taskToStruct(t *entity.Task) (*structpb.Struct, error) {
	return structpb.NewStruct(taskToMap(t))
}

// tasksToStruct оборачивает список в {"tasks": [...]}
func tasksToStruct(tasks []entity.Task) (*structpb.Struct, error) {
	list := make([]any, len(tasks))
	for i := range tasks {
		list[i] = taskToMap(&tasks[i])
	}
	return structpb.NewStruct(map[string]any{"tasks": list})
}

// optString returns nil for a missing or null field.
func optString(req *structpb.Struct, key string) (*string, error) {
	v, ok := req.GetFields()[key]
	if !ok {
		return nil, nil
	}
	switch kind := v.GetKind().(type) {
	case *structpb.Value_NullValue:
		return nil, nil
	case *structpb.Value_StringValue:
		s := kind.StringValue
		return &s, nil
	default:
		return nil, &entity.ValidationError{Field: key, Message: "expected a string"}
	}
}

func optBool(req *structpb.Struct, key string) (*bool, error) {
	v, ok := req.GetFields()[key]
	if !ok {
		return nil, nil
	}
	switch kind := v.GetKind().(type) {
	case *structpb.Value_NullValue:
		return nil, nil
	case *structpb.Value_BoolValue:
		b := kind.BoolValue
		return &b, nil
	default:
		return nil, &entity.ValidationError{Field: key, Message: "expected a boolean"}
	}
}

func taskID(req *structpb.Struct) (int64, error) {
	v, ok := req.GetFields()["id"].GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return 0, &entity.ValidationError{Field: "id"}
	}
	n := v.NumberValue
	if n <= 0 || n != math.Trunc(n) || n >= math.MaxInt64 {
		return 0, &entity.ValidationError{Field: "id", Message: fmt.Sprintf("invalid value %v", n)}
	}
	return int64(n), nil
}

func optDate(req *structpb.Struct, key string) (*time.Time, error) {
	raw, err := optString(req, key)
	if err != nil || raw == nil {
		return nil, err
	}
	day, err := time.Parse(time.DateOnly, strings.TrimSpace(*raw))
	if err != nil {
		return nil, &entity.ValidationError{Field: key, Message: "expected YYYY-MM-DD"}
	}
	return &day, nil
}

// parseTaskInput validates the writable task fields of a create or update.
func parseTaskInput(req *structpb.Struct) (entity.TaskDraft, error) {
	var draft entity.TaskDraft

	title, err := optString(req, "title")
	if err != nil {
		return draft, err
	}
	if title == nil || strings.TrimSpace(*title) == "" {
		return draft, &entity.ValidationError{Field: "title"}
	}
	draft.Title = *title

	if draft.Description, err = optString(req, "description"); err != nil {
		return draft, err
	}
	if draft.DueDate, err = optDate(req, "dueDate"); err != nil {
		return draft, err
	}
	if draft.Completed, err = optBool(req, "completed"); err != nil {
		return draft, err
	}

	priority, err := optString(req, "priority")
	if err != nil {
		return draft, err
	}
	if priority != nil {
		p, ok := entity.ParsePriority(*priority)
		if !ok {
			return draft, &entity.ValidationError{Field: "priority", Message: "unknown value " + *priority}
		}
		draft.Priority = &p
	}

	taskStatus, err := optString(req, "status")
	if err != nil {
		return draft, err
	}
	if taskStatus != nil {
		st, ok := entity.ParseStatus(*taskStatus)
		if !ok {
			return draft, &entity.ValidationError{Field: "status", Message: "unknown value " + *taskStatus}
		}
		draft.Status = &st
	}

	owner, err := optString(req, "ownerUsername")
	if err != nil {
		return draft, err
	}
	if owner != nil {
		draft.OwnerUsername = strings.TrimSpace(*owner)
	}

	if draft.Attachment, err = optString(req, "attachmentBase64"); err != nil {
		return draft, err
	}
	if draft.Attachment != nil {
		if _, err := base64.StdEncoding.DecodeString(*draft.Attachment); err != nil {
			return draft, &entity.ValidationError{Field: "attachmentBase64", Message: "not valid base64"}
		}
	}

	return draft, nil
}

func parseFilter(req *structpb.Struct) (entity.TaskFilter, error) {
	var (
		filter entity.TaskFilter
		err    error
	)
	if filter.Status, err = optString(req, "status"); err != nil {
		return filter, err
	}
	if filter.Priority, err = optString(req, "priority"); err != nil {
		return filter, err
	}
	if filter.DueDateBefore, err = optDate(req, "dueDateBefore"); err != nil {
		return filter, err
	}
	if filter.DueDateAfter, err = optDate(req, "dueDateAfter"); err != nil {
		return filter, err
	}
	return filter, nil
}

// toStatus maps core errors to gRPC status codes. Unknown errors are logged
// and reported as Internal without details.
func toStatus(logger *slog.Logger, method string, err error) error {
	switch {
	case errors.Is(err, entity.ErrTaskNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, entity.ErrInvalidFilterValue), errors.Is(err, entity.ErrValidationFailed):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, entity.ErrUnauthenticated):
		return status.Error(codes.Unauthenticated, err.Error())
	default:
		logger.Error("gRPC call failed", "method", method, "error", err)
		return status.Error(codes.Internal, "internal error")
	}
}
