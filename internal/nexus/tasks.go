package nexus

import (
	"context"
	"net/http"
	"time"

	"github.com/odense-rpa/passivering-af-ungesager/pkg/cerr"
)

// EditTask persists an updated task (used to push a due date).
func (c *Client) EditTask(ctx context.Context, task *Task) error {
	href := task.SelfHref()
	if href == "" {
		return cerr.NewError(cerr.Internal, "task has no self link", nil)
	}
	return c.do(ctx, http.MethodPut, href, task, nil)
}

// CloseTask marks a task as done.
func (c *Client) CloseTask(ctx context.Context, task *Task) error {
	href := task.Links.Href("close")
	if href == "" {
		return cerr.NewError(cerr.Internal, "task has no close link", nil)
	}
	return c.do(ctx, http.MethodPost, href, nil, nil)
}

// CreateTaskRequest describes a follow-up task to open on an object.
type CreateTaskRequest struct {
	Object                  Resolvable
	Type                    string
	Title                   string
	ResponsibleOrganization string
	ResponsibleEmployee     *Employee
	StartDate               time.Time
	DueDate                 time.Time
	Description             string
}

type createTaskPayload struct {
	ObjectHref              string `json:"objectHref"`
	Type                    string `json:"type"`
	Title                   string `json:"title"`
	ResponsibleOrganization string `json:"responsibleOrganization"`
	ResponsibleEmployeeID   int64  `json:"responsibleEmployeeId,omitempty"`
	StartDate               string `json:"startDate"`
	DueDate                 string `json:"dueDate"`
	Description             string `json:"description"`
}

// CreateTask opens a new manual follow-up task.
func (c *Client) CreateTask(ctx context.Context, req CreateTaskRequest) error {
	payload := createTaskPayload{
		ObjectHref:              req.Object.SelfHref(),
		Type:                    req.Type,
		Title:                   req.Title,
		ResponsibleOrganization: req.ResponsibleOrganization,
		StartDate:               req.StartDate.Format(DueDateLayout),
		DueDate:                 req.DueDate.Format(DueDateLayout),
		Description:             req.Description,
	}
	if req.ResponsibleEmployee != nil {
		payload.ResponsibleEmployeeID = req.ResponsibleEmployee.ID
	}
	return c.do(ctx, http.MethodPost, "/api/tasks", payload, nil)
}
