package unicrew

import (
	"context"
	"fmt"
	"time"
)

// TasksService wraps the per-team task tracker. The backend scopes results
// by role: team creators see every task, members only their own.
type TasksService struct {
	client *Client
}

// TaskCreate is the payload for creating a task. The assignee is referenced
// by username.
type TaskCreate struct {
	Title              string     `json:"title"`
	Description        string     `json:"description"`
	AssignedToUsername string     `json:"assigned_to_username,omitempty"`
	Priority           string     `json:"priority,omitempty"`
	DueDate            *time.Time `json:"due_date,omitempty"`
}

// TaskUpdate is the payload for a full task edit.
type TaskUpdate struct {
	Title              string     `json:"title"`
	Description        string     `json:"description"`
	AssignedToUsername string     `json:"assigned_to_username,omitempty"`
	Status             string     `json:"status,omitempty"`
	Priority           string     `json:"priority,omitempty"`
	DueDate            *time.Time `json:"due_date,omitempty"`
}

// List returns the team's tasks visible to the caller.
func (s *TasksService) List(ctx context.Context, teamID int64) ([]Task, error) {
	return getJSON[[]Task](ctx, s.client, fmt.Sprintf("teams/%d/tasks/", teamID), asList())
}

// Create adds a task to a team the caller owns.
func (s *TasksService) Create(ctx context.Context, teamID int64, task TaskCreate) (Task, error) {
	return postJSON[Task](ctx, s.client, fmt.Sprintf("teams/%d/tasks/", teamID), task)
}

// Update replaces a task's editable fields.
func (s *TasksService) Update(ctx context.Context, teamID, taskID int64, task TaskUpdate) (Task, error) {
	data, err := s.client.put(ctx, fmt.Sprintf("teams/%d/tasks/%d/", teamID, taskID), task)
	if err != nil {
		return Task{}, err
	}
	return decodeJSON[Task](data, "task update")
}

// SetStatus moves a task between the tracker columns (TODO, IN_PROGRESS,
// DONE) without touching its other fields.
func (s *TasksService) SetStatus(ctx context.Context, teamID, taskID int64, status string) (Task, error) {
	data, err := s.client.patchRaw(ctx, fmt.Sprintf("teams/%d/tasks/%d/", teamID, taskID), []byte(fmt.Sprintf(`{"status":%q}`, status)))
	if err != nil {
		return Task{}, err
	}
	return decodeJSON[Task](data, "task status")
}

// Delete removes a task.
func (s *TasksService) Delete(ctx context.Context, teamID, taskID int64) error {
	_, err := s.client.delete(ctx, fmt.Sprintf("teams/%d/tasks/%d/", teamID, taskID))
	return err
}
