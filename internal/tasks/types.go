package tasks

import "todo-ideas-backend/internal/httpx"

// TaskInput is the body of POST /api/tasks and PUT /api/tasks/{id}.
type TaskInput struct {
	ID        *int64  `json:"id"`
	Text      *string `json:"text"`
	Completed *bool   `json:"completed"`
	TaskOwner *string `json:"task_owner"`
	DueDate   *Date   `json:"due_date"`
}

// Fields validates the input. Text must be present but may be empty, as for
// ideas. An omitted completion flag means false and an empty due date means none.
func (in TaskInput) Fields() (Fields, error) {
	if in.Text == nil {
		return Fields{}, httpx.BadRequest("text is required")
	}
	f := Fields{
		Text:      *in.Text,
		TaskOwner: in.TaskOwner,
		DueDate:   in.DueDate,
	}
	if in.Completed != nil {
		f.Completed = *in.Completed
	}
	if f.DueDate != nil && f.DueDate.IsZero() {
		f.DueDate = nil
	}
	return f, nil
}
