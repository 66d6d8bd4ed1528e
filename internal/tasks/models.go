package tasks

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type Task struct {
	ID        int64     `json:"id"`
	Text      string    `json:"text"`
	Completed bool      `json:"completed"`
	TaskOwner *string   `json:"task_owner"`
	DueDate   *Date     `json:"due_date"`
	CreatedAt time.Time `json:"created_at"`
}

// Fields are the caller-controlled columns of a task.
type Fields struct {
	Text      string
	Completed bool
	TaskOwner *string
	DueDate   *Date
}

const dateLayout = "2006-01-02"

// Date is a calendar day, encoded as "YYYY-MM-DD".
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts a plain date or a full RFC 3339 timestamp, keeping
// only its calendar day. An empty string yields the zero Date.
func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("due_date: %w", err)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		*d = Date{}
		return nil
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		*d = Date{t}
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("due_date: expected YYYY-MM-DD, got %q", s)
	}
	*d = NewDate(t.Year(), t.Month(), t.Day())
	return nil
}
