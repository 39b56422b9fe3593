package model

import (
	"encoding/json"
	"time"
)

// TimeLayout is the wire format for timestamps: RFC 3339 in UTC with exactly
// three fractional digits, as JavaScript's toISOString prints them.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

type Task struct {
	ID          string    `json:"id" bson:"_id" db:"id"`
	Title       string    `json:"title" bson:"title" db:"title"`
	Description string    `json:"description" bson:"description" db:"description"`
	Completed   bool      `json:"completed" bson:"completed" db:"completed"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt" db:"created_at"`
}

func (t Task) MarshalJSON() ([]byte, error) {
	type wire Task
	return json.Marshal(struct {
		wire
		CreatedAt string `json:"createdAt"`
	}{wire(t), t.CreatedAt.UTC().Format(TimeLayout)})
}

// TaskPatch carries a partial update. Nil fields keep their current value.
type TaskPatch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Completed   *bool   `json:"completed,omitempty"`
}

func (p TaskPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Completed == nil
}

// Apply merges the supplied fields into t. ID and CreatedAt never change.
func (p TaskPatch) Apply(t Task) Task {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	return t
}
