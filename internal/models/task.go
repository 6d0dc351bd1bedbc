package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DueSoonWindow is the lookahead used to flag tasks as "due soon".
const DueSoonWindow = 2 * time.Hour

type Task struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title     string             `bson:"title" json:"title"`
	DueDate   time.Time          `bson:"dueDate" json:"dueDate"`
	Completed bool               `bson:"completed" json:"completed"`
	UserID    string             `bson:"userId" json:"userId"` // assignee uid
	TeamID    string             `bson:"teamId" json:"teamId"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// IsOverdue reports whether the task's due date has passed. Computed at read
// time, never stored.
func (t *Task) IsOverdue(now time.Time) bool {
	if t.Completed || t.DueDate.IsZero() {
		return false
	}
	return t.DueDate.Before(now)
}

// IsDueSoon reports whether the task falls inside the due-soon window.
func (t *Task) IsDueSoon(now time.Time) bool {
	if t.Completed || t.DueDate.IsZero() {
		return false
	}
	return t.DueDate.After(now) && !t.DueDate.After(now.Add(DueSoonWindow))
}
