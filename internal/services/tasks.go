package services

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/moemen20/phoenix-tracker/internal/models"
)

const tasksCollection = "tasks"

type TaskService struct{}

func NewTaskService() *TaskService {
	return &TaskService{}
}

// ParseDueDate accepts either a date-only value (which defaults to end of
// day) or a combined date+time value in RFC 3339.
func ParseDueDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, validationErr("due date must be YYYY-MM-DD or RFC 3339")
	}
	return time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 59, 0, time.UTC), nil
}

func (s *TaskService) Create(ctx context.Context, t *models.Task) (string, error) {
	if t.TeamID == "" {
		return "", validationErr("team id is required")
	}
	if t.Title == "" {
		return "", validationErr("title is required")
	}
	if t.DueDate.IsZero() {
		return "", validationErr("due date is required")
	}

	col, err := collection(tasksCollection)
	if err != nil {
		return "", err
	}

	t.ID = primitive.NilObjectID
	t.Completed = false
	t.CreatedAt = time.Now().UTC()

	res, err := col.InsertOne(ctx, t)
	if err != nil {
		return "", err
	}
	return insertedHex(res), nil
}

func (s *TaskService) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	return mergeUpdateRecord(ctx, tasksCollection, id, fields)
}

// SetCompleted flips the single lifecycle flag a task has.
func (s *TaskService) SetCompleted(ctx context.Context, id string, completed bool) error {
	return mergeUpdateRecord(ctx, tasksCollection, id, map[string]interface{}{"completed": completed})
}

func (s *TaskService) Delete(ctx context.Context, id string) error {
	return deleteRecord(ctx, tasksCollection, id)
}

// List returns a team's tasks ordered by due date.
func (s *TaskService) List(ctx context.Context, teamID string) ([]models.Task, error) {
	return s.list(ctx, bson.M{"teamId": teamID})
}

// ListByUser returns one assignee's tasks ordered by due date.
func (s *TaskService) ListByUser(ctx context.Context, userID string) ([]models.Task, error) {
	return s.list(ctx, bson.M{"userId": userID})
}

func (s *TaskService) list(ctx context.Context, filter bson.M) ([]models.Task, error) {
	col, err := collection(tasksCollection)
	if err != nil {
		return nil, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "dueDate", Value: 1}})
	cur, err := col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	tasks := make([]models.Task, 0)
	if err := cur.All(ctx, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// Subscribe replays the team's full task list on every upstream change.
// The caller must call the cancel func on teardown.
func (s *TaskService) Subscribe(ctx context.Context, teamID string) (<-chan []models.Task, func(), error) {
	ch := make(chan []models.Task, 1)

	cancel, err := watchCollection(ctx, tasksCollection, func(cctx context.Context) {
		list, err := s.List(cctx, teamID)
		if err != nil {
			if cctx.Err() == nil {
				log.Printf("task live query reload failed: %v", err)
			}
			return
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- list:
		case <-cctx.Done():
		}
	})
	if err != nil {
		return nil, nil, err
	}

	return ch, cancel, nil
}
