package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/moemen20/phoenix-tracker/internal/models"
	"github.com/moemen20/phoenix-tracker/internal/services"
)

// CreateTaskRequest is the JSON body for POST /api/tasks
type CreateTaskRequest struct {
	Title   string `json:"title"`
	DueDate string `json:"dueDate"`
	UserID  string `json:"userId,omitempty"`
}

// TaskView is a task plus its derived urgency flags, computed at read time.
type TaskView struct {
	models.Task
	Overdue bool `json:"overdue"`
	DueSoon bool `json:"dueSoon"`
}

func taskViews(tasks []models.Task, now time.Time) []TaskView {
	views := make([]TaskView, len(tasks))
	for i, t := range tasks {
		views[i] = TaskView{Task: t, Overdue: t.IsOverdue(now), DueSoon: t.IsDueSoon(now)}
	}
	return views
}

// CreateTask inserts a task for the caller's team. Only uplines may assign
// tasks to somebody else.
func CreateTask(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.DueDate == "" {
		writeError(w, http.StatusBadRequest, "due date is required")
		return
	}

	due, err := services.ParseDueDate(req.DueDate)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	assignee := req.UserID
	if assignee == "" {
		assignee = user.UID
	}
	if assignee != user.UID && !user.IsUpline() {
		writeError(w, http.StatusForbidden, "only uplines can assign tasks to others")
		return
	}

	t := models.Task{
		Title:   req.Title,
		DueDate: due,
		UserID:  assignee,
		TeamID:  user.TeamID,
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, err := services.Tasks.Create(ctx, &t)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "Task created",
		"id":      id,
	})
}

// ListTasks returns the caller's team tasks ordered by due date, each with
// its overdue and due-soon flags. ?mine=true narrows to the caller's own.
func ListTasks(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var tasks []models.Task
	var err error
	if r.URL.Query().Get("mine") == "true" {
		tasks, err = services.Tasks.ListByUser(ctx, user.UID)
	} else {
		tasks, err = services.Tasks.List(ctx, user.TeamID)
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"tasks":   taskViews(tasks, time.Now().UTC()),
	})
}

// UpdateTask applies a partial update to the task named by ?id=. Reassigning
// the task to another user requires the upline role.
func UpdateTask(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	var fields map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if assignee, ok := fields["userId"].(string); ok && assignee != user.UID && !user.IsUpline() {
		writeError(w, http.StatusForbidden, "only uplines can assign tasks to others")
		return
	}
	if raw, ok := fields["dueDate"].(string); ok {
		due, err := services.ParseDueDate(raw)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		fields["dueDate"] = due
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if !recordBelongsToTeam(ctx, w, "tasks", id, user.TeamID) {
		return
	}
	if err := services.Tasks.Update(ctx, id, fields); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Task updated"})
}

// CompleteTaskRequest is the JSON body for PUT /api/tasks/complete
type CompleteTaskRequest struct {
	Completed bool `json:"completed"`
}

// CompleteTask flips the completion flag of the task named by ?id=.
func CompleteTask(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	var req CompleteTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if !recordBelongsToTeam(ctx, w, "tasks", id, user.TeamID) {
		return
	}
	if err := services.Tasks.SetCompleted(ctx, id, req.Completed); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Task updated"})
}

// DeleteTask removes the task named by ?id=.
func DeleteTask(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if !recordBelongsToTeam(ctx, w, "tasks", id, user.TeamID) {
		return
	}
	if err := services.Tasks.Delete(ctx, id); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Task deleted"})
}
