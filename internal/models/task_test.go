package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTaskUrgencyFlags(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name    string
		task    Task
		overdue bool
		dueSoon bool
	}{
		{"due in 90 minutes", Task{DueDate: now.Add(90 * time.Minute)}, false, true},
		{"due in 3 hours", Task{DueDate: now.Add(3 * time.Hour)}, false, false},
		{"past due", Task{DueDate: now.Add(-time.Minute)}, true, false},
		{"exactly at window edge", Task{DueDate: now.Add(DueSoonWindow)}, false, true},
		{"completed past due", Task{DueDate: now.Add(-time.Hour), Completed: true}, false, false},
		{"completed due soon", Task{DueDate: now.Add(time.Hour), Completed: true}, false, false},
		{"no due date", Task{}, false, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.overdue, tc.task.IsOverdue(now), "overdue")
			assert.Equal(t, tc.dueSoon, tc.task.IsDueSoon(now), "due soon")
		})
	}
}

func TestValidProspectStatus(t *testing.T) {
	for _, s := range []string{StatusNouveau, StatusContacte, StatusInteresse, StatusInscrit, StatusPerdu} {
		assert.True(t, ValidProspectStatus(s), s)
	}
	assert.False(t, ValidProspectStatus("archived"))
	assert.False(t, ValidProspectStatus(""))
}
