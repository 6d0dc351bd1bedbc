package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/moemen20/phoenix-tracker/internal/models"
)

type mockProspectLister struct {
	mock.Mock
}

func (m *mockProspectLister) List(ctx context.Context, teamID string, f ProspectFilters) ([]models.Prospect, error) {
	args := m.Called(ctx, teamID, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Prospect), args.Error(1)
}

type mockTaskLister struct {
	mock.Mock
}

func (m *mockTaskLister) List(ctx context.Context, teamID string) ([]models.Task, error) {
	args := m.Called(ctx, teamID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Task), args.Error(1)
}

func statsServiceAt(now time.Time, prospects *mockProspectLister, tasks *mockTaskLister, store IdentityStore) *StatsService {
	s := NewStatsService(prospects, tasks, store)
	s.now = func() time.Time { return now }
	return s
}

func followUp(t time.Time) *time.Time { return &t }

func TestTeamStatsCountsAndRate(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	prospects := new(mockProspectLister)
	tasks := new(mockTaskLister)

	prospects.On("List", mock.Anything, "ABCD1234", ProspectFilters{}).Return([]models.Prospect{
		{Name: "P1", Status: models.StatusNouveau},
		{Name: "P2", Status: models.StatusInscrit, NextFollowUp: followUp(now.Add(48 * time.Hour))},
		{Name: "P3", Status: models.StatusContacte, NextFollowUp: followUp(now.Add(10 * 24 * time.Hour))}, // outside window
		{Name: "P4", Status: models.StatusContacte, NextFollowUp: followUp(now)},                          // boundary counts
		{Name: "P5", Status: models.StatusPerdu, NextFollowUp: followUp(now.Add(-time.Hour))},             // past, excluded
		{Name: "P6", Status: models.StatusInscrit},
	}, nil)
	tasks.On("List", mock.Anything, "ABCD1234").Return([]models.Task{
		{Title: "T1", Completed: false},
		{Title: "T2", Completed: true},
		{Title: "T3", Completed: false},
	}, nil)

	s := statsServiceAt(now, prospects, tasks, newFakeIdentityStore())
	stats, err := s.TeamStats(context.Background(), "ABCD1234")
	require.NoError(t, err)

	assert.Equal(t, 6, stats.TotalProspects)
	assert.Equal(t, 2, stats.ProspectsByStatus[models.StatusInscrit])
	assert.Equal(t, 2, stats.ProspectsByStatus[models.StatusContacte])
	assert.Equal(t, 2, stats.ActiveTasks)
	assert.Equal(t, 2, stats.ThisWeekFollowUps)
	assert.InDelta(t, 33.3, stats.ConversionRate, 0.001, "2/6 rounded to one decimal")
}

func TestTeamStatsEmptyTeam(t *testing.T) {
	prospects := new(mockProspectLister)
	tasks := new(mockTaskLister)
	prospects.On("List", mock.Anything, "EMPTY000", ProspectFilters{}).Return([]models.Prospect{}, nil)
	tasks.On("List", mock.Anything, "EMPTY000").Return([]models.Task{}, nil)

	s := statsServiceAt(time.Now(), prospects, tasks, newFakeIdentityStore())
	stats, err := s.TeamStats(context.Background(), "EMPTY000")
	require.NoError(t, err)

	assert.Zero(t, stats.TotalProspects)
	assert.Zero(t, stats.ConversionRate, "empty team reads 0, not NaN")
}

func TestTeamStatsPropagatesErrors(t *testing.T) {
	prospects := new(mockProspectLister)
	tasks := new(mockTaskLister)
	prospects.On("List", mock.Anything, "ABCD1234", ProspectFilters{}).Return(nil, errors.New("down"))

	s := statsServiceAt(time.Now(), prospects, tasks, newFakeIdentityStore())
	_, err := s.TeamStats(context.Background(), "ABCD1234")
	assert.Error(t, err)
}

func TestNetworkStatsSumsAcrossTeams(t *testing.T) {
	store := newFakeIdentityStore()
	store.users["d1"] = &models.User{UID: "d1", UserType: models.UserTypeDownline, UplineTeamID: "ROOT0001", PersonalTeamID: "SUB00001"}
	store.users["d2"] = &models.User{UID: "d2", UserType: models.UserTypeDownline, UplineTeamID: "ROOT0001", PersonalTeamID: "SUB00002"}

	prospects := new(mockProspectLister)
	tasks := new(mockTaskLister)
	prospects.On("List", mock.Anything, "ROOT0001", ProspectFilters{}).Return([]models.Prospect{
		{Status: models.StatusInscrit}, {Status: models.StatusNouveau},
	}, nil)
	prospects.On("List", mock.Anything, "SUB00001", ProspectFilters{}).Return([]models.Prospect{
		{Status: models.StatusInscrit},
	}, nil)
	prospects.On("List", mock.Anything, "SUB00002", ProspectFilters{}).Return([]models.Prospect{
		{Status: models.StatusPerdu},
	}, nil)
	tasks.On("List", mock.Anything, mock.Anything).Return([]models.Task{{Completed: false}}, nil)

	s := statsServiceAt(time.Now(), prospects, tasks, store)
	stats := s.NetworkStats(context.Background(), "ROOT0001")

	assert.False(t, stats.Degraded)
	assert.Equal(t, 2, stats.TotalDownlines)
	assert.Equal(t, 4, stats.TotalProspects)
	assert.Equal(t, 2, stats.ProspectsByStatus[models.StatusInscrit])
	assert.Equal(t, 3, stats.ActiveTasks)
	assert.InDelta(t, 50.0, stats.ConversionRate, 0.001, "recomputed from folded totals")
}

func TestNetworkStatsFailedTeamContributesZero(t *testing.T) {
	store := newFakeIdentityStore()
	store.users["d1"] = &models.User{UID: "d1", UserType: models.UserTypeDownline, UplineTeamID: "ROOT0001", PersonalTeamID: "SUB00001"}

	prospects := new(mockProspectLister)
	tasks := new(mockTaskLister)
	prospects.On("List", mock.Anything, "ROOT0001", ProspectFilters{}).Return([]models.Prospect{
		{Status: models.StatusInscrit},
	}, nil)
	prospects.On("List", mock.Anything, "SUB00001", ProspectFilters{}).Return(nil, errors.New("timeout"))
	tasks.On("List", mock.Anything, "ROOT0001").Return([]models.Task{}, nil)

	s := statsServiceAt(time.Now(), prospects, tasks, store)
	stats := s.NetworkStats(context.Background(), "ROOT0001")

	assert.True(t, stats.Degraded)
	assert.Equal(t, []string{"SUB00001"}, stats.FailedTeams)
	assert.Equal(t, 1, stats.TotalProspects, "the reachable team still counts")
	assert.Equal(t, 1, stats.TotalDownlines)
}

func TestNetworkStatsRosterFailure(t *testing.T) {
	store := newFakeIdentityStore()
	store.readErr = errors.New("down")

	s := statsServiceAt(time.Now(), new(mockProspectLister), new(mockTaskLister), store)
	stats := s.NetworkStats(context.Background(), "ROOT0001")

	assert.True(t, stats.Degraded)
	assert.Equal(t, []string{"ROOT0001"}, stats.FailedTeams)
	assert.Zero(t, stats.TotalProspects)
	assert.Zero(t, stats.ConversionRate)
}

func TestConversionRateRounding(t *testing.T) {
	assert.Equal(t, 0.0, conversionRate(0, 0))
	assert.Equal(t, 33.3, conversionRate(1, 3))
	assert.Equal(t, 66.7, conversionRate(2, 3))
	assert.Equal(t, 100.0, conversionRate(5, 5))
}
