package services

import (
	"context"
	"log"
	"math"
	"sync"
	"time"

	"github.com/moemen20/phoenix-tracker/internal/models"
)

// FollowUpWindow is the lookahead for the "this week" follow-up count.
const FollowUpWindow = 7 * 24 * time.Hour

// TeamStats are the display statistics for a single team.
type TeamStats struct {
	TotalProspects    int            `json:"totalProspects"`
	ProspectsByStatus map[string]int `json:"prospectsByStatus"`
	ActiveTasks       int            `json:"activeTasks"`
	ConversionRate    float64        `json:"conversionRate"`
	ThisWeekFollowUps int            `json:"thisWeekFollowUps"`
}

// NetworkStats extend TeamStats across an upline's whole network. Degraded is
// set when one or more teams could not be fetched and contributed zero, so
// callers can tell a genuine zero from a suppressed failure.
type NetworkStats struct {
	TeamStats
	TotalDownlines int      `json:"totalDownlines"`
	Degraded       bool     `json:"degraded,omitempty"`
	FailedTeams    []string `json:"failedTeams,omitempty"`
}

type prospectLister interface {
	List(ctx context.Context, teamID string, f ProspectFilters) ([]models.Prospect, error)
}

type taskLister interface {
	List(ctx context.Context, teamID string) ([]models.Task, error)
}

// StatsService computes per-team and per-network statistics by querying the
// record store per team and folding the results.
type StatsService struct {
	prospects prospectLister
	tasks     taskLister
	store     IdentityStore
	now       func() time.Time
}

func NewStatsService(prospects prospectLister, tasks taskLister, store IdentityStore) *StatsService {
	return &StatsService{
		prospects: prospects,
		tasks:     tasks,
		store:     store,
		now:       time.Now,
	}
}

// TeamStats computes display statistics for one team.
func (s *StatsService) TeamStats(ctx context.Context, teamID string) (*TeamStats, error) {
	prospects, err := s.prospects.List(ctx, teamID, ProspectFilters{})
	if err != nil {
		return nil, err
	}
	tasks, err := s.tasks.List(ctx, teamID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	weekFromNow := now.Add(FollowUpWindow)

	stats := emptyTeamStats()
	stats.TotalProspects = len(prospects)

	for _, p := range prospects {
		stats.ProspectsByStatus[p.Status]++
		// Lower bound inclusive: a follow-up scheduled for right now still counts.
		if p.NextFollowUp != nil && !p.NextFollowUp.Before(now) && !p.NextFollowUp.After(weekFromNow) {
			stats.ThisWeekFollowUps++
		}
	}

	for _, t := range tasks {
		if !t.Completed {
			stats.ActiveTasks++
		}
	}

	stats.ConversionRate = conversionRate(stats.ProspectsByStatus[models.StatusInscrit], stats.TotalProspects)
	return stats, nil
}

// NetworkStats computes statistics for an upline's own team plus every
// downline's own network, folded by summation. Fetches fan out concurrently;
// a failed team contributes zero to every metric and the call itself never
// fails - on total failure the result is all zeros with Degraded set.
func (s *StatsService) NetworkStats(ctx context.Context, uplineTeamID string) *NetworkStats {
	result := &NetworkStats{TeamStats: *emptyTeamStats()}

	downlines, err := s.store.ListDownlines(ctx, uplineTeamID)
	if err != nil {
		log.Printf("⚠️  failed to resolve downline roster for %s: %v", uplineTeamID, err)
		result.Degraded = true
		result.FailedTeams = []string{uplineTeamID}
		return result
	}
	result.TotalDownlines = len(downlines)

	// The upline's own team plus each downline's personal network. Using the
	// downline's shared teamId here would double-count the upline's records.
	teamIDs := []string{uplineTeamID}
	for _, d := range downlines {
		if d.PersonalTeamID != "" {
			teamIDs = append(teamIDs, d.PersonalTeamID)
		}
	}

	partials := make([]*TeamStats, len(teamIDs))
	failed := make([]string, 0)

	var wg sync.WaitGroup
	var mu sync.Mutex
	for i, teamID := range teamIDs {
		wg.Add(1)
		go func(i int, teamID string) {
			defer wg.Done()
			st, err := s.TeamStats(ctx, teamID)
			if err != nil {
				log.Printf("⚠️  failed to fetch stats for team %s: %v", teamID, err)
				mu.Lock()
				failed = append(failed, teamID)
				mu.Unlock()
				return
			}
			partials[i] = st
		}(i, teamID)
	}
	wg.Wait()

	for _, st := range partials {
		if st == nil {
			continue
		}
		result.TotalProspects += st.TotalProspects
		result.ActiveTasks += st.ActiveTasks
		result.ThisWeekFollowUps += st.ThisWeekFollowUps
		for status, count := range st.ProspectsByStatus {
			result.ProspectsByStatus[status] += count
		}
	}

	// Recomputed once from the folded totals, not averaged per downline.
	result.ConversionRate = conversionRate(result.ProspectsByStatus[models.StatusInscrit], result.TotalProspects)

	if len(failed) > 0 {
		result.Degraded = true
		result.FailedTeams = failed
	}
	return result
}

func emptyTeamStats() *TeamStats {
	return &TeamStats{ProspectsByStatus: make(map[string]int)}
}

// conversionRate is inscrit/total*100 rounded to one decimal, and 0 for an
// empty team (no division-by-zero propagation).
func conversionRate(inscrit, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(inscrit)/float64(total)*1000) / 10
}
