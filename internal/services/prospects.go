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

const prospectsCollection = "prospects"

// ProspectFilters is an equality conjunction over indexed fields plus an
// optional case-insensitive substring search applied client-side.
type ProspectFilters struct {
	Status string
	Search string
}

type ProspectService struct{}

func NewProspectService() *ProspectService {
	return &ProspectService{}
}

// Create inserts a prospect for a team and returns its id.
func (s *ProspectService) Create(ctx context.Context, p *models.Prospect) (string, error) {
	if p.TeamID == "" {
		return "", validationErr("team id is required")
	}
	if p.Name == "" {
		return "", validationErr("name is required")
	}
	if p.Status == "" {
		p.Status = models.StatusNouveau
	}
	if !models.ValidProspectStatus(p.Status) {
		return "", validationErr("unknown prospect status")
	}

	col, err := collection(prospectsCollection)
	if err != nil {
		return "", err
	}

	p.ID = primitive.NilObjectID
	p.CreatedAt = time.Now().UTC()

	res, err := col.InsertOne(ctx, p)
	if err != nil {
		return "", err
	}
	return insertedHex(res), nil
}

// Update applies a partial merge; unspecified fields are left untouched.
func (s *ProspectService) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	if status, ok := fields["status"].(string); ok && !models.ValidProspectStatus(status) {
		return validationErr("unknown prospect status")
	}
	return mergeUpdateRecord(ctx, prospectsCollection, id, fields)
}

func (s *ProspectService) Delete(ctx context.Context, id string) error {
	return deleteRecord(ctx, prospectsCollection, id)
}

// List returns a team's prospects, newest first. When a search term is
// present the equality-filtered superset is fetched and scanned client-side
// over name and email; O(team size), acceptable because teams are small.
func (s *ProspectService) List(ctx context.Context, teamID string, f ProspectFilters) ([]models.Prospect, error) {
	col, err := collection(prospectsCollection)
	if err != nil {
		return nil, err
	}

	filter := bson.M{"teamId": teamID}
	if f.Status != "" {
		filter["status"] = f.Status
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	prospects := make([]models.Prospect, 0)
	if err := cur.All(ctx, &prospects); err != nil {
		return nil, err
	}

	if f.Search != "" {
		matched := prospects[:0]
		for _, p := range prospects {
			if containsFold(p.Name, f.Search) || containsFold(p.Email, f.Search) {
				matched = append(matched, p)
			}
		}
		prospects = matched
	}

	return prospects, nil
}

// Subscribe establishes a live query: every upstream change to the prospects
// collection replays the full filtered result set on the returned channel.
// The caller owns the cancel func and must call it on teardown.
func (s *ProspectService) Subscribe(ctx context.Context, teamID string, f ProspectFilters) (<-chan []models.Prospect, func(), error) {
	ch := make(chan []models.Prospect, 1)

	cancel, err := watchCollection(ctx, prospectsCollection, func(cctx context.Context) {
		list, err := s.List(cctx, teamID, f)
		if err != nil {
			if cctx.Err() == nil {
				log.Printf("prospect live query reload failed: %v", err)
			}
			return
		}
		// Replace any undelivered snapshot so the consumer always sees the latest
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
