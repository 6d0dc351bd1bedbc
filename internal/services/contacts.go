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

const contactsCollection = "contacts"

type ContactFilters struct {
	State  string
	Job    string
	Search string
}

type ContactService struct{}

func NewContactService() *ContactService {
	return &ContactService{}
}

func (s *ContactService) Create(ctx context.Context, c *models.Contact) (string, error) {
	if c.TeamID == "" {
		return "", validationErr("team id is required")
	}
	if c.Name == "" {
		return "", validationErr("name is required")
	}

	col, err := collection(contactsCollection)
	if err != nil {
		return "", err
	}

	c.ID = primitive.NilObjectID
	c.CreatedAt = time.Now().UTC()

	res, err := col.InsertOne(ctx, c)
	if err != nil {
		return "", err
	}
	return insertedHex(res), nil
}

func (s *ContactService) Update(ctx context.Context, id string, fields map[string]interface{}) error {
	return mergeUpdateRecord(ctx, contactsCollection, id, fields)
}

func (s *ContactService) Delete(ctx context.Context, id string) error {
	return deleteRecord(ctx, contactsCollection, id)
}

// List returns a team's contacts, newest first. Search scans name, surname
// and phone client-side over the equality-filtered superset.
func (s *ContactService) List(ctx context.Context, teamID string, f ContactFilters) ([]models.Contact, error) {
	col, err := collection(contactsCollection)
	if err != nil {
		return nil, err
	}

	filter := bson.M{"teamId": teamID}
	if f.State != "" {
		filter["state"] = f.State
	}
	if f.Job != "" {
		filter["job"] = f.Job
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	contacts := make([]models.Contact, 0)
	if err := cur.All(ctx, &contacts); err != nil {
		return nil, err
	}

	if f.Search != "" {
		matched := contacts[:0]
		for _, c := range contacts {
			if containsFold(c.Name, f.Search) || containsFold(c.Surname, f.Search) || containsFold(c.Phone, f.Search) {
				matched = append(matched, c)
			}
		}
		contacts = matched
	}

	return contacts, nil
}

// Subscribe replays the full filtered contact list on every upstream change.
// The caller must call the cancel func on teardown.
func (s *ContactService) Subscribe(ctx context.Context, teamID string, f ContactFilters) (<-chan []models.Contact, func(), error) {
	ch := make(chan []models.Contact, 1)

	cancel, err := watchCollection(ctx, contactsCollection, func(cctx context.Context) {
		list, err := s.List(cctx, teamID, f)
		if err != nil {
			if cctx.Err() == nil {
				log.Printf("contact live query reload failed: %v", err)
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
