package services

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/moemen20/phoenix-tracker/internal/database"
	"github.com/moemen20/phoenix-tracker/internal/models"
)

// IdentityStore persists user records. Backed by the users collection in
// production; mocked in tests.
type IdentityStore interface {
	// GetUser returns (nil, nil) when no record exists for uid.
	GetUser(ctx context.Context, uid string) (*models.User, error)
	// GetUserByEmail returns (nil, nil) when no record exists for email.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	// MergeUpdateUser writes only the given fields; everything else is left untouched.
	MergeUpdateUser(ctx context.Context, uid string, fields map[string]interface{}) error
	// FindUplineByTeamID returns the upline whose teamId equals teamID, or (nil, nil).
	FindUplineByTeamID(ctx context.Context, teamID string) (*models.User, error)
	// ListDownlines returns users whose uplineTeamId references the given
	// personal team id.
	ListDownlines(ctx context.Context, personalTeamID string) ([]models.User, error)
	// ListTeamUsers returns every user sharing the given data-access team id.
	ListTeamUsers(ctx context.Context, teamID string) ([]models.User, error)
}

// MongoIdentityStore is the users-collection implementation of IdentityStore.
type MongoIdentityStore struct{}

func NewMongoIdentityStore() *MongoIdentityStore {
	return &MongoIdentityStore{}
}

func usersCollection() (*mongo.Collection, error) {
	if database.DB == nil {
		return nil, ErrUnavailable
	}
	return database.DB.Collection("users"), nil
}

func (s *MongoIdentityStore) GetUser(ctx context.Context, uid string) (*models.User, error) {
	col, err := usersCollection()
	if err != nil {
		return nil, err
	}

	var user models.User
	err = col.FindOne(ctx, bson.M{"_id": uid}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *MongoIdentityStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	col, err := usersCollection()
	if err != nil {
		return nil, err
	}

	var user models.User
	err = col.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *MongoIdentityStore) CreateUser(ctx context.Context, user *models.User) error {
	col, err := usersCollection()
	if err != nil {
		return err
	}
	_, err = col.InsertOne(ctx, user)
	return err
}

func (s *MongoIdentityStore) MergeUpdateUser(ctx context.Context, uid string, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	col, err := usersCollection()
	if err != nil {
		return err
	}

	set := bson.M{}
	for k, v := range fields {
		set[k] = v
	}
	_, err = col.UpdateOne(ctx, bson.M{"_id": uid}, bson.M{"$set": set})
	return err
}

func (s *MongoIdentityStore) FindUplineByTeamID(ctx context.Context, teamID string) (*models.User, error) {
	col, err := usersCollection()
	if err != nil {
		return nil, err
	}

	var user models.User
	err = col.FindOne(ctx, bson.M{"teamId": teamID, "userType": models.UserTypeUpline}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *MongoIdentityStore) ListDownlines(ctx context.Context, personalTeamID string) ([]models.User, error) {
	return s.listUsers(ctx, bson.M{"uplineTeamId": personalTeamID, "userType": models.UserTypeDownline})
}

func (s *MongoIdentityStore) ListTeamUsers(ctx context.Context, teamID string) ([]models.User, error) {
	return s.listUsers(ctx, bson.M{"teamId": teamID})
}

func (s *MongoIdentityStore) listUsers(ctx context.Context, filter bson.M) ([]models.User, error) {
	col, err := usersCollection()
	if err != nil {
		return nil, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cur, err := col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	users := make([]models.User, 0)
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// EnsureUserIndexes configures indexes for the users collection.
// Called on startup from main after Mongo has connected.
func EnsureUserIndexes(ctx context.Context) error {
	col, err := usersCollection()
	if err != nil {
		return err
	}

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetName("idx_email").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "teamId", Value: 1}},
			Options: options.Index().SetName("idx_team"),
		},
		{
			Keys:    bson.D{{Key: "uplineTeamId", Value: 1}},
			Options: options.Index().SetName("idx_upline_team"),
		},
	}

	for _, m := range indexModels {
		if _, err := col.Indexes().CreateOne(ctx, m); err != nil {
			return err
		}
	}
	return nil
}
