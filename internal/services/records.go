package services

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/moemen20/phoenix-tracker/internal/database"
)

// collection returns a handle to the named collection, failing fast when
// Mongo was never connected.
func collection(name string) (*mongo.Collection, error) {
	if database.DB == nil {
		return nil, ErrUnavailable
	}
	return database.DB.Collection(name), nil
}

// mergeUpdateRecord applies a partial $set update to one document. Identity
// and ownership fields can never be rewritten through this path.
func mergeUpdateRecord(ctx context.Context, colName, id string, fields map[string]interface{}) error {
	col, err := collection(colName)
	if err != nil {
		return err
	}

	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return validationErr("invalid record id")
	}

	set := bson.M{}
	for k, v := range fields {
		switch k {
		case "_id", "id", "teamId", "createdAt":
			continue
		}
		set[k] = v
	}
	if len(set) == 0 {
		return nil
	}

	res, err := col.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// deleteRecord removes one document by id.
func deleteRecord(ctx context.Context, colName, id string) error {
	col, err := collection(colName)
	if err != nil {
		return err
	}

	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return validationErr("invalid record id")
	}

	_, err = col.DeleteOne(ctx, bson.M{"_id": objID})
	return err
}

// RecordTeamID returns the owning team of one document, for ownership checks
// before mutating records.
func RecordTeamID(ctx context.Context, colName, id string) (string, error) {
	col, err := collection(colName)
	if err != nil {
		return "", err
	}

	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return "", validationErr("invalid record id")
	}

	var doc struct {
		TeamID string `bson:"teamId"`
	}
	if err := col.FindOne(ctx, bson.M{"_id": objID}).Decode(&doc); err != nil {
		return "", err
	}
	return doc.TeamID, nil
}

// containsFold is a case-insensitive substring match, used for the
// client-side search scan over equality-filtered result sets.
func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// insertedHex returns the hex id Mongo assigned to an inserted document.
func insertedHex(res *mongo.InsertOneResult) string {
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		return oid.Hex()
	}
	return ""
}
