package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Contact struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	Surname   string             `bson:"surname,omitempty" json:"surname,omitempty"`
	Age       int                `bson:"age,omitempty" json:"age,omitempty"`
	Phone     string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Email     string             `bson:"email,omitempty" json:"email,omitempty"`
	Job       string             `bson:"job,omitempty" json:"job,omitempty"`
	JobOther  string             `bson:"jobOther,omitempty" json:"jobOther,omitempty"`
	State     string             `bson:"state,omitempty" json:"state,omitempty"` // geographic region code
	TeamID    string             `bson:"teamId" json:"teamId"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
