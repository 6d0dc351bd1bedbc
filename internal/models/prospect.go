package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Prospect statuses. Free-form transitions: any status may change to any other.
const (
	StatusNouveau   = "nouveau"
	StatusContacte  = "contacté"
	StatusInteresse = "intéressé"
	StatusInscrit   = "inscrit"
	StatusPerdu     = "perdu"
)

// ValidProspectStatus reports whether s is one of the known statuses.
func ValidProspectStatus(s string) bool {
	switch s {
	case StatusNouveau, StatusContacte, StatusInteresse, StatusInscrit, StatusPerdu:
		return true
	}
	return false
}

type Prospect struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Phone        string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Email        string             `bson:"email,omitempty" json:"email,omitempty"`
	Status       string             `bson:"status" json:"status"`
	Notes        string             `bson:"notes,omitempty" json:"notes,omitempty"`
	NextFollowUp *time.Time         `bson:"nextFollowUp,omitempty" json:"nextFollowUp,omitempty"`
	AssignedTo   string             `bson:"assignedTo,omitempty" json:"assignedTo,omitempty"`
	TeamID       string             `bson:"teamId" json:"teamId"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
}
