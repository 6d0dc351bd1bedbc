package models

import "time"

// User types. The legacy "role" field is kept for backward compatibility with
// records written before the upline/downline system existed.
const (
	UserTypeUpline   = "upline"
	UserTypeDownline = "downline"

	RoleMember   = "member"
	RoleUpline   = "upline"
	RoleDownline = "downline"
)

// LegacyTeamID is the sentinel team id old records were created with before
// per-team ids existed. The resolver migrates it away on sight.
const LegacyTeamID = "default-team"

// User is a CRM account. The uid doubles as the Mongo document id so auth
// lookups are point reads.
type User struct {
	UID          string `bson:"_id" json:"uid"`
	Name         string `bson:"name" json:"name"`
	Email        string `bson:"email" json:"email"`
	PasswordHash string `bson:"passwordHash,omitempty" json:"-"`

	Role     string `bson:"role" json:"role"`         // legacy field
	UserType string `bson:"userType" json:"userType"` // "upline" | "downline"

	// TeamID scopes every prospect/contact/task query this user makes.
	// For downlines it is the upline's team id (shared data access).
	TeamID string `bson:"teamId" json:"teamId"`

	// PersonalTeamID is the id this user hands to their own recruits.
	// Equal to TeamID for uplines.
	PersonalTeamID string `bson:"personalTeamId,omitempty" json:"personalTeamId"`

	// UplineTeamID references the upline's personal team id; set only for downlines.
	UplineTeamID string `bson:"uplineTeamId,omitempty" json:"uplineTeamId,omitempty"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// IsUpline reports whether the user leads their own team.
func (u *User) IsUpline() bool {
	return u.UserType == UserTypeUpline
}
