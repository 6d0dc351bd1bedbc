package services

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/moemen20/phoenix-tracker/internal/models"
	"github.com/moemen20/phoenix-tracker/pkg/utils"
)

// ResolutionState tracks where an authenticated session is in the
// identity-resolution state machine. Degraded is terminal for the session:
// defaults are in effect until the next authentication event.
type ResolutionState string

const (
	StateUnresolved ResolutionState = "unresolved"
	StateResolving  ResolutionState = "resolving"
	StateResolved   ResolutionState = "resolved"
	StateDegraded   ResolutionState = "degraded"
)

// Principal is the authenticated identity handed to the resolver: whoever the
// credential layer (password signin or Google OAuth) says is calling.
type Principal struct {
	UID         string
	Email       string
	DisplayName string
}

// RegisterInput is the signup payload after JSON decoding.
type RegisterInput struct {
	Name            string
	Email           string
	Password        string
	ConfirmPassword string
	UserType        string // "upline" | "downline"
	UplineTeamID    string // required for downlines
}

// ResolvedIdentity is the team context the rest of the app consumes.
type ResolvedIdentity struct {
	User  models.User
	State ResolutionState
}

// TeamResolver establishes a consistent {teamId, personalTeamId, userType,
// role} tuple at signup and on every authentication, and repairs legacy
// records along the way.
type TeamResolver struct {
	store IdentityStore
}

func NewTeamResolver(store IdentityStore) *TeamResolver {
	return &TeamResolver{store: store}
}

// Register creates the auth credential and the user record for a new signup.
//
// Uplines get a fresh team id used both for data access and recruitment.
// Downlines adopt the upline's team id for data access and get a fresh
// personal id for the sub-network they may build themselves.
func (r *TeamResolver) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	in.UplineTeamID = strings.TrimSpace(strings.ToUpper(in.UplineTeamID))

	if in.Name == "" || in.Email == "" || in.Password == "" {
		return nil, validationErr("name, email and password are required")
	}
	if len(in.Password) < 6 {
		return nil, validationErr("password must be at least 6 characters")
	}
	if in.ConfirmPassword != "" && in.ConfirmPassword != in.Password {
		return nil, validationErr("passwords do not match")
	}

	var teamID, personalTeamID, uplineTeamID, role string

	switch {
	case in.UserType == models.UserTypeUpline:
		role = models.RoleUpline
		teamID = GenerateTeamID()
		personalTeamID = teamID // same for uplines

	case in.UserType == models.UserTypeDownline:
		if in.UplineTeamID == "" {
			return nil, validationErr("invalid upline team id")
		}
		upline, err := r.store.FindUplineByTeamID(ctx, in.UplineTeamID)
		if err != nil || upline == nil {
			return nil, validationErr("invalid upline team id")
		}
		role = models.RoleDownline
		teamID = upline.TeamID               // shared data-access scope
		personalTeamID = GenerateTeamID()    // their own future network
		uplineTeamID = upline.PersonalTeamID // roster linkage key
		if uplineTeamID == "" {
			uplineTeamID = upline.TeamID // pre-migration upline record
		}

	default:
		return nil, validationErr("must specify upline/downline")
	}

	existing, err := r.store.GetUserByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, validationErr("email already registered")
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		UID:            uuid.NewString(),
		Name:           in.Name,
		Email:          in.Email,
		PasswordHash:   hash,
		Role:           role,
		UserType:       in.UserType,
		TeamID:         teamID,
		PersonalTeamID: personalTeamID,
		UplineTeamID:   uplineTeamID,
		CreatedAt:      time.Now().UTC(),
	}

	if err := r.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	log.Printf("Created %s user %s: teamId=%s personalTeamId=%s", in.UserType, user.UID, teamID, personalTeamID)
	return user, nil
}

// ResolveOnAuthentication produces the team context for an authenticated
// principal. It never returns an error: store failures fall back to defaulted
// in-memory values (degraded state) so the caller stays responsive.
//
// The migration pass is idempotent and runs on every resolution.
func (r *TeamResolver) ResolveOnAuthentication(ctx context.Context, p Principal) *ResolvedIdentity {
	user, err := r.store.GetUser(ctx, p.UID)
	if err != nil {
		log.Printf("⚠️  failed to read user %s, using degraded defaults: %v", p.UID, err)
		return degradedIdentity(p)
	}

	// First sight of this identity (e.g. first Google sign-in): synthesize a
	// default upline record.
	if user == nil {
		name := p.DisplayName
		if name == "" {
			name = strings.SplitN(p.Email, "@", 2)[0]
		}
		teamID := GenerateTeamID()
		user = &models.User{
			UID:            p.UID,
			Name:           name,
			Email:          p.Email,
			Role:           models.RoleMember,
			UserType:       models.UserTypeUpline,
			TeamID:         teamID,
			PersonalTeamID: teamID,
			CreatedAt:      time.Now().UTC(),
		}
		if err := r.store.CreateUser(ctx, user); err != nil {
			log.Printf("⚠️  failed to create default user document for %s: %v", p.UID, err)
			return &ResolvedIdentity{User: *user, State: StateDegraded}
		}
		log.Printf("Created default user document for %s (teamId=%s)", p.UID, teamID)
	}

	updates := migrateUser(user)
	if len(updates) > 0 {
		if err := r.store.MergeUpdateUser(ctx, user.UID, updates); err != nil {
			log.Printf("⚠️  failed to persist migration for user %s: %v", user.UID, err)
			return &ResolvedIdentity{User: *user, State: StateDegraded}
		}
		log.Printf("Migrated user %s: %v", user.UID, updates)
	}

	return &ResolvedIdentity{User: *user, State: StateResolved}
}

// migrateUser repairs legacy records in place and returns the touched fields
// for a partial merge-write. Running it on an already-migrated record returns
// an empty map.
func migrateUser(user *models.User) map[string]interface{} {
	updates := map[string]interface{}{}

	// Old records were all created under a single shared sentinel team.
	if user.TeamID == models.LegacyTeamID {
		newTeamID := GenerateTeamID()
		user.TeamID = newTeamID
		user.PersonalTeamID = newTeamID
		updates["teamId"] = newTeamID
		updates["personalTeamId"] = newTeamID
	}

	if user.PersonalTeamID == "" {
		if user.UserType == models.UserTypeDownline {
			user.PersonalTeamID = GenerateTeamID()
		} else if user.TeamID != "" {
			user.PersonalTeamID = user.TeamID
		} else {
			user.PersonalTeamID = GenerateTeamID()
		}
		updates["personalTeamId"] = user.PersonalTeamID
	}

	if user.UserType == "" {
		user.UserType = models.UserTypeUpline
		updates["userType"] = models.UserTypeUpline
	}

	return updates
}

func degradedIdentity(p Principal) *ResolvedIdentity {
	teamID := GenerateTeamID()
	return &ResolvedIdentity{
		User: models.User{
			UID:            p.UID,
			Name:           p.DisplayName,
			Email:          p.Email,
			Role:           models.RoleMember,
			UserType:       models.UserTypeUpline,
			TeamID:         teamID,
			PersonalTeamID: teamID,
		},
		State: StateDegraded,
	}
}

// VerifyUplineTeamID reports whether an upline exists with the given team id.
// Read-only; returns false (not an error) when the store is unreachable.
func (r *TeamResolver) VerifyUplineTeamID(ctx context.Context, candidate string) bool {
	candidate = strings.TrimSpace(strings.ToUpper(candidate))
	if candidate == "" {
		return false
	}
	upline, err := r.store.FindUplineByTeamID(ctx, candidate)
	if err != nil {
		log.Printf("error verifying upline team id %s: %v", candidate, err)
		return false
	}
	return upline != nil
}

// Downlines returns the roster recruited under the given personal team id.
func (r *TeamResolver) Downlines(ctx context.Context, personalTeamID string) ([]models.User, error) {
	return r.store.ListDownlines(ctx, personalTeamID)
}

// TeamUsers returns everyone sharing the given data-access team id.
func (r *TeamResolver) TeamUsers(ctx context.Context, teamID string) ([]models.User, error) {
	return r.store.ListTeamUsers(ctx, teamID)
}
