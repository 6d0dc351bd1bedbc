package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moemen20/phoenix-tracker/internal/models"
)

// fakeIdentityStore is an in-memory IdentityStore for resolver tests.
type fakeIdentityStore struct {
	users map[string]*models.User // by uid

	readErr  error // returned by GetUser
	writeErr error // returned by CreateUser / MergeUpdateUser

	creates int
	merges  int
}

func newFakeIdentityStore() *fakeIdentityStore {
	return &fakeIdentityStore{users: make(map[string]*models.User)}
}

func (f *fakeIdentityStore) GetUser(_ context.Context, uid string) (*models.User, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	if u, ok := f.users[uid]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, nil
}

func (f *fakeIdentityStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeIdentityStore) CreateUser(_ context.Context, user *models.User) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.creates++
	copied := *user
	f.users[user.UID] = &copied
	return nil
}

func (f *fakeIdentityStore) MergeUpdateUser(_ context.Context, uid string, fields map[string]interface{}) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.merges++
	u, ok := f.users[uid]
	if !ok {
		return errors.New("no such user")
	}
	for k, v := range fields {
		s, _ := v.(string)
		switch k {
		case "teamId":
			u.TeamID = s
		case "personalTeamId":
			u.PersonalTeamID = s
		case "userType":
			u.UserType = s
		}
	}
	return nil
}

func (f *fakeIdentityStore) FindUplineByTeamID(_ context.Context, teamID string) (*models.User, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	for _, u := range f.users {
		if u.TeamID == teamID && u.UserType == models.UserTypeUpline {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeIdentityStore) ListDownlines(_ context.Context, personalTeamID string) ([]models.User, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	out := make([]models.User, 0)
	for _, u := range f.users {
		if u.UplineTeamID == personalTeamID && u.UserType == models.UserTypeDownline {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (f *fakeIdentityStore) ListTeamUsers(_ context.Context, teamID string) ([]models.User, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	out := make([]models.User, 0)
	for _, u := range f.users {
		if u.TeamID == teamID {
			out = append(out, *u)
		}
	}
	return out, nil
}

func seedUpline(store *fakeIdentityStore, uid, teamID string) *models.User {
	u := &models.User{
		UID:            uid,
		Name:           "Upline " + uid,
		Email:          uid + "@example.com",
		Role:           models.RoleUpline,
		UserType:       models.UserTypeUpline,
		TeamID:         teamID,
		PersonalTeamID: teamID,
	}
	store.users[uid] = u
	return u
}

func TestRegisterUplineGetsFreshSharedTeam(t *testing.T) {
	store := newFakeIdentityStore()
	r := NewTeamResolver(store)

	user, err := r.Register(context.Background(), RegisterInput{
		Name:     "Alice",
		Email:    "alice@example.com",
		Password: "secret1",
		UserType: models.UserTypeUpline,
	})
	require.NoError(t, err)

	assert.Len(t, user.TeamID, 8)
	assert.Equal(t, user.TeamID, user.PersonalTeamID)
	assert.Empty(t, user.UplineTeamID)
	assert.Equal(t, models.RoleUpline, user.Role)
	assert.NotEmpty(t, user.PasswordHash)
	assert.Equal(t, 1, store.creates)
}

func TestRegisterDownlineJoinsUplineTeam(t *testing.T) {
	store := newFakeIdentityStore()
	seedUpline(store, "up-1", "ABCD1234")
	r := NewTeamResolver(store)

	user, err := r.Register(context.Background(), RegisterInput{
		Name:         "Bob",
		Email:        "bob@example.com",
		Password:     "secret1",
		UserType:     models.UserTypeDownline,
		UplineTeamID: "abcd1234", // verified case-insensitively
	})
	require.NoError(t, err)

	assert.Equal(t, "ABCD1234", user.TeamID, "shares the upline's data-access scope")
	assert.Equal(t, "ABCD1234", user.UplineTeamID, "links to the upline's personal team")
	assert.NotEqual(t, user.TeamID, user.PersonalTeamID, "gets an own future network id")
	assert.Len(t, user.PersonalTeamID, 8)
	assert.Equal(t, models.RoleDownline, user.Role)
}

func TestRegisterDownlineRejectsUnknownUpline(t *testing.T) {
	store := newFakeIdentityStore()
	r := NewTeamResolver(store)

	_, err := r.Register(context.Background(), RegisterInput{
		Name:         "Bob",
		Email:        "bob@example.com",
		Password:     "secret1",
		UserType:     models.UserTypeDownline,
		UplineTeamID: "NOPE0000",
	})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
	assert.Zero(t, store.creates, "nothing persisted on a rejected signup")
}

func TestRegisterValidation(t *testing.T) {
	store := newFakeIdentityStore()
	r := NewTeamResolver(store)
	ctx := context.Background()

	cases := []struct {
		name string
		in   RegisterInput
		msg  string
	}{
		{"missing fields", RegisterInput{Email: "a@b.c", Password: "secret1", UserType: models.UserTypeUpline}, "name, email and password are required"},
		{"short password", RegisterInput{Name: "A", Email: "a@b.c", Password: "abc", UserType: models.UserTypeUpline}, "password must be at least 6 characters"},
		{"password mismatch", RegisterInput{Name: "A", Email: "a@b.c", Password: "secret1", ConfirmPassword: "secret2", UserType: models.UserTypeUpline}, "passwords do not match"},
		{"no user type", RegisterInput{Name: "A", Email: "a@b.c", Password: "secret1"}, "must specify upline/downline"},
		{"unknown user type", RegisterInput{Name: "A", Email: "a@b.c", Password: "secret1", UserType: "sideline"}, "must specify upline/downline"},
		{"downline without upline id", RegisterInput{Name: "A", Email: "a@b.c", Password: "secret1", UserType: models.UserTypeDownline}, "invalid upline team id"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := r.Register(ctx, tc.in)
			require.Error(t, err)
			assert.True(t, IsValidationError(err))
			assert.EqualError(t, err, tc.msg)
		})
	}
	assert.Zero(t, store.creates)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	store := newFakeIdentityStore()
	seedUpline(store, "up-1", "ABCD1234")
	r := NewTeamResolver(store)

	_, err := r.Register(context.Background(), RegisterInput{
		Name:     "Impostor",
		Email:    "up-1@example.com",
		Password: "secret1",
		UserType: models.UserTypeUpline,
	})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestResolveSynthesizesDefaultUser(t *testing.T) {
	store := newFakeIdentityStore()
	r := NewTeamResolver(store)

	identity := r.ResolveOnAuthentication(context.Background(), Principal{
		UID:   "google-123",
		Email: "carol@example.com",
	})

	assert.Equal(t, StateResolved, identity.State)
	assert.Equal(t, "carol", identity.User.Name, "name falls back to the email prefix")
	assert.Equal(t, models.UserTypeUpline, identity.User.UserType)
	assert.Equal(t, identity.User.TeamID, identity.User.PersonalTeamID)
	assert.Len(t, identity.User.TeamID, 8)
	assert.Contains(t, store.users, "google-123")
}

func TestResolveDegradesOnReadFailure(t *testing.T) {
	store := newFakeIdentityStore()
	store.readErr = errors.New("connection reset")
	r := NewTeamResolver(store)

	identity := r.ResolveOnAuthentication(context.Background(), Principal{
		UID:         "u-1",
		Email:       "dave@example.com",
		DisplayName: "Dave",
	})

	assert.Equal(t, StateDegraded, identity.State)
	assert.Equal(t, "Dave", identity.User.Name)
	assert.Len(t, identity.User.TeamID, 8, "degraded identity still carries a usable team id")
}

func TestResolveDegradesWhenMigrationCannotPersist(t *testing.T) {
	store := newFakeIdentityStore()
	store.users["u-1"] = &models.User{
		UID:      "u-1",
		Email:    "eve@example.com",
		UserType: models.UserTypeUpline,
		TeamID:   models.LegacyTeamID,
	}
	store.writeErr = errors.New("write timeout")
	r := NewTeamResolver(store)

	identity := r.ResolveOnAuthentication(context.Background(), Principal{UID: "u-1"})

	assert.Equal(t, StateDegraded, identity.State)
	assert.NotEqual(t, models.LegacyTeamID, identity.User.TeamID,
		"in-memory identity is repaired even when the write fails")
}

func TestMigrateLegacySentinelTeam(t *testing.T) {
	user := &models.User{
		UID:      "u-1",
		UserType: models.UserTypeUpline,
		TeamID:   models.LegacyTeamID,
	}

	updates := migrateUser(user)

	assert.NotEqual(t, models.LegacyTeamID, user.TeamID)
	assert.Equal(t, user.TeamID, user.PersonalTeamID)
	assert.Contains(t, updates, "teamId")
	assert.Contains(t, updates, "personalTeamId")

	// Idempotent: a second pass finds nothing to repair.
	assert.Empty(t, migrateUser(user))
}

func TestMigrateFillsPersonalTeamID(t *testing.T) {
	upline := &models.User{UID: "u-1", UserType: models.UserTypeUpline, TeamID: "ABCD1234"}
	updates := migrateUser(upline)
	assert.Equal(t, "ABCD1234", upline.PersonalTeamID, "uplines reuse their shared team id")
	assert.Equal(t, map[string]interface{}{"personalTeamId": "ABCD1234"}, updates)

	downline := &models.User{UID: "u-2", UserType: models.UserTypeDownline, TeamID: "ABCD1234"}
	migrateUser(downline)
	assert.NotEqual(t, "ABCD1234", downline.PersonalTeamID, "downlines get a fresh personal id")
	assert.Len(t, downline.PersonalTeamID, 8)
}

func TestMigrateDefaultsUserType(t *testing.T) {
	user := &models.User{UID: "u-1", TeamID: "ABCD1234", PersonalTeamID: "ABCD1234"}
	updates := migrateUser(user)
	assert.Equal(t, models.UserTypeUpline, user.UserType)
	assert.Equal(t, map[string]interface{}{"userType": models.UserTypeUpline}, updates)
}

func TestVerifyUplineTeamID(t *testing.T) {
	store := newFakeIdentityStore()
	seedUpline(store, "up-1", "ABCD1234")
	r := NewTeamResolver(store)
	ctx := context.Background()

	assert.True(t, r.VerifyUplineTeamID(ctx, "ABCD1234"))
	assert.True(t, r.VerifyUplineTeamID(ctx, "  abcd1234  "), "normalized before lookup")
	assert.False(t, r.VerifyUplineTeamID(ctx, "ZZZZ9999"))
	assert.False(t, r.VerifyUplineTeamID(ctx, ""))

	store.readErr = errors.New("down")
	assert.False(t, r.VerifyUplineTeamID(ctx, "ABCD1234"), "store failure reads as not-verified")
}
