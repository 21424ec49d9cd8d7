package roster

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sharesquad/sharesquad/internal/db"
)

// memKV is an in-memory stand-in for the SQLite store
type memKV struct {
	scopes map[string]map[string]string
}

func newMemKV() *memKV {
	return &memKV{scopes: map[string]map[string]string{}}
}

func (m *memKV) Get(_ context.Context, scope string, keys ...string) (map[string]string, error) {
	out := map[string]string{}
	for _, k := range keys {
		if v, ok := m.scopes[scope][k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (m *memKV) Set(_ context.Context, scope string, values map[string]string) error {
	if m.scopes[scope] == nil {
		m.scopes[scope] = map[string]string{}
	}
	for k, v := range values {
		m.scopes[scope][k] = v
	}
	return nil
}

func (m *memKV) persistedUsers(t *testing.T) []User {
	t.Helper()
	var users []User
	require.NoError(t, json.Unmarshal([]byte(m.scopes[db.ScopeSync]["users"]), &users))
	return users
}

func (m *memKV) persistedGroups(t *testing.T) []Group {
	t.Helper()
	var groups []Group
	require.NoError(t, json.Unmarshal([]byte(m.scopes[db.ScopeSync]["groups"]), &groups))
	return groups
}

func newTestRepo(t *testing.T) (*Repository, *memKV) {
	t.Helper()
	kv := newMemKV()
	repo := NewRepository(kv)
	require.NoError(t, repo.Load(context.Background()))
	return repo, kv
}

func assertIntegrity(t *testing.T, repo *Repository) {
	t.Helper()
	known := map[string]bool{}
	for _, u := range repo.Users() {
		known[u.ID] = true
	}
	for _, g := range repo.Groups() {
		for _, mid := range g.MemberIDs {
			assert.True(t, known[mid], "group %q references unknown user %q", g.Name, mid)
		}
	}
}

func TestAddUser_Validation(t *testing.T) {
	repo, kv := newTestRepo(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		email string
	}{
		{"empty", ""},
		{"whitespace_only", "   "},
		{"tabs_only", "\t\t"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := repo.AddUser(ctx, tt.email)
			assert.ErrorIs(t, err, ErrEmptyEmail)
			assert.True(t, IsValidationError(err))
		})
	}
	assert.Empty(t, repo.Users())
	assert.Empty(t, kv.scopes[db.ScopeSync])
}

func TestAddUser_AssignsFreshIDs(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	a, err := repo.AddUser(ctx, " a@x.com ")
	require.NoError(t, err)
	b, err := repo.AddUser(ctx, "b@x.com")
	require.NoError(t, err)

	assert.Equal(t, "a@x.com", a.Email, "email is trimmed")
	assert.NotEqual(t, a.ID, b.ID)
	assert.Len(t, repo.Users(), 2)
}

func TestEditUser_UnknownIDIsNoOp(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	u, err := repo.AddUser(ctx, "a@x.com")
	require.NoError(t, err)

	require.NoError(t, repo.EditUser(ctx, "missing", "z@x.com"))
	got, ok := repo.UserByID(u.ID)
	require.True(t, ok)
	assert.Equal(t, "a@x.com", got.Email)

	require.NoError(t, repo.EditUser(ctx, u.ID, "new@x.com"))
	got, _ = repo.UserByID(u.ID)
	assert.Equal(t, "new@x.com", got.Email)
}

func TestDeleteUser_CascadesExactly(t *testing.T) {
	repo, kv := newTestRepo(t)
	ctx := context.Background()

	// Fixture with fixed ids, installed through import
	require.NoError(t, repo.Import(ctx, Snapshot{
		Users:  []User{{ID: "u1", Email: "a@x.com"}},
		Groups: []Group{{ID: "g1", Name: "Team", MemberIDs: []string{"u1"}}},
	}))

	require.NoError(t, repo.DeleteUser(ctx, "u1"))

	assert.Empty(t, repo.Users())
	groups := repo.Groups()
	require.Len(t, groups, 1)
	assert.Equal(t, "g1", groups[0].ID)
	assert.Equal(t, "Team", groups[0].Name)
	assert.Empty(t, groups[0].MemberIDs)

	// Both collections must be persisted in the cascaded state
	assert.Empty(t, kv.persistedUsers(t))
	persisted := kv.persistedGroups(t)
	require.Len(t, persisted, 1)
	assert.Empty(t, persisted[0].MemberIDs)
}

func TestDeleteUser_OtherGroupsUntouched(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Import(ctx, Snapshot{
		Users: []User{{ID: "u1", Email: "a@x.com"}, {ID: "u2", Email: "b@x.com"}},
		Groups: []Group{
			{ID: "g1", Name: "Both", MemberIDs: []string{"u1", "u2"}},
			{ID: "g2", Name: "OnlyB", MemberIDs: []string{"u2"}},
		},
	}))

	require.NoError(t, repo.DeleteUser(ctx, "u1"))

	groups := repo.Groups()
	require.Len(t, groups, 2)
	for _, g := range groups {
		switch g.ID {
		case "g1":
			assert.Equal(t, []string{"u2"}, g.MemberIDs)
		case "g2":
			assert.Equal(t, []string{"u2"}, g.MemberIDs)
		}
	}
	assertIntegrity(t, repo)
}

func TestReferentialIntegrity_HeldThroughSequence(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	a, _ := repo.AddUser(ctx, "a@x.com")
	b, _ := repo.AddUser(ctx, "b@x.com")
	assertIntegrity(t, repo)

	g, err := repo.AddGroup(ctx, "Team", []string{a.ID, b.ID, "ghost", a.ID})
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID, b.ID}, g.MemberIDs, "unknown and duplicate ids dropped")
	assertIntegrity(t, repo)

	require.NoError(t, repo.DeleteUser(ctx, a.ID))
	assertIntegrity(t, repo)

	require.NoError(t, repo.EditGroup(ctx, g.ID, "Renamed", []string{b.ID, "ghost2"}))
	assertIntegrity(t, repo)

	require.NoError(t, repo.DeleteGroup(ctx, g.ID))
	assertIntegrity(t, repo)
	assert.Len(t, repo.Users(), 1)
	assert.Empty(t, repo.Groups())
}

func TestSetGroupMembership_Idempotent(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	u, _ := repo.AddUser(ctx, "a@x.com")
	g, _ := repo.AddGroup(ctx, "Team", nil)

	require.NoError(t, repo.SetGroupMembership(ctx, u.ID, g.ID, true))
	require.NoError(t, repo.SetGroupMembership(ctx, u.ID, g.ID, true))
	got, _ := repo.GroupByID(g.ID)
	assert.Equal(t, []string{u.ID}, got.MemberIDs)

	require.NoError(t, repo.SetGroupMembership(ctx, u.ID, g.ID, false))
	require.NoError(t, repo.SetGroupMembership(ctx, u.ID, g.ID, false))
	got, _ = repo.GroupByID(g.ID)
	assert.Empty(t, got.MemberIDs)

	// Unknown user or group is a no-op, not an error
	require.NoError(t, repo.SetGroupMembership(ctx, "ghost", g.ID, true))
	require.NoError(t, repo.SetGroupMembership(ctx, u.ID, "ghost", true))
	assertIntegrity(t, repo)
}

func TestPersist_SortsCollections(t *testing.T) {
	repo, kv := newTestRepo(t)
	ctx := context.Background()

	_, _ = repo.AddUser(ctx, "zeta@x.com")
	_, _ = repo.AddUser(ctx, "Alpha@x.com")
	_, _ = repo.AddUser(ctx, "mike@x.com")
	_, _ = repo.AddGroup(ctx, "writers", nil)
	_, _ = repo.AddGroup(ctx, "Admins", nil)

	users := kv.persistedUsers(t)
	require.Len(t, users, 3)
	assert.Equal(t, "Alpha@x.com", users[0].Email)
	assert.Equal(t, "mike@x.com", users[1].Email)
	assert.Equal(t, "zeta@x.com", users[2].Email)

	groups := kv.persistedGroups(t)
	require.Len(t, groups, 2)
	assert.Equal(t, "Admins", groups[0].Name)
	assert.Equal(t, "writers", groups[1].Name)
}

func TestEmailsFor_ResolvesSelection(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Import(ctx, Snapshot{
		Users: []User{
			{ID: "u1", Email: "a@x.com"},
			{ID: "u2", Email: "b@x.com"},
			{ID: "u3", Email: "c@x.com"},
		},
		Groups: []Group{{ID: "g1", Name: "Team", MemberIDs: []string{"u2", "u3"}}},
	}))

	emails := repo.EmailsFor([]string{"u2", "ghost"}, []string{"g1", "ghost"})
	assert.Equal(t, []string{"b@x.com", "c@x.com"}, emails, "selection de-duplicated, unknown ids dropped")

	assert.Empty(t, repo.EmailsFor(nil, nil))
}

func TestPrefs_DefaultsAndPersistence(t *testing.T) {
	repo, kv := newTestRepo(t)
	ctx := context.Background()

	prefs := repo.Prefs()
	assert.True(t, prefs.ShowUserGroupTags)
	assert.True(t, prefs.ShowGroupMemberTags)
	assert.False(t, prefs.AdvancedMode)
	assert.False(t, prefs.HasSeenSyncWarning)
	assert.Equal(t, "auto", repo.Language())

	require.NoError(t, repo.SetAdvancedMode(ctx, true))
	require.NoError(t, repo.MarkSyncWarningSeen(ctx))
	require.NoError(t, repo.SetLanguage(ctx, "es"))

	// A second repository sharing the store observes the flags
	repo2 := NewRepository(kv)
	require.NoError(t, repo2.Load(ctx))
	assert.True(t, repo2.Prefs().AdvancedMode)
	assert.True(t, repo2.Prefs().HasSeenSyncWarning)
	assert.Equal(t, "es", repo2.Language())
}

func TestLoad_DropsDanglingMembers(t *testing.T) {
	kv := newMemKV()
	require.NoError(t, kv.Set(context.Background(), db.ScopeSync, map[string]string{
		"users":  `[{"id":"u1","email":"a@x.com"}]`,
		"groups": `[{"id":"g1","name":"Team","memberIds":["u1","gone"]}]`,
	}))

	repo := NewRepository(kv)
	require.NoError(t, repo.Load(context.Background()))

	groups := repo.Groups()
	require.Len(t, groups, 1)
	assert.Equal(t, []string{"u1"}, groups[0].MemberIDs)
}
