package roster

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportImport_RoundTrip(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Import(ctx, Snapshot{
		Users: []User{
			{ID: "u1", Email: "a@x.com"},
			{ID: "u2", Email: "b@x.com"},
		},
		Groups: []Group{{ID: "g1", Name: "Team", MemberIDs: []string{"u1", "u2"}}},
	}))

	snap := repo.Export()
	data, err := json.MarshalIndent(snap, "", "  ")
	require.NoError(t, err)

	decoded, err := DecodeSnapshot(data)
	require.NoError(t, err)

	repo2, _ := newTestRepo(t)
	require.NoError(t, repo2.Import(ctx, decoded))

	assert.Equal(t, repo.Users(), repo2.Users())
	assert.Equal(t, repo.Groups(), repo2.Groups())
}

func TestDecodeSnapshot_Validation(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"not_json", `garbage`},
		{"missing_users", `{"groups":[]}`},
		{"missing_groups", `{"users":[]}`},
		{"users_not_list", `{"users":{},"groups":[]}`},
		{"groups_not_list", `{"users":[],"groups":"nope"}`},
		{"null_users", `{"users":null,"groups":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeSnapshot([]byte(tt.payload))
			assert.ErrorIs(t, err, ErrInvalidSnapshot)
			assert.True(t, IsValidationError(err))
		})
	}
}

func TestImport_InvalidPayloadLeavesStateUntouched(t *testing.T) {
	repo, kv := newTestRepo(t)
	ctx := context.Background()

	u, err := repo.AddUser(ctx, "keep@x.com")
	require.NoError(t, err)

	_, err = DecodeSnapshot([]byte(`{"users":{},"groups":[]}`))
	require.Error(t, err)

	// Nothing was imported; in-memory and persisted state both keep the user
	users := repo.Users()
	require.Len(t, users, 1)
	assert.Equal(t, u.ID, users[0].ID)
	persisted := kv.persistedUsers(t)
	require.Len(t, persisted, 1)
	assert.Equal(t, "keep@x.com", persisted[0].Email)
}

func TestImport_ReplacesWithoutMerge(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.AddUser(ctx, "old@x.com")
	require.NoError(t, err)

	require.NoError(t, repo.Import(ctx, Snapshot{
		Users:  []User{{ID: "u9", Email: "new@x.com"}},
		Groups: []Group{},
	}))

	users := repo.Users()
	require.Len(t, users, 1)
	assert.Equal(t, "new@x.com", users[0].Email)
}

func TestImport_DropsDanglingReferences(t *testing.T) {
	repo, _ := newTestRepo(t)

	require.NoError(t, repo.Import(context.Background(), Snapshot{
		Users:  []User{{ID: "u1", Email: "a@x.com"}},
		Groups: []Group{{ID: "g1", Name: "Team", MemberIDs: []string{"u1", "ghost"}}},
	}))

	groups := repo.Groups()
	require.Len(t, groups, 1)
	assert.Equal(t, []string{"u1"}, groups[0].MemberIDs)
	assertIntegrity(t, repo)
}

func TestExport_ExcludesPreferences(t *testing.T) {
	repo, _ := newTestRepo(t)
	require.NoError(t, repo.SetAdvancedMode(context.Background(), true))

	data, err := json.Marshal(repo.Export())
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Len(t, raw, 2)
	assert.Contains(t, raw, "users")
	assert.Contains(t, raw, "groups")
}

func TestExportFilename(t *testing.T) {
	now := time.Date(2026, 8, 29, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, "sharesquad_backup_2026-08-29.json", ExportFilename(now))
}
