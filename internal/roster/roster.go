// Package roster owns the in-memory contact and group collections and their
// persistence through the scoped key-value store.
package roster

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// User is a single email contact
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Group is a named, ordered set of user ids
type Group struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	MemberIDs []string `json:"memberIds"`
}

// Snapshot is the import/export payload. View preferences are intentionally
// not part of it.
type Snapshot struct {
	Users  []User  `json:"users"`
	Groups []Group `json:"groups"`
}

// Prefs holds the persisted view/session flags
type Prefs struct {
	ShowUserGroupTags   bool
	ShowGroupMemberTags bool
	AdvancedMode        bool
	HasSeenSyncWarning  bool
}

// Storage keys within the sync scope
const (
	keyUsers               = "users"
	keyGroups              = "groups"
	keyShowUserGroupTags   = "showUserGroupTags"
	keyShowGroupMemberTags = "showGroupMemberTags"
	keyAdvancedMode        = "advancedMode"
	keyHasSeenSyncWarning  = "hasSeenSyncWarning"
)

// Storage keys within the local scope
const keyLang = "lang"

// Validation errors
var (
	ErrEmptyEmail      = errors.New("email cannot be empty")
	ErrEmptyGroupName  = errors.New("group name cannot be empty")
	ErrInvalidSnapshot = errors.New("snapshot must contain users and groups lists")
)

// IsValidationError reports whether err is a local validation failure that
// left the persisted collections untouched
func IsValidationError(err error) bool {
	return errors.Is(err, ErrEmptyEmail) ||
		errors.Is(err, ErrEmptyGroupName) ||
		errors.Is(err, ErrInvalidSnapshot)
}

// newID returns a fresh id for the given prefix. The timestamp keeps ids
// roughly ordered by creation; the uuid suffix rules out collisions within
// the same millisecond.
func newID(prefix string) string {
	return fmt.Sprintf("%s_%d_%s", prefix, time.Now().UnixMilli(), uuid.NewString()[:8])
}
