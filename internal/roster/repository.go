package roster

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/samber/lo"

	"github.com/sharesquad/sharesquad/internal/db"
)

// KV is the scoped key-value store the repository persists through
type KV interface {
	Get(ctx context.Context, scope string, keys ...string) (map[string]string, error)
	Set(ctx context.Context, scope string, values map[string]string) error
}

// Repository owns the in-memory users/groups collections for the lifetime of
// a session. The store is the durable source of truth; every mutation is
// written back before the call returns.
type Repository struct {
	mu     sync.RWMutex
	store  KV
	users  []User
	groups []Group
	prefs  Prefs
	lang   string
}

// NewRepository creates a repository backed by the given store
func NewRepository(store KV) *Repository {
	return &Repository{
		store: store,
		prefs: Prefs{ShowUserGroupTags: true, ShowGroupMemberTags: true},
		lang:  "auto",
	}
}

// Load reads collections and preferences from the store. On first run both
// collections default to empty and the language to "auto".
func (r *Repository) Load(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	syncData, err := r.store.Get(ctx, db.ScopeSync,
		keyUsers, keyGroups,
		keyShowUserGroupTags, keyShowGroupMemberTags,
		keyAdvancedMode, keyHasSeenSyncWarning,
	)
	if err != nil {
		return fmt.Errorf("load sync data: %w", err)
	}

	r.users = nil
	r.groups = nil
	if raw, ok := syncData[keyUsers]; ok {
		if err := json.Unmarshal([]byte(raw), &r.users); err != nil {
			return fmt.Errorf("decode users: %w", err)
		}
	}
	if raw, ok := syncData[keyGroups]; ok {
		if err := json.Unmarshal([]byte(raw), &r.groups); err != nil {
			return fmt.Errorf("decode groups: %w", err)
		}
	}
	r.normalizeMembersLocked()

	r.prefs = Prefs{
		ShowUserGroupTags:   flagOr(syncData, keyShowUserGroupTags, true),
		ShowGroupMemberTags: flagOr(syncData, keyShowGroupMemberTags, true),
		AdvancedMode:        flagOr(syncData, keyAdvancedMode, false),
		HasSeenSyncWarning:  flagOr(syncData, keyHasSeenSyncWarning, false),
	}

	localData, err := r.store.Get(ctx, db.ScopeLocal, keyLang)
	if err != nil {
		return fmt.Errorf("load local data: %w", err)
	}
	r.lang = "auto"
	if lang, ok := localData[keyLang]; ok && lang != "" {
		r.lang = lang
	}
	return nil
}

func flagOr(data map[string]string, key string, def bool) bool {
	raw, ok := data[key]
	if !ok {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}

// Users returns a copy of the user collection
func (r *Repository) Users() []User {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]User(nil), r.users...)
}

// Groups returns a copy of the group collection
func (r *Repository) Groups() []Group {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Group, len(r.groups))
	for i, g := range r.groups {
		out[i] = g
		out[i].MemberIDs = append([]string(nil), g.MemberIDs...)
	}
	return out
}

// UserByID returns the user with the given id
func (r *Repository) UserByID(id string) (User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Find(r.users, func(u User) bool { return u.ID == id })
}

// GroupByID returns the group with the given id
func (r *Repository) GroupByID(id string) (Group, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := lo.Find(r.groups, func(g Group) bool { return g.ID == id })
	if ok {
		g.MemberIDs = append([]string(nil), g.MemberIDs...)
	}
	return g, ok
}

// AddUser creates a user with a fresh id
func (r *Repository) AddUser(ctx context.Context, email string) (User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return User{}, ErrEmptyEmail
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	u := User{ID: newID("u"), Email: email}
	r.users = append(r.users, u)
	return u, r.persistLocked(ctx)
}

// EditUser updates a user's email. Unknown ids are a silent no-op.
func (r *Repository) EditUser(ctx context.Context, id, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ErrEmptyEmail
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.users {
		if r.users[i].ID == id {
			r.users[i].Email = email
			return r.persistLocked(ctx)
		}
	}
	return nil
}

// DeleteUser removes a user and strips its id from every group's member list
// before returning, so no group ever references a deleted user.
func (r *Repository) DeleteUser(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	before := len(r.users)
	r.users = lo.Filter(r.users, func(u User, _ int) bool { return u.ID != id })
	if len(r.users) == before {
		return nil
	}
	for i := range r.groups {
		r.groups[i].MemberIDs = lo.Filter(r.groups[i].MemberIDs, func(mid string, _ int) bool {
			return mid != id
		})
	}
	return r.persistLocked(ctx)
}

// AddGroup creates a group. Member ids that do not reference an existing
// user are dropped.
func (r *Repository) AddGroup(ctx context.Context, name string, memberIDs []string) (Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Group{}, ErrEmptyGroupName
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	g := Group{ID: newID("g"), Name: name, MemberIDs: r.knownMembersLocked(memberIDs)}
	r.groups = append(r.groups, g)
	return g, r.persistLocked(ctx)
}

// EditGroup replaces a group's name and member list. Unknown ids are a
// silent no-op.
func (r *Repository) EditGroup(ctx context.Context, id, name string, memberIDs []string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyGroupName
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.groups {
		if r.groups[i].ID == id {
			r.groups[i].Name = name
			r.groups[i].MemberIDs = r.knownMembersLocked(memberIDs)
			return r.persistLocked(ctx)
		}
	}
	return nil
}

// DeleteGroup removes a group. Users are unaffected.
func (r *Repository) DeleteGroup(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	before := len(r.groups)
	r.groups = lo.Filter(r.groups, func(g Group, _ int) bool { return g.ID != id })
	if len(r.groups) == before {
		return nil
	}
	return r.persistLocked(ctx)
}

// SetGroupMembership adds or removes a user from a group. Adding a member
// that is already present, or removing one that is absent, is a no-op.
func (r *Repository) SetGroupMembership(ctx context.Context, userID, groupID string, member bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := lo.Find(r.users, func(u User) bool { return u.ID == userID }); !ok {
		return nil
	}
	for i := range r.groups {
		if r.groups[i].ID != groupID {
			continue
		}
		present := lo.Contains(r.groups[i].MemberIDs, userID)
		switch {
		case member && !present:
			r.groups[i].MemberIDs = append(r.groups[i].MemberIDs, userID)
		case !member && present:
			r.groups[i].MemberIDs = lo.Filter(r.groups[i].MemberIDs, func(mid string, _ int) bool {
				return mid != userID
			})
		default:
			return nil
		}
		return r.persistLocked(ctx)
	}
	return nil
}

// GroupsOf returns the groups a user belongs to
func (r *Repository) GroupsOf(userID string) []Group {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Filter(r.groups, func(g Group, _ int) bool {
		return lo.Contains(g.MemberIDs, userID)
	})
}

// MembersOf returns the users that belong to a group, in member order
func (r *Repository) MembersOf(groupID string) []User {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := lo.Find(r.groups, func(g Group) bool { return g.ID == groupID })
	if !ok {
		return nil
	}
	byID := lo.SliceToMap(r.users, func(u User) (string, User) { return u.ID, u })
	return lo.FilterMap(g.MemberIDs, func(mid string, _ int) (User, bool) {
		u, ok := byID[mid]
		return u, ok
	})
}

// EmailFor returns a user's email by id
func (r *Repository) EmailFor(userID string) (string, bool) {
	u, ok := r.UserByID(userID)
	return u.Email, ok
}

// GroupEmails returns a group's member emails in member order
func (r *Repository) GroupEmails(groupID string) ([]string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := lo.Find(r.groups, func(g Group) bool { return g.ID == groupID })
	if !ok {
		return nil, false
	}
	byID := lo.SliceToMap(r.users, func(u User) (string, User) { return u.ID, u })
	emails := lo.FilterMap(g.MemberIDs, func(mid string, _ int) (string, bool) {
		u, ok := byID[mid]
		return u.Email, ok
	})
	return emails, true
}

// EmailsFor resolves a selection of user ids and group ids to a de-duplicated
// email list: directly selected users first, then group members, unknown ids
// dropped.
func (r *Repository) EmailsFor(userIDs, groupIDs []string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	byID := lo.SliceToMap(r.users, func(u User) (string, User) { return u.ID, u })

	ids := append([]string(nil), userIDs...)
	for _, gid := range groupIDs {
		if g, ok := lo.Find(r.groups, func(g Group) bool { return g.ID == gid }); ok {
			ids = append(ids, g.MemberIDs...)
		}
	}
	ids = lo.Uniq(ids)
	return lo.FilterMap(ids, func(id string, _ int) (string, bool) {
		u, ok := byID[id]
		return u.Email, ok
	})
}

// Prefs returns the current view preferences
func (r *Repository) Prefs() Prefs {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.prefs
}

// SetShowUserGroupTags persists the user-list tag toggle
func (r *Repository) SetShowUserGroupTags(ctx context.Context, v bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prefs.ShowUserGroupTags = v
	return r.store.Set(ctx, db.ScopeSync, map[string]string{keyShowUserGroupTags: strconv.FormatBool(v)})
}

// SetShowGroupMemberTags persists the group-list tag toggle
func (r *Repository) SetShowGroupMemberTags(ctx context.Context, v bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prefs.ShowGroupMemberTags = v
	return r.store.Set(ctx, db.ScopeSync, map[string]string{keyShowGroupMemberTags: strconv.FormatBool(v)})
}

// SetAdvancedMode persists the advanced workflow toggle
func (r *Repository) SetAdvancedMode(ctx context.Context, v bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prefs.AdvancedMode = v
	return r.store.Set(ctx, db.ScopeSync, map[string]string{keyAdvancedMode: strconv.FormatBool(v)})
}

// MarkSyncWarningSeen persists the one-time warning flag
func (r *Repository) MarkSyncWarningSeen(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prefs.HasSeenSyncWarning = true
	return r.store.Set(ctx, db.ScopeSync, map[string]string{keyHasSeenSyncWarning: "true"})
}

// Language returns the selected language (auto, en or es)
func (r *Repository) Language() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lang
}

// SetLanguage persists the language selection to the local scope
func (r *Repository) SetLanguage(ctx context.Context, lang string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lang = lang
	return r.store.Set(ctx, db.ScopeLocal, map[string]string{keyLang: lang})
}

// Persist sorts both collections and writes them to the sync scope
func (r *Repository) Persist(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.persistLocked(ctx)
}

func (r *Repository) persistLocked(ctx context.Context) error {
	sort.SliceStable(r.users, func(i, j int) bool {
		return lessFold(r.users[i].Email, r.users[j].Email)
	})
	sort.SliceStable(r.groups, func(i, j int) bool {
		return lessFold(r.groups[i].Name, r.groups[j].Name)
	})

	usersJSON, err := json.Marshal(r.users)
	if err != nil {
		return fmt.Errorf("encode users: %w", err)
	}
	groupsJSON, err := json.Marshal(r.groups)
	if err != nil {
		return fmt.Errorf("encode groups: %w", err)
	}
	return r.store.Set(ctx, db.ScopeSync, map[string]string{
		keyUsers:  string(usersJSON),
		keyGroups: string(groupsJSON),
	})
}

// lessFold orders case-insensitively with a deterministic tiebreak on the
// raw string, so persistence-time normalization is stable across devices.
func lessFold(a, b string) bool {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	if la != lb {
		return la < lb
	}
	return a < b
}

// knownMembersLocked keeps only ids of existing users, de-duplicated in order
func (r *Repository) knownMembersLocked(memberIDs []string) []string {
	known := lo.SliceToMap(r.users, func(u User) (string, struct{}) { return u.ID, struct{}{} })
	ids := lo.Uniq(memberIDs)
	out := lo.Filter(ids, func(id string, _ int) bool {
		_, ok := known[id]
		return ok
	})
	if out == nil {
		out = []string{}
	}
	return out
}

// normalizeMembersLocked drops member ids that no longer resolve to a user
func (r *Repository) normalizeMembersLocked() {
	for i := range r.groups {
		r.groups[i].MemberIDs = r.knownMembersLocked(r.groups[i].MemberIDs)
	}
}
