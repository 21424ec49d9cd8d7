package roster

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Export returns a deep copy of the users/groups collections. Preference
// flags are never exported.
func (r *Repository) Export() Snapshot {
	return Snapshot{Users: r.Users(), Groups: r.Groups()}
}

// ExportFilename returns the date-stamped backup filename for the given time
func ExportFilename(now time.Time) string {
	return fmt.Sprintf("sharesquad_backup_%s.json", now.Format("2006-01-02"))
}

// ExportToFile writes the snapshot as pretty-printed JSON
func (r *Repository) ExportToFile(path string) error {
	data, err := json.MarshalIndent(r.Export(), "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

// DecodeSnapshot parses an import payload. Both users and groups must be
// present and list-shaped, otherwise ErrInvalidSnapshot is returned.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var probe struct {
		Users  json.RawMessage `json:"users"`
		Groups json.RawMessage `json:"groups"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if !isJSONArray(probe.Users) || !isJSONArray(probe.Groups) {
		return Snapshot{}, ErrInvalidSnapshot
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	return snap, nil
}

func isJSONArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}

// Import fully replaces both collections with the snapshot (no merge),
// drops dangling member references and persists.
func (r *Repository) Import(ctx context.Context, snap Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users = append([]User(nil), snap.Users...)
	r.groups = make([]Group, len(snap.Groups))
	for i, g := range snap.Groups {
		r.groups[i] = g
		r.groups[i].MemberIDs = append([]string(nil), g.MemberIDs...)
	}
	r.normalizeMembersLocked()
	return r.persistLocked(ctx)
}
