// Package bridge drives the target page's sharing dialog through a typed
// command/reply protocol. The page-side agent executes DOM primitives; all
// sequencing, pacing and merge logic lives here.
package bridge

import (
	"encoding/json"
	"fmt"
)

// Op identifies a page-agent primitive
type Op string

const (
	OpProbeInput               Op = "probeInput"
	OpReadInput                Op = "readInput"
	OpWriteInput               Op = "writeInput"
	OpListMemberRows           Op = "listMemberRows"
	OpOpenRowPermissionMenu    Op = "openRowPermissionMenu"
	OpSelectPermissionOption   Op = "selectPermissionOption"
	OpOpenInvitePermissionMenu Op = "openInvitePermissionMenu"
	OpClickInvite              Op = "clickInvite"
	OpCloseOpenMenu            Op = "closeOpenMenu"
)

// Command is sent to the page agent
type Command struct {
	ID      string          `json:"id"`
	Op      Op              `json:"op"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Reply is what the page agent sends back. OK covers the primitive itself;
// domain outcomes (input missing, dialog closed) travel in Value.
type Reply struct {
	ID       string          `json:"id"`
	OK       bool            `json:"ok"`
	ErrorKey string          `json:"errorKey,omitempty"`
	Value    json.RawMessage `json:"value,omitempty"`
}

// Error keys surfaced to the orchestrator. The keys double as message
// catalog keys, matching the host dialog vocabulary.
const (
	KeyShareMenuNotFound    = "syncErrorShareMenu"
	KeyInputNotFound        = "syncErrorInput"
	KeyInviteButtonNotFound = "syncErrorInviteBtn"
	KeyUnexpected           = "syncErrorUnexpected"
)

// Result is the plain outcome value of a bridge operation. No error ever
// crosses the bridge boundary as a panic or Go error.
type Result struct {
	Success  bool
	ErrorKey string
}

func okResult() Result             { return Result{Success: true} }
func failResult(key string) Result { return Result{ErrorKey: key} }

// MemberRow is one existing entry of the share dialog
type MemberRow struct {
	RowID string `json:"rowId"`
	Email string `json:"email"`
}

// PermissionLevel is one of four ranked access levels
type PermissionLevel string

const (
	PermissionFull    PermissionLevel = "full"
	PermissionEdit    PermissionLevel = "edit"
	PermissionComment PermissionLevel = "comment"
	PermissionView    PermissionLevel = "view"
)

// PermissionLevels lists all levels in menu order
func PermissionLevels() []PermissionLevel {
	return []PermissionLevel{PermissionFull, PermissionEdit, PermissionComment, PermissionView}
}

// Ordinal returns the level's position in the permission menu. Selection is
// by position only, which keeps the protocol independent of the host page's
// language.
func (p PermissionLevel) Ordinal() (int, bool) {
	switch p {
	case PermissionFull:
		return 0, true
	case PermissionEdit:
		return 1, true
	case PermissionComment:
		return 2, true
	case PermissionView:
		return 3, true
	}
	return 0, false
}

// ParsePermissionLevel validates a level string
func ParsePermissionLevel(s string) (PermissionLevel, error) {
	p := PermissionLevel(s)
	if _, ok := p.Ordinal(); !ok {
		return "", fmt.Errorf("unknown permission level %q", s)
	}
	return p, nil
}

// SyncRequest is the bulk permission-sync payload
type SyncRequest struct {
	Emails []string
	Level  PermissionLevel
}
