package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/samber/lo"
)

// Bridge sequences page-agent primitives into the two supported operations.
// Every interactive step is followed by a fixed pacing delay so the host
// page's asynchronous UI can settle before the next read; this is a blocking
// wait, not a poll.
type Bridge struct {
	agent     Agent
	stepDelay time.Duration
	rowDelay  time.Duration
	logger    *log.Logger
}

// NewBridge creates a bridge over a connected agent
func NewBridge(agent Agent, stepDelay, rowDelay time.Duration, logger *log.Logger) *Bridge {
	return &Bridge{agent: agent, stepDelay: stepDelay, rowDelay: rowDelay, logger: logger}
}

// Close releases the underlying agent connection
func (b *Bridge) Close() error {
	return b.agent.Close()
}

// ProbeTarget confirms the invite input exists without mutating anything.
// It reports the same error shape as the full operations so callers can fail
// fast before running a mutating sequence.
func (b *Bridge) ProbeTarget(ctx context.Context) Result {
	return b.guard("probe", func() Result {
		found, err := b.probeInput(ctx)
		if err != nil {
			b.logf("probe: %v", err)
			return failResult(KeyUnexpected)
		}
		if !found {
			return failResult(KeyShareMenuNotFound)
		}
		return okResult()
	})
}

// InjectEmails merges the given comma-separated emails into the invite input
// and notifies the host page's reactive layer
func (b *Bridge) InjectEmails(ctx context.Context, emailCSV string) Result {
	return b.guard("inject", func() Result {
		current, found, err := b.readInput(ctx)
		if err != nil {
			b.logf("inject: read input: %v", err)
			return failResult(KeyUnexpected)
		}
		if !found {
			return failResult(KeyInputNotFound)
		}
		merged := MergeEmails(current, SplitEmails(emailCSV))
		found, err = b.writeInput(ctx, merged)
		if err != nil {
			b.logf("inject: write input: %v", err)
			return failResult(KeyUnexpected)
		}
		if !found {
			return failResult(KeyInputNotFound)
		}
		return okResult()
	})
}

// SyncPermissions reconciles the share dialog against the requested email
// set in two phases: update rows already listed, then invite the rest at the
// same level. Partial DOM changes made before a failure are not rolled back.
func (b *Bridge) SyncPermissions(ctx context.Context, req SyncRequest) Result {
	return b.guard("sync", func() Result {
		idx, ok := req.Level.Ordinal()
		if !ok {
			b.logf("sync: unknown permission level %q", req.Level)
			return failResult(KeyUnexpected)
		}

		rows, dialogFound, err := b.listMemberRows(ctx)
		if err != nil {
			b.logf("sync: list rows: %v", err)
			return failResult(KeyUnexpected)
		}
		if !dialogFound {
			return failResult(KeyShareMenuNotFound)
		}

		target := lo.SliceToMap(req.Emails, func(e string) (string, struct{}) { return e, struct{}{} })
		handled := map[string]struct{}{}

		// Phase 1: update members already listed in the dialog
		for _, row := range rows {
			if _, want := target[row.Email]; !want {
				continue
			}
			handled[row.Email] = struct{}{}

			opened, err := b.openRowPermissionMenu(ctx, row.RowID)
			if err != nil {
				b.logf("sync: open row menu for %s: %v", row.Email, err)
				return failResult(KeyUnexpected)
			}
			b.pause(ctx, b.stepDelay)
			if opened {
				if err := b.selectPermissionLevel(ctx, idx); err != nil {
					b.logf("sync: select level for %s: %v", row.Email, err)
					return failResult(KeyUnexpected)
				}
			}
			b.pause(ctx, b.rowDelay)
		}

		// Phase 2: invite everyone not found in the dialog
		toInvite := lo.Filter(req.Emails, func(e string, _ int) bool {
			_, done := handled[e]
			return !done
		})
		if len(toInvite) == 0 {
			return okResult()
		}

		current, found, err := b.readInput(ctx)
		if err != nil {
			b.logf("sync: read input: %v", err)
			return failResult(KeyUnexpected)
		}
		if !found {
			return failResult(KeyInputNotFound)
		}
		found, err = b.writeInput(ctx, MergeEmails(current, toInvite))
		if err != nil {
			b.logf("sync: write input: %v", err)
			return failResult(KeyUnexpected)
		}
		if !found {
			return failResult(KeyInputNotFound)
		}
		b.pause(ctx, b.stepDelay)

		// Best effort: the invite's own permission menu may be missing, in
		// which case the host default applies.
		opened, err := b.openInvitePermissionMenu(ctx)
		if err != nil {
			b.logf("sync: open invite menu: %v", err)
			return failResult(KeyUnexpected)
		}
		if opened {
			b.pause(ctx, b.stepDelay)
			if err := b.selectPermissionLevel(ctx, idx); err != nil {
				b.logf("sync: select invite level: %v", err)
				return failResult(KeyUnexpected)
			}
		} else {
			b.logf("sync: invite permission menu not found, keeping host default")
		}

		clicked, err := b.clickInvite(ctx)
		if err != nil {
			b.logf("sync: click invite: %v", err)
			return failResult(KeyUnexpected)
		}
		if !clicked {
			return failResult(KeyInviteButtonNotFound)
		}
		b.pause(ctx, b.stepDelay)
		return okResult()
	})
}

// selectPermissionLevel picks the entry at the given ordinal position in the
// currently open permission menu. Position is the only signal used; if the
// menu has no such entry the menu is closed and the row keeps its level.
func (b *Bridge) selectPermissionLevel(ctx context.Context, idx int) error {
	selected, err := b.selectPermissionOption(ctx, idx)
	if err != nil {
		return err
	}
	if !selected {
		if err := b.closeOpenMenu(ctx); err != nil {
			return err
		}
	}
	b.pause(ctx, b.stepDelay)
	return nil
}

// guard converts any panic inside an operation into a generic error result;
// nothing crosses the bridge boundary as a Go panic.
func (b *Bridge) guard(op string, fn func() Result) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			b.logf("%s: recovered: %v", op, r)
			res = failResult(KeyUnexpected)
		}
	}()
	return fn()
}

func (b *Bridge) pause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func (b *Bridge) logf(format string, args ...interface{}) {
	if b.logger != nil {
		b.logger.Printf("bridge: "+format, args...)
	}
}

// Primitive wrappers

func (b *Bridge) do(ctx context.Context, op Op, payload, value interface{}) error {
	reply, err := b.agent.Do(ctx, op, payload)
	if err != nil {
		return err
	}
	if !reply.OK {
		return fmt.Errorf("agent %s failed: %s", op, reply.ErrorKey)
	}
	if value == nil || len(reply.Value) == 0 {
		return nil
	}
	if err := json.Unmarshal(reply.Value, value); err != nil {
		return fmt.Errorf("decode %s reply: %w", op, err)
	}
	return nil
}

func (b *Bridge) probeInput(ctx context.Context) (bool, error) {
	var v struct {
		Found bool `json:"found"`
	}
	err := b.do(ctx, OpProbeInput, nil, &v)
	return v.Found, err
}

func (b *Bridge) readInput(ctx context.Context) (string, bool, error) {
	var v struct {
		Found bool   `json:"found"`
		Value string `json:"value"`
	}
	err := b.do(ctx, OpReadInput, nil, &v)
	return v.Value, v.Found, err
}

func (b *Bridge) writeInput(ctx context.Context, value string) (bool, error) {
	var v struct {
		Found bool `json:"found"`
	}
	err := b.do(ctx, OpWriteInput, map[string]string{"value": value}, &v)
	return v.Found, err
}

func (b *Bridge) listMemberRows(ctx context.Context) ([]MemberRow, bool, error) {
	var v struct {
		DialogFound bool        `json:"dialogFound"`
		Rows        []MemberRow `json:"rows"`
	}
	err := b.do(ctx, OpListMemberRows, nil, &v)
	return v.Rows, v.DialogFound, err
}

func (b *Bridge) openRowPermissionMenu(ctx context.Context, rowID string) (bool, error) {
	var v struct {
		Opened bool `json:"opened"`
	}
	err := b.do(ctx, OpOpenRowPermissionMenu, map[string]string{"rowId": rowID}, &v)
	return v.Opened, err
}

func (b *Bridge) selectPermissionOption(ctx context.Context, index int) (bool, error) {
	var v struct {
		Selected bool `json:"selected"`
	}
	err := b.do(ctx, OpSelectPermissionOption, map[string]int{"index": index}, &v)
	return v.Selected, err
}

func (b *Bridge) openInvitePermissionMenu(ctx context.Context) (bool, error) {
	var v struct {
		Opened bool `json:"opened"`
	}
	err := b.do(ctx, OpOpenInvitePermissionMenu, nil, &v)
	return v.Opened, err
}

func (b *Bridge) clickInvite(ctx context.Context) (bool, error) {
	var v struct {
		Clicked bool `json:"clicked"`
	}
	err := b.do(ctx, OpClickInvite, nil, &v)
	return v.Clicked, err
}

func (b *Bridge) closeOpenMenu(ctx context.Context) error {
	return b.do(ctx, OpCloseOpenMenu, nil, nil)
}
