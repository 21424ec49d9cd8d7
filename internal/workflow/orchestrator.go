// Package workflow drives end-to-end share operations: resolve the active
// tab, verify the target page, then run the bridge operation against it.
package workflow

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"

	"github.com/sharesquad/sharesquad/internal/bridge"
	"github.com/sharesquad/sharesquad/internal/browser"
)

// State is one step of a share workflow
type State int

const (
	StateIdle State = iota
	StateResolvingTarget
	StateBlockedWrongTab
	StateProbing
	StateBlockedNotFound
	StateRunning
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateResolvingTarget:
		return "resolving_target"
	case StateBlockedWrongTab:
		return "blocked_wrong_tab"
	case StateProbing:
		return "probing"
	case StateBlockedNotFound:
		return "blocked_not_found"
	case StateRunning:
		return "running"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the workflow stops in this state
func (s State) Terminal() bool {
	switch s {
	case StateBlockedWrongTab, StateBlockedNotFound, StateSucceeded, StateFailed:
		return true
	}
	return s == StateIdle
}

// KeyWrongTab is the message key reported when the focused tab is not on the
// configured target origin
const KeyWrongTab = "notificationMessage"

// Outcome is the terminal result of one workflow run. ErrorKey is a message
// catalog key, empty on success.
type Outcome struct {
	State    State
	ErrorKey string
}

func succeeded() Outcome { return Outcome{State: StateSucceeded} }

func blocked(s State, key string) Outcome { return Outcome{State: s, ErrorKey: key} }

func failed(key string) Outcome { return Outcome{State: StateFailed, ErrorKey: key} }

// TabSource resolves the browser tab a workflow should target
type TabSource interface {
	ActiveTab(ctx context.Context) (browser.Tab, error)
}

// Runner is the slice of the bridge a workflow drives
type Runner interface {
	ProbeTarget(ctx context.Context) bridge.Result
	InjectEmails(ctx context.Context, emailCSV string) bridge.Result
	SyncPermissions(ctx context.Context, req bridge.SyncRequest) bridge.Result
	Close() error
}

// BridgeFactory connects a bridge to the given tab's page agent
type BridgeFactory func(ctx context.Context, tab browser.Tab) (Runner, error)

// Roster supplies the email material workflows operate on
type Roster interface {
	EmailFor(userID string) (string, bool)
	GroupEmails(groupID string) ([]string, bool)
	EmailsFor(userIDs, groupIDs []string) []string
}

// Sink receives workflow progress for display. All methods are called from
// the workflow goroutine; implementations decide how to marshal onto a UI.
type Sink interface {
	Transition(state State)
	ShowProgress()
	HideProgress()
}

// Orchestrator serializes share workflows per browser tab
type Orchestrator struct {
	tabs   TabSource
	dial   BridgeFactory
	roster Roster
	origin string
	logger *log.Logger

	mu       sync.Mutex
	sink     Sink
	tabLocks map[string]*sync.Mutex
}

// New creates an orchestrator targeting pages under origin
func New(tabs TabSource, dial BridgeFactory, roster Roster, origin string, logger *log.Logger) *Orchestrator {
	return &Orchestrator{
		tabs:     tabs,
		dial:     dial,
		roster:   roster,
		origin:   origin,
		logger:   logger,
		tabLocks: make(map[string]*sync.Mutex),
	}
}

// SetSink registers the progress receiver. Pass nil to detach.
func (o *Orchestrator) SetSink(sink Sink) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sink = sink
}

// InjectUser writes one user's email into the active tab's invite input
func (o *Orchestrator) InjectUser(ctx context.Context, userID string) Outcome {
	email, ok := o.roster.EmailFor(userID)
	if !ok || email == "" {
		return Outcome{State: StateIdle}
	}
	return o.run(ctx, false, func(ctx context.Context, r Runner) bridge.Result {
		return r.InjectEmails(ctx, email)
	})
}

// InjectGroup writes a group's member emails into the active tab's invite
// input. Groups with no members are a no-op.
func (o *Orchestrator) InjectGroup(ctx context.Context, groupID string) Outcome {
	emails, ok := o.roster.GroupEmails(groupID)
	if !ok || len(emails) == 0 {
		return Outcome{State: StateIdle}
	}
	csv := strings.Join(emails, ", ")
	return o.run(ctx, false, func(ctx context.Context, r Runner) bridge.Result {
		return r.InjectEmails(ctx, csv)
	})
}

// SyncPermissions reconciles the share dialog so every selected user and
// group member holds the requested level
func (o *Orchestrator) SyncPermissions(ctx context.Context, userIDs, groupIDs []string, level bridge.PermissionLevel) Outcome {
	emails := o.roster.EmailsFor(userIDs, groupIDs)
	if len(emails) == 0 {
		return Outcome{State: StateIdle}
	}
	return o.run(ctx, true, func(ctx context.Context, r Runner) bridge.Result {
		return r.SyncPermissions(ctx, bridge.SyncRequest{Emails: emails, Level: level})
	})
}

// run is the shared state machine: resolve the tab, check its origin, probe
// the page, then execute. Runs against the same tab are serialized; bulk
// operations additionally surface a progress indicator while running.
func (o *Orchestrator) run(ctx context.Context, bulk bool, op func(context.Context, Runner) bridge.Result) Outcome {
	o.transition(StateResolvingTarget)
	tab, err := o.tabs.ActiveTab(ctx)
	if err != nil {
		if !errors.Is(err, browser.ErrNoActiveTab) {
			o.logf("resolve tab: %v", err)
		}
		out := blocked(StateBlockedWrongTab, KeyWrongTab)
		o.transition(out.State)
		return out
	}
	if !tab.MatchesOrigin(o.origin) {
		out := blocked(StateBlockedWrongTab, KeyWrongTab)
		o.transition(out.State)
		return out
	}

	lock := o.lockFor(tab.ID)
	lock.Lock()
	defer lock.Unlock()

	runner, err := o.dial(ctx, tab)
	if err != nil {
		o.logf("dial tab %s: %v", tab.ID, err)
		out := failed(bridge.KeyUnexpected)
		o.transition(out.State)
		return out
	}
	defer func() {
		if err := runner.Close(); err != nil {
			o.logf("close bridge: %v", err)
		}
	}()

	o.transition(StateProbing)
	if probe := runner.ProbeTarget(ctx); !probe.Success {
		out := blocked(StateBlockedNotFound, probe.ErrorKey)
		o.transition(out.State)
		return out
	}

	o.transition(StateRunning)
	if bulk {
		o.showProgress()
	}
	res := op(ctx, runner)
	if bulk {
		o.hideProgress()
	}

	var out Outcome
	if res.Success {
		out = succeeded()
	} else {
		out = failed(res.ErrorKey)
	}
	o.transition(out.State)
	return out
}

func (o *Orchestrator) lockFor(tabID string) *sync.Mutex {
	o.mu.Lock()
	defer o.mu.Unlock()
	lock, ok := o.tabLocks[tabID]
	if !ok {
		lock = &sync.Mutex{}
		o.tabLocks[tabID] = lock
	}
	return lock
}

func (o *Orchestrator) currentSink() Sink {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sink
}

func (o *Orchestrator) transition(s State) {
	if sink := o.currentSink(); sink != nil {
		sink.Transition(s)
	}
}

func (o *Orchestrator) showProgress() {
	if sink := o.currentSink(); sink != nil {
		sink.ShowProgress()
	}
}

func (o *Orchestrator) hideProgress() {
	if sink := o.currentSink(); sink != nil {
		sink.HideProgress()
	}
}

func (o *Orchestrator) logf(format string, args ...interface{}) {
	if o.logger != nil {
		o.logger.Printf("workflow: "+format, args...)
	}
}
