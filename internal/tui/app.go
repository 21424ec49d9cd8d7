// Package tui implements the terminal UI: roster lists, editors, and the
// share workflow dialogs.
package tui

import (
	"context"
	"log"
	"sync"

	"github.com/derailed/tcell/v2"
	"github.com/derailed/tview"

	"github.com/sharesquad/sharesquad/internal/config"
	"github.com/sharesquad/sharesquad/internal/i18n"
	"github.com/sharesquad/sharesquad/internal/roster"
	"github.com/sharesquad/sharesquad/internal/workflow"
)

const (
	pageMain    = "main"
	pageEditor  = "editor"
	pageSync    = "sync"
	pageConfirm = "confirm"
	pageAlert   = "alert"
	pageWarning = "warning"
	pagePrompt  = "prompt"
	pageLoader  = "loader"
)

// Pages manages the application pages and navigation
type Pages struct {
	*tview.Pages
	stack []string
	mu    sync.Mutex
}

// NewPages creates the page manager
func NewPages() *Pages {
	return &Pages{Pages: tview.NewPages()}
}

// Push shows an overlay page on top of the current one
func (p *Pages) Push(name string, prim tview.Primitive) {
	p.mu.Lock()
	p.stack = append(p.stack, name)
	p.mu.Unlock()
	p.AddPage(name, prim, true, true)
}

// Pop removes the topmost overlay
func (p *Pages) Pop() {
	p.mu.Lock()
	if n := len(p.stack); n > 0 {
		name := p.stack[n-1]
		p.stack = p.stack[:n-1]
		p.mu.Unlock()
		p.RemovePage(name)
		return
	}
	p.mu.Unlock()
}

// App encapsulates the terminal UI and its collaborators
type App struct {
	*tview.Application
	Pages  *Pages
	Config *config.Config

	ctx    context.Context
	cancel context.CancelFunc
	logger *log.Logger

	repo    *roster.Repository
	orch    *workflow.Orchestrator
	catalog *i18n.Catalog

	views map[string]tview.Primitive

	userList  *tview.List
	groupList *tview.List
	status    *tview.TextView

	// ids backing the visible list rows, kept in display order
	userIDs  []string
	groupIDs []string

	currentFocus string // "users" or "groups"
	pending      pendingAction
}

// NewApp creates the TUI application
func NewApp(cfg *config.Config, repo *roster.Repository, orch *workflow.Orchestrator, catalog *i18n.Catalog, logger *log.Logger) *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		Application:  tview.NewApplication(),
		Pages:        NewPages(),
		Config:       cfg,
		ctx:          ctx,
		cancel:       cancel,
		logger:       logger,
		repo:         repo,
		orch:         orch,
		catalog:      catalog,
		views:        make(map[string]tview.Primitive),
		currentFocus: "users",
	}
	app.initViews()
	app.bindKeys()
	return app
}

// Run starts the UI loop and blocks until quit
func (a *App) Run() error {
	a.refreshLists()
	a.orch.SetSink(a)
	defer a.orch.SetSink(nil)
	defer a.cancel()
	return a.Application.SetRoot(a.Pages, true).Run()
}

func (a *App) initViews() {
	a.userList = tview.NewList().ShowSecondaryText(false)
	a.userList.SetBorder(true)
	a.groupList = tview.NewList().ShowSecondaryText(false)
	a.groupList.SetBorder(true)

	a.status = tview.NewTextView().SetDynamicColors(true)
	a.setStatusDefault()

	lists := tview.NewFlex().
		AddItem(a.userList, 0, 1, true).
		AddItem(a.groupList, 0, 1, false)

	main := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(lists, 0, 1, true).
		AddItem(a.status, 1, 0, false)

	a.views["users"] = a.userList
	a.views["groups"] = a.groupList
	a.views["status"] = a.status

	a.Pages.AddPage(pageMain, main, true, true)
}

func (a *App) bindKeys() {
	a.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		// Only act on the main page; overlays own their input
		if name, _ := a.Pages.GetFrontPage(); name != pageMain {
			return event
		}
		switch event.Key() {
		case tcell.KeyTab:
			a.toggleFocus()
			return nil
		case tcell.KeyEnter:
			a.injectSelection()
			return nil
		}
		switch event.Rune() {
		case 'q':
			a.Stop()
			return nil
		case 'a':
			a.showUserEditor("")
			return nil
		case 'A':
			a.showGroupEditor("")
			return nil
		case 'e':
			a.editSelection()
			return nil
		case 'd':
			a.deleteSelection()
			return nil
		case 'i':
			a.injectSelection()
			return nil
		case 's':
			a.showSyncDialog()
			return nil
		case 't':
			a.togglePref(true)
			return nil
		case 'T':
			a.togglePref(false)
			return nil
		case 'v':
			a.toggleAdvancedMode()
			return nil
		case 'x':
			a.showExportPrompt()
			return nil
		case 'm':
			a.showImportPrompt()
			return nil
		case 'l':
			a.cycleLanguage()
			return nil
		case '?':
			a.showHelp()
			return nil
		}
		return event
	})
}

func (a *App) showHelp() {
	help := "a/A  " + a.catalog.Get("addUser") + " / " + a.catalog.Get("addGroup") + "\n" +
		"e    " + a.catalog.Get("edit") + "\n" +
		"d    " + a.catalog.Get("delete") + "\n" +
		"i    " + a.catalog.Get("inject") + "\n" +
		"s    Sync\n" +
		"v    Advanced mode\n" +
		"t/T  Tags\n" +
		"x/m  Export / Import\n" +
		"l    Language\n" +
		"q    Quit"
	a.showAlert("ShareSquad", help)
}

func (a *App) toggleFocus() {
	if a.currentFocus == "users" {
		a.currentFocus = "groups"
		a.SetFocus(a.groupList)
	} else {
		a.currentFocus = "users"
		a.SetFocus(a.userList)
	}
}

// selectedUserID returns the id behind the user list's selection
func (a *App) selectedUserID() (string, bool) {
	i := a.userList.GetCurrentItem()
	if i < 0 || i >= len(a.userIDs) {
		return "", false
	}
	return a.userIDs[i], true
}

func (a *App) selectedGroupID() (string, bool) {
	i := a.groupList.GetCurrentItem()
	if i < 0 || i >= len(a.groupIDs) {
		return "", false
	}
	return a.groupIDs[i], true
}

func (a *App) editSelection() {
	if a.currentFocus == "users" {
		if id, ok := a.selectedUserID(); ok {
			a.showUserEditor(id)
		}
		return
	}
	if id, ok := a.selectedGroupID(); ok {
		a.showGroupEditor(id)
	}
}

func (a *App) deleteSelection() {
	if a.currentFocus == "users" {
		id, ok := a.selectedUserID()
		if !ok {
			return
		}
		u, ok := a.repo.UserByID(id)
		if !ok {
			return
		}
		a.pending = confirmDeleteUser{id: id}
		a.showConfirm(a.catalog.Get("deleteConfirmTitle"),
			a.catalog.Getf("deleteConfirmMessageUser", u.Email))
		return
	}
	id, ok := a.selectedGroupID()
	if !ok {
		return
	}
	g, ok := a.repo.GroupByID(id)
	if !ok {
		return
	}
	a.pending = confirmDeleteGroup{id: id}
	a.showConfirm(a.catalog.Get("deleteConfirmTitle"),
		a.catalog.Getf("deleteConfirmMessageGroup", g.Name))
}

// injectSelection runs the inject workflow for the focused row off the UI
// goroutine and reports the outcome in the status bar or an alert
func (a *App) injectSelection() {
	var run func(ctx context.Context) workflow.Outcome
	if a.currentFocus == "users" {
		id, ok := a.selectedUserID()
		if !ok {
			return
		}
		run = func(ctx context.Context) workflow.Outcome { return a.orch.InjectUser(ctx, id) }
	} else {
		id, ok := a.selectedGroupID()
		if !ok {
			return
		}
		run = func(ctx context.Context) workflow.Outcome { return a.orch.InjectGroup(ctx, id) }
	}
	go func() {
		out := run(a.ctx)
		a.reportOutcome(out, "")
	}()
}

// reportOutcome surfaces a terminal workflow state. successKey, when set,
// names the message shown on success; blocked and failed outcomes map their
// error key through the catalog.
func (a *App) reportOutcome(out workflow.Outcome, successKey string) {
	a.QueueUpdateDraw(func() {
		switch out.State {
		case workflow.StateSucceeded:
			if successKey != "" {
				a.showAlert(a.catalog.Get("syncSuccessTitle"), a.catalog.Get(successKey))
			} else {
				a.showStatusMessage(a.catalog.Get("ok"))
			}
		case workflow.StateBlockedWrongTab:
			a.showAlert(a.catalog.Get("notificationTitle"), a.errorMessage(out.ErrorKey))
		case workflow.StateBlockedNotFound, workflow.StateFailed:
			a.showAlert(a.catalog.Get("syncErrorTitle"), a.errorMessage(out.ErrorKey))
		case workflow.StateIdle:
			// nothing to do
		}
	})
}

// errorMessage localizes a workflow error key, falling back to the generic
// automation error for keys the catalogs do not know
func (a *App) errorMessage(key string) string {
	if a.catalog.Has(key) {
		return a.catalog.Get(key)
	}
	return a.catalog.Get("syncErrorUnexpected")
}

func (a *App) togglePref(userSide bool) {
	prefs := a.repo.Prefs()
	var err error
	if userSide {
		err = a.repo.SetShowUserGroupTags(a.ctx, !prefs.ShowUserGroupTags)
	} else {
		err = a.repo.SetShowGroupMemberTags(a.ctx, !prefs.ShowGroupMemberTags)
	}
	if err != nil {
		a.logf("toggle pref: %v", err)
		a.showError(err.Error())
		return
	}
	a.refreshLists()
}

// toggleAdvancedMode flips the bulk-sync gate. The first enable shows a
// one-time warning about what sync will do to the page.
func (a *App) toggleAdvancedMode() {
	prefs := a.repo.Prefs()
	next := !prefs.AdvancedMode
	if err := a.repo.SetAdvancedMode(a.ctx, next); err != nil {
		a.logf("toggle advanced mode: %v", err)
		a.showError(err.Error())
		return
	}
	if next && !prefs.HasSeenSyncWarning {
		a.showSyncWarning(func() {})
		return
	}
	a.setStatusDefault()
}

func (a *App) cycleLanguage() {
	next := i18n.NextLanguage(a.repo.Language())
	if err := a.repo.SetLanguage(a.ctx, next); err != nil {
		a.logf("set language: %v", err)
		a.showError(err.Error())
		return
	}
	catalog, err := i18n.Load(i18n.Resolve(next))
	if err != nil {
		a.logf("load catalog: %v", err)
		a.showError(err.Error())
		return
	}
	a.catalog = catalog
	a.refreshLists()
	switch next {
	case "en":
		a.showStatusMessage(a.catalog.Get("langToggleEn"))
	case "es":
		a.showStatusMessage(a.catalog.Get("langToggleEs"))
	default:
		a.showStatusMessage(a.catalog.Get("langToggleAuto"))
	}
}

func (a *App) logf(format string, args ...interface{}) {
	if a.logger != nil {
		a.logger.Printf("tui: "+format, args...)
	}
}
