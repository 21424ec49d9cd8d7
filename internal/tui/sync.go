package tui

import (
	"github.com/derailed/tcell/v2"
	"github.com/derailed/tview"
	"github.com/samber/lo"

	"github.com/sharesquad/sharesquad/internal/bridge"
	"github.com/sharesquad/sharesquad/internal/roster"
	"github.com/sharesquad/sharesquad/internal/workflow"
)

// showSyncDialog opens the bulk permission sync overlay: pick a level, tick
// users and groups, then run
func (a *App) showSyncDialog() {
	if !a.repo.Prefs().AdvancedMode {
		a.showStatusMessage(a.catalog.Get("advancedModeHint"))
		return
	}
	users := a.repo.Users()
	groups := a.repo.Groups()

	levels := bridge.PermissionLevels()
	levelList := tview.NewList().ShowSecondaryText(false)
	levelList.SetBorder(true)
	for _, lvl := range levels {
		levelList.AddItem(a.catalog.Get(permissionKey(lvl)), "", 0, nil)
	}

	userChecks, userChecked := a.newChecklist(
		lo.Map(users, func(u roster.User, _ int) string { return u.Email }),
		make([]bool, len(users)),
	)
	userChecks.SetTitle(" " + a.catalog.Get("users") + " ")

	groupChecks, groupChecked := a.newChecklist(
		lo.Map(groups, func(g roster.Group, _ int) string { return g.Name }),
		make([]bool, len(groups)),
	)
	groupChecks.SetTitle(" " + a.catalog.Get("groups") + " ")

	hint := tview.NewTextView().
		SetText("Ctrl-S: " + a.catalog.Get("inject") + "  Esc: " + a.catalog.Get("cancel"))

	body := tview.NewFlex().
		AddItem(levelList, 0, 1, true).
		AddItem(userChecks, 0, 2, false).
		AddItem(groupChecks, 0, 2, false)
	form := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(body, 0, 1, true).
		AddItem(hint, 1, 0, false)
	form.SetBorder(true).SetTitle(" Sync ")

	panels := []tview.Primitive{levelList, userChecks, groupChecks}
	focus := 0

	run := func() {
		level := levels[levelList.GetCurrentItem()]
		userIDs := lo.FilterMap(users, func(u roster.User, i int) (string, bool) {
			return u.ID, userChecked[i]
		})
		groupIDs := lo.FilterMap(groups, func(g roster.Group, i int) (string, bool) {
			return g.ID, groupChecked[i]
		})
		if len(userIDs) == 0 && len(groupIDs) == 0 {
			return
		}
		a.Pages.Pop()
		go func() {
			out := a.orch.SyncPermissions(a.ctx, userIDs, groupIDs, level)
			a.reportOutcome(out, "syncSuccessMessage")
		}()
	}

	form.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyEscape:
			a.Pages.Pop()
			return nil
		case tcell.KeyCtrlS:
			run()
			return nil
		case tcell.KeyTab:
			focus = (focus + 1) % len(panels)
			a.SetFocus(panels[focus])
			return nil
		}
		return event
	})

	a.Pages.Push(pageSync, a.center(form, 90, 24))
	a.SetFocus(levelList)
}

func permissionKey(lvl bridge.PermissionLevel) string {
	switch lvl {
	case bridge.PermissionFull:
		return "permissionFull"
	case bridge.PermissionEdit:
		return "permissionEdit"
	case bridge.PermissionComment:
		return "permissionComment"
	default:
		return "permissionView"
	}
}

// Workflow sink. These are invoked from workflow goroutines and marshal onto
// the UI loop themselves.

// Transition surfaces non-terminal workflow states in the status bar;
// terminal states are reported by the caller through reportOutcome
func (a *App) Transition(state workflow.State) {
	if state.Terminal() {
		return
	}
	a.QueueUpdateDraw(func() {
		a.setStatusPersistent(state.String())
	})
}

// ShowProgress displays the busy overlay for bulk operations
func (a *App) ShowProgress() {
	a.QueueUpdateDraw(func() {
		a.showLoader()
	})
}

// HideProgress removes the busy overlay
func (a *App) HideProgress() {
	a.QueueUpdateDraw(func() {
		a.hideLoader()
		a.setStatusDefault()
	})
}
