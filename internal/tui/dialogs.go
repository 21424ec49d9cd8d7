package tui

import (
	"github.com/derailed/tcell/v2"
	"github.com/derailed/tview"

	"github.com/sharesquad/sharesquad/internal/roster"
)

// pendingAction is the action waiting behind the open confirmation dialog.
// Exactly one is pending at a time; confirming consumes it.
type pendingAction interface {
	run(a *App)
}

type confirmDeleteUser struct {
	id string
}

func (c confirmDeleteUser) run(a *App) {
	if err := a.repo.DeleteUser(a.ctx, c.id); err != nil {
		a.logf("delete user: %v", err)
		a.showError(err.Error())
		return
	}
	a.refreshLists()
}

type confirmDeleteGroup struct {
	id string
}

func (c confirmDeleteGroup) run(a *App) {
	if err := a.repo.DeleteGroup(a.ctx, c.id); err != nil {
		a.logf("delete group: %v", err)
		a.showError(err.Error())
		return
	}
	a.refreshLists()
}

type confirmImport struct {
	snap roster.Snapshot
}

func (c confirmImport) run(a *App) {
	if err := a.repo.Import(a.ctx, c.snap); err != nil {
		a.logf("import: %v", err)
		a.showAlert(a.catalog.Get("importErrorTitle"), err.Error())
		return
	}
	a.refreshLists()
	a.showAlert(a.catalog.Get("importSuccessTitle"), a.catalog.Get("importSuccessMessage"))
}

// showConfirm opens an ok/cancel dialog over the pending action
func (a *App) showConfirm(title, message string) {
	modal := tview.NewModal().
		SetText(message).
		AddButtons([]string{a.catalog.Get("ok"), a.catalog.Get("cancel")}).
		SetDoneFunc(func(index int, _ string) {
			pending := a.pending
			a.pending = nil
			a.Pages.Pop()
			if index == 0 && pending != nil {
				pending.run(a)
			}
		})
	modal.SetTitle(" " + title + " ")
	a.Pages.Push(pageConfirm, modal)
}

// showAlert opens a single-button message dialog
func (a *App) showAlert(title, message string) {
	modal := tview.NewModal().
		SetText(message).
		AddButtons([]string{a.catalog.Get("ok")}).
		SetDoneFunc(func(int, string) {
			a.Pages.Pop()
		})
	modal.SetTitle(" " + title + " ")
	a.Pages.Push(pageAlert, modal)
}

// showSyncWarning shows the one-time heads-up before the first bulk sync.
// The second button persists the opt-out; either button proceeds.
func (a *App) showSyncWarning(proceed func()) {
	modal := tview.NewModal().
		SetText(a.catalog.Get("syncWarningMessage")).
		AddButtons([]string{a.catalog.Get("ok"), a.catalog.Get("dontShowAgain")}).
		SetDoneFunc(func(index int, _ string) {
			a.Pages.Pop()
			if index == 1 {
				if err := a.repo.MarkSyncWarningSeen(a.ctx); err != nil {
					a.logf("mark sync warning seen: %v", err)
				}
			}
			proceed()
		})
	modal.SetTitle(" " + a.catalog.Get("syncWarningTitle") + " ")
	a.Pages.Push(pageWarning, modal)
}

// showLoader displays the busy overlay shown while a bulk sync runs
func (a *App) showLoader() {
	text := tview.NewTextView().
		SetTextAlign(tview.AlignCenter).
		SetText(a.catalog.Get("syncWorkingMessage"))
	text.SetBorder(true).SetTitle(" " + a.catalog.Get("syncWorkingTitle") + " ")
	a.Pages.AddPage(pageLoader, a.center(text, 50, 5), true, true)
}

func (a *App) hideLoader() {
	a.Pages.RemovePage(pageLoader)
}

// showPrompt opens a one-line input overlay and calls done with the entered
// text
func (a *App) showPrompt(title, label, initial string, done func(value string)) {
	input := tview.NewInputField().
		SetLabel(label + ": ").
		SetText(initial)
	input.SetBorder(true).SetTitle(" " + title + " ")
	input.SetDoneFunc(func(key tcell.Key) {
		value := input.GetText()
		a.Pages.Pop()
		if key == tcell.KeyEnter {
			done(value)
		}
	})
	a.Pages.Push(pagePrompt, a.center(input, 64, 3))
	a.SetFocus(input)
}
