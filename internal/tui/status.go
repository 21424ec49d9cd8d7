package tui

import (
	"fmt"
	"time"

	"github.com/derailed/tview"
)

const statusHints = "Press ? for help | Press q to quit"

func (a *App) setStatusDefault() {
	a.status.SetText(fmt.Sprintf("ShareSquad | %s", statusHints))
}

// showStatusMessage displays a transient message in the status bar
func (a *App) showStatusMessage(msg string) {
	if status, ok := a.views["status"].(*tview.TextView); ok {
		status.SetText(fmt.Sprintf("ShareSquad | %s | %s", msg, statusHints))
		go func() {
			time.Sleep(3 * time.Second)
			a.QueueUpdateDraw(func() {
				a.setStatusDefault()
			})
		}()
	}
}

// setStatusPersistent sets the status bar text without auto-clearing
func (a *App) setStatusPersistent(msg string) {
	if status, ok := a.views["status"].(*tview.TextView); ok {
		status.SetText(fmt.Sprintf("ShareSquad | %s | %s", msg, statusHints))
	}
}

// showError shows an error message via status helpers
func (a *App) showError(msg string) {
	a.showStatusMessage(fmt.Sprintf("❌ %s", msg))
}
