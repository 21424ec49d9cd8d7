package tui

import (
	"os"
	"path/filepath"
	"time"

	"github.com/sharesquad/sharesquad/internal/roster"
)

// showExportPrompt asks for a destination path and writes the backup file
func (a *App) showExportPrompt() {
	home, _ := os.UserHomeDir()
	initial := filepath.Join(home, roster.ExportFilename(time.Now()))
	a.showPrompt(a.catalog.Get("exportTitle"), a.catalog.Get("exportTitle"), initial, func(path string) {
		if path == "" {
			return
		}
		if err := a.repo.ExportToFile(path); err != nil {
			a.logf("export: %v", err)
			a.showAlert(a.catalog.Get("exportErrorTitle"), err.Error())
			return
		}
		a.showStatusMessage(a.catalog.Getf("exportSuccessMessage", path))
	})
}

// showImportPrompt asks for a backup file, validates it, and confirms the
// destructive replace before applying it
func (a *App) showImportPrompt() {
	a.showPrompt(a.catalog.Get("importTitle"), a.catalog.Get("importTitle"), "", func(path string) {
		if path == "" {
			return
		}
		raw, err := os.ReadFile(path)
		if err != nil {
			a.logf("import read: %v", err)
			a.showAlert(a.catalog.Get("importErrorTitle"), err.Error())
			return
		}
		snap, err := roster.DecodeSnapshot(raw)
		if err != nil {
			a.showAlert(a.catalog.Get("importErrorTitle"), a.catalog.Get("importErrorInvalidFile"))
			return
		}
		a.pending = confirmImport{snap: snap}
		a.showConfirm(a.catalog.Get("importConfirmTitle"), a.catalog.Get("importConfirmMessage"))
	})
}
