package tui

import (
	"github.com/derailed/tcell/v2"
	"github.com/derailed/tview"
	"github.com/samber/lo"

	"github.com/sharesquad/sharesquad/internal/roster"
)

const (
	checkedPrefix   = "[x] "
	uncheckedPrefix = "[ ] "
)

// showUserEditor opens the add/edit user overlay. An empty id means add.
func (a *App) showUserEditor(id string) {
	title := a.catalog.Get("addUser")
	email := ""
	memberOf := map[string]bool{}
	if id != "" {
		u, ok := a.repo.UserByID(id)
		if !ok {
			return
		}
		title = a.catalog.Get("editUser")
		email = u.Email
		for _, g := range a.repo.GroupsOf(id) {
			memberOf[g.ID] = true
		}
	}

	input := tview.NewInputField().
		SetLabel(a.catalog.Get("email") + ": ").
		SetText(email)

	groups := a.repo.Groups()
	checklist, checked := a.newChecklist(
		lo.Map(groups, func(g roster.Group, _ int) string { return g.Name }),
		lo.Map(groups, func(g roster.Group, _ int) bool { return memberOf[g.ID] }),
	)
	checklist.SetTitle(" " + a.catalog.Get("groups") + " ")

	save := func() {
		value := input.GetText()
		if err := a.saveUser(id, value, groups, checked); err != nil {
			if roster.IsValidationError(err) {
				a.showStatusMessage(err.Error())
				return
			}
			a.logf("save user: %v", err)
			a.showError(err.Error())
			return
		}
		a.Pages.Pop()
		a.refreshLists()
	}

	a.pushEditor(title, input, checklist, save)
}

// saveUser persists the editor form: create or rename the user, then apply
// the group membership checkboxes
func (a *App) saveUser(id, email string, groups []roster.Group, checked []bool) error {
	if id == "" {
		u, err := a.repo.AddUser(a.ctx, email)
		if err != nil {
			return err
		}
		id = u.ID
	} else if err := a.repo.EditUser(a.ctx, id, email); err != nil {
		return err
	}
	for i, g := range groups {
		if err := a.repo.SetGroupMembership(a.ctx, id, g.ID, checked[i]); err != nil {
			return err
		}
	}
	return nil
}

// showGroupEditor opens the add/edit group overlay. An empty id means add.
func (a *App) showGroupEditor(id string) {
	title := a.catalog.Get("addGroup")
	name := ""
	members := map[string]bool{}
	if id != "" {
		g, ok := a.repo.GroupByID(id)
		if !ok {
			return
		}
		title = a.catalog.Get("editGroup")
		name = g.Name
		for _, mid := range g.MemberIDs {
			members[mid] = true
		}
	}

	input := tview.NewInputField().
		SetLabel(a.catalog.Get("groupName") + ": ").
		SetText(name)

	users := a.repo.Users()
	checklist, checked := a.newChecklist(
		lo.Map(users, func(u roster.User, _ int) string { return u.Email }),
		lo.Map(users, func(u roster.User, _ int) bool { return members[u.ID] }),
	)
	checklist.SetTitle(" " + a.catalog.Get("members") + " ")

	save := func() {
		value := input.GetText()
		memberIDs := lo.FilterMap(users, func(u roster.User, i int) (string, bool) {
			return u.ID, checked[i]
		})
		var err error
		if id == "" {
			_, err = a.repo.AddGroup(a.ctx, value, memberIDs)
		} else {
			err = a.repo.EditGroup(a.ctx, id, value, memberIDs)
		}
		if err != nil {
			if roster.IsValidationError(err) {
				a.showStatusMessage(err.Error())
				return
			}
			a.logf("save group: %v", err)
			a.showError(err.Error())
			return
		}
		a.Pages.Pop()
		a.refreshLists()
	}

	a.pushEditor(title, input, checklist, save)
}

// newChecklist builds a toggleable list; the returned slice tracks the
// checkbox state per row
func (a *App) newChecklist(labels []string, initial []bool) (*tview.List, []bool) {
	checked := append([]bool(nil), initial...)
	list := tview.NewList().ShowSecondaryText(false)
	list.SetBorder(true)
	render := func(i int) string {
		if checked[i] {
			return checkedPrefix + labels[i]
		}
		return uncheckedPrefix + labels[i]
	}
	for i := range labels {
		list.AddItem(render(i), "", 0, nil)
	}
	list.SetSelectedFunc(func(i int, _ string, _ string, _ rune) {
		if i < 0 || i >= len(checked) {
			return
		}
		checked[i] = !checked[i]
		list.SetItemText(i, render(i), "")
	})
	return list, checked
}

// pushEditor assembles the shared editor chrome: input on top, checklist in
// the middle, save/cancel hints at the bottom. Ctrl-S saves, Esc cancels,
// Tab moves between input and checklist.
func (a *App) pushEditor(title string, input *tview.InputField, checklist *tview.List, save func()) {
	hint := tview.NewTextView().
		SetText("Ctrl-S: " + a.catalog.Get("save") + "  Esc: " + a.catalog.Get("cancel"))

	form := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(input, 1, 0, true).
		AddItem(checklist, 0, 1, false).
		AddItem(hint, 1, 0, false)
	form.SetBorder(true).SetTitle(" " + title + " ")

	form.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyEscape:
			a.Pages.Pop()
			return nil
		case tcell.KeyCtrlS:
			save()
			return nil
		case tcell.KeyTab:
			if input.HasFocus() {
				a.SetFocus(checklist)
			} else {
				a.SetFocus(input)
			}
			return nil
		}
		return event
	})

	a.Pages.Push(pageEditor, a.center(form, 60, 20))
	a.SetFocus(input)
}

// center wraps a primitive in spacers so it floats over the main page
func (a *App) center(p tview.Primitive, width, height int) tview.Primitive {
	row := tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(p, width, 0, true).
		AddItem(nil, 0, 1, false)
	return tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(nil, 0, 1, false).
		AddItem(row, height, 0, true).
		AddItem(nil, 0, 1, false)
}
