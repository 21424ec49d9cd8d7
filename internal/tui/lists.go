package tui

import (
	"fmt"
	"strings"

	runewidth "github.com/mattn/go-runewidth"
	"github.com/samber/lo"

	"github.com/sharesquad/sharesquad/internal/roster"
)

const (
	maxChips     = 2
	chipMaxWidth = 18
)

// refreshLists redraws both roster lists from the repository, preserving the
// selection position where possible
func (a *App) refreshLists() {
	prefs := a.repo.Prefs()

	userIdx := a.userList.GetCurrentItem()
	a.userList.Clear()
	a.userIDs = a.userIDs[:0]
	users := a.repo.Users()
	for _, u := range users {
		label := u.Email
		if prefs.ShowUserGroupTags {
			names := lo.Map(a.repo.GroupsOf(u.ID), func(g roster.Group, _ int) string { return g.Name })
			label += chipSummary(names)
		}
		a.userList.AddItem(label, "", 0, nil)
		a.userIDs = append(a.userIDs, u.ID)
	}
	if len(users) == 0 {
		a.userList.AddItem(a.catalog.Get("noUsers"), "", 0, nil)
	} else if userIdx >= 0 && userIdx < len(users) {
		a.userList.SetCurrentItem(userIdx)
	}
	a.userList.SetTitle(fmt.Sprintf(" %s (%d) ", a.catalog.Get("users"), len(users)))

	groupIdx := a.groupList.GetCurrentItem()
	a.groupList.Clear()
	a.groupIDs = a.groupIDs[:0]
	groups := a.repo.Groups()
	for _, g := range groups {
		label := fmt.Sprintf("%s (%d)", g.Name, len(g.MemberIDs))
		if prefs.ShowGroupMemberTags {
			emails := lo.Map(a.repo.MembersOf(g.ID), func(u roster.User, _ int) string { return u.Email })
			label += chipSummary(emails)
		}
		a.groupList.AddItem(label, "", 0, nil)
		a.groupIDs = append(a.groupIDs, g.ID)
	}
	if len(groups) == 0 {
		a.groupList.AddItem(a.catalog.Get("noGroups"), "", 0, nil)
	} else if groupIdx >= 0 && groupIdx < len(groups) {
		a.groupList.SetCurrentItem(groupIdx)
	}
	a.groupList.SetTitle(fmt.Sprintf(" %s (%d) ", a.catalog.Get("groups"), len(groups)))
}

// chipSummary renders up to maxChips names as bracketed tags plus a "+N"
// overflow marker
func chipSummary(names []string) string {
	if len(names) == 0 {
		return ""
	}
	shown := names
	if len(shown) > maxChips {
		shown = shown[:maxChips]
	}
	chips := lo.Map(shown, func(n string, _ int) string {
		return "[" + runewidth.Truncate(n, chipMaxWidth, "…") + "]"
	})
	out := "  " + strings.Join(chips, " ")
	if rest := len(names) - len(shown); rest > 0 {
		out += fmt.Sprintf(" +%d", rest)
	}
	return out
}
