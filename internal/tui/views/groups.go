package views

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/hobbynet/hobnet/internal/api"
	"github.com/rivo/tview"
)

// GroupList is the group discovery table. Enter opens the detail view,
// 'j' joins, 'l' leaves, 'n' opens the creation form.
type GroupList struct {
	*tview.Table
	groups   []api.Group
	member   func(groupID int) bool
	onOpen   func(groupID int)
	onJoin   func(groupID int)
	onLeave  func(groupID int)
	onCreate func()
}

// NewGroupList creates the group table.
func NewGroupList(member func(groupID int) bool) *GroupList {
	t := tview.NewTable().SetSelectable(true, false).SetFixed(1, 0)
	t.SetBorder(true)
	t.SetTitle(" Groups (enter:open j:join l:leave n:new) ")

	v := &GroupList{Table: t, member: member}
	t.SetSelectedFunc(func(row, col int) {
		if g, ok := v.groupAt(row); ok && v.onOpen != nil {
			v.onOpen(g.ID)
		}
	})
	t.SetInputCapture(func(ev *tcell.EventKey) *tcell.EventKey {
		switch ev.Rune() {
		case 'j':
			if g, ok := v.selected(); ok && v.onJoin != nil {
				v.onJoin(g.ID)
			}
			return nil
		case 'l':
			if g, ok := v.selected(); ok && v.onLeave != nil {
				v.onLeave(g.ID)
			}
			return nil
		case 'n':
			if v.onCreate != nil {
				v.onCreate()
			}
			return nil
		}
		return ev
	})
	return v
}

// Update re-renders the table from a fresh group snapshot.
func (v *GroupList) Update(groups []api.Group) {
	v.groups = groups
	v.Clear()
	for col, h := range []string{"Name", "Hobby", "Description", ""} {
		v.SetCell(0, col, tview.NewTableCell("[::b]"+h).SetSelectable(false))
	}
	for i, g := range groups {
		tag := ""
		if v.member != nil && v.member(g.ID) {
			tag = "[green]member[-]"
		}
		v.SetCell(i+1, 0, tview.NewTableCell(g.Name))
		v.SetCell(i+1, 1, tview.NewTableCell(g.Hobby))
		v.SetCell(i+1, 2, tview.NewTableCell(g.Description))
		v.SetCell(i+1, 3, tview.NewTableCell(tag))
	}
}

func (v *GroupList) groupAt(row int) (api.Group, bool) {
	if row < 1 || row > len(v.groups) {
		return api.Group{}, false
	}
	return v.groups[row-1], true
}

func (v *GroupList) selected() (api.Group, bool) {
	row, _ := v.GetSelection()
	return v.groupAt(row)
}

// SetOnOpen registers the open-detail callback.
func (v *GroupList) SetOnOpen(fn func(groupID int)) { v.onOpen = fn }

// SetOnJoin registers the join callback.
func (v *GroupList) SetOnJoin(fn func(groupID int)) { v.onJoin = fn }

// SetOnLeave registers the leave callback.
func (v *GroupList) SetOnLeave(fn func(groupID int)) { v.onLeave = fn }

// SetOnCreate registers the new-group callback.
func (v *GroupList) SetOnCreate(fn func()) { v.onCreate = fn }

// GroupForm creates or edits a group.
type GroupForm struct {
	*tview.Form
	groupID  int // 0 = create
	onSubmit func(groupID int, data api.GroupCreate)
	onCancel func()
}

// NewGroupForm creates the form.
func NewGroupForm() *GroupForm {
	v := &GroupForm{Form: tview.NewForm()}
	v.SetBorder(true)

	v.AddInputField("Name", "", 40, nil, nil)
	v.AddInputField("Hobby", "", 40, nil, nil)
	v.AddInputField("Description", "", 40, nil, nil)
	v.AddButton("Save", func() {
		data := api.GroupCreate{
			Name:        v.fieldText("Name"),
			Hobby:       v.fieldText("Hobby"),
			Description: v.fieldText("Description"),
		}
		if v.onSubmit != nil && data.Name != "" {
			v.onSubmit(v.groupID, data)
		}
	})
	v.AddButton("Cancel", func() {
		if v.onCancel != nil {
			v.onCancel()
		}
	})
	return v
}

// Reset prepares the form for creating, or for editing an existing
// group when one is given.
func (v *GroupForm) Reset(g *api.Group) {
	if g == nil {
		v.groupID = 0
		v.SetTitle(" New group ")
		v.setFields("", "", "")
		return
	}
	v.groupID = g.ID
	v.SetTitle(fmt.Sprintf(" Edit %s ", g.Name))
	v.setFields(g.Name, g.Hobby, g.Description)
}

func (v *GroupForm) setFields(name, hobby, desc string) {
	v.GetFormItemByLabel("Name").(*tview.InputField).SetText(name)
	v.GetFormItemByLabel("Hobby").(*tview.InputField).SetText(hobby)
	v.GetFormItemByLabel("Description").(*tview.InputField).SetText(desc)
}

func (v *GroupForm) fieldText(label string) string {
	return v.GetFormItemByLabel(label).(*tview.InputField).GetText()
}

// SetOnSubmit registers the save callback; groupID 0 means create.
func (v *GroupForm) SetOnSubmit(fn func(groupID int, data api.GroupCreate)) { v.onSubmit = fn }

// SetOnCancel registers the cancel callback.
func (v *GroupForm) SetOnCancel(fn func()) { v.onCancel = fn }
