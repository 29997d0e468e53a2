package views

import (
	"github.com/hobbynet/hobnet/internal/api"
	"github.com/rivo/tview"
)

// ConversationList shows the joined groups and DMs; enter opens chat.
type ConversationList struct {
	*tview.Table
	convs  []api.Group
	onOpen func(conv api.Group)
}

// NewConversationList creates the list.
func NewConversationList() *ConversationList {
	t := tview.NewTable().SetSelectable(true, false)
	t.SetBorder(true)
	t.SetTitle(" Conversations (enter:chat) ")

	v := &ConversationList{Table: t}
	t.SetSelectedFunc(func(row, col int) {
		if row >= 0 && row < len(v.convs) && v.onOpen != nil {
			v.onOpen(v.convs[row])
		}
	})
	return v
}

// Update re-renders the list.
func (v *ConversationList) Update(convs []api.Group) {
	v.convs = convs
	v.Clear()
	for i, c := range convs {
		kind := "group"
		if c.IsDM {
			kind = "dm"
		}
		v.SetCell(i, 0, tview.NewTableCell(c.Name))
		v.SetCell(i, 1, tview.NewTableCell("[gray]"+kind+"[-]"))
	}
}

// SetOnOpen registers the open-chat callback.
func (v *ConversationList) SetOnOpen(fn func(conv api.Group)) { v.onOpen = fn }
