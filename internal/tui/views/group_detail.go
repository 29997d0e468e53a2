package views

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/hobbynet/hobnet/internal/api"
	"github.com/rivo/tview"
)

// GroupDetail shows one group: its message board with a post composer,
// and the member list alongside.
type GroupDetail struct {
	*tview.Flex
	info     *tview.TextView
	posts    *tview.TextView
	members  *tview.TextView
	title    *tview.InputField
	body     *tview.InputField
	onPost   func(title, content string)
	onBack   func()
	onEdit   func()
	canWrite bool
}

// NewGroupDetail creates the detail view.
func NewGroupDetail() *GroupDetail {
	v := &GroupDetail{
		info:    tview.NewTextView().SetDynamicColors(true),
		posts:   tview.NewTextView().SetDynamicColors(true).SetScrollable(true),
		members: tview.NewTextView().SetDynamicColors(true),
		title:   tview.NewInputField().SetLabel(" Title: ").SetFieldWidth(0),
		body:    tview.NewInputField().SetLabel(" Post:  ").SetFieldWidth(0),
	}
	v.posts.SetBorder(true)
	v.posts.SetTitle(" Posts ")
	v.members.SetBorder(true)
	v.members.SetTitle(" Members ")

	v.body.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter || v.onPost == nil || !v.canWrite {
			return
		}
		title, content := v.title.GetText(), v.body.GetText()
		if content == "" {
			return
		}
		v.onPost(title, content)
		v.title.SetText("")
		v.body.SetText("")
	})

	left := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(v.info, 3, 0, false).
		AddItem(v.posts, 0, 1, false).
		AddItem(v.title, 1, 0, false).
		AddItem(v.body, 1, 0, true)

	v.Flex = tview.NewFlex().
		AddItem(left, 0, 3, true).
		AddItem(v.members, 28, 0, false)

	v.SetInputCapture(func(ev *tcell.EventKey) *tcell.EventKey {
		if ev.Key() == tcell.KeyEscape && v.onBack != nil {
			v.onBack()
			return nil
		}
		if ev.Key() == tcell.KeyCtrlE && v.onEdit != nil {
			v.onEdit()
			return nil
		}
		return ev
	})
	return v
}

// Update re-renders the view from fresh snapshots. isMember gates the
// post composer: only members write to the board.
func (v *GroupDetail) Update(group *api.Group, posts []api.Post, members []api.User, isMember bool) {
	v.canWrite = isMember
	v.info.Clear()
	if group != nil {
		fmt.Fprintf(v.info, " [::b]%s[-:-:-] (%s)\n %s", group.Name, group.Hobby, group.Description)
	}

	v.posts.Clear()
	for _, p := range posts {
		fmt.Fprintf(v.posts, "[::b]%s[-:-:-] — %s\n%s\n\n", p.Title, p.Owner.Name, p.Content)
	}
	if len(posts) == 0 {
		fmt.Fprint(v.posts, "[gray]no posts yet[-]")
	}

	v.members.Clear()
	for _, m := range members {
		fmt.Fprintf(v.members, "%s\n", m.Name)
	}

	label := " Post:  "
	if !isMember {
		label = " [gray]join to post[-] "
	}
	v.body.SetLabel(label)
}

// SetOnPost registers the post-creation callback.
func (v *GroupDetail) SetOnPost(fn func(title, content string)) { v.onPost = fn }

// SetOnBack registers the escape callback.
func (v *GroupDetail) SetOnBack(fn func()) { v.onBack = fn }

// SetOnEdit registers the edit-group callback.
func (v *GroupDetail) SetOnEdit(fn func()) { v.onEdit = fn }
