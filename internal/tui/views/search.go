package views

import (
	"github.com/gdamore/tcell/v2"
	"github.com/hobbynet/hobnet/internal/api"
	"github.com/rivo/tview"
)

// searchRow is one selectable result line.
type searchRow struct {
	kind string // "user", "group", "post"
	id   int
}

// SearchView is the unified search page: a query input above a flat
// result table. Selecting a user starts a DM; selecting a group or a
// post opens the group.
type SearchView struct {
	*tview.Flex
	input   *tview.InputField
	results *tview.Table
	rows    []searchRow
	onQuery func(query string)
	onUser  func(userID int)
	onGroup func(groupID int)
	onBack  func()
}

// NewSearchView creates the search page.
func NewSearchView() *SearchView {
	v := &SearchView{
		input:   tview.NewInputField().SetLabel(" Search: ").SetFieldWidth(0),
		results: tview.NewTable().SetSelectable(true, false),
	}
	v.results.SetBorder(true)
	v.results.SetTitle(" Results (enter: dm user / open group) ")

	v.input.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEnter && v.onQuery != nil {
			if q := v.input.GetText(); q != "" {
				v.onQuery(q)
			}
		}
	})
	v.results.SetSelectedFunc(func(row, col int) {
		if row < 0 || row >= len(v.rows) {
			return
		}
		r := v.rows[row]
		switch r.kind {
		case "user":
			if v.onUser != nil {
				v.onUser(r.id)
			}
		default:
			if v.onGroup != nil {
				v.onGroup(r.id)
			}
		}
	})

	v.Flex = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(v.input, 1, 0, true).
		AddItem(v.results, 0, 1, false)

	v.SetInputCapture(func(ev *tcell.EventKey) *tcell.EventKey {
		if ev.Key() == tcell.KeyEscape && v.onBack != nil {
			v.onBack()
			return nil
		}
		return ev
	})
	return v
}

// Update re-renders the result table.
func (v *SearchView) Update(res api.SearchResults) {
	v.results.Clear()
	v.rows = v.rows[:0]
	row := 0
	add := func(kind, label, detail string, id int) {
		v.results.SetCell(row, 0, tview.NewTableCell("[gray]"+kind+"[-]"))
		v.results.SetCell(row, 1, tview.NewTableCell(label))
		v.results.SetCell(row, 2, tview.NewTableCell(detail))
		v.rows = append(v.rows, searchRow{kind: kind, id: id})
		row++
	}
	for _, u := range res.Users {
		add("user", u.Name, u.Email, u.ID)
	}
	for _, g := range res.Groups {
		add("group", g.Name, g.Hobby, g.ID)
	}
	for _, p := range res.Posts {
		add("post", p.Title, p.Owner.Name, p.GroupID)
	}
}

// Input returns the query field for focus handling.
func (v *SearchView) Input() *tview.InputField { return v.input }

// Results returns the result table for focus handling.
func (v *SearchView) Results() *tview.Table { return v.results }

// SetOnQuery registers the query callback.
func (v *SearchView) SetOnQuery(fn func(query string)) { v.onQuery = fn }

// SetOnUser registers the user-selection (DM) callback.
func (v *SearchView) SetOnUser(fn func(userID int)) { v.onUser = fn }

// SetOnGroup registers the group-selection callback.
func (v *SearchView) SetOnGroup(fn func(groupID int)) { v.onGroup = fn }

// SetOnBack registers the escape callback.
func (v *SearchView) SetOnBack(fn func()) { v.onBack = fn }
