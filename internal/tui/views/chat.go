package views

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/hobbynet/hobnet/internal/api"
	"github.com/hobbynet/hobnet/internal/cache"
	"github.com/rivo/tview"
)

// ChatView renders the transcript of the open conversation with a
// composer underneath. The composer is disabled until the socket is
// open. Ctrl+F opens a search bar over the locally cached history.
type ChatView struct {
	*tview.Flex
	thread       *tview.TextView
	composer     *tview.InputField
	searchBar    *tview.InputField
	enabled      bool
	searching    bool
	selfID       int
	onSend       func(content string)
	onBack       func()
	onSearch     func(query string)
	onSearchDone func()
}

// NewChatView creates the chat view.
func NewChatView() *ChatView {
	v := &ChatView{
		thread:    tview.NewTextView().SetDynamicColors(true).SetScrollable(true),
		composer:  tview.NewInputField().SetFieldWidth(0),
		searchBar: tview.NewInputField().SetLabel(" find: ").SetFieldWidth(0),
	}
	v.thread.SetBorder(true)

	v.composer.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter || !v.enabled || v.onSend == nil {
			return
		}
		if text := v.composer.GetText(); text != "" {
			v.onSend(text)
			v.composer.SetText("")
		}
	})
	v.searchBar.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter || v.onSearch == nil {
			return
		}
		if q := v.searchBar.GetText(); q != "" {
			v.onSearch(q)
		}
	})

	v.Flex = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(v.thread, 0, 1, false).
		AddItem(v.searchBar, 0, 0, false). // hidden until Ctrl+F
		AddItem(v.composer, 1, 0, true)

	v.SetInputCapture(func(ev *tcell.EventKey) *tcell.EventKey {
		if ev.Key() == tcell.KeyEscape {
			if v.searching {
				v.endSearch()
			} else if v.onBack != nil {
				v.onBack()
			}
			return nil
		}
		return ev
	})
	v.SetComposerEnabled(false)
	return v
}

// BeginSearch reveals the history search bar. The caller moves focus to
// SearchBar().
func (v *ChatView) BeginSearch() {
	if v.searching {
		return
	}
	v.searching = true
	v.ResizeItem(v.searchBar, 1, 0)
}

func (v *ChatView) endSearch() {
	v.searching = false
	v.searchBar.SetText("")
	v.ResizeItem(v.searchBar, 0, 0)
	if v.onSearchDone != nil {
		v.onSearchDone()
	}
}

// SearchBar returns the search input for focus handling.
func (v *ChatView) SearchBar() *tview.InputField { return v.searchBar }

// ShowSearchResults replaces the transcript with cached-history matches
// until the search bar is dismissed.
func (v *ChatView) ShowSearchResults(query string, hits []cache.SearchHit) {
	v.thread.Clear()
	fmt.Fprintf(v.thread, "[yellow]%d cached match(es) for %q[-]\n\n", len(hits), query)
	for _, h := range hits {
		snippet := strings.ReplaceAll(h.Snippet, "<<", "[red]")
		snippet = strings.ReplaceAll(snippet, ">>", "[-]")
		fmt.Fprintf(v.thread, "[::b]%s[-:-:-] [gray]%s[-]\n%s\n\n",
			h.Message.User.Name, h.Message.Timestamp.Local().Format("Jan 2 15:04"), snippet)
	}
	v.thread.ScrollToBeginning()
}

// SetSelf identifies the logged-in user so their messages render
// distinctly.
func (v *ChatView) SetSelf(userID int) { v.selfID = userID }

// SetTitle names the conversation.
func (v *ChatView) SetTitle(name string) {
	v.thread.SetTitle(fmt.Sprintf(" %s ", name))
}

// Update re-renders the transcript and scrolls to the newest message.
// Search results stay on screen while the search bar is open.
func (v *ChatView) Update(msgs []api.ChatMessage) {
	if v.searching {
		return
	}
	v.thread.Clear()
	for _, m := range msgs {
		color := "white"
		if m.User.ID == v.selfID {
			color = "green"
		}
		fmt.Fprintf(v.thread, "[%s::b]%s[-:-:-] [gray]%s[-]\n%s\n\n",
			color, m.User.Name, m.Timestamp.Local().Format("15:04"), m.Content)
	}
	v.thread.ScrollToEnd()
}

// SetComposerEnabled gates sending on the socket state.
func (v *ChatView) SetComposerEnabled(on bool) {
	v.enabled = on
	if on {
		v.composer.SetLabel(" > ")
	} else {
		v.composer.SetLabel(" [gray]connecting...[-] ")
	}
}

// SetOnSend registers the send callback.
func (v *ChatView) SetOnSend(fn func(content string)) { v.onSend = fn }

// SetOnBack registers the escape callback.
func (v *ChatView) SetOnBack(fn func()) { v.onBack = fn }

// SetOnSearch registers the history-search callback.
func (v *ChatView) SetOnSearch(fn func(query string)) { v.onSearch = fn }

// SetOnSearchDone registers the search-dismissed callback.
func (v *ChatView) SetOnSearchDone(fn func()) { v.onSearchDone = fn }
