package views

import (
	"fmt"

	"github.com/rivo/tview"
)

// StatusBar displays the profile, connection state, unread badges and
// flash messages.
type StatusBar struct {
	*tview.TextView
	profile     string
	userName    string
	connState   string
	unreadChat  int
	unreadPosts int
	flash       string
}

// NewStatusBar creates the status bar.
func NewStatusBar(profileName string) *StatusBar {
	tv := tview.NewTextView().SetDynamicColors(true)
	tv.SetBackgroundColor(tview.Styles.MoreContrastBackgroundColor)
	sb := &StatusBar{TextView: tv, profile: profileName, connState: "closed"}
	sb.render()
	return sb
}

// SetUser updates the logged-in user display; empty means logged out.
func (sb *StatusBar) SetUser(name string) {
	sb.userName = name
	sb.render()
}

// SetConnState updates the chat socket indicator.
func (sb *StatusBar) SetConnState(state string) {
	sb.connState = state
	sb.render()
}

// SetUnread updates the badge counters.
func (sb *StatusBar) SetUnread(chat, posts int) {
	sb.unreadChat = chat
	sb.unreadPosts = posts
	sb.render()
}

// SetFlash sets a temporary message.
func (sb *StatusBar) SetFlash(msg string) {
	sb.flash = msg
	sb.render()
}

func (sb *StatusBar) render() {
	sb.Clear()

	who := "logged out"
	if sb.userName != "" {
		who = sb.userName
	}
	line := fmt.Sprintf(" [::b]%s[-:-:-] | %s | chat:%s", sb.profile, who, sb.connState)
	if sb.unreadChat > 0 {
		line += fmt.Sprintf(" | [green]✉ %d[-]", sb.unreadChat)
	}
	if sb.unreadPosts > 0 {
		line += fmt.Sprintf(" | [green]✎ %d[-]", sb.unreadPosts)
	}
	if sb.flash != "" {
		line += fmt.Sprintf(" | [yellow]%s[-]", sb.flash)
	}
	_, _ = fmt.Fprint(sb, line)
}
