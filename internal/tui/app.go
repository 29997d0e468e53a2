// Package tui is the interactive terminal frontend. It renders the
// store snapshots, reacts to bus events, and gates navigation on the
// session: unauthenticated sessions only ever see the auth pages.
package tui

import (
	"context"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/hobbynet/hobnet/internal/api"
	"github.com/hobbynet/hobnet/internal/app"
	"github.com/hobbynet/hobnet/internal/bus"
	"github.com/hobbynet/hobnet/internal/session"
	"github.com/hobbynet/hobnet/internal/status"
	"github.com/hobbynet/hobnet/internal/store"
	"github.com/hobbynet/hobnet/internal/tui/model"
	"github.com/hobbynet/hobnet/internal/tui/views"
	"github.com/hobbynet/hobnet/internal/ws"
	"github.com/rivo/tview"
	"go.uber.org/zap"
)

// Page names.
const (
	pageLogin         = "login"
	pageSignup        = "signup"
	pageLoading       = "loading"
	pageGroups        = "groups"
	pageGroupDetail   = "group_detail"
	pageGroupForm     = "group_form"
	pageConversations = "conversations"
	pageChat          = "chat"
	pageSearch        = "search"
	pageProfile       = "profile"
)

// privatePages require a live session; the auth pages require its
// absence.
var privatePages = map[string]bool{
	pageGroups:        true,
	pageGroupDetail:   true,
	pageGroupForm:     true,
	pageConversations: true,
	pageChat:          true,
	pageSearch:        true,
	pageProfile:       true,
}

// App is the TUI application shell.
type App struct {
	app   *tview.Application
	pages *tview.Pages
	flash *model.Flash

	sess    *session.Service
	groups  *store.Groups
	posts   *store.Posts
	chat    *store.Chat
	search  *store.Search
	unread  *store.Unread
	chatMgr *ws.ChatManager
	bus     *bus.Bus
	logger  *zap.Logger

	statusBar *views.StatusBar
	loginV    *views.LoginView
	signupV   *views.SignupView
	groupList *views.GroupList
	detailV   *views.GroupDetail
	groupForm *views.GroupForm
	convList  *views.ConversationList
	chatV     *views.ChatView
	searchV   *views.SearchView
	profileV  *views.ProfileView

	ctx     context.Context
	cancel  context.CancelFunc
	current string
}

// New creates the TUI application.
func New(
	p app.Params,
	sess *session.Service,
	groups *store.Groups,
	posts *store.Posts,
	chat *store.Chat,
	search *store.Search,
	unread *store.Unread,
	chatMgr *ws.ChatManager,
	b *bus.Bus,
	logger *zap.Logger,
) *App {
	ctx, cancel := context.WithCancel(context.Background())
	a := &App{
		app:       tview.NewApplication(),
		pages:     tview.NewPages(),
		flash:     &model.Flash{},
		sess:      sess,
		groups:    groups,
		posts:     posts,
		chat:      chat,
		search:    search,
		unread:    unread,
		chatMgr:   chatMgr,
		bus:       b,
		logger:    logger,
		statusBar: views.NewStatusBar(p.ProfileName),
		loginV:    views.NewLoginView(),
		signupV:   views.NewSignupView(),
		groupList: views.NewGroupList(sess.IsMember),
		detailV:   views.NewGroupDetail(),
		groupForm: views.NewGroupForm(),
		convList:  views.NewConversationList(),
		chatV:     views.NewChatView(),
		searchV:   views.NewSearchView(),
		profileV:  views.NewProfileView(),
		ctx:       ctx,
		cancel:    cancel,
	}
	a.setupCallbacks()
	a.setupLayout()
	a.setupKeys()
	return a
}

func (a *App) setupLayout() {
	loading := tview.NewTextView().SetText("\n  Loading...").SetDynamicColors(true)

	a.pages.AddPage(pageLogin, center(a.loginV, 60, 11), true, false)
	a.pages.AddPage(pageSignup, center(a.signupV, 60, 15), true, false)
	a.pages.AddPage(pageLoading, loading, true, false)
	a.pages.AddPage(pageGroups, a.groupList, true, false)
	a.pages.AddPage(pageGroupDetail, a.detailV, true, false)
	a.pages.AddPage(pageGroupForm, center(a.groupForm, 60, 13), true, false)
	a.pages.AddPage(pageConversations, a.convList, true, false)
	a.pages.AddPage(pageChat, a.chatV, true, false)
	a.pages.AddPage(pageSearch, a.searchV, true, false)
	a.pages.AddPage(pageProfile, center(a.profileV, 60, 13), true, false)

	root := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(a.pages, 0, 1, true).
		AddItem(a.statusBar, 1, 0, false)
	a.app.SetRoot(root, true)
}

func center(p tview.Primitive, width, height int) tview.Primitive {
	return tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().SetDirection(tview.FlexRow).
			AddItem(nil, 0, 1, false).
			AddItem(p, height, 0, true).
			AddItem(nil, 0, 1, false), width, 0, true).
		AddItem(nil, 0, 1, false)
}

func (a *App) setupKeys() {
	// Ctrl shortcuts stay safe inside text inputs.
	a.app.SetInputCapture(func(ev *tcell.EventKey) *tcell.EventKey {
		if !a.sess.IsLoggedIn() {
			return ev
		}
		switch ev.Key() {
		case tcell.KeyCtrlG:
			a.openGroups()
			return nil
		case tcell.KeyCtrlT:
			a.openConversations()
			return nil
		case tcell.KeyCtrlS:
			a.openSearch()
			return nil
		case tcell.KeyCtrlP:
			a.openProfile()
			return nil
		case tcell.KeyCtrlF:
			if a.current == pageChat {
				a.chatV.BeginSearch()
				a.app.SetFocus(a.chatV.SearchBar())
				return nil
			}
		}
		return ev
	})
}

func (a *App) setupCallbacks() {
	a.loginV.SetOnSubmit(func(email, password string) {
		go func() {
			if err := a.sess.Login(a.ctx, email, password); err != nil {
				a.flash.Error(api.Message(err, "Login failed"))
			}
		}()
	})
	a.loginV.SetOnSignup(func() { a.show(pageSignup) })

	a.signupV.SetOnSubmit(func(name, email, password string, hobbies []string) {
		go func() {
			if err := a.sess.Register(a.ctx, name, email, password, hobbies); err != nil {
				a.flash.Error(api.Message(err, "Signup failed"))
			}
		}()
	})
	a.signupV.SetOnLogin(func() { a.show(pageLogin) })

	a.groupList.SetOnOpen(a.openGroupDetail)
	a.groupList.SetOnJoin(func(groupID int) {
		go func() {
			if err := a.groups.Join(a.ctx, groupID); err != nil {
				a.flash.Error(api.Message(err, "Join failed"))
			}
			a.redraw()
		}()
	})
	a.groupList.SetOnLeave(func(groupID int) {
		go func() {
			if err := a.groups.Leave(a.ctx, groupID); err != nil {
				a.flash.Error(api.Message(err, "Leave failed"))
			}
			a.redraw()
		}()
	})
	a.groupList.SetOnCreate(func() {
		a.groupForm.Reset(nil)
		a.show(pageGroupForm)
	})

	a.groupForm.SetOnSubmit(func(groupID int, data api.GroupCreate) {
		go func() {
			var err error
			if groupID == 0 {
				_, err = a.groups.Create(a.ctx, data)
			} else {
				_, err = a.groups.Update(a.ctx, groupID, data)
			}
			if err != nil {
				a.flash.Error(api.Message(err, "Save failed"))
				a.redraw()
				return
			}
			a.app.QueueUpdateDraw(func() { a.show(pageGroups) })
		}()
	})
	a.groupForm.SetOnCancel(func() { a.show(pageGroups) })

	a.detailV.SetOnBack(func() {
		a.posts.Clear()
		a.show(pageGroups)
	})
	a.detailV.SetOnEdit(func() {
		if g := a.groups.Current(); g != nil {
			a.groupForm.Reset(g)
			a.show(pageGroupForm)
		}
	})
	a.detailV.SetOnPost(func(title, content string) {
		g := a.groups.Current()
		if g == nil {
			return
		}
		go func() {
			if _, err := a.posts.Create(a.ctx, g.ID, api.PostCreate{Title: title, Content: content}); err != nil {
				a.flash.Error(api.Message(err, "Post failed"))
			}
			a.redraw()
		}()
	})

	a.convList.SetOnOpen(a.openChat)

	a.chatV.SetOnSend(func(content string) {
		go func() {
			if err := a.chatMgr.Send(content); err != nil {
				// Surfaced instead of silently dropped.
				a.flash.Error("Message not sent: " + err.Error())
				a.redraw()
			}
		}()
	})
	a.chatV.SetOnBack(func() {
		a.chatMgr.Disconnect()
		a.chat.Clear()
		a.openConversations()
	})
	a.chatV.SetOnSearch(func(query string) {
		go func() {
			hits, err := a.chat.SearchHistory(query)
			if err != nil {
				a.flash.Error("History search failed")
				a.redraw()
				return
			}
			a.app.QueueUpdateDraw(func() { a.chatV.ShowSearchResults(query, hits) })
		}()
	})
	a.chatV.SetOnSearchDone(func() {
		a.app.SetFocus(a.chatV)
		a.refreshPage()
	})

	a.searchV.SetOnQuery(func(query string) {
		go func() {
			if err := a.search.Run(a.ctx, query); err != nil {
				a.flash.Error(api.Message(err, "Search failed"))
				a.redraw()
			}
		}()
	})
	a.searchV.SetOnUser(func(userID int) {
		go func() {
			conv, err := a.groups.StartDirectMessage(a.ctx, userID)
			if err != nil {
				a.flash.Error(api.Message(err, "Could not start conversation"))
				a.redraw()
				return
			}
			a.app.QueueUpdateDraw(func() { a.openChat(*conv) })
		}()
	})
	a.searchV.SetOnGroup(func(groupID int) { a.openGroupDetail(groupID) })
	a.searchV.SetOnBack(func() {
		a.search.Clear()
		a.show(pageGroups)
	})

	a.profileV.SetOnSave(func(name string, hobbies []string) {
		go func() {
			fields := map[string]any{"name": name, "hobbies": hobbies}
			if err := a.sess.UpdateProfile(a.ctx, fields); err != nil {
				a.flash.Error(api.Message(err, "Update failed"))
			} else {
				a.flash.Set("Profile saved", model.DefaultFlashDuration)
			}
			a.redraw()
		}()
	})
	a.profileV.SetOnLogout(func() { a.sess.Logout() })
	a.profileV.SetOnBack(func() { a.show(pageGroups) })
}

// show navigates with the route gate applied: private pages bounce to
// login without a session, auth pages bounce to groups with one.
func (a *App) show(name string) {
	loggedIn := a.sess.IsLoggedIn()
	if privatePages[name] && !loggedIn {
		name = pageLogin
	}
	if (name == pageLogin || name == pageSignup) && loggedIn {
		name = pageGroups
	}
	a.current = name
	a.pages.SwitchToPage(name)
	a.refreshPage()
}

func (a *App) openGroups() {
	a.unread.ResetPosts()
	a.show(pageGroups)
	go func() {
		_ = a.groups.FetchAll(a.ctx)
		a.redraw()
	}()
}

func (a *App) openGroupDetail(groupID int) {
	a.show(pageGroupDetail)
	go func() {
		_ = a.groups.FetchOne(a.ctx, groupID)
		_ = a.posts.FetchForGroup(a.ctx, groupID)
		a.redraw()
	}()
}

func (a *App) openConversations() {
	a.show(pageConversations)
	go func() {
		_ = a.groups.FetchConversations(a.ctx)
		a.redraw()
	}()
}

func (a *App) openChat(conv api.Group) {
	a.unread.ResetChat()
	if u := a.sess.User(); u != nil {
		a.chatV.SetSelf(u.ID)
	}
	a.chatV.SetTitle(conv.Name)
	a.show(pageChat)
	go func() {
		_ = a.chat.Open(a.ctx, conv.ID)
		if err := a.chatMgr.Connect(a.ctx, conv.ID, a.sess.Token(), func(convID int, msg api.ChatMessage) {
			a.chat.Append(convID, msg)
		}); err != nil {
			a.flash.Error("Chat connection failed")
		}
		a.redraw()
	}()
}

func (a *App) openSearch() {
	a.show(pageSearch)
}

func (a *App) openProfile() {
	a.show(pageProfile)
	a.profileV.Update(a.sess.User())
}

// refreshPage re-renders the current page from store snapshots.
func (a *App) refreshPage() {
	switch a.current {
	case pageGroups:
		a.groupList.Update(a.groups.All())
	case pageGroupDetail:
		g := a.groups.Current()
		member := g != nil && a.sess.IsMember(g.ID)
		a.detailV.Update(g, a.posts.All(), a.groups.Members(), member)
	case pageConversations:
		a.convList.Update(a.groups.Conversations())
	case pageChat:
		a.chatV.Update(a.chat.Messages())
		a.chatV.SetComposerEnabled(a.chat.ConnState() == ws.StateOpen)
	case pageSearch:
		a.searchV.Update(a.search.Results())
	case pageProfile:
		a.profileV.Update(a.sess.User())
	}
	a.refreshStatusBar()
}

func (a *App) refreshStatusBar() {
	name := ""
	if u := a.sess.User(); u != nil {
		name = u.Name
	}
	a.statusBar.SetUser(name)
	a.statusBar.SetConnState(a.chat.ConnState().String())
	counts := a.unread.Counts()
	a.statusBar.SetUnread(counts.Chat, counts.Posts)
	a.statusBar.SetFlash(a.flash.Get())
}

func (a *App) redraw() {
	a.app.QueueUpdateDraw(a.refreshPage)
}

// eventLoop turns bus events into view refreshes.
func (a *App) eventLoop(events <-chan bus.Event) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case evt, ok := <-events:
			if !ok {
				return
			}
			a.handleEvent(evt)
		case <-ticker.C:
			// Keeps flash expiry visible.
			a.app.QueueUpdateDraw(a.refreshStatusBar)
		case <-a.ctx.Done():
			return
		}
	}
}

func (a *App) handleEvent(evt bus.Event) {
	switch evt.Topic {
	case bus.TopicSessionStatus:
		change, _ := evt.Payload.(status.Change)
		a.app.QueueUpdateDraw(func() {
			switch {
			case change.To == status.Loading:
				a.current = pageLoading
				a.pages.SwitchToPage(pageLoading)
			case change.To == status.Succeeded:
				a.show(pageGroups)
				go func() {
					_ = a.groups.FetchAll(a.ctx)
					a.redraw()
				}()
			case change.To == status.Failed:
				a.flash.Error(a.sess.Err())
				a.show(pageLogin)
			}
		})
	case bus.TopicSessionLoggedOut:
		a.chatMgr.Disconnect()
		a.chat.Clear()
		a.posts.Clear()
		a.search.Clear()
		a.app.QueueUpdateDraw(func() { a.show(pageLogin) })
	default:
		a.redraw()
	}
}

// Run starts the event loop and blocks on the terminal UI.
func (a *App) Run() error {
	events, unsub := a.bus.Subscribe("", 64)
	defer unsub()
	go a.eventLoop(events)

	if a.sess.IsLoggedIn() {
		a.openGroups()
	} else {
		a.show(pageLogin)
	}

	defer a.cancel()
	return a.app.Run()
}

// Stop terminates the UI from outside the event loop.
func (a *App) Stop() {
	a.cancel()
	a.app.Stop()
}
