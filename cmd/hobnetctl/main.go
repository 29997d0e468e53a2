package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/hobbynet/hobnet/internal/api"
	"github.com/hobbynet/hobnet/internal/bus"
	"github.com/hobbynet/hobnet/internal/config"
	"github.com/hobbynet/hobnet/internal/logging"
	"github.com/hobbynet/hobnet/internal/profile"
	"github.com/hobbynet/hobnet/internal/session"
)

// ctl bundles what every command needs. Unlike the TUI it takes no
// profile lock, keeps no cache and opens no sockets, so it can run next
// to a live hobnet instance on the same profile.
type ctl struct {
	client *api.Client
	sess   *session.Service
	json   bool
}

func main() {
	profileFlag := flag.String("profile", "", "profile name (overrides config default)")
	jsonFlag := flag.Bool("json", false, "output in JSON format")
	flag.Parse()

	name := profile.Resolve(*profileFlag)
	if err := profile.ValidateName(name); err != nil {
		fatalf("%v", err)
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	if err := profile.EnsureDir(name); err != nil {
		fatalf("%v", err)
	}
	logger, err := logging.New(profile.LogPath(name), name, true)
	if err != nil {
		fatalf("%v", err)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load(profile.ConfigPath())
	if os.IsNotExist(err) {
		cfg = &config.Config{}
	} else if err != nil {
		fatalf("%v", err)
	}

	eb := bus.New()
	defer eb.Close()
	client := api.New(cfg.ResolveServerURL(), logger)
	sess := session.New(client, eb, logger, profile.CredentialsPath(name))
	sess.Restore()

	c := &ctl{client: client, sess: sess, json: *jsonFlag}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	switch args[0] {
	case "login":
		c.cmdLogin(ctx, args[1:])
	case "logout":
		c.sess.Logout()
		fmt.Println("logged out")
	case "whoami":
		c.cmdWhoami()
	case "users":
		c.cmdUsers(ctx, args[1:])
	case "groups":
		c.cmdGroups(ctx, args[1:])
	case "join":
		c.cmdJoin(ctx, args[1:])
	case "leave":
		c.cmdLeave(ctx, args[1:])
	case "posts":
		c.cmdPosts(ctx, args[1:])
	case "conversations":
		c.cmdConversations(ctx)
	case "dm":
		c.cmdDM(ctx, args[1:])
	case "search":
		c.cmdSearch(ctx, args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "usage: hobnetctl [--profile <name>] [--json] <command>")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "commands:")
	fmt.Fprintln(os.Stderr, "  login <email> <password>              Authenticate and persist the session")
	fmt.Fprintln(os.Stderr, "  logout                                Drop the persisted session")
	fmt.Fprintln(os.Stderr, "  whoami                                Show the logged-in user")
	fmt.Fprintln(os.Stderr, "  users search <query>                  Find users by name")
	fmt.Fprintln(os.Stderr, "  groups list                           List all groups")
	fmt.Fprintln(os.Stderr, "  groups show <id>                      Show one group")
	fmt.Fprintln(os.Stderr, "  groups create <name> <hobby> [desc]   Create a group")
	fmt.Fprintln(os.Stderr, "  groups members <id>                   List group members")
	fmt.Fprintln(os.Stderr, "  join <group-id>                       Join a group")
	fmt.Fprintln(os.Stderr, "  leave <group-id>                      Leave a group")
	fmt.Fprintln(os.Stderr, "  posts list <group-id>                 List a group's posts")
	fmt.Fprintln(os.Stderr, "  posts create <group-id> <title> <content>  Post to a group")
	fmt.Fprintln(os.Stderr, "  conversations                         List joined groups and DMs")
	fmt.Fprintln(os.Stderr, "  dm <user-id>                          Start a direct message")
	fmt.Fprintln(os.Stderr, "  search <query>                        Search users, groups and posts")
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "error: "+format+"\n", args...)
	os.Exit(1)
}

func (c *ctl) requireLogin() {
	if !c.sess.IsLoggedIn() {
		fatalf("not logged in; run: hobnetctl login <email> <password>")
	}
}

func (c *ctl) output(v any) {
	if c.json {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(v)
		return
	}
	switch t := v.(type) {
	case []api.Group:
		for _, g := range t {
			kind := "group"
			if g.IsDM {
				kind = "dm"
			}
			fmt.Printf("%-5d %-8s %-24s %s\n", g.ID, kind, g.Name, g.Hobby)
		}
	case []api.Post:
		for _, p := range t {
			fmt.Printf("%-5d %-24s by %s\n      %s\n", p.ID, p.Title, p.Owner.Name, p.Content)
		}
	case []api.User:
		for _, u := range t {
			fmt.Printf("%-5d %-24s %s\n", u.ID, u.Name, u.Email)
		}
	default:
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(v)
	}
}

func parseID(s, what string) int {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		fatalf("invalid %s: %q", what, s)
	}
	return id
}

func (c *ctl) cmdLogin(ctx context.Context, args []string) {
	if len(args) != 2 {
		fatalf("usage: hobnetctl login <email> <password>")
	}
	if err := c.sess.Login(ctx, args[0], args[1]); err != nil {
		fatalf("%s", api.Message(err, "login failed"))
	}
	u := c.sess.User()
	fmt.Printf("logged in as %s <%s>\n", u.Name, u.Email)
}

func (c *ctl) cmdWhoami() {
	c.requireLogin()
	c.output(c.sess.User())
}

func (c *ctl) cmdUsers(ctx context.Context, args []string) {
	c.requireLogin()
	if len(args) != 2 || args[0] != "search" {
		fatalf("usage: hobnetctl users search <query>")
	}
	users, err := c.client.SearchUsers(ctx, args[1])
	if err != nil {
		fatalf("%s", api.Message(err, "search failed"))
	}
	c.output(users)
}

func (c *ctl) cmdGroups(ctx context.Context, args []string) {
	c.requireLogin()
	if len(args) == 0 {
		args = []string{"list"}
	}
	switch args[0] {
	case "list":
		groups, err := c.client.ListGroups(ctx)
		if err != nil {
			fatalf("%s", api.Message(err, "fetch failed"))
		}
		c.output(groups)
	case "show":
		if len(args) < 2 {
			fatalf("usage: hobnetctl groups show <id>")
		}
		g, err := c.client.GetGroup(ctx, parseID(args[1], "group id"))
		if err != nil {
			fatalf("%s", api.Message(err, "fetch failed"))
		}
		c.output(g)
	case "create":
		if len(args) < 3 {
			fatalf("usage: hobnetctl groups create <name> <hobby> [description]")
		}
		data := api.GroupCreate{Name: args[1], Hobby: args[2]}
		if len(args) > 3 {
			data.Description = args[3]
		}
		g, err := c.client.CreateGroup(ctx, data)
		if err != nil {
			fatalf("%s", api.Message(err, "create failed"))
		}
		c.output(g)
	case "members":
		if len(args) < 2 {
			fatalf("usage: hobnetctl groups members <id>")
		}
		members, err := c.client.GroupMembers(ctx, parseID(args[1], "group id"))
		if err != nil {
			fatalf("%s", api.Message(err, "fetch failed"))
		}
		c.output(members)
	default:
		fatalf("unknown groups subcommand: %s", args[0])
	}
}

func (c *ctl) cmdJoin(ctx context.Context, args []string) {
	c.requireLogin()
	if len(args) != 1 {
		fatalf("usage: hobnetctl join <group-id>")
	}
	id := parseID(args[0], "group id")
	if _, err := c.client.JoinGroup(ctx, id); err != nil {
		fatalf("%s", api.Message(err, "join failed"))
	}
	c.sess.AddMembership(id)
	fmt.Printf("joined group %d\n", id)
}

func (c *ctl) cmdLeave(ctx context.Context, args []string) {
	c.requireLogin()
	if len(args) != 1 {
		fatalf("usage: hobnetctl leave <group-id>")
	}
	id := parseID(args[0], "group id")
	if err := c.client.LeaveGroup(ctx, id); err != nil {
		fatalf("%s", api.Message(err, "leave failed"))
	}
	c.sess.RemoveMembership(id)
	fmt.Printf("left group %d\n", id)
}

func (c *ctl) cmdPosts(ctx context.Context, args []string) {
	c.requireLogin()
	if len(args) < 2 {
		fatalf("usage: hobnetctl posts <list|create> <group-id> ...")
	}
	switch args[0] {
	case "list":
		posts, err := c.client.ListPosts(ctx, parseID(args[1], "group id"))
		if err != nil {
			fatalf("%s", api.Message(err, "fetch failed"))
		}
		c.output(posts)
	case "create":
		if len(args) < 4 {
			fatalf("usage: hobnetctl posts create <group-id> <title> <content>")
		}
		post, err := c.client.CreatePost(ctx, parseID(args[1], "group id"),
			api.PostCreate{Title: args[2], Content: args[3]})
		if err != nil {
			fatalf("%s", api.Message(err, "post failed"))
		}
		c.output(post)
	default:
		fatalf("unknown posts subcommand: %s", args[0])
	}
}

func (c *ctl) cmdConversations(ctx context.Context) {
	c.requireLogin()
	convs, err := c.client.Conversations(ctx)
	if err != nil {
		fatalf("%s", api.Message(err, "fetch failed"))
	}
	c.output(convs)
}

func (c *ctl) cmdDM(ctx context.Context, args []string) {
	c.requireLogin()
	if len(args) != 1 {
		fatalf("usage: hobnetctl dm <user-id>")
	}
	conv, err := c.client.StartDirectMessage(ctx, parseID(args[0], "user id"))
	if err != nil {
		fatalf("%s", api.Message(err, "could not start conversation"))
	}
	c.sess.AddMembership(conv.ID)
	c.output(conv)
}

func (c *ctl) cmdSearch(ctx context.Context, args []string) {
	c.requireLogin()
	if len(args) != 1 {
		fatalf("usage: hobnetctl search <query>")
	}
	results, err := c.client.Search(ctx, args[0])
	if err != nil {
		fatalf("%s", api.Message(err, "search failed"))
	}
	if c.json {
		c.output(results)
		return
	}
	if len(results.Users) > 0 {
		fmt.Println("users:")
		c.output(results.Users)
	}
	if len(results.Groups) > 0 {
		fmt.Println("groups:")
		c.output(results.Groups)
	}
	if len(results.Posts) > 0 {
		fmt.Println("posts:")
		c.output(results.Posts)
	}
}
