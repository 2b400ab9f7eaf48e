// Command socialctl drives the remote backend from a terminal. The session persists in the
// configured storage between invocations, so "login" once and then run other commands.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"socialclient/internal/config"
	"socialclient/internal/gateway"
	"socialclient/internal/models"
	"socialclient/internal/session"
	"socialclient/internal/storage"
)

type options struct {
	phone    string
	password string
	name     string
	id       int64
	content  string
	fullName string
	username string
	bio      string
	avatar   string
}

func main() {
	var (
		cmd        = flag.String("cmd", "whoami", "Command: login|register|admin-login|logout|whoami|refresh|profile|user|feed|posts|post|like|comment|chats|chat|messages|send|notifications|read|read-all|admin-stats|admin-users|ban|unban|grant-admin|revoke-admin|update-user")
		configPath = flag.String("config", "", "Config file (defaults to $SOCIALCLIENT_CONFIG, then config.json)")
		timeout    = flag.Duration("timeout", 30*time.Second, "Overall command timeout")
		verbose    = flag.Bool("v", false, "Log requests to stderr")
		opts       options
	)
	flag.StringVar(&opts.phone, "phone", "", "Phone number (login/register)")
	flag.StringVar(&opts.password, "password", "", "Password (login/register)")
	flag.StringVar(&opts.name, "name", "", "Full name (register)")
	flag.Int64Var(&opts.id, "id", 0, "Target id: user, post, chat, notification or counterpart")
	flag.StringVar(&opts.content, "content", "", "Post, comment or message text")
	flag.StringVar(&opts.fullName, "full-name", "", "New full name (profile/update-user)")
	flag.StringVar(&opts.username, "username", "", "New username (update-user)")
	flag.StringVar(&opts.bio, "bio", "", "New bio (profile)")
	flag.StringVar(&opts.avatar, "avatar", "", "New avatar url (profile)")
	flag.Parse()

	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(logrus.WarnLevel)
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	out, err := execute(ctx, cfg, log, *cmd, opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", session.ErrorMessage(err, err.Error()))
		cancel()
		os.Exit(1)
	}
	if err := printJSON(os.Stdout, out); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		cancel()
		os.Exit(1)
	}
}

func execute(ctx context.Context, cfg *config.Config, log logrus.FieldLogger, cmd string, opts options) (any, error) {
	store, err := storage.FromConfig(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	client := gateway.NewFromConfig(cfg, gateway.WithLogger(log))
	sessions := session.NewManager(client, store, cfg.BasicConfig.StorageKey, log)
	if err := sessions.Restore(ctx); err != nil {
		return nil, err
	}
	return run(ctx, sessions, client, cmd, opts)
}

var errUsage = errors.New("missing required flag")

func run(ctx context.Context, sessions *session.Manager, client *gateway.Client, cmd string, opts options) (any, error) {
	switch cmd {
	case "login":
		return sessions.Login(ctx, opts.phone, opts.password)
	case "register":
		return sessions.Register(ctx, opts.phone, opts.password, opts.name)
	case "admin-login":
		return sessions.AdminLogin(ctx, opts.phone, opts.password)
	case "logout":
		return models.OK(), sessions.Logout(ctx)
	case "whoami":
		user := sessions.Current()
		return map[string]any{"authenticated": user != nil, "user": user}, nil
	case "refresh":
		return sessions.Refresh(ctx)
	case "profile":
		return sessions.UpdateProfile(ctx, gateway.ProfileUpdate{
			FullName:  optional(opts.fullName),
			Bio:       optional(opts.bio),
			AvatarURL: optional(opts.avatar),
		})
	case "user":
		if opts.id <= 0 {
			return nil, fmt.Errorf("%w: -id", errUsage)
		}
		return client.GetUser(ctx, opts.id)
	case "feed":
		return client.Feed(ctx)
	}

	// Everything below acts as the session user.
	user := sessions.Current()
	if user == nil {
		return nil, session.ErrNoSession
	}
	needID := func() error {
		if opts.id <= 0 {
			return fmt.Errorf("%w: -id", errUsage)
		}
		return nil
	}

	switch cmd {
	case "posts":
		id := opts.id
		if id <= 0 {
			id = user.ID
		}
		return client.UserPosts(ctx, id)
	case "post":
		return client.CreatePost(ctx, user.ID, opts.content)
	case "like":
		if err := needID(); err != nil {
			return nil, err
		}
		return client.LikePost(ctx, user.ID, opts.id)
	case "comment":
		if err := needID(); err != nil {
			return nil, err
		}
		return client.CommentPost(ctx, user.ID, opts.id, opts.content)
	case "chats":
		return client.Chats(ctx, user.ID)
	case "chat":
		if err := needID(); err != nil {
			return nil, err
		}
		chatID, err := client.CreateChat(ctx, user.ID, opts.id)
		return map[string]int64{"chat_id": chatID}, err
	case "messages":
		if err := needID(); err != nil {
			return nil, err
		}
		return client.Messages(ctx, opts.id, user.ID)
	case "send":
		if err := needID(); err != nil {
			return nil, err
		}
		return client.SendMessage(ctx, user.ID, opts.id, opts.content)
	case "notifications":
		return client.Notifications(ctx, user.ID)
	case "read":
		if err := needID(); err != nil {
			return nil, err
		}
		return models.OK(), client.MarkNotificationRead(ctx, opts.id)
	case "read-all":
		return models.OK(), client.MarkAllNotificationsRead(ctx, user.ID)
	case "admin-stats":
		return client.AdminStats(ctx)
	case "admin-users":
		return client.AdminUsers(ctx)
	case "ban", "unban", "grant-admin", "revoke-admin", "update-user":
		if err := needID(); err != nil {
			return nil, err
		}
		return adminCommand(ctx, client, user.ID, cmd, opts)
	}
	return nil, fmt.Errorf("unknown command %q", cmd)
}

func adminCommand(ctx context.Context, client *gateway.Client, adminID int64, cmd string, opts options) (*models.ActionResult, error) {
	switch cmd {
	case "ban":
		return client.BanUser(ctx, adminID, opts.id)
	case "unban":
		return client.UnbanUser(ctx, adminID, opts.id)
	case "grant-admin":
		return client.GrantAdmin(ctx, adminID, opts.id)
	case "revoke-admin":
		return client.RevokeAdmin(ctx, adminID, opts.id)
	default:
		fullName, username := optional(opts.fullName), optional(opts.username)
		if fullName == nil && username == nil {
			return nil, fmt.Errorf("%w: -full-name or -username", errUsage)
		}
		return client.UpdateUser(ctx, adminID, opts.id, fullName, username)
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
