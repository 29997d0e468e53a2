// Package app is the composition root shared by the TUI and the CLI. It
// wires the profile directory, config, logging, local cache, API client,
// session, stores and socket managers into one fx module.
package app

import (
	"context"
	"os"

	"github.com/hobbynet/hobnet/internal/api"
	"github.com/hobbynet/hobnet/internal/bus"
	"github.com/hobbynet/hobnet/internal/cache"
	"github.com/hobbynet/hobnet/internal/config"
	"github.com/hobbynet/hobnet/internal/lock"
	"github.com/hobbynet/hobnet/internal/logging"
	"github.com/hobbynet/hobnet/internal/profile"
	"github.com/hobbynet/hobnet/internal/session"
	"github.com/hobbynet/hobnet/internal/store"
	"github.com/hobbynet/hobnet/internal/ws"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Params holds the resolved invocation options passed to the fx module.
type Params struct {
	ProfileName string
	// Console mirrors warnings to stderr. The TUI keeps it off; stderr
	// output would corrupt the screen.
	Console bool
}

// Module composes all providers and lifecycle hooks of the client.
func Module(p Params) fx.Option {
	return fx.Module("hobnet",
		fx.Supply(p),
		fx.Provide(
			provideLogger,
			provideBus,
			provideConfig,
			provideLock,
			provideCache,
			provideAPIClient,
			provideSession,
			provideGroups,
			providePosts,
			provideChat,
			provideSearch,
			provideUnread,
			provideDispatcher,
			provideChatManager,
			provideListener,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideLogger(p Params) (*zap.Logger, error) {
	if err := profile.EnsureDir(p.ProfileName); err != nil {
		return nil, err
	}
	return logging.New(profile.LogPath(p.ProfileName), p.ProfileName, p.Console)
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideConfig(logger *zap.Logger) (*config.Config, error) {
	cfg, err := config.Load(profile.ConfigPath())
	if os.IsNotExist(err) {
		// Fresh install: defaults apply until the user writes a config.
		cfg = &config.Config{}
	} else if err != nil {
		return nil, err
	}
	logger.Info("config loaded",
		zap.String("server_url", cfg.ResolveServerURL()),
		zap.String("websocket_url", cfg.ResolveWebSocketURL()))
	return cfg, nil
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	logger.Info("acquiring profile lock", zap.String("profile", p.ProfileName))
	l, err := lock.Acquire(profile.LockPath(p.ProfileName))
	if err != nil {
		return nil, err
	}
	return l, nil
}

func provideCache(p Params, logger *zap.Logger) (*cache.DB, error) {
	db, err := cache.Open(profile.CacheDBPath(p.ProfileName))
	if err != nil {
		return nil, err
	}
	version, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.Info("cache ready", zap.Uint("schema_version", version))
	return db, nil
}

func provideAPIClient(cfg *config.Config, logger *zap.Logger) *api.Client {
	return api.New(cfg.ResolveServerURL(), logger)
}

func provideSession(p Params, client *api.Client, b *bus.Bus, logger *zap.Logger) *session.Service {
	return session.New(client, b, logger, profile.CredentialsPath(p.ProfileName))
}

func provideGroups(client *api.Client, sess *session.Service, b *bus.Bus, db *cache.DB, logger *zap.Logger) *store.Groups {
	return store.NewGroups(client, sess, b, db, logger)
}

func providePosts(client *api.Client, b *bus.Bus) *store.Posts {
	return store.NewPosts(client, b)
}

func provideChat(client *api.Client, b *bus.Bus, db *cache.DB, logger *zap.Logger) *store.Chat {
	return store.NewChat(client, b, db, logger)
}

func provideSearch(client *api.Client, b *bus.Bus) *store.Search {
	return store.NewSearch(client, b)
}

func provideUnread(b *bus.Bus) *store.Unread {
	return store.NewUnread(b)
}

func provideDispatcher(groups *store.Groups, sess *session.Service, unread *store.Unread, logger *zap.Logger) *store.Dispatcher {
	return store.NewDispatcher(groups, sess, unread, logger)
}

func provideChatManager(cfg *config.Config, logger *zap.Logger) *ws.ChatManager {
	return ws.NewChatManager(cfg.ResolveWebSocketURL(), logger)
}

func provideListener(cfg *config.Config, logger *zap.Logger) *ws.Listener {
	return ws.NewListener(cfg.ResolveWebSocketURL(), logger)
}

func registerLifecycle(
	lc fx.Lifecycle,
	lk *lock.Lock,
	db *cache.DB,
	b *bus.Bus,
	sess *session.Service,
	chat *store.Chat,
	chatMgr *ws.ChatManager,
	listener *ws.Listener,
	dispatcher *store.Dispatcher,
	logger *zap.Logger,
) {
	super := newSupervisor(sess, listener, dispatcher, b, logger)

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			chatMgr.SetOnState(chat.SetConnState)
			if sess.Restore() {
				logger.Info("session restored from disk")
			}
			super.Start()
			return nil
		},
		OnStop: func(_ context.Context) error {
			super.Stop()
			chatMgr.Disconnect()
			b.Close()
			if err := db.Close(); err != nil {
				logger.Warn("failed to close cache", zap.Error(err))
			}
			if err := lk.Release(); err != nil {
				logger.Warn("failed to release profile lock", zap.Error(err))
			}
			_ = logger.Sync()
			return nil
		},
	})
}
