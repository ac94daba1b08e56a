package app

import (
	"context"
	"net/http"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/matheus3301/chatwire/internal/auth"
	"github.com/matheus3301/chatwire/internal/bus"
	"github.com/matheus3301/chatwire/internal/config"
	"github.com/matheus3301/chatwire/internal/gateway"
	"github.com/matheus3301/chatwire/internal/lock"
	"github.com/matheus3301/chatwire/internal/logging"
	"github.com/matheus3301/chatwire/internal/profile"
	"github.com/matheus3301/chatwire/internal/push"
	"github.com/matheus3301/chatwire/internal/store"
	intsync "github.com/matheus3301/chatwire/internal/sync"
)

// Params holds the resolved process configuration passed to the fx module.
type Params struct {
	Profile string
	Config  *config.Config
	// BaseURL overrides Config.Server.BaseURL when set.
	BaseURL string
	// Quiet keeps logs off stderr.
	Quiet bool
	// HTTPClient and Dial are optional overrides for testing.
	HTTPClient *http.Client
	Dial       push.Dialer
}

// App is the explicit process context: every long-lived component of one
// profile, created at start and disposed at stop.
type App struct {
	Profile     string
	Logger      *zap.Logger
	Bus         *bus.Bus
	Store       *store.DB
	Gateway     *gateway.Client
	Push        *push.Client
	Engine      *intsync.Engine
	Coordinator *auth.Coordinator
}

// Module returns the fx module composing all providers and lifecycle hooks.
func Module(p Params) fx.Option {
	return fx.Module("chatwire",
		fx.Supply(p),
		fx.Provide(
			provideLogger,
			provideBus,
			provideLock,
			provideStore,
			provideGateway,
			providePush,
			provideEngine,
			provideCoordinator,
			provideApp,
		),
		fx.Invoke(registerLifecycle),
	)
}

func provideLogger(p Params) (*zap.Logger, error) {
	return logging.New(profile.LogPath(p.Profile), p.Profile, logging.Options{
		Level: p.Config.LogLevel,
		Quiet: p.Quiet,
	})
}

func provideBus() *bus.Bus {
	return bus.New()
}

func provideLock(p Params, logger *zap.Logger) (*lock.Lock, error) {
	if err := profile.EnsureDir(p.Profile); err != nil {
		return nil, err
	}
	l, err := lock.Acquire(profile.Dir(p.Profile))
	if err != nil {
		return nil, err
	}
	logger.Info("profile lock acquired", zap.String("path", l.Path()))
	return l, nil
}

// provideStore depends on the lock so the database is only opened by its owner.
func provideStore(p Params, _ *lock.Lock, logger *zap.Logger) (*store.DB, error) {
	dbPath := profile.SessionDBPath(p.Profile)
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}
	result, err := db.Migrate()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	if result.Changed {
		logger.Info("migrations applied", zap.Uint("from", result.From), zap.Uint("version", result.Version))
	} else {
		logger.Info("migrations up to date", zap.Uint("version", result.Version))
	}
	logger.Info("store initialized", zap.String("path", dbPath))
	return db, nil
}

func provideGateway(p Params, logger *zap.Logger) *gateway.Client {
	baseURL := p.BaseURL
	if baseURL == "" {
		baseURL = p.Config.Server.BaseURL
	}
	return gateway.New(baseURL, p.HTTPClient, logger.Named("gateway"))
}

func providePush(p Params, b *bus.Bus, logger *zap.Logger) *push.Client {
	return push.New(push.Config{
		URL:               p.Config.Server.PushURL,
		ReconnectDelay:    p.Config.Push.ReconnectDelay.Duration,
		ReconnectAttempts: p.Config.Push.ReconnectAttempts,
	}, b, logger.Named("push"), p.Dial)
}

func provideEngine(p Params, gw *gateway.Client, pc *push.Client, b *bus.Bus, logger *zap.Logger) *intsync.Engine {
	return intsync.NewEngine(gw, pc, b, logger.Named("sync"), p.Config.Sync.PageSize)
}

func provideCoordinator(db *store.DB, gw *gateway.Client, engine *intsync.Engine, pc *push.Client, b *bus.Bus, logger *zap.Logger) *auth.Coordinator {
	return auth.NewCoordinator(db, gw, engine, pc, b, logger.Named("auth"))
}

func provideApp(p Params, logger *zap.Logger, b *bus.Bus, db *store.DB, gw *gateway.Client, pc *push.Client, engine *intsync.Engine, coord *auth.Coordinator) *App {
	return &App{
		Profile:     p.Profile,
		Logger:      logger,
		Bus:         b,
		Store:       db,
		Gateway:     gw,
		Push:        pc,
		Engine:      engine,
		Coordinator: coord,
	}
}

func registerLifecycle(lc fx.Lifecycle, lk *lock.Lock, db *store.DB, pc *push.Client, engine *intsync.Engine, coord *auth.Coordinator, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			engine.Start(context.Background())
			return coord.Init(ctx)
		},
		OnStop: func(_ context.Context) error {
			engine.Stop()
			pc.Disconnect()
			if err := db.Close(); err != nil {
				logger.Warn("error closing store", zap.Error(err))
			}
			if err := lk.Release(); err != nil {
				logger.Warn("error releasing lock", zap.Error(err))
			}
			logger.Info("stopped")
			_ = logger.Sync()
			return nil
		},
	})
}
