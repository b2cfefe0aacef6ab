// Package app assembles the gateway router service with fx.
package app

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"golang.org/x/time/rate"

	"github.com/marlonbarreto-git/nimbus-gateway-router/internal/config"
	"github.com/marlonbarreto-git/nimbus-gateway-router/internal/handler"
	"github.com/marlonbarreto-git/nimbus-gateway-router/internal/health"
	"github.com/marlonbarreto-git/nimbus-gateway-router/internal/ledger"
	"github.com/marlonbarreto-git/nimbus-gateway-router/internal/metrics"
	"github.com/marlonbarreto-git/nimbus-gateway-router/internal/orchestrator"
	"github.com/marlonbarreto-git/nimbus-gateway-router/internal/processor"
)

// Module provides every service component and registers their lifecycles.
// It expects config.Settings to be supplied.
var Module = fx.Module("gateway-router",
	fx.Provide(
		provideClock,
		metrics.New,
		provideRegistry,
		provideSweeper,
		provideStore,
		provideProcessor,
		provideOrchestrator,
		provideLimiter,
		provideHandler,
		provideServer,
	),
	fx.Invoke(registerLifecycle),
)

// Options returns the full option set for settings. extra options are
// applied last and may replace or decorate components.
func Options(settings config.Settings, extra ...fx.Option) fx.Option {
	return fx.Options(
		fx.Supply(settings),
		Module,
		fx.WithLogger(func() fxevent.Logger {
			l := &fxevent.SlogLogger{Logger: slog.Default()}
			l.UseLogLevel(slog.LevelDebug)
			return l
		}),
		fx.Options(extra...),
	)
}

// New creates the application.
func New(settings config.Settings, extra ...fx.Option) *fx.App {
	return fx.New(Options(settings, extra...))
}

func provideClock() clock.Clock {
	return clock.New()
}

func provideRegistry(s config.Settings, clk clock.Clock, m *metrics.Metrics) (*health.Registry, error) {
	reg := health.NewRegistry(
		health.WithClock(clk),
		health.WithWindow(s.HistoryWindow),
		health.WithObserver(m),
	)
	if err := reg.ValidateAndSetConfig(s.Gateways); err != nil {
		return nil, err
	}
	return reg, nil
}

func provideSweeper(s config.Settings, reg *health.Registry, clk clock.Clock) *health.Sweeper {
	return health.NewSweeper(reg, clk, s.HealthCheckInterval)
}

func provideStore(lc fx.Lifecycle, s config.Settings) ledger.Store {
	if s.LedgerBackend != config.LedgerRedis {
		return ledger.NewMemoryStore()
	}

	store := ledger.NewRedisStore(ledger.NewRedisClient(s.RedisAddr), s.RedisKeyPrefix)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := store.Ping(ctx); err != nil {
				return err
			}
			slog.Info("ledger_connected", "backend", config.LedgerRedis, "addr", s.RedisAddr)
			return nil
		},
		OnStop: func(context.Context) error {
			return store.Close()
		},
	})
	return store
}

func provideProcessor(s config.Settings) *processor.MockProcessor {
	return processor.NewFromSettings(s)
}

func provideOrchestrator(reg *health.Registry, store ledger.Store, proc *processor.MockProcessor, clk clock.Clock) *orchestrator.Orchestrator {
	return orchestrator.New(reg, store, proc, clk)
}

// provideLimiter returns nil, meaning unlimited, when RATE_LIMIT_RPS is 0.
func provideLimiter(s config.Settings) *rate.Limiter {
	if s.RateLimitRPS <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(s.RateLimitRPS), s.RateLimitBurst)
}

func provideHandler(orch *orchestrator.Orchestrator, proc *processor.MockProcessor, m *metrics.Metrics, limiter *rate.Limiter, clk clock.Clock) *handler.Handler {
	return handler.New(orch,
		handler.WithDegrader(proc),
		handler.WithMetrics(m),
		handler.WithRateLimiter(limiter),
		handler.WithClock(clk),
	)
}

func provideServer(s config.Settings, h *handler.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + s.Port,
		Handler:           h.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

type lifecycleParams struct {
	fx.In

	LC           fx.Lifecycle
	Shutdowner   fx.Shutdowner
	Sweeper      *health.Sweeper
	Orchestrator *orchestrator.Orchestrator
	Server       *http.Server
}

// registerLifecycle starts the sweeper before the server and stops them in
// reverse: the server drains, then in-flight simulations finish, then the
// sweeper stops.
func registerLifecycle(p lifecycleParams) {
	p.LC.Append(fx.Hook{
		OnStart: func(context.Context) error {
			p.Sweeper.Start()
			return nil
		},
		OnStop: func(context.Context) error {
			p.Sweeper.Stop()
			return nil
		},
	})

	p.LC.Append(fx.Hook{
		OnStop: func(context.Context) error {
			p.Orchestrator.Close()
			return nil
		},
	})

	p.LC.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ln, err := net.Listen("tcp", p.Server.Addr)
			if err != nil {
				return err
			}
			slog.Info("server_starting", "addr", ln.Addr().String())
			go func() {
				if err := p.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					slog.Error("server_failed", "error", err)
					_ = p.Shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			slog.Info("server_stopping")
			return p.Server.Shutdown(ctx)
		},
	})
}
