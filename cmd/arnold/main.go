package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/arnoldlabs/arnold/internal/config"
	"github.com/arnoldlabs/arnold/internal/googleauth"
	"github.com/arnoldlabs/arnold/internal/handlers"
	"github.com/arnoldlabs/arnold/internal/link"
	"github.com/arnoldlabs/arnold/internal/linktoken"
	"github.com/arnoldlabs/arnold/internal/logger"
	"github.com/arnoldlabs/arnold/internal/metrics"
	"github.com/arnoldlabs/arnold/internal/relay"
	"github.com/arnoldlabs/arnold/internal/server"
	"github.com/arnoldlabs/arnold/internal/slackbot"
	"github.com/arnoldlabs/arnold/internal/store"
	"github.com/arnoldlabs/arnold/internal/version"
)

func provideConfig() (config.Config, error) {
	cfgPath := os.Getenv("CONFIG_PATH")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func provideLogger(cfg config.Config) *slog.Logger {
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return logger.L
}

func provideRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}

func provideMetricsCollector(reg *prometheus.Registry) *metrics.Collector {
	return metrics.NewCollector(reg)
}

func provideStoreClient(log *slog.Logger, cfg config.Config) *store.Client {
	return store.NewClient(log, cfg.Store.BaseURL, cfg.Store.APIKey, cfg.Store.Timeout())
}

func provideExchanger(log *slog.Logger, cfg config.Config) *googleauth.Exchanger {
	return googleauth.NewExchanger(log, cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.Google.RedirectURL)
}

func provideStateSigner(cfg config.Config) *linktoken.Signer {
	return linktoken.NewSigner(cfg.Google.StateSecret, cfg.Google.StateTTL())
}

func provideMessenger(log *slog.Logger, cfg config.Config) *slackbot.Messenger {
	return slackbot.NewMessenger(log, cfg.Slack.BotToken)
}

func provideLinkService(log *slog.Logger, st *store.Client, ex *googleauth.Exchanger,
	signer *linktoken.Signer, msg *slackbot.Messenger, rec *metrics.Collector,
) *link.Service {
	return link.NewService(log, st, ex, signer, msg, rec)
}

func provideRelayService(log *slog.Logger, cfg config.Config, rec *metrics.Collector) *relay.Service {
	return relay.NewService(log, cfg.Engine.WebhookURL, cfg.Slack.BotName, cfg.Engine.Timeout(), rec)
}

func provideMetricsHandler(reg *prometheus.Registry) *handlers.MetricsHandler {
	return handlers.NewMetricsHandler(reg)
}

func main() {
	fx.New(
		fx.Provide(
			provideConfig,
			provideLogger,
			provideRegistry,
			provideMetricsCollector,

			provideStoreClient,
			provideExchanger,
			provideStateSigner,
			provideMessenger,
			provideLinkService,
			provideRelayService,

			provideServerHandler(handlers.NewHealthHandler),
			provideServerHandler(provideMetricsHandler),
			provideServerHandler(handlers.NewCommandsHandler),
			provideServerHandler(handlers.NewOAuthHandler),
			provideServerHandler(handlers.NewInteractionsHandler),
			provideServerHandler(handlers.NewEventsHandler),

			provideServer,
		),
		fx.Invoke(
			startServer,
		),
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger.With(slog.String("component", "fx"))}
		}),
	).Run()
}

func provideServerHandler(fn any) any {
	return fx.Annotate(
		fn,
		fx.As(new(server.Handler)),
		fx.ResultTags(`group:"server_handlers"`),
	)
}

type serverParams struct {
	fx.In

	Logger         *slog.Logger
	Config         config.Config
	ServerHandlers []server.Handler `group:"server_handlers"`
}

func provideServer(params serverParams) *server.Server {
	return server.NewServer(params.Logger, params.Config.Server.Addr, params.Config.Slack.SigningSecret, params.ServerHandlers...)
}

func startServer(
	lc fx.Lifecycle,
	logger *slog.Logger,
	srv *server.Server,
	shutdowner fx.Shutdowner,
) {
	fmt.Printf("Starting Arnold Slack backend %s\n", version.GetInfo())

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("server failed", slog.Any("error", err))
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := srv.Stop(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server stop: %w", err)
			}
			return nil
		},
	})
}
