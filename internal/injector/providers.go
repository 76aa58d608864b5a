package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/vrkit/internal/config"
	"github.com/zeusync/vrkit/internal/core/observability/log"
	"github.com/zeusync/vrkit/internal/core/protocol/websocket"
	"github.com/zeusync/vrkit/internal/server"
)

// App is everything the CLI runs.
type App struct {
	Config config.Config
	Logger *log.Logger
	Feed   *websocket.Feed
	Server *server.Server
}

// ProviderSet builds an App from a Config.
var ProviderSet = wire.NewSet(
	ProvideLogger,
	ProvideFeed,
	ProvideServer,
	wire.Struct(new(App), "*"),
)

func ProvideLogger(cfg config.Config) *log.Logger {
	return log.New(cfg.LogLevel())
}

func ProvideFeed(cfg config.Config, logger *log.Logger) *websocket.Feed {
	return websocket.NewFeed(websocket.Config{
		Addr:         cfg.Feed.Addr,
		WriteTimeout: cfg.Feed.WriteTimeout,
	}, logger.Named("feed"))
}

// ProvideServer hands the feed to the server only when it is enabled.
func ProvideServer(cfg config.Config, logger *log.Logger, feed *websocket.Feed) (*server.Server, error) {
	var opts []server.Option
	if cfg.Feed.Enabled {
		opts = append(opts, server.WithPublisher(feed))
	}
	return server.New(cfg, logger, opts...)
}
