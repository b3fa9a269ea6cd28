//go:build wireinject
// +build wireinject

package main

import (
	"log/slog"

	"github.com/google/wire"

	"github.com/yanqian/daily-briefing/internal/bootstrap"
	"github.com/yanqian/daily-briefing/internal/domain/auth"
	"github.com/yanqian/daily-briefing/internal/domain/briefing"
	"github.com/yanqian/daily-briefing/internal/domain/cve"
	"github.com/yanqian/daily-briefing/internal/domain/news"
	"github.com/yanqian/daily-briefing/internal/domain/wardrobe"
	"github.com/yanqian/daily-briefing/internal/domain/weather"
	"github.com/yanqian/daily-briefing/internal/infra/config"
	"github.com/yanqian/daily-briefing/internal/infra/feeds"
	"github.com/yanqian/daily-briefing/internal/infra/nvd"
	"github.com/yanqian/daily-briefing/internal/infra/nws"
	"github.com/yanqian/daily-briefing/internal/infra/snapshot"
	"github.com/yanqian/daily-briefing/internal/infra/wardrobecfg"
	httpiface "github.com/yanqian/daily-briefing/internal/interface/http"
)

var domainSet = wire.NewSet(
	provideLocation,
	provideSnapshotStore,
	provideWeatherConfig,
	provideNWSClient,
	provideNewsConfig,
	provideFeedParser,
	provideCVEConfig,
	provideNVDClient,
	provideWardrobeConfig,
	provideRulesLoader,
	provideScheduleStore,
	provideArchive,
	provideMailer,
	provideJanitor,
	provideBriefingConfig,
	weather.NewService,
	news.NewService,
	cve.NewService,
	wardrobe.NewService,
	briefing.NewService,
	wire.Bind(new(weather.ForecastClient), new(*nws.Client)),
	wire.Bind(new(weather.SnapshotStore), new(*snapshot.FileStore)),
	wire.Bind(new(news.FeedParser), new(*feeds.Parser)),
	wire.Bind(new(news.SnapshotStore), new(*snapshot.FileStore)),
	wire.Bind(new(cve.Client), new(*nvd.Client)),
	wire.Bind(new(cve.SnapshotStore), new(*snapshot.FileStore)),
	wire.Bind(new(wardrobe.ForecastSource), new(weather.Service)),
	wire.Bind(new(wardrobe.RulesLoader), new(*wardrobecfg.Loader)),
	wire.Bind(new(briefing.WeatherRefresher), new(weather.Service)),
	wire.Bind(new(briefing.WardrobePlanner), new(wardrobe.Service)),
	wire.Bind(new(briefing.NewsCollector), new(news.Service)),
	wire.Bind(new(briefing.CVECollector), new(cve.Service)),
	wire.Bind(new(briefing.Janitor), new(*snapshot.Janitor)),
)

func initializeApp(cfg *config.Config, logger *slog.Logger) (*bootstrap.App, error) {
	wire.Build(
		domainSet,
		provideAuthConfig,
		provideHandlerConfig,
		auth.NewService,
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewScheduler,
		bootstrap.NewApp,
	)
	return nil, nil
}

func initializeAuth(cfg *config.Config, logger *slog.Logger) auth.Service {
	wire.Build(provideAuthConfig, auth.NewService)
	return nil
}
