package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/daily-briefing/internal/domain/auth"
	"github.com/yanqian/daily-briefing/internal/domain/briefing"
	"github.com/yanqian/daily-briefing/internal/domain/cve"
	"github.com/yanqian/daily-briefing/internal/domain/news"
	"github.com/yanqian/daily-briefing/internal/domain/wardrobe"
	"github.com/yanqian/daily-briefing/internal/domain/weather"
	"github.com/yanqian/daily-briefing/internal/infra/archive"
	"github.com/yanqian/daily-briefing/internal/infra/config"
	"github.com/yanqian/daily-briefing/internal/infra/feeds"
	"github.com/yanqian/daily-briefing/internal/infra/httpclient"
	"github.com/yanqian/daily-briefing/internal/infra/mailer"
	"github.com/yanqian/daily-briefing/internal/infra/nvd"
	"github.com/yanqian/daily-briefing/internal/infra/nws"
	"github.com/yanqian/daily-briefing/internal/infra/schedulestore"
	"github.com/yanqian/daily-briefing/internal/infra/snapshot"
	"github.com/yanqian/daily-briefing/internal/infra/vault"
	"github.com/yanqian/daily-briefing/internal/infra/wardrobecfg"
	httpiface "github.com/yanqian/daily-briefing/internal/interface/http"
	"github.com/yanqian/daily-briefing/pkg/util"
)

func provideLocation(cfg *config.Config) (*time.Location, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}
	return loc, nil
}

func provideAuthConfig(cfg *config.Config) auth.Config {
	return auth.Config{
		Secret:   cfg.Auth.JWTSecret,
		Issuer:   cfg.Auth.Issuer,
		TokenTTL: cfg.Auth.TokenTTL,
	}
}

func provideSnapshotStore(cfg *config.Config) *snapshot.FileStore {
	return snapshot.NewFileStore(cfg.Output.Dir)
}

func provideWeatherConfig() weather.Config {
	return weather.Config{MessagePeriods: 3}
}

func provideNWSClient(cfg *config.Config, logger *slog.Logger) *nws.Client {
	client := httpclient.New(cfg.Weather.Timeout, cfg.Weather.Retry, logger.With("upstream", "nws"))
	return nws.NewClient(cfg.Weather.URL, cfg.Weather.UserAgent, client)
}

func provideNewsConfig(cfg *config.Config, loc *time.Location) news.Config {
	return news.Config{
		Topic:    cfg.News.Topic,
		URLs:     cfg.News.URLs,
		Keywords: cfg.News.Keywords,
		Location: loc,
	}
}

func provideFeedParser(cfg *config.Config, logger *slog.Logger) *feeds.Parser {
	client := httpclient.New(cfg.News.Timeout, cfg.News.Retry, logger.With("upstream", "rss"))
	return feeds.NewParser(client, cfg.Weather.UserAgent)
}

func provideCVEConfig(cfg *config.Config, loc *time.Location) cve.Config {
	return cve.Config{
		Endpoints: cfg.CVE.Endpoints,
		Keywords:  cfg.CVE.Keywords,
		Location:  loc,
	}
}

func provideNVDClient(cfg *config.Config, logger *slog.Logger) *nvd.Client {
	client := httpclient.New(cfg.CVE.Timeout, cfg.CVE.Retry, logger.With("upstream", "nvd"))
	return nvd.NewClient(cfg.CVE.URL, cfg.CVE.APIKey, client)
}

func provideWardrobeConfig(cfg *config.Config) (wardrobe.Config, error) {
	generationDay, ok := util.ParseWeekday(cfg.Wardrobe.GenerationDay)
	if !ok {
		return wardrobe.Config{}, fmt.Errorf("wardrobe.generationDay %q is not a weekday", cfg.Wardrobe.GenerationDay)
	}
	workdays := make([]time.Weekday, 0, len(cfg.Wardrobe.Workdays))
	for _, name := range cfg.Wardrobe.Workdays {
		day, ok := util.ParseWeekday(name)
		if !ok {
			return wardrobe.Config{}, fmt.Errorf("wardrobe.workdays: %q is not a weekday", name)
		}
		workdays = append(workdays, day)
	}
	if len(workdays) == 0 {
		workdays = wardrobe.DefaultWorkdays()
	}
	order := wardrobe.Order(strings.ToLower(strings.TrimSpace(cfg.Wardrobe.PriorityOrder)))
	if order == "" {
		order = wardrobe.OrderAscending
	}
	return wardrobe.Config{
		GenerationDay: generationDay,
		Workdays:      workdays,
		Order:         order,
		Seed:          cfg.Wardrobe.Seed,
	}, nil
}

func provideRulesLoader(cfg *config.Config, logger *slog.Logger) *wardrobecfg.Loader {
	return wardrobecfg.NewLoader(cfg.Wardrobe.RulesPath, cfg.Wardrobe.DaysOffPath, logger)
}

// provideScheduleStore picks the configured backend and degrades to the file
// store when a network backend cannot be reached.
func provideScheduleStore(cfg *config.Config, logger *slog.Logger) wardrobe.ScheduleStore {
	fallback := schedulestore.NewFileStore(cfg.Store.Dir)
	switch strings.ToLower(cfg.Store.Driver) {
	case "memory":
		logger.Info("schedule memory store enabled")
		return schedulestore.NewMemoryStore()
	case "postgres":
		store, err := newPostgresScheduleStore(cfg.Store.Postgres)
		if err != nil {
			logger.Error("postgres schedule store unavailable, using file store", "error", err)
			return fallback
		}
		logger.Info("schedule postgres store enabled")
		return store
	case "valkey":
		store, err := newValkeyScheduleStore(cfg.Store.Valkey)
		if err != nil {
			logger.Error("valkey schedule store unavailable, using file store", "error", err)
			return fallback
		}
		logger.Info("schedule valkey store enabled", "addr", cfg.Store.Valkey.Addr)
		return store
	default:
		return fallback
	}
}

func newPostgresScheduleStore(cfg config.PostgresConfig) (*schedulestore.PostgresStore, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, fmt.Errorf("store.postgres.dsn is not set")
	}
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = cfg.MinConns
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	store := schedulestore.NewPostgresStore(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return store, nil
}

func newValkeyScheduleStore(cfg config.ValkeyConfig) (*schedulestore.ValkeyStore, error) {
	opt, err := buildValkeyOptions(cfg.Addr)
	if err != nil {
		return nil, err
	}
	client, err := valkey.NewClient(opt)
	if err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return schedulestore.NewValkeyStore(client, cfg.Prefix, cfg.TTL), nil
}

func buildValkeyOptions(addr string) (valkey.ClientOption, error) {
	if strings.TrimSpace(addr) == "" {
		return valkey.ClientOption{}, fmt.Errorf("store.valkey.addr is not set")
	}
	if strings.Contains(addr, "://") {
		return valkey.ParseURL(addr)
	}
	return valkey.ClientOption{InitAddress: []string{addr}}, nil
}

func provideArchive(cfg *config.Config, logger *slog.Logger) (briefing.Archive, error) {
	if strings.EqualFold(cfg.Archive.Driver, "r2") {
		r2 := cfg.Archive.R2
		store, err := archive.NewR2Archive(r2.Endpoint, r2.AccessKey, r2.SecretKey, r2.Bucket, r2.Region, r2.Prefix, logger)
		if err != nil {
			return nil, fmt.Errorf("init r2 archive: %w", err)
		}
		logger.Info("r2 archive enabled", "bucket", r2.Bucket)
		return store, nil
	}
	return archive.NewLocalArchive(cfg.Archive.Dir), nil
}

func provideMailer(cfg *config.Config, logger *slog.Logger) briefing.Mailer {
	if !strings.EqualFold(cfg.Mail.Mode, "smtp") {
		logger.Info("mock mailer enabled, emails are logged only")
		return mailer.NewMockMailer(logger)
	}
	smtpMailer := mailer.NewSMTPMailer(vault.New(cfg.Mail.CredentialsPath, cfg.Mail.KeyPath), cfg.Mail.Timeout, logger)
	if strings.EqualFold(cfg.Mail.Auth, "xoauth2") {
		oauth := cfg.Mail.OAuth
		smtpMailer = smtpMailer.WithXOAuth2(mailer.GoogleTokenSource(context.Background(), oauth.ClientID, oauth.ClientSecret, oauth.RefreshToken))
	}
	return smtpMailer
}

// provideJanitor sweeps the snapshot dir and the local archive. Weekly plans
// live in their own dir and outlive a single day.
func provideJanitor(cfg *config.Config, logger *slog.Logger) *snapshot.Janitor {
	dirs := []string{cfg.Output.Dir}
	if !strings.EqualFold(cfg.Archive.Driver, "r2") {
		dirs = append(dirs, cfg.Archive.Dir)
	}
	return snapshot.NewJanitor(logger, dirs...)
}

func provideBriefingConfig(cfg *config.Config, loc *time.Location) (briefing.Config, error) {
	cleanupDay, ok := util.ParseWeekday(cfg.Briefing.CleanupDay)
	if !ok {
		return briefing.Config{}, fmt.Errorf("briefing.cleanupDay %q is not a weekday", cfg.Briefing.CleanupDay)
	}
	return briefing.Config{Location: loc, CleanupDay: cleanupDay}, nil
}

func provideHandlerConfig(loc *time.Location, wcfg wardrobe.Config) httpiface.HandlerConfig {
	return httpiface.HandlerConfig{Location: loc, GenerationDay: wcfg.GenerationDay}
}
