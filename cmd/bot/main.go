package main

import (
	"context"
	"database/sql"
	"net/http"
	"os/signal"
	"syscall"

	_ "github.com/go-sql-driver/mysql"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"hotel_scout/internal/adapters/admin"
	"hotel_scout/internal/adapters/currency"
	"hotel_scout/internal/adapters/hotelapi"
	"hotel_scout/internal/adapters/observability"
	redisad "hotel_scout/internal/adapters/redis"
	"hotel_scout/internal/adapters/telegram"
	"hotel_scout/internal/app"
	"hotel_scout/internal/shared"
	mysqlrepo "hotel_scout/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()
	cfg.MustValidate()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// db
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	if err := db.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	repo := mysqlrepo.New(db)
	if err := repo.Init(ctx); err != nil {
		log.Fatal().Err(err).Msg("schema init failed")
	}
	if users, err := repo.LoadAll(ctx); err != nil {
		log.Fatal().Err(err).Msg("loading users failed")
	} else {
		log.Info().Int("users", len(users)).Msg("database connection ok")
	}

	// deps
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	source, err := hotelapi.New(cfg.HotelsBase, cfg.HotelsKey, cfg.HotelsHost, cfg.Locale, 5)
	if err != nil {
		log.Fatal().Err(err).Msg("hotel source init failed")
	}
	converter := currency.New(cfg.CurrencyBase, cfg.CurrencyKey, cache, cfg.CacheTTL)
	orch := app.NewOrchestrator(source, app.OrchestratorConfig{
		PageSize:      cfg.PageSize,
		RetryLimit:    cfg.RetryLimit,
		EnrichWorkers: cfg.EnrichWorkers,
	}, log.Logger)

	// telegram
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		log.Fatal().Err(err).Msg("telegram auth failed")
	}
	log.Info().Str("bot", bot.Self.UserName).Msg("telegram authorized")

	channel := telegram.NewChannel(bot)
	cities := hotelapi.NewCachedDirectory(source, cache, int(cfg.CacheTTL.Seconds()))
	ctrl := app.NewController(repo, orch, cities, channel, converter, app.IsGreeting, log.Logger)

	// admin sidecar: /healthz and /metrics
	reg := observability.InitRegistry()
	adminSrv := &http.Server{Addr: cfg.AdminAddr, Handler: admin.New(db, reg, log.Logger).Mux()}
	go func() {
		log.Info().Str("addr", cfg.AdminAddr).Msg("admin server listening")
		if err := adminSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("admin server failed")
		}
	}()

	loop := telegram.NewLoop(bot, ctrl, log.Logger)
	log.Info().Msg("update loop started")
	if err := loop.Run(ctx); err != nil && err != context.Canceled {
		log.Error().Err(err).Msg("update loop stopped")
	}

	_ = adminSrv.Shutdown(context.Background())
	log.Info().Msg("shutdown complete")
}
