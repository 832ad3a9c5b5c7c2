// draftd runs the authoritative side of the draft room: the HTTP API,
// the deadline scheduler and the outbox relay.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/draftpool/draftroom/internal/dbconfig"
	"github.com/draftpool/draftroom/internal/draft/api"
	"github.com/draftpool/draftroom/internal/draft/autopick"
	"github.com/draftpool/draftroom/internal/draft/draft"
	"github.com/draftpool/draftroom/internal/draft/monitor"
	"github.com/draftpool/draftroom/internal/draft/outbox"
	"github.com/draftpool/draftroom/internal/draft/pick"
	"github.com/draftpool/draftroom/internal/models"
	"github.com/draftpool/draftroom/internal/roster"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := loadConfig(getEnv("CONFIG_PATH", "config.yaml"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dbCfg := dbconfig.NewConfigFromEnv()

	pool, err := dbCfg.OpenPool(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect pgx pool")
	}
	defer pool.Close()

	sqlDB, err := dbCfg.OpenSQL(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database/sql")
	}
	defer sqlDB.Close()

	if err := runMigrations(sqlDB, cfg.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	clock := clockwork.NewRealClock()

	// Stores.
	draftRepo := draft.NewRepository(pool)
	pickRepo := pick.NewRepository(pool)
	rosterRepo := roster.NewRepository(pool)
	outboxRepo := outbox.NewRepository(sqlDB)

	// Domain services.
	draftApp := draft.NewApp(draftRepo, outboxRepo, clock)
	committer := pick.NewCommitter(pickRepo, clock)
	engine := autopick.NewEngine(&autopickReader{
		drafts: draftRepo,
		roster: rosterRepo,
		picks:  pickRepo,
	}, committer)

	sched := monitor.New(draftApp, engine, draftApp, cfg.Scheduler.BatchSize)

	// Outbox relay to JetStream.
	jsCfg := outbox.DefaultJetStreamConfig()
	jsCfg.URL = cfg.NATS.URL
	jsCfg.StreamName = cfg.NATS.Stream
	jsCfg.SubjectPrefix = cfg.NATS.SubjectPrefix
	publisher, err := outbox.NewJetStreamPublisher(jsCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create JetStream publisher")
	}
	defer publisher.Close()

	listenerCfg := outbox.DefaultListenerConfig()
	listenerCfg.DatabaseURL = dbCfg.DSN()
	listenerCfg.NotifyChannel = cfg.Outbox.NotifyChannel
	listenerCfg.FallbackInterval = cfg.Outbox.FallbackInterval
	listenerCfg.BatchSize = cfg.Outbox.BatchSize
	relay, err := outbox.NewListener(outboxRepo, publisher, listenerCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create outbox listener")
	}

	handler := api.NewHandler(draftApp, committer, pickRepo, sched)
	server := setupServer(cfg, handler)

	go func() {
		if err := sched.Run(ctx); err != nil {
			log.Error().Err(err).Msg("deadline monitor exited")
			cancel()
		}
	}()

	go func() {
		if err := relay.Start(ctx); err != nil {
			log.Error().Err(err).Msg("outbox relay exited")
			cancel()
		}
	}()

	go func() {
		log.Info().Str("addr", server.Addr).Msg("draftd HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	select {
	case sig := <-sigChan:
		log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	cancel()

	log.Info().Msg("draftd shutdown complete")
}

// autopickReader stitches the read surfaces the auto-pick engine
// needs from the individual repositories.
type autopickReader struct {
	drafts *draft.Repository
	roster *roster.Repository
	picks  *pick.Repository
}

func (r *autopickReader) GetDraft(ctx context.Context, draftID uuid.UUID) (*models.Draft, error) {
	return r.drafts.GetDraft(ctx, draftID)
}

func (r *autopickReader) Roster(ctx context.Context, leagueID uuid.UUID) ([]models.LeagueMember, error) {
	return r.roster.Roster(ctx, leagueID)
}

func (r *autopickReader) AvailableTeams(ctx context.Context, draftID uuid.UUID) ([]models.LeagueTeam, error) {
	return r.picks.AvailableTeams(ctx, draftID)
}
