package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/alexanderramin/worktime/internal/autosave"
	"github.com/alexanderramin/worktime/internal/cli"
	"github.com/alexanderramin/worktime/internal/config"
	"github.com/alexanderramin/worktime/internal/db"
	"github.com/alexanderramin/worktime/internal/gateway"
	"github.com/alexanderramin/worktime/internal/httpapi"
	"github.com/alexanderramin/worktime/internal/identity"
	"github.com/alexanderramin/worktime/internal/logging"
	"github.com/alexanderramin/worktime/internal/parse"
	"github.com/alexanderramin/worktime/internal/repository"
	"github.com/alexanderramin/worktime/internal/service"
	"github.com/mattn/go-isatty"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(config.LoadOptions{})
	if err != nil {
		return err
	}
	if err := cfg.EnsureHome(); err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	log, err := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}

	// Open database
	database, err := db.OpenDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	local := gateway.NewLocal(database, db.NewSQLiteUnitOfWork(database))
	statuses := service.NewStatusBoard()

	gw, closeRemote, err := newGateway(cfg, local, statuses, log)
	if err != nil {
		return err
	}
	defer closeRemote()

	provider, err := newProvider(context.Background(), cfg, database, log)
	if err != nil {
		return err
	}

	observer := service.NewLogUseCaseObserver(logging.Component(log, "usecase"))
	auth := service.NewAuthService(
		provider,
		identity.NewStore(repository.NewSQLiteAuthSessionRepo(database)),
		identity.NewFlow(identity.DefaultAuthGuard, nil),
		log,
		observer,
	)

	trackers := service.NewRegistry(service.TrackerConfig{
		Gateway:  gw,
		History:  local,
		Statuses: statuses,
		Rules:    cfg.Rules.Domain(),
		Location: loc,
		Autosave: autosave.Config{
			Debounce:       cfg.Autosave.Debounce,
			ActiveInterval: cfg.Autosave.ActiveInterval,
			IdleInterval:   cfg.Autosave.IdleInterval,
		},
		Logger:   log,
		Observer: observer,
	})
	defer func() {
		if err := trackers.Close(); err != nil {
			log.Error().Err(err).Msg("closing trackers")
		}
	}()

	app := &cli.App{
		Auth:     auth,
		Trackers: trackers,
		Location: loc,
		Now:      time.Now,
	}

	// Forms and the live dashboard need a terminal on both ends.
	app.IsInteractive = func() bool {
		in := isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
		out := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
		return in && out
	}

	app.Serve = func(ctx context.Context) error {
		httpLog := logging.Component(log, "http")
		router := httpapi.NewRouter(httpLog, httpapi.NewHandler(httpLog, provider, trackers))
		return httpapi.NewServer(cfg.HTTP.Addr, router, httpLog).ListenAndServe(ctx)
	}

	rootCmd := cli.NewRootCmd(app)
	return rootCmd.Execute()
}

// newGateway picks the snapshot backend. Remote backends write through the
// local store so history and offline use keep working.
func newGateway(cfg config.Config, local *gateway.Local, statuses *service.StatusBoard, log zerolog.Logger) (gateway.Gateway, func(), error) {
	noop := func() {}
	cached := func(remote gateway.Gateway) gateway.Gateway {
		return gateway.NewCached(local, remote,
			gateway.WithLogger(logging.Component(log, "gateway")),
			gateway.WithStatusHook(statuses.ReportIdentity),
		)
	}

	switch cfg.Backend {
	case config.BackendLocal:
		return local, noop, nil
	case config.BackendParse:
		return cached(gateway.NewParse(newParseClient(cfg))), noop, nil
	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		closeClient := func() {
			if err := client.Close(); err != nil {
				log.Warn().Err(err).Msg("closing redis client")
			}
		}
		return cached(gateway.NewRedis(client, cfg.Redis.Timeout)), closeClient, nil
	default:
		return nil, noop, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

func newParseClient(cfg config.Config) *parse.Client {
	return parse.NewClient(parse.Config{
		ServerURL: cfg.Parse.ServerURL,
		AppID:     cfg.Parse.AppID,
		RESTKey:   cfg.Parse.RESTKey,
		Timeout:   cfg.Parse.Timeout,
	})
}

func newProvider(ctx context.Context, cfg config.Config, database *sql.DB, log zerolog.Logger) (identity.Provider, error) {
	switch cfg.Identity.Provider {
	case config.ProviderLocal:
		secret, err := identity.LoadOrCreateSecret(ctx, repository.NewSQLiteSettingsRepo(database))
		if err != nil {
			return nil, err
		}
		return identity.NewLocal(
			repository.NewSQLiteUserRepo(database),
			identity.NewTokenIssuer(secret, cfg.Identity.TokenTTL, nil),
			identity.WithLocalLogger(logging.Component(log, "identity")),
		), nil
	case config.ProviderParse:
		return identity.NewParse(newParseClient(cfg)), nil
	default:
		return nil, fmt.Errorf("unknown identity provider %q", cfg.Identity.Provider)
	}
}
