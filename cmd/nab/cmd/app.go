package cmd

import (
	"log/slog"
	"os"
	"strings"

	"github.com/jameskraus/nab/pkg/config"
	"github.com/jameskraus/nab/pkg/db"
	"github.com/jameskraus/nab/pkg/journal"
	"github.com/jameskraus/nab/pkg/mutate"
	"github.com/jameskraus/nab/pkg/revert"
	"github.com/jameskraus/nab/pkg/ynab"
)

// app bundles the wired-up components every command needs.
type app struct {
	cfg     *config.Config
	conn    *db.Connection
	client  *ynab.Client
	service *mutate.Service
	store   *journal.Store
	engine  *revert.Engine
}

// newApp loads configuration and wires the client, mutation service,
// journal store and revert engine. Callers must Close the returned app.
func newApp(waitForCooldown bool) *app {
	cfg, err := config.Load(cfgFile)
	exitOnError(err, "failed to load configuration")
	exitOnError(cfg.Validate(), "invalid configuration")

	settings, err := config.LoadSettings(settingsFile)
	exitOnError(err, "failed to load settings")

	slog.Debug("opening journal database", "path", cfg.DB.Path)
	conn, err := db.Open(cfg.DB.Path)
	exitOnError(err, "failed to open journal database")

	client, err := ynab.NewClient(ynab.ClientConfig{
		APIURL:   cfg.YNAB.APIURL,
		BudgetID: cfg.YNAB.BudgetID,
		Tokens:   cfg.YNAB.Tokens,
		Timeout:  cfg.YNAB.Timeout,
		Retry: ynab.RetryConfig{
			Retries:   settings.Retry.Retries,
			BaseDelay: settings.BaseDelayDuration(),
			MaxDelay:  settings.MaxDelayDuration(),
			Jitter:    settings.Retry.Jitter,
		},
		Pool: ynab.PoolConfig{
			DefaultCooldown: settings.DefaultCooldownDuration(),
			WaitForCooldown: settings.Pool.WaitForCooldown || waitForCooldown,
		},
	})
	if err != nil {
		conn.Close()
		exitOnError(err, "failed to create API client")
	}
	slog.Debug("credential pool ready", "size", client.Pool().Size())

	service := mutate.NewService(client, slog.Default())
	store := journal.NewStore(conn)
	engine := revert.New(store, service, client, slog.Default())

	return &app{
		cfg:     cfg,
		conn:    conn,
		client:  client,
		service: service,
		store:   store,
		engine:  engine,
	}
}

// Close releases the app's resources.
func (a *app) Close() {
	if a.conn != nil {
		a.conn.Close()
	}
}

// commandLine reconstructs the invocation for the journal payload.
func commandLine() string {
	return strings.Join(os.Args[1:], " ")
}
