package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nicway1/truelog-cli/internal/api"
	"github.com/nicway1/truelog-cli/internal/app"
	"github.com/nicway1/truelog-cli/internal/dashboard"
	"github.com/nicway1/truelog-cli/internal/kvstore"
	"github.com/nicway1/truelog-cli/internal/logging"
	"github.com/nicway1/truelog-cli/internal/mention"
	"github.com/nicway1/truelog-cli/internal/model"
	"github.com/nicway1/truelog-cli/internal/notify"
	"github.com/nicway1/truelog-cli/internal/report"
	"github.com/nicway1/truelog-cli/internal/session"
	"github.com/nicway1/truelog-cli/internal/tabs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "truelog: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", model.DefaultConfigPath(), "path to config file")
	logLevel := flag.String("log-level", "info", "log level (trace, debug, info, warn, error)")
	flag.Parse()

	cfg, err := model.LoadConfig(*configPath)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("creating data directory %s: %w", cfg.DataDir, err)
	}

	log := logging.New(cfg.DataDir, *logLevel)
	log.Info().Str("config", *configPath).Msg("starting truelog")

	kv, err := kvstore.NewSQLite(filepath.Join(cfg.DataDir, "truelog.db"))
	if err != nil {
		return err
	}
	defer kv.Close()

	sess := session.New(kv, session.Keyring{}, log)
	client := api.NewClient(
		cfg.API.BaseURL,
		time.Duration(cfg.API.TimeoutSec)*time.Second,
		sess.Token,
	)

	tabMgr := tabs.New(kv, log)
	notifStore := notify.New(client, log)
	dashStore := dashboard.New(kv, client, log)
	savedReports := report.NewSavedStore(kv, log)
	suggester := mention.NewSuggester(client)

	// Polling is gated on terminal focus, the TUI's stand-in for tab
	// visibility. Focus events flip the flag; the poller checks it
	// before every request.
	visible := &atomic.Bool{}
	visible.Store(true)
	poller := notify.NewPoller(
		notifStore,
		time.Duration(cfg.Notifications.PollIntervalSec)*time.Second,
		visible.Load,
		log,
	)
	defer poller.Stop()

	root := app.New(app.Deps{
		Config:       cfg,
		Client:       client,
		Session:      sess,
		Tabs:         tabMgr,
		Notify:       notifStore,
		Poller:       poller,
		Visible:      visible,
		Dashboard:    dashStore,
		SavedReports: savedReports,
		Suggester:    suggester,
		ExportDir:    filepath.Join(cfg.DataDir, "exports"),
		ConfigPath:   *configPath,
		Log:          log,
	})

	program := tea.NewProgram(root, tea.WithAltScreen(), tea.WithReportFocus())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("running program: %w", err)
	}

	return nil
}
