// Command cardgenie runs the study-companion backend: it keeps flashcard
// sources in sync with a sqlite database and serves the review-session
// API the study UI talks to.
package main

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/cardgenie/cardgenie/internal/config"
	"github.com/cardgenie/cardgenie/internal/deck"
	"github.com/cardgenie/cardgenie/internal/session"
	"github.com/cardgenie/cardgenie/internal/srs"
	"github.com/cardgenie/cardgenie/internal/storage"
	"github.com/cardgenie/cardgenie/internal/web"
)

func main() {
	def := config.Default()
	flags := pflag.NewFlagSet("cardgenie", pflag.ExitOnError)
	configPath := flags.String("config", "", "Path to a YAML config file")
	addSource := flags.String("add-source", "", "Register a card source (directory or git URL) and exit")
	runSync := flags.Bool("sync", false, "Reconcile all sources and exit")
	flags.String("db_path", def.DBPath, "Path to the sqlite database file")
	flags.String("listen_addr", def.ListenAddr, "Address for the HTTP API")
	flags.String("repos_dir", def.ReposDir, "Directory for git source checkouts")
	if err := flags.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	cfg := config.LoadOrExit(*configPath, flags)

	db, err := storage.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "path", cfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.DBPath)

	switch {
	case *addSource != "":
		sourceType := deck.DetectType(*addSource)
		id, err := db.InsertSource(*addSource, sourceType)
		if err != nil {
			slog.Error("failed to add source", "path", *addSource, "error", err)
			os.Exit(1)
		}
		slog.Info("source added", "id", id, "type", sourceType, "path", *addSource)

	case *runSync:
		if err := deck.SyncAll(db, cfg.ReposDir, time.Now()); err != nil {
			slog.Error("sync failed", "error", err)
			os.Exit(1)
		}

	default:
		mode, err := session.ParseMode(cfg.Session.Mode)
		if err != nil {
			slog.Error("invalid session mode", "mode", cfg.Session.Mode, "error", err)
			os.Exit(1)
		}
		sched := srs.NewScheduler(srs.Config{DisableFuzz: cfg.Scheduler.DisableFuzz})
		defaults := web.SessionDefaults{
			Mode:           mode,
			MaxNewCards:    cfg.Session.MaxNewCards,
			MaxReviewCards: cfg.Session.MaxReviewCards,
		}
		server := web.NewServer(db, sched, defaults, cfg.ReposDir, nil)

		slog.Info("serving", "addr", cfg.ListenAddr)
		if err := http.ListenAndServe(cfg.ListenAddr, server); err != nil {
			slog.Error("server stopped", "error", err)
			os.Exit(1)
		}
	}
}
