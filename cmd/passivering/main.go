package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"

	"github.com/odense-rpa/passivering-af-ungesager/internal/config"
	"github.com/odense-rpa/passivering-af-ungesager/internal/nexus"
	"github.com/odense-rpa/passivering-af-ungesager/internal/nexusdb"
	"github.com/odense-rpa/passivering-af-ungesager/internal/passivation"
	"github.com/odense-rpa/passivering-af-ungesager/internal/reporting"
	"github.com/odense-rpa/passivering-af-ungesager/internal/tracking"
	"github.com/odense-rpa/passivering-af-ungesager/internal/workqueue"
	"github.com/odense-rpa/passivering-af-ungesager/pkg/clog"
)

var (
	app           = kingpin.New("passivering", "Automated passivation of youth welfare cases")
	populateQueue = app.Flag("queue", "Reset the work queue and repopulate it from the activity list, then exit").Bool()
)

func main() {
	kingpin.MustParse(app.Parse(os.Args[1:]))

	env, err := config.LoadEnv()
	if err != nil {
		slog.Error("failed to load env", "error", err)
		os.Exit(1)
	}

	// Setup logger
	level := env.SlogLevel()
	var handler slog.Handler
	if env.Env == "local" {
		handler = clog.NewTextHandler(os.Stderr, clog.WithLevel(level))
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}
	slog.SetDefault(slog.New(clog.NewAttributesHandler(handler)))

	rules, err := passivation.LoadRules(env.RulesEnv.File)
	if err != nil {
		slog.Error("failed to load rules", "error", err)
		os.Exit(1)
	}

	// Setup clients
	nexusClient := nexus.NewInstanceClient(env.NexusEnv.Instance, env.NexusEnv.ClientID, env.NexusEnv.ClientSecret)

	directory, err := nexusdb.NewClient(env.NexusDatabaseEnv.DSN)
	if err != nil {
		slog.Error("failed to create nexus database client", "error", err)
		os.Exit(1)
	}
	defer directory.Close()

	tracker, err := tracking.NewTracker(env.TrackingEnv.DSN)
	if err != nil {
		slog.Error("failed to create tracker", "error", err)
		os.Exit(1)
	}
	defer tracker.Close()

	queue := workqueue.NewClient(env.WorkqueueEnv.URL, env.WorkqueueEnv.APIKey, env.WorkqueueEnv.Name)
	reporter := reporting.NewReporter(env.ReportingEnv.URL, env.ReportingEnv.APIKey)

	service := passivation.NewService(rules, nexusClient, directory)
	populator := passivation.NewPopulator(rules, nexusClient, queue)
	processor := passivation.NewProcessor(rules, queue, nexusClient, service, reporter, tracker)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	// Queue management
	if *populateQueue {
		if err := queue.Clear(ctx, workqueue.StatusNew); err != nil {
			slog.Error("failed to clear work queue", "error", err)
			os.Exit(1)
		}
		if err := populator.Populate(ctx); err != nil {
			slog.Error("failed to populate work queue", "error", err)
			os.Exit(1)
		}
		return
	}

	// Process workqueue
	if err := processor.Process(ctx); err != nil {
		slog.Error("work queue processing aborted", "error", err)
		os.Exit(1)
	}
}
