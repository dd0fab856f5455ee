package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/zulandar/switchboard/internal/api"
	"github.com/zulandar/switchboard/internal/archive"
	"github.com/zulandar/switchboard/internal/config"
	"github.com/zulandar/switchboard/internal/desk"
	"github.com/zulandar/switchboard/internal/notify"
	"github.com/zulandar/switchboard/internal/notify/amqp"
	"github.com/zulandar/switchboard/internal/notify/discord"
	"github.com/zulandar/switchboard/internal/notify/slack"
	"github.com/zulandar/switchboard/internal/scheduler"
)

func newServeCmd(flags *globalFlags) *cobra.Command {
	var (
		configPath string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the support desk API",
		Long: `Runs the desk engine behind the JSON API.

Operators are seeded from config, resolved chats are archived to the
database, notifications are delivered to every configured sink and the
SLA sweep and daily reset run on their cron schedules.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, flags, configPath, port)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "switchboard.yaml", "path to Switchboard config file")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (overrides api.port)")
	return cmd
}

func runServe(cmd *cobra.Command, flags *globalFlags, configPath string, port int) error {
	logger, err := newLogger(cmd.ErrOrStderr(), flags.logLevel, flags.logFormat)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	store, err := migrateAndSeed(gormDB, cfg)
	if err != nil {
		return err
	}
	archiveStore, err := archive.NewGormStore(gormDB)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(cmd.OutOrStdout(), "\nReceived %s, shutting down...\n", sig)
		cancel()
	}()

	sinks, closers, err := buildSinks(ctx, cfg.Notify, logger)
	if err != nil {
		return err
	}
	defer func() {
		for _, c := range closers {
			c()
		}
	}()
	dispatcher := notify.NewDispatcher(notify.DispatcherOpts{
		QueueSize: cfg.Notify.QueueSize,
		Logger:    logger,
	}, sinks...)
	dispatchDone := make(chan struct{})
	go func() {
		dispatcher.Run(ctx)
		close(dispatchDone)
	}()
	defer func() {
		dispatcher.Close()
		<-dispatchDone
	}()

	d, err := desk.New(desk.Options{
		Roster:  store,
		Archive: archiveStore,
		Sink:    dispatcher,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	sched, err := scheduler.New(scheduler.Opts{
		DailyReset: cfg.Schedule.DailyReset,
		SLASweep:   cfg.Schedule.SLASweep,
		Roster:     store,
		Desk:       d,
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	sched.Start()
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer stopCancel()
		if err := sched.Stop(stopCtx); err != nil {
			logger.Warn("scheduler stop", slog.Any("err", err))
		}
	}()

	if port <= 0 {
		port = cfg.API.Port
	}
	logger.Info("switchboard starting",
		slog.Int("port", port),
		slog.Int("operators", len(cfg.Operators)),
		slog.Int("sinks", len(sinks)))

	return api.Start(ctx, api.StartOpts{
		Desk:   d,
		Roster: store,
		Port:   port,
		Out:    cmd.OutOrStdout(),
		Logger: logger,
	})
}

// buildSinks creates one sink per configured delivery target. The returned
// closers release broker connections.
func buildSinks(ctx context.Context, cfg config.NotifyConfig, logger *slog.Logger) ([]notify.Sink, []func(), error) {
	var (
		sinks   []notify.Sink
		closers []func()
	)
	if cfg.Command != "" {
		sinks = append(sinks, notify.Command{Template: cfg.Command})
	}
	if cfg.Slack.BotToken != "" {
		s, err := slack.New(slack.Opts{BotToken: cfg.Slack.BotToken, ChannelID: cfg.Slack.ChannelID})
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, s)
	}
	if cfg.Discord.BotToken != "" {
		s, err := discord.New(discord.Opts{BotToken: cfg.Discord.BotToken, ChannelID: cfg.Discord.ChannelID, Logger: logger})
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, s)
	}
	if cfg.AMQP.URL != "" {
		p, err := amqp.New(ctx, amqp.Opts{URL: cfg.AMQP.URL, Exchange: cfg.AMQP.Exchange, Logger: logger})
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, p)
		closers = append(closers, func() {
			if err := p.Close(); err != nil {
				logger.Warn("amqp close", slog.Any("err", err))
			}
		})
	}
	return sinks, closers, nil
}
