package main

import (
	"context"
	"github.com/icinga/icinga-livestatus/internal"
	"github.com/icinga/icinga-livestatus/internal/command"
	"github.com/icinga/icinga-livestatus/pkg/core"
	"github.com/icinga/icinga-livestatus/pkg/crashreport"
	"github.com/icinga/icinga-livestatus/pkg/eventconsole"
	"github.com/icinga/icinga-livestatus/pkg/history"
	"github.com/icinga/icinga-livestatus/pkg/livestatus"
	"github.com/icinga/icinga-livestatus/pkg/logwatch"
	"github.com/icinga/icinga-livestatus/pkg/periodic"
	"github.com/icinga/icinga-livestatus/pkg/retention"
	"github.com/icinga/icinga-livestatus/pkg/tables"
	"github.com/okzk/sdnotify"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const (
	ExitSuccess = 0
	ExitFailure = 1
)

func main() {
	os.Exit(run())
}

func run() int {
	cmd := command.New()
	logs := cmd.Logging
	logger := cmd.Logger
	defer func() { _ = logger.Sync() }()

	logger.Infof("Starting Icinga Livestatus daemon (%s)", internal.Version.Version)

	ctx, cancelCtx := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancelCtx()

	objects, loader, backend, err := cmd.Backend(ctx)
	if err != nil {
		logger.Fatalf("%+v", errors.Wrap(err, "can't load objects of the monitoring core"))
	}
	defer func() { _ = backend.Close() }()

	store := retention.NewStore()
	retentionSync := retention.Sync(
		ctx, store, loader, cmd.Config.Core.RefreshInterval, logs.GetChildLogger("retention"),
	)
	defer retentionSync.Stop()

	hist, err := history.NewLog(&cmd.Config.History, logs.GetChildLogger("history"))
	if err != nil {
		logger.Fatalf("%+v", errors.Wrap(err, "can't open history log"))
	}
	defer func() { _ = hist.Close() }()
	hist.Schedule(hist.NextRotation(time.Now()))

	lsLogger := logs.GetChildLogger("livestatus")
	index := livestatus.NewIndex(objects, lsLogger)
	associations := livestatus.NewAssociations(store)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	stats := livestatus.NewStats(registry, index, livestatus.StatsOptions{
		Threads:         cmd.Config.Listen.Threads,
		ProgramStart:    objects.ProgramStart,
		Version:         internal.Version.Version,
		LastLogRotation: hist.LastRotation,
	})

	crashReports := crashreport.NewStore(cmd.Config.Paths.CrashReportsDir, lsLogger)
	dispatcher := livestatus.NewDispatcher(
		core.NewCommandPipe(cmd.Config.Core.CommandPipe, hist, logs.GetChildLogger("core")),
		logwatch.NewAcknowledger(cmd.Config.Paths.LogwatchDir, lsLogger),
		crashReports,
		eventconsole.NewClient(cmd.Config.Paths.EventConsole, cmd.Config.Paths.EventTimeout),
		lsLogger,
		livestatus.WithStats(stats),
	)
	executor := tables.NewExecutor(index, associations, stats, crashReports, lsLogger)
	engine := livestatus.NewEngine(executor, dispatcher, hist, stats, lsLogger)
	server := livestatus.NewServer(engine, stats, cmd.Config.Listen.ServerOptions, logs.GetChildLogger("server"))

	listeners, err := listen(cmd.Config.Listen.Socket, cmd.Config.Listen.Address, cmd.Config.Listen.FileMode)
	if err != nil {
		logger.Fatalf("%+v", err)
	}

	g, ctx := errgroup.WithContext(ctx)

	for _, l := range listeners {
		g.Go(func() error {
			return server.Serve(ctx, l)
		})
	}

	if addr := cmd.Config.Metrics.Address; addr != "" {
		serveMetrics(ctx, g, addr, registry, logger.SugaredLogger)
	}

	statsLogger := periodic.Start(ctx, logger.Interval(), func(periodic.Tick) {
		if connections, requests, commands := stats.Since(); connections > 0 {
			logger.Infof(
				"Answered %d requests and dispatched %d commands on %d connections in the last %s",
				requests, commands, connections, logger.Interval(),
			)
		}
	}, periodic.OnStop(func(tick periodic.Tick) {
		logger.Infof("Answered %d requests in %s", stats.Requests(), tick.Elapsed)
	}))
	defer statsLogger.Stop()

	_ = sdnotify.Ready()

	err = g.Wait()
	_ = sdnotify.Stopping()

	if err != nil {
		logger.Errorf("%+v", err)
		return ExitFailure
	}

	logger.Info("Exiting")

	return ExitSuccess
}

// listen opens the Unix domain socket and the TCP listener configured.
func listen(socket, address string, mode func() (os.FileMode, error)) ([]net.Listener, error) {
	var listeners []net.Listener

	if socket != "" {
		m, err := mode()
		if err != nil {
			return nil, err
		}

		l, err := livestatus.ListenUnix(socket, m)
		if err != nil {
			return nil, err
		}

		listeners = append(listeners, l)
	}

	if address != "" {
		l, err := net.Listen("tcp", address)
		if err != nil {
			for _, l := range listeners {
				_ = l.Close()
			}

			return nil, errors.Wrapf(err, "can't listen on %q", address)
		}

		listeners = append(listeners, l)
	}

	return listeners, nil
}

// serveMetrics serves the collectors of registry at http://addr/metrics until ctx is done.
func serveMetrics(ctx context.Context, g *errgroup.Group, addr string, registry *prometheus.Registry, logger *zap.SugaredLogger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	g.Go(func() error {
		logger.Infof("Serving metrics at http://%s/metrics", addr)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "can't serve metrics")
		}

		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	})
}
