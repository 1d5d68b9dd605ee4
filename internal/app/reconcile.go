package app

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/blackwell-systems/gameshelf/internal/metrics"
	"github.com/blackwell-systems/gameshelf/internal/scan"
	"github.com/blackwell-systems/gameshelf/internal/util"
)

const shutdownTimeout = 10 * time.Second

func newReconcileCmd() *cobra.Command {
	var (
		once  bool
		apply bool
	)

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Run the orphan scans on a schedule",
		Long: `Run the flat-file orphan scan, empty-folder pruning and the orphan-record
scan on reconcile.schedule (cron syntax, default @daily) until interrupted.

Deletions happen only when reconcile.apply is true or --apply is given.
Prometheus metrics are served on reconcile.metrics_addr at /metrics.

With --once a single pass runs in the foreground and its report is printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("apply") {
				cfg.Reconcile.Apply = apply
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			m := metrics.New(reg)

			rt, err := openRuntime(m)
			if err != nil {
				return err
			}
			defer rt.Close()

			r := &reconciler{sc: rt.scanner(), apply: cfg.Reconcile.Apply, lockPath: cfg.Reconcile.LockFile, log: rt.log.Named("reconcile")}

			if once {
				pass, err := r.run(cmd.Context())
				if pass != nil {
					printLine(renderPass(pass))
				}
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()
			return r.serve(ctx, cfg.Reconcile.Schedule, cfg.Reconcile.MetricsAddr, reg)
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "Run one pass and exit")
	cmd.Flags().BoolVar(&apply, "apply", false, "Delete orphans (overrides reconcile.apply)")
	return cmd
}

type reconciler struct {
	sc       *scan.Scanner
	apply    bool
	lockPath string
	log      *zap.Logger
}

// run executes one pass under the job lock.
func (r *reconciler) run(ctx context.Context) (*scan.Pass, error) {
	lock, err := util.AcquireLock(r.lockPath)
	if err != nil {
		return nil, err
	}
	defer lock.Release()

	pass, err := r.sc.Reconcile(ctx, r.apply)
	if err != nil {
		r.log.Error("reconcile pass failed", zap.Error(err))
		return pass, err
	}

	for _, res := range pass.Results {
		r.log.Info("orphans deleted",
			zap.String("category", res.Category),
			zap.Int("deleted", res.Deleted),
			zap.Int("failed", res.Failed),
			zap.Int("skipped", res.Skipped))
	}
	return pass, nil
}

// serve schedules passes and serves metrics until ctx is canceled.
func (r *reconciler) serve(ctx context.Context, schedule, addr string, reg *prometheus.Registry) error {
	c := cron.New(
		cron.WithLogger(cronLogger{r.log.Sugar()}),
		cron.WithChain(cron.SkipIfStillRunning(cronLogger{r.log.Sugar()})),
	)
	if _, err := c.AddFunc(schedule, func() {
		if _, err := r.run(ctx); errors.Is(err, util.ErrLocked) {
			r.log.Warn("skipping pass", zap.Error(err))
		}
	}); err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	c.Start()
	r.log.Info("reconciler started",
		zap.String("schedule", schedule),
		zap.String("metrics_addr", addr),
		zap.Bool("apply", r.apply))

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-serveErr:
	}

	r.log.Info("reconciler stopping")
	<-c.Stop().Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
