package web

import (
	"context"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"workplanner/internal/config"
	appLog "workplanner/internal/log"
)

const shutdownTimeout = 5 * time.Second

// Serve computes the plan once, then recomputes it on cfg.RefreshCron and
// serves the latest result on cfg.Listen until ctx is canceled.
func Serve(ctx context.Context, cfg *config.Config, s *Server) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	if err := s.Refresh(ctx); err != nil {
		appLog.Error("initial planning run failed", err)
	}

	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cronLogger{}),
		cron.WithChain(cron.Recover(cronLogger{}), cron.SkipIfStillRunning(cronLogger{})),
	)
	if _, err := c.AddFunc(cfg.RefreshCron, func() {
		if err := s.Refresh(ctx); err != nil {
			appLog.Error("scheduled planning run failed", err)
		}
	}); err != nil {
		return errors.Wrapf(err, "refresh schedule %q", cfg.RefreshCron)
	}
	c.Start()
	defer func() {
		<-c.Stop().Done()
	}()

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+cfg.Listen, "refresh", cfg.RefreshCron)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	appLog.Info("shutting down HTTP server")
	return srv.Shutdown(shutdownCtx)
}

// cronLogger adapts the application log to cron.Logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	appLog.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	appLog.Error("cron: "+msg, err, keysAndValues...)
}
