package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/conference-central/internal/handler"
	"github.com/iliyamo/conference-central/internal/middleware"
	"github.com/iliyamo/conference-central/internal/router"
)

// NewServeCommand creates the serve command.
func NewServeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the HTTP API on APP_PORT.

When ANNOUNCEMENT_INTERVAL is set the announcement banner is refreshed on
that period in-process. Otherwise set CRON_SECRET and have an external
scheduler call POST /internal/crons/announcement with the X-Cron-Secret
header.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, opts)
		},
	}
}

func serve(ctx context.Context, opts *RootOptions) error {
	a, err := newApp(ctx, opts.cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.close(); err != nil {
			a.log.Error("shutdown", "err", err)
		}
	}()

	e := newEcho(a)
	addr := fmt.Sprintf(":%d", a.cfg.Port)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.log.Info("listening", "addr", addr, "env", a.cfg.Env, "store", a.cfg.StoreBackend)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})
	if every := a.cfg.Announcement.Interval; every > 0 {
		g.Go(func() error {
			refreshLoop(gctx, a, every)
			return nil
		})
	}
	return g.Wait()
}

// refreshLoop refreshes the announcement immediately and then on every
// tick. Failures are logged and retried on the next tick.
func refreshLoop(ctx context.Context, a *app, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		_, _ = a.svc.Announcements.Refresh(ctx)
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

func newEcho(a *app) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomw.Recover())
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			level := slog.LevelInfo
			if v.Status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("request_id", v.RequestID),
			}
			if v.Error != nil {
				attrs = append(attrs, slog.String("err", v.Error.Error()))
			}
			a.log.LogAttrs(c.Request().Context(), level, "request", attrs...)
			return nil
		},
	}))

	var health echo.HandlerFunc
	if a.db != nil {
		health = handler.Health(a.db)
	} else {
		health = handler.Health()
	}
	ann := handler.NewAnnouncementHandler(a.svc.Announcements, a.log)
	limit := middleware.NewTokenBucket(a.cfg.RateLimit, a.redis, a.log)
	router.RegisterRoutes(e, health, promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}), ann, a.cfg.Announcement.CronSecret, limit)
	router.RegisterAPI(e, router.Handlers{
		Profile:      handler.NewProfileHandler(a.svc.Profiles, a.log),
		Conference:   handler.NewConferenceHandler(a.svc, a.log),
		Session:      handler.NewSessionHandler(a.svc.Lifecycle, a.log),
		Announcement: ann,
	}, a.cfg.JWT.Secret, limit)
	return e
}
