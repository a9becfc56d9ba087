package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/conference-central/internal/cache"
	"github.com/iliyamo/conference-central/internal/config"
	"github.com/iliyamo/conference-central/internal/database"
	"github.com/iliyamo/conference-central/internal/mailer"
	"github.com/iliyamo/conference-central/internal/metrics"
	"github.com/iliyamo/conference-central/internal/queue"
	"github.com/iliyamo/conference-central/internal/repository"
	"github.com/iliyamo/conference-central/internal/service"
	"github.com/iliyamo/conference-central/internal/store"
	"github.com/iliyamo/conference-central/internal/store/memory"
)

// newLogger builds the process logger from LOG_FORMAT and LOG_LEVEL.
func newLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	hopts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	var h slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		h = slog.NewJSONHandler(w, hopts)
	} else {
		h = slog.NewTextHandler(w, hopts)
	}
	return slog.New(h)
}

// app holds the long-lived dependencies of a command. close releases
// them in reverse order of acquisition.
type app struct {
	cfg      config.Config
	log      *slog.Logger
	registry *prometheus.Registry
	metrics  *metrics.Metrics

	db    *sql.DB
	redis *redis.Client
	store store.Store
	cache cache.Cache
	svc   *service.Services

	inline  *queue.Inline
	closers []func() error
}

func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	a := &app{cfg: cfg, log: newLogger(os.Stderr, cfg.Log)}
	slog.SetDefault(a.log)

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.metrics = metrics.New(a.registry)

	if err := a.openStore(ctx); err != nil {
		a.close()
		return nil, err
	}
	a.openCache(ctx)

	tasks := a.dispatcher()
	a.svc = service.New(service.Deps{
		Store:          a.store,
		Cache:          a.cache,
		Tasks:          tasks,
		Metrics:        a.metrics,
		Log:            a.log,
		MaxAttempts:    cfg.Tx.MaxAttempts,
		InitialBackoff: cfg.Tx.InitialBackoff,
	})
	return a, nil
}

func (a *app) openStore(ctx context.Context) error {
	if a.cfg.StoreBackend == config.StoreMemory {
		a.log.Warn("using in-memory store; data is lost on exit")
		a.store = memory.New()
		return nil
	}
	db, err := database.Open(ctx, a.cfg.DB)
	if err != nil {
		return err
	}
	a.db = db
	a.closers = append(a.closers, db.Close)
	if a.cfg.DB.Migrate {
		if err := database.Migrate(ctx, db); err != nil {
			return err
		}
	}
	a.store = repository.NewStore(db)
	return nil
}

func (a *app) openCache(ctx context.Context) {
	a.redis = config.NewRedisClient(ctx, a.cfg.Redis)
	if a.redis == nil {
		if a.cfg.Redis.Addr != "" {
			a.log.Warn("redis unreachable; falling back to in-memory cache", "addr", a.cfg.Redis.Addr)
		}
		a.cache = cache.NewMemory()
		return
	}
	a.closers = append(a.closers, a.redis.Close)
	a.cache = cache.NewRedis(a.redis, "cc")
}

// taskHandlers routes background tasks to their consumers.
func (a *app) taskHandlers() *queue.Mux {
	mux := queue.NewMux()
	mux.Register(queue.TaskConfirmationEmail, mailer.NewOutbox(a.cfg.Mail.OutboxPath, a.cfg.Mail.From, a.log))
	// the featured-speaker handler is bound lazily because svc is built
	// after the dispatcher
	mux.Register(queue.TaskFeaturedSpeaker, queue.HandlerFunc(func(ctx context.Context, t queue.Task) error {
		return a.svc.Featured.Handle(ctx, t)
	}))
	return mux
}

// dispatcher publishes to RabbitMQ when configured and otherwise runs
// tasks in-process.
func (a *app) dispatcher() queue.Dispatcher {
	if a.cfg.Queue.URL != "" {
		d := queue.NewAMQPDispatcher(a.cfg.Queue.URL, a.cfg.Queue.Name, a.log)
		a.closers = append(a.closers, d.Close)
		return d
	}
	a.log.Info("RABBITMQ_URL not set; running background tasks in-process")
	a.inline = queue.NewInline(a.taskHandlers(), a.log)
	return a.inline
}

func (a *app) close() error {
	if a.inline != nil {
		a.inline.Wait()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	return nil
}
