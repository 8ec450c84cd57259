package background

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	expireBatchSize     = 100
	limiterIdleTimeout  = 10 * time.Minute
	limiterPruneEvery   = 10 * time.Minute
	defaultWarmInterval = 5 * time.Minute
)

// OrderExpirer cancels pending orders placed before a cutoff.
type OrderExpirer interface {
	ExpireStale(ctx context.Context, placedBefore time.Time, batchSize int) (int, error)
}

// DomainWarmer loads serving tenants into the domain cache.
type DomainWarmer interface {
	WarmDomainCache(ctx context.Context) (int, error)
}

// LimiterPruner drops idle per-client rate limiters.
type LimiterPruner interface {
	Prune(maxIdle time.Duration) int
}

// Config controls job intervals.
type Config struct {
	PendingOrderTTL     time.Duration
	OrderExpiryInterval time.Duration
	DomainWarmInterval  time.Duration
}

// JobScheduler runs the marketplace housekeeping jobs
type JobScheduler struct {
	scheduler gocron.Scheduler
	orders    OrderExpirer
	tenants   DomainWarmer
	limiter   LimiterPruner
	cfg       Config
	logger    *zap.Logger
	tracer    trace.Tracer
	now       func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
}

type job struct {
	name     string
	interval time.Duration
	task     func()
}

// NewJobScheduler creates the scheduler and registers every job. limiter may be nil.
func NewJobScheduler(orders OrderExpirer, tenants DomainWarmer, limiter LimiterPruner, cfg Config, logger *zap.Logger) (*JobScheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	if cfg.DomainWarmInterval <= 0 {
		cfg.DomainWarmInterval = defaultWarmInterval
	}

	ctx, cancel := context.WithCancel(context.Background())
	js := &JobScheduler{
		scheduler: scheduler,
		orders:    orders,
		tenants:   tenants,
		limiter:   limiter,
		cfg:       cfg,
		logger:    logger,
		tracer:    otel.Tracer("digimall/jobs"),
		now:       time.Now,
		ctx:       ctx,
		cancel:    cancel,
	}

	if err := js.registerJobs(); err != nil {
		cancel()
		_ = scheduler.Shutdown()
		return nil, err
	}
	return js, nil
}

func (js *JobScheduler) Start() {
	js.logger.Info("starting background job scheduler", zap.Int("jobs", len(js.scheduler.Jobs())))
	js.scheduler.Start()
}

// Stop cancels running jobs and waits for them to return.
func (js *JobScheduler) Stop() error {
	js.logger.Info("stopping background job scheduler")
	js.cancel()
	return js.scheduler.Shutdown()
}

// JobNames lists the registered jobs.
func (js *JobScheduler) JobNames() []string {
	jobs := js.scheduler.Jobs()
	names := make([]string, 0, len(jobs))
	for _, j := range jobs {
		names = append(names, j.Name())
	}
	return names
}

func (js *JobScheduler) registerJobs() error {
	jobs := []job{
		{"expire-pending-orders", js.cfg.OrderExpiryInterval, js.traced("expire-pending-orders", js.ExpirePendingOrders)},
		{"warm-tenant-domains", js.cfg.DomainWarmInterval, js.traced("warm-tenant-domains", js.WarmTenantDomains)},
	}
	if js.limiter != nil {
		jobs = append(jobs, job{"prune-rate-limiters", limiterPruneEvery, js.PruneRateLimiters})
	}

	for _, j := range jobs {
		if j.interval <= 0 {
			return fmt.Errorf("job %s: interval must be positive", j.name)
		}
		if _, err := js.scheduler.NewJob(
			gocron.DurationJob(j.interval),
			gocron.NewTask(j.task),
			gocron.WithName(j.name),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		); err != nil {
			return fmt.Errorf("failed to register job %s: %w", j.name, err)
		}
	}
	return nil
}

// traced runs fn inside a span named after the job.
func (js *JobScheduler) traced(name string, fn func(context.Context) int) func() {
	return func() {
		ctx, span := js.tracer.Start(js.ctx, "job."+name)
		defer span.End()
		span.SetAttributes(attribute.Int("job.processed", fn(ctx)))
	}
}

// ExpirePendingOrders cancels pending orders older than the configured TTL.
func (js *JobScheduler) ExpirePendingOrders(ctx context.Context) int {
	cutoff := js.now().Add(-js.cfg.PendingOrderTTL)
	count, err := js.orders.ExpireStale(ctx, cutoff, expireBatchSize)
	if err != nil {
		js.logger.Error("pending order expiry failed", zap.Time("cutoff", cutoff), zap.Error(err))
		return count
	}
	if count > 0 {
		js.logger.Info("expired pending orders", zap.Int("count", count), zap.Time("cutoff", cutoff))
	}
	return count
}

func (js *JobScheduler) WarmTenantDomains(ctx context.Context) int {
	count, err := js.tenants.WarmDomainCache(ctx)
	if err != nil {
		js.logger.Warn("tenant domain cache warm-up failed", zap.Error(err))
		return count
	}
	js.logger.Debug("tenant domain cache warmed", zap.Int("tenants", count))
	return count
}

func (js *JobScheduler) PruneRateLimiters() {
	if removed := js.limiter.Prune(limiterIdleTimeout); removed > 0 {
		js.logger.Debug("pruned idle rate limiters", zap.Int("removed", removed))
	}
}
