package app

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/xenking/foodhub-client/internal/api"
	"github.com/xenking/foodhub-client/internal/auth"
	"github.com/xenking/foodhub-client/internal/domain/cart"
	"github.com/xenking/foodhub-client/internal/domain/listquery"
	"github.com/xenking/foodhub-client/internal/domain/order"
	"github.com/xenking/foodhub-client/internal/notify"
	"github.com/xenking/foodhub-client/internal/storage"
	"github.com/xenking/foodhub-client/internal/storage/file"
	"github.com/xenking/foodhub-client/internal/storage/memory"
	"github.com/xenking/foodhub-client/internal/storage/postgres"
	"github.com/xenking/foodhub-client/internal/storage/redis"
	"github.com/xenking/foodhub-client/internal/upload"
	"github.com/xenking/foodhub-client/pkg/health"
	"github.com/xenking/foodhub-client/pkg/transport"
)

// Options carries the process-wide dependencies.
type Options struct {
	Logger         *zap.Logger
	MeterProvider  metric.MeterProvider
	TracerProvider trace.TracerProvider
	// Out receives notifications and command output.
	Out io.Writer
	// HTTPTransport is the innermost round tripper. Defaults to
	// http.DefaultTransport.
	HTTPTransport http.RoundTripper
	// Store overrides the configured store backend.
	Store storage.KV
}

// App holds the wired client components for one invocation.
type App struct {
	Config   *Config
	Log      *zap.Logger
	Out      io.Writer
	Notifier notify.Notifier

	HTTP     *http.Client
	API      *api.Client
	Auth     *auth.Client
	Store    storage.KV
	Cart     *cart.Store
	Orders   *order.Service
	Checkout *order.Checkout
	Uploader upload.Uploader

	meters  metric.MeterProvider
	tracers trace.TracerProvider
	closers []func()
}

// New creates all dependencies. It is the single wiring point for the
// client.
func New(ctx context.Context, cfg *Config, opts Options) (*App, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.MeterProvider == nil {
		opts.MeterProvider = metricnoop.NewMeterProvider()
	}
	if opts.TracerProvider == nil {
		opts.TracerProvider = tracenoop.NewTracerProvider()
	}
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	if opts.HTTPTransport == nil {
		opts.HTTPTransport = http.DefaultTransport
	}
	lg := opts.Logger

	a := &App{
		Config:  cfg,
		Log:     lg,
		Out:     opts.Out,
		meters:  opts.MeterProvider,
		tracers: opts.TracerProvider,
	}
	a.Notifier = notify.Multi(notify.NewWriter(opts.Out), notify.Log(lg.Named("notify")))

	// Outbound HTTP: one cookie jar for the REST API and the auth service.
	jar, err := auth.NewJar()
	if err != nil {
		return nil, err
	}
	rt := transport.Chain(
		otelhttp.NewTransport(opts.HTTPTransport,
			otelhttp.WithMeterProvider(opts.MeterProvider),
			otelhttp.WithTracerProvider(opts.TracerProvider),
		),
		transport.RequestID(),
		transport.Logging(lg.Named("http")),
		transport.RateLimit(transport.RateLimitConfig{
			Max:    cfg.HTTP.RateLimit,
			Window: cfg.HTTP.RateLimitWindow,
		}),
	)
	a.HTTP = &http.Client{Jar: jar, Transport: rt, Timeout: cfg.HTTP.Timeout}

	a.API, err = api.New(api.Options{BaseURL: cfg.APIURL, HTTPClient: a.HTTP, Logger: lg.Named("api")})
	if err != nil {
		return nil, errors.Wrap(err, "create api client")
	}

	// Durable store for the cart and the session.
	if opts.Store != nil {
		a.Store = opts.Store
	} else if a.Store, err = a.openStore(ctx); err != nil {
		a.Close()
		return nil, errors.Wrapf(err, "open %s store", cfg.Store.Backend)
	}

	a.Auth, err = auth.New(auth.Options{
		BaseURL:    cfg.AuthURL,
		HTTPClient: a.HTTP,
		Store:      a.Store,
		Logger:     lg.Named("auth"),
	})
	if err != nil {
		a.Close()
		return nil, errors.Wrap(err, "create auth client")
	}
	a.Auth.Restore(ctx)

	a.Cart = cart.NewStore(a.Store, a.Notifier, lg.Named("cart"))
	a.Cart.Load(ctx)

	a.Orders = order.NewService(a.API, a.Notifier, lg.Named("orders"))
	a.Checkout = order.NewCheckout(a.API, a.Cart, a.Notifier, lg.Named("checkout"))
	a.Uploader = &upload.ImgBB{
		Key:    cfg.ImgBBKey,
		Client: &http.Client{Transport: rt, Timeout: cfg.HTTP.Timeout},
		Logger: lg.Named("upload"),
	}

	lg.Debug("Initialized",
		zap.String("api", cfg.APIURL),
		zap.String("auth", cfg.AuthURL),
		zap.String("store", cfg.Store.Backend),
	)
	return a, nil
}

func (a *App) openStore(ctx context.Context) (storage.KV, error) {
	cfg := a.Config.Store
	switch cfg.Backend {
	case StoreMemory:
		return memory.New(), nil
	case StoreRedis:
		s, err := redis.Dial(cfg.RedisURL, redis.Options{Prefix: "foodhub:" + cfg.Namespace})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = s.Close() })
		return s, nil
	case StorePostgres:
		pool, err := postgres.NewPool(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, pool.Close)
		if err := postgres.RunMigrations(ctx, pool); err != nil {
			return nil, err
		}
		return postgres.New(pool, cfg.Namespace), nil
	default:
		dir := cfg.Dir
		if dir == "" {
			d, err := file.DefaultDir()
			if err != nil {
				return nil, err
			}
			dir = d
		}
		return file.New(dir)
	}
}

// Close releases store connections.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// ListOptions returns controller options for a list view named name.
func (a *App) ListOptions(name string, initial listquery.Query) listquery.Options {
	return listquery.Options{
		Name:           name,
		Initial:        initial,
		PageSize:       a.Config.List.PageSize,
		Debounce:       a.Config.List.Debounce,
		Notifier:       a.Notifier,
		Logger:         a.Log.Named("list").With(zap.String("list", name)),
		ErrorMessage:   func(err error) string { return api.UserMessage(err, "Failed to load "+name) },
		MeterProvider:  a.meters,
		TracerProvider: a.tracers,
	}
}

// Doctor checks the API, the auth service and the store.
func (a *App) Doctor(ctx context.Context) health.Report {
	h := health.New()
	timeout := a.Config.HTTP.Timeout
	h.Add("api", timeout, health.HTTPCheck(a.HTTP, a.API.BaseURL()+"/categories"))
	h.Add("auth", timeout, health.PingCheck(a.Auth))
	if p, ok := a.Store.(storage.Pinger); ok {
		h.Add("store", 5*time.Second, health.PingCheck(p))
	} else {
		h.Add("store", 5*time.Second, storeRoundTrip(a.Store), health.WithAttempts(1))
	}
	return h.Run(ctx)
}

const doctorKey = "foodhub-doctor"

// storeRoundTrip checks a store that has no ping by writing and reading a
// marker value.
func storeRoundTrip(kv storage.KV) health.CheckFunc {
	return func(ctx context.Context) error {
		want := []byte(time.Now().UTC().Format(time.RFC3339Nano))
		if err := kv.Set(ctx, doctorKey, want); err != nil {
			return errors.Wrap(err, "write")
		}
		got, err := kv.Get(ctx, doctorKey)
		if err != nil {
			return errors.Wrap(err, "read")
		}
		if string(got) != string(want) {
			return errors.New("read back a different value")
		}
		return nil
	}
}
