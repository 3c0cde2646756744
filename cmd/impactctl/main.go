package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	// Drivers
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"

	// Instrumentation
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	// Internal
	"github.com/tazminur12/volunter-sub001/config"
	"github.com/tazminur12/volunter-sub001/internal/adapters/primary/cli"
	"github.com/tazminur12/volunter-sub001/internal/adapters/primary/events"
	"github.com/tazminur12/volunter-sub001/internal/adapters/secondary/eventbroker"
	"github.com/tazminur12/volunter-sub001/internal/adapters/secondary/genai"
	"github.com/tazminur12/volunter-sub001/internal/adapters/secondary/identity"
	"github.com/tazminur12/volunter-sub001/internal/adapters/secondary/imagehost"
	"github.com/tazminur12/volunter-sub001/internal/adapters/secondary/rest"
	"github.com/tazminur12/volunter-sub001/internal/adapters/secondary/tokenstore"
	"github.com/tazminur12/volunter-sub001/internal/core/ports"
	qc "github.com/tazminur12/volunter-sub001/internal/core/querycache"
	"github.com/tazminur12/volunter-sub001/internal/core/services"
	"github.com/tazminur12/volunter-sub001/internal/util"
)

const serviceName = "impactctl"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "impactctl:", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Config & Logger
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	initLogger(cfg)
	slog.Debug("🚀 Starting impactctl", "config", cfg.Redacted())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Telemetry (tracing)
	if cfg.OtelEndpoint != "" {
		tp, err := initTracer(ctx, cfg)
		if err != nil {
			slog.Error("Failed to init tracer", "error", err)
		} else {
			defer func() { _ = tp.Shutdown(context.Background()) }()
		}
	}

	clock := util.NewRealClock()

	// 3. Session token store: redis when configured, memory otherwise
	tokens, closeTokens := initTokenStore(ctx, cfg, clock)
	defer closeTokens()

	// 4. Backend REST adapters
	api, err := rest.NewClient(cfg.APIBaseURL, tokens, rest.WithTimeout(cfg.RequestTimeout))
	if err != nil {
		return err
	}
	sessionAPI := rest.NewSessionAPI(api)
	feedAPI := rest.NewFeedAPI(api)
	opportunityAPI := rest.NewOpportunityAPI(api)
	volunteerAPI := rest.NewVolunteerAPI(api)
	ratingAPI := rest.NewRatingAPI(api)

	// 5. Third-party hosts
	provider, err := initIdentity(cfg)
	if err != nil {
		return err
	}
	images, err := thirdParty(imagehost.DefaultEndpoint, cfg.RequestTimeout)
	if err != nil {
		return err
	}
	gemini, err := thirdParty(genai.DefaultEndpoint, cfg.RequestTimeout)
	if err != nil {
		return err
	}

	// 6. Core
	session := services.NewSession(provider, sessionAPI, sessionAPI, tokens)
	cache := qc.New(qc.WithStaleTime(cfg.CacheStaleTime), qc.WithClock(clock))
	feed := services.NewFeedService(feedAPI, session, cache)
	svc := cli.Services{
		Session:       session,
		Feed:          feed,
		Opportunities: services.NewOpportunityService(opportunityAPI, session, clock),
		Volunteers:    services.NewVolunteerService(volunteerAPI, opportunityAPI, session, clock),
		Ratings:       services.NewRatingService(ratingAPI, session),
		Media:         services.NewMediaService(imagehost.NewImgBB(images, cfg.ImgBBEndpoint, cfg.ImgBBAPIKey)),
		Chat: services.NewChatService(
			genai.NewGemini(gemini, cfg.GeminiEndpoint, cfg.GeminiModel, cfg.GeminiAPIKey),
			clock, cfg.ChatWindow),
	}

	// 7. Cross-session invalidation over NATS (optional)
	if cfg.NatsUrl != "" {
		nc, err := initEvents(cfg, feed)
		if err != nil {
			slog.Warn("⚠️ Feed events disabled", "error", err)
		} else {
			defer nc.Drain()
		}
	}

	session.Start(ctx)
	defer session.Close()

	// 8. Interactive shell
	app := cli.New(svc, os.Stdout)
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx, os.Stdin) }()

	select {
	case err := <-done:
		slog.Debug("👋 Bye")
		return err
	case <-ctx.Done():
		slog.Info("🛑 Interrupted, shutting down")
		return nil
	}
}

// --- Helpers ---

func initLogger(cfg *config.Config) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if cfg.Env == "local" {
		opts.Level = slog.LevelDebug
	}
	// stderr keeps the shell output on stdout clean
	var handler slog.Handler
	if cfg.Env == "local" {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

func initTracer(ctx context.Context, cfg *config.Config) (*sdktrace.TracerProvider, error) {
	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.OtelEndpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	res, _ := resource.New(ctx,
		resource.WithAttributes(
			attribute.String("service.name", serviceName),
			attribute.String("deployment.environment", cfg.Env),
		),
	)

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	return tp, nil
}

func initTokenStore(ctx context.Context, cfg *config.Config, clock util.Clock) (ports.TokenStore, func()) {
	if cfg.RedisAddr == "" {
		return tokenstore.NewMemoryStore(clock), func() {}
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisotel.InstrumentTracing(rdb); err != nil {
		slog.Warn("⚠️ Redis tracing disabled", "error", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		slog.Warn("⚠️ Redis unreachable, the session will not survive a restart", "addr", cfg.RedisAddr, "error", err)
		_ = rdb.Close()
		return tokenstore.NewMemoryStore(clock), func() {}
	}
	slog.Debug("✅ Connected to Redis", "addr", cfg.RedisAddr)
	return tokenstore.NewRedisStore(rdb, cfg.TokenKey, clock), func() { _ = rdb.Close() }
}

func initIdentity(cfg *config.Config) (ports.IdentityProvider, error) {
	if cfg.FirebaseAPIKey == "" {
		slog.Debug("🔑 Using the local identity provider")
		return identity.NewLocal(nil), nil
	}
	client, err := rest.NewClient(cfg.FirebaseEndpoint, nil, rest.WithTimeout(cfg.RequestTimeout))
	if err != nil {
		return nil, fmt.Errorf("firebase endpoint: %w", err)
	}
	return identity.NewFirebase(client, cfg.FirebaseAPIKey, identity.StaticGoogleToken(cfg.GoogleIDToken)), nil
}

// thirdParty builds a client for a host that gets no backend token.
func thirdParty(endpoint string, timeout time.Duration) (*rest.Client, error) {
	return rest.NewClient(endpoint, nil, rest.WithTimeout(timeout))
}

func initEvents(cfg *config.Config, feed *services.FeedService) (*nats.Conn, error) {
	nc, err := nats.Connect(cfg.NatsUrl, nats.Name(serviceName))
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	origin := uuid.NewString()
	feed.SetPublisher(eventbroker.NewNatsPublisher(nc, origin))
	if _, err := events.NewEventHandler(feed, origin).Subscribe(nc); err != nil {
		nc.Close()
		return nil, err
	}
	slog.Debug("✅ Connected to NATS", "url", cfg.NatsUrl)
	return nc, nil
}
