package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"golang.org/x/sync/errgroup"

	"realtime-service/internal/call"
	"realtime-service/internal/config"
	"realtime-service/internal/db"
	"realtime-service/internal/delivery"
	"realtime-service/internal/fabric"
	grpcserver "realtime-service/internal/grpc"
	"realtime-service/internal/handlers"
	"realtime-service/internal/middleware"
	"realtime-service/internal/models"
	"realtime-service/internal/observability"
	"realtime-service/internal/presence"
	"realtime-service/internal/push"
	"realtime-service/internal/rabbitmq"
	"realtime-service/internal/registry"
	"realtime-service/internal/repositories"
	"realtime-service/internal/signaling"
	"realtime-service/internal/state"
	"realtime-service/internal/telemetry"
	"realtime-service/internal/ws"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, cfg.OTLPEndpoint, cfg.ServiceName, cfg.Environment)
	if err != nil {
		log.Fatalf("failed to init tracing: %v", err)
	}

	database, err := db.Connect(ctx, cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}
	defer database.Close()

	userRepo := repositories.NewUserRepo(database)
	channelRepo := repositories.NewChannelRepo(database)
	messageRepo := repositories.NewMessageRepo(database)
	statusRepo := repositories.NewMessageStatusRepo(database)

	if n, err := messageRepo.CloseStaleCalls(ctx); err != nil {
		log.Printf("startup: close stale calls failed: %v", err)
	} else if n > 0 {
		log.Printf("startup: closed stale calls count=%d", n)
	}
	if n, err := userRepo.MarkAllOffline(ctx); err != nil {
		log.Printf("startup: reset presence failed: %v", err)
	} else if n > 0 {
		log.Printf("startup: marked users offline count=%d", n)
	}

	var (
		presenceCache state.Store[int, models.Presence]
		sharers       state.Store[string, int]
		remote        state.Store[string, call.RemoteControl]
		redisClient   *redis.Client
	)
	if cfg.RedisURL != "" {
		redisClient, err = state.NewRedisClient(ctx, cfg.RedisURL, cfg.RedisDB)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()

		presenceCache = state.NewRedisStore[int, models.Presence](redisClient, "realtime:presence:", 24*time.Hour, strconv.Atoi)
		sharers = state.NewRedisStore[string, int](redisClient, "realtime:call:sharer:", 12*time.Hour, parseString)
		remote = state.NewRedisStore[string, call.RemoteControl](redisClient, "realtime:call:remote:", 12*time.Hour, parseString)
		log.Printf("state: redis enabled db=%d", cfg.RedisDB)
	} else {
		log.Printf("state: in-memory stores: empty redis url")
	}

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange)
	observability.SetPublisher(publisher)
	log.Printf("rabbitmq mode=%s reason=%q", rabbitmq.PublisherMode(publisher), rabbitmq.PublisherNoopReason(publisher))

	auditEmitter := telemetry.NewAuditEmitter(publisher, cfg.AuditRoutingKey, cfg.ServiceName, cfg.Environment)
	pushDispatcher := push.NewDispatcher(publisher, cfg.PushRoutingKey)

	hub := fabric.NewHub()
	dispatcher := signaling.NewDispatcher(cfg.QueueSize)

	reg := registry.New(userRepo, state.NewMemoryStore[string, int](), state.NewMemoryStore[int, []string]())
	tracker := presence.NewTracker(userRepo, presenceCache, hub)
	if err := tracker.Reset(ctx); err != nil {
		log.Printf("startup: presence cache reset failed: %v", err)
	}
	propagator := delivery.NewPropagator(statusRepo, hub)
	coordinator := call.NewCoordinator(call.Deps{
		Users:          userRepo,
		Channels:       channelRepo,
		Messages:       messageRepo,
		Fabric:         hub,
		Online:         reg,
		Push:           pushDispatcher,
		Audit:          auditEmitter,
		Sharers:        sharers,
		Remote:         remote,
		CallingTimeout: cfg.CallingTimeout,
	})
	coordinator.SetScheduler(dispatcher.Schedule)

	eventRouter := signaling.NewRouter(reg, tracker, propagator, coordinator, channelRepo, hub)
	gateway := ws.NewGateway(hub, dispatcher, eventRouter, cfg.SendBuffer)

	checks := map[string]handlers.Check{"db": database.PingContext}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}
	presenceHandler := handlers.NewPresenceHandler(dispatcher, tracker)
	callHandler := handlers.NewCallHandler(dispatcher, coordinator)
	healthHandler := handlers.NewHealthHandler(checks)

	router := gin.Default()
	router.Use(otelgin.Middleware(cfg.ServiceName))
	router.Use(observability.HTTPMetricsMiddleware())
	router.Use(middleware.RequestIdentity())

	router.GET("/ws", gateway.Handle)
	router.GET("/presence", presenceHandler.ListPresence)
	router.GET("/presence/:user_id", presenceHandler.GetPresence)
	router.GET("/calls", callHandler.ListCalls)
	router.GET("/calls/:call_id", callHandler.GetCall)
	router.GET("/healthz", healthHandler.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	handlers.RegisterDebugRoutes(router, handlers.NewDebugHandler(auditEmitter, hub), cfg.DebugRoutes)

	httpServer := &http.Server{Addr: ":" + cfg.Port, Handler: router}

	grpcListener, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		log.Fatalf("failed to listen grpc: %v", err)
	}
	healthServer := grpcserver.NewHealthServer(cfg.ServiceName)

	loopCtx, stopLoop := context.WithCancel(context.Background())
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return dispatcher.Run(loopCtx)
	})
	g.Go(func() error {
		log.Printf("http listening addr=%s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return healthServer.Serve(grpcListener)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Printf("shutdown: draining")
		healthServer.SetServing(false)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: http: %v", err)
		}
		err := dispatcher.Do(shutdownCtx, "shutdown", func(ctx context.Context) error {
			coordinator.Shutdown(ctx)
			return nil
		})
		if err != nil {
			log.Printf("shutdown: end calls: %v", err)
		}
		hub.Close()
		stopLoop()
		healthServer.Stop()
		return nil
	})

	healthServer.SetServing(true)
	if err := g.Wait(); err != nil {
		log.Printf("server error: %v", err)
	}

	coordinator.WaitPushes()
	if err := publisher.Close(); err != nil {
		log.Printf("shutdown: rabbitmq close: %v", err)
	}
	flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := shutdownTracing(flushCtx); err != nil {
		log.Printf("shutdown: tracing: %v", err)
	}
}

func parseString(s string) (string, error) {
	return s, nil
}
